package downloader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// detectFormat sniffs the payload's magic bytes. Servers routinely lie in
// Content-Type, so the body is the only thing we trust.
func detectFormat(data []byte) string {
	switch {
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "jpeg"
	case len(data) > 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case len(data) > 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	case len(data) > 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	default:
		return ""
	}
}

func decodeImage(data []byte) (image.Image, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unrecognized image payload (%d bytes)", len(data))
	}
	var img image.Image
	var err error
	if format == "webp" {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decoded %s has empty bounds %v", format, b)
	}
	return img, nil
}

// prepare normalizes a decoded image for PDF assembly: alpha flattened onto
// white, downscaled to maxWidth when wider, optionally grayscaled.
func prepare(img image.Image, maxWidth int, grayscale bool) image.Image {
	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
	out := image.Image(flat)
	if maxWidth > 0 && b.Dx() > maxWidth {
		out = imaging.Resize(out, maxWidth, 0, imaging.Lanczos)
	}
	if grayscale {
		out = imaging.Grayscale(out)
	}
	return out
}
