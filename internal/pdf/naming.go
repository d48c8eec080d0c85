// Package pdf turns downloaded chapter images into per-chapter PDF files
// and merges finished chapters into bundles.
package pdf

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	chapterTokenRe = regexp.MustCompile(`Chapter_(\d{3}(?:_\d+)?|\d+(?:\.\d+)?)`)
	chapterRangeRe = regexp.MustCompile(`Chapter_(\d{3}(?:_\d+)?|\d+(?:\.\d+)?)-(\d{3}(?:_\d+)?|\d+(?:\.\d+)?)`)
	urlChapterRe   = regexp.MustCompile(`-ch-(\d+(?:\.\d+)?)`)
	trailingNumRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)/?$`)
	titleChapterRe = regexp.MustCompile(`(?i)chapter\s+(\d+(?:\.\d+)?)`)
)

// FormatChapter renders a chapter number as a sortable filename token:
// 12 becomes "012", 12.5 becomes "012_5".
func FormatChapter(num float64) string {
	whole := int(num)
	s := fmt.Sprintf("%03d", whole)
	if frac := num - float64(whole); frac > 0 {
		dec := strconv.FormatFloat(num, 'f', -1, 64)
		if i := strings.IndexByte(dec, '.'); i >= 0 {
			s += "_" + dec[i+1:]
		}
	}
	return s
}

// tokenValue parses a filename token back into its numeric chapter value.
// Both the padded form ("012_5") and the plain form ("12.5") are accepted.
func tokenValue(tok string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(tok, "_", "."), 64)
}

// ChapterBaseName builds the canonical stem for a chapter's output files.
func ChapterBaseName(num float64, title string) string {
	base := "Chapter_" + FormatChapter(num)
	if title != "" {
		base += " - " + title
	}
	return base
}

// ParseBounds extracts the chapter range covered by a PDF filename.
// Single chapters report identical start and end. ok is false when the
// name carries no recognizable chapter token.
func ParseBounds(filename string) (start, end float64, ok bool) {
	name := filepath.Base(filename)
	if m := chapterRangeRe.FindStringSubmatch(name); m != nil {
		s, err1 := tokenValue(m[1])
		e, err2 := tokenValue(m[2])
		if err1 == nil && err2 == nil {
			return s, e, true
		}
	}
	if m := chapterTokenRe.FindStringSubmatch(name); m != nil {
		if v, err := tokenValue(m[1]); err == nil {
			return v, v, true
		}
	}
	return 0, 0, false
}

// IsMergedName reports whether the filename already names a chapter range.
func IsMergedName(filename string) bool {
	return chapterRangeRe.MatchString(filepath.Base(filename))
}

// TitleSuffix returns the free-text part after the chapter token, without
// the extension. "Chapter_003 - Solo Camp.pdf" yields "Solo Camp".
func TitleSuffix(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if _, after, found := strings.Cut(name, " - "); found {
		return after
	}
	return ""
}

// ChapterNumber derives a chapter number from a page URL, falling back to
// the page title. ok is false when neither yields a number.
func ChapterNumber(pageURL, title string) (float64, bool) {
	if m := urlChapterRe.FindStringSubmatch(pageURL); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	trimmed := strings.Split(pageURL, "?")[0]
	if m := trailingNumRe.FindStringSubmatch(trimmed); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	if m := titleChapterRe.FindStringSubmatch(title); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
