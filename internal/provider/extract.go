package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// lazy-loading attribute fallbacks, checked in order after src
var lazyAttrs = []string{"data-src", "data-lazy-src", "data-original", "srcset"}

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

var chapterHeading = regexp.MustCompile(`(?i)Chapter\s+(\d+(?:\.\d+)?)`)

// ParseChapterHTML extracts chapter content from a (rendered) chapter page.
// The reader-pane images come first in DOM order, which is the reading
// order; duplicates are dropped while preserving the first occurrence.
func ParseChapterHTML(html, pageURL string) (*ChapterContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse chapter page: %w", err)
	}

	content := &ChapterContent{
		Title:     extractTitle(doc),
		ImageURLs: extractImageURLs(doc),
		NextURL:   extractNextURL(doc, pageURL),
	}

	return content, nil
}

func extractImageURLs(doc *goquery.Document) []string {
	// reader panes mark page images with full-size classes; fall back to
	// every img tag when the site uses other markup
	imgs := doc.Find("img.w-full.h-full")
	if imgs.Length() == 0 {
		imgs = doc.Find("img")
	}

	var out []string
	seen := map[string]bool{}

	imgs.Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			for _, attr := range lazyAttrs {
				if v, ok := s.Attr(attr); ok && v != "" {
					if attr == "srcset" {
						// "url 2x, url2 3x": first URL wins
						if fields := strings.Fields(strings.Split(v, ",")[0]); len(fields) > 0 {
							v = fields[0]
						}
					}
					src = v
					break
				}
			}
		}
		if src == "" {
			return
		}

		src = CleanImageURL(src)
		if !strings.HasPrefix(strings.ToLower(src), "http") {
			return
		}
		if !looksLikeChapterImage(src) {
			return
		}
		if seen[src] {
			return
		}
		seen[src] = true
		out = append(out, src)
	})

	return out
}

func looksLikeChapterImage(src string) bool {
	low := strings.ToLower(src)
	for _, ext := range imageExts {
		if strings.HasSuffix(low, ext) {
			return true
		}
	}
	return strings.Contains(low, "/media/")
}

// CleanImageURL strips query parameters from an image source, since CDNs
// append volatile tokens that break deduplication.
func CleanImageURL(src string) string {
	if src == "" {
		return src
	}
	if i := strings.IndexByte(src, '?'); i >= 0 {
		src = src[:i]
	}
	return strings.TrimSpace(src)
}

func extractNextURL(doc *goquery.Document, pageURL string) string {
	var next string

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" {
			return true
		}

		text := strings.ToLower(strings.TrimSpace(a.Text()))
		class, _ := a.Attr("class")

		// "Next Chapter" buttons, then any button-styled "Next" link,
		// then next-pointing chapter hrefs
		isButton := strings.Contains(strings.ToLower(class), "btn")
		mentionsNext := strings.Contains(text, "next")

		if (mentionsNext && isButton) ||
			text == "next chapter" ||
			(mentionsNext && strings.Contains(strings.ToLower(href), "-ch-")) {
			next = resolveURL(pageURL, href)
			return false
		}
		return true
	})

	return next
}

func extractTitle(doc *goquery.Document) string {
	// chapter heading inside the reader
	var title string
	doc.Find("span.opacity-80, h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if chapterHeading.MatchString(text) {
			title = text
			return false
		}
		return true
	})
	if title != "" {
		return title
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		return strings.TrimSpace(og)
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

func resolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}

	return b.ResolveReference(u).String()
}
