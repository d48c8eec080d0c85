package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readerPage = `<!DOCTYPE html>
<html><head>
<title>Solo Camp - Chapter 28</title>
<meta property="og:title" content="Solo Camp Chapter 28">
</head><body>
<span class="opacity-80">Chapter 28</span>
<div class="reader">
  <img class="w-full h-full" src="https://cdn.example.com/media/28/001.webp?st=token&e=123">
  <img class="w-full h-full" data-src="https://cdn.example.com/media/28/002.webp">
  <img class="w-full h-full" src="https://cdn.example.com/media/28/001.webp?st=other">
  <img class="w-full h-full" src="https://cdn.example.com/media/28/003.jpg">
</div>
<a class="btn btn-primary" href="/title/99-en-solo-camp/12345-ch-29">Next Chapter</a>
</body></html>`

func TestParseChapterHTMLExtractsImagesInOrder(t *testing.T) {
	content, err := ParseChapterHTML(readerPage, "https://example.com/title/99-en-solo-camp/12344-ch-28")
	require.NoError(t, err)

	// query strings stripped, duplicates dropped, order preserved
	assert.Equal(t, []string{
		"https://cdn.example.com/media/28/001.webp",
		"https://cdn.example.com/media/28/002.webp",
		"https://cdn.example.com/media/28/003.jpg",
	}, content.ImageURLs)
}

func TestParseChapterHTMLResolvesNextURL(t *testing.T) {
	content, err := ParseChapterHTML(readerPage, "https://example.com/title/99-en-solo-camp/12344-ch-28")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/title/99-en-solo-camp/12345-ch-29", content.NextURL)
}

func TestParseChapterHTMLTitle(t *testing.T) {
	content, err := ParseChapterHTML(readerPage, "https://example.com/c/28")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 28", content.Title)
}

func TestParseChapterHTMLLastChapterHasNoNext(t *testing.T) {
	page := `<html><body>
	<img src="https://cdn.example.com/media/44/001.png">
	<a href="/title/99-en-solo-camp">Back to series</a>
	</body></html>`

	content, err := ParseChapterHTML(page, "https://example.com/c/44")
	require.NoError(t, err)
	assert.Len(t, content.ImageURLs, 1)
	assert.Empty(t, content.NextURL)
}

func TestParseChapterHTMLIgnoresDecorativeImages(t *testing.T) {
	page := `<html><body>
	<img src="/assets/logo.svg">
	<img src="data:image/gif;base64,AAAA">
	<img src="https://cdn.example.com/media/1/001.jpg">
	</body></html>`

	content, err := ParseChapterHTML(page, "https://example.com/c/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/media/1/001.jpg"}, content.ImageURLs)
}

func TestParseChapterHTMLLazyLoadedSources(t *testing.T) {
	page := `<html><body>
	<img class="w-full h-full" data-lazy-src="https://cdn.example.com/media/2/001.jpg">
	<img class="w-full h-full" data-original="https://cdn.example.com/media/2/002.jpg">
	</body></html>`

	content, err := ParseChapterHTML(page, "https://example.com/c/2")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/media/2/001.jpg",
		"https://cdn.example.com/media/2/002.jpg",
	}, content.ImageURLs)
}

func TestCleanImageURL(t *testing.T) {
	assert.Equal(t, "https://x.com/a.jpg", CleanImageURL("https://x.com/a.jpg?st=abc&e=1"))
	assert.Equal(t, "https://x.com/a.jpg", CleanImageURL("https://x.com/a.jpg"))
	assert.Equal(t, "", CleanImageURL(""))
}

func TestProviderErrorTransience(t *testing.T) {
	transient := &Error{URL: "u", Transient: true, Err: assert.AnError}
	fatal := &Error{URL: "u", Err: assert.AnError}

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(fatal))
	assert.ErrorIs(t, transient, assert.AnError)
}
