package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatChapter(t *testing.T) {
	assert.Equal(t, "012", FormatChapter(12))
	assert.Equal(t, "012_5", FormatChapter(12.5))
	assert.Equal(t, "001", FormatChapter(1))
	assert.Equal(t, "105_75", FormatChapter(105.75))
	assert.Equal(t, "000", FormatChapter(0))
}

func TestChapterBaseName(t *testing.T) {
	assert.Equal(t, "Chapter_003", ChapterBaseName(3, ""))
	assert.Equal(t, "Chapter_028_5 - Solo Camp", ChapterBaseName(28.5, "Solo Camp"))
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		ok         bool
	}{
		{"Chapter_001.pdf", 1, 1, true},
		{"Chapter_012_5 - Solo Camp.pdf", 12.5, 12.5, true},
		{"Chapter_001-005 - Solo Camp.pdf", 1, 5, true},
		{"Chapter_010_5-015.pdf", 10.5, 15, true},
		{"cover.pdf", 0, 0, false},
		{"notes.txt", 0, 0, false},
	}
	for _, tt := range tests {
		start, end, ok := ParseBounds(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if ok {
			assert.Equal(t, tt.start, start, tt.name)
			assert.Equal(t, tt.end, end, tt.name)
		}
	}
}

func TestIsMergedName(t *testing.T) {
	assert.True(t, IsMergedName("Chapter_001-005 - Solo Camp.pdf"))
	assert.False(t, IsMergedName("Chapter_001 - Solo Camp.pdf"))
	assert.False(t, IsMergedName("cover.pdf"))
}

func TestTitleSuffix(t *testing.T) {
	assert.Equal(t, "Solo Camp", TitleSuffix("Chapter_003 - Solo Camp.pdf"))
	assert.Equal(t, "", TitleSuffix("Chapter_003.pdf"))
}

func TestChapterNumber(t *testing.T) {
	n, ok := ChapterNumber("https://example.com/title/12345-en-solo-camp-ch-28.5", "")
	assert.True(t, ok)
	assert.Equal(t, 28.5, n)

	n, ok = ChapterNumber("https://example.com/read/solo-camp/103", "")
	assert.True(t, ok)
	assert.Equal(t, 103.0, n)

	n, ok = ChapterNumber("https://example.com/read/solo-camp/final", "Solo Camp Chapter 44")
	assert.True(t, ok)
	assert.Equal(t, 44.0, n)

	_, ok = ChapterNumber("https://example.com/read/solo-camp/extra", "Epilogue")
	assert.False(t, ok)
}
