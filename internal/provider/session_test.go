package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCookies(t *testing.T) {
	cookies := buildCookies("sess=abc; theme=dark", "https://example.com/title/1-ch-1")
	require.Len(t, cookies, 2)

	assert.Equal(t, "sess", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, "example.com", cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, "theme", cookies[1].Name)
}

func TestBuildCookiesMalformedPairs(t *testing.T) {
	cookies := buildCookies("novalue; =orphan; ok=1", "https://example.com/")
	require.Len(t, cookies, 1)
	assert.Equal(t, "ok", cookies[0].Name)
}

func TestBuildCookiesBadURL(t *testing.T) {
	assert.Nil(t, buildCookies("a=b", "::not a url::"))
}
