package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadMergedIgnoreConfigAppliesFlags(t *testing.T) {
	cfg, used, err := LoadMerged(Options{
		IgnoreConfig: true,
		Output:       "/tmp/out",
		DefaultURL:   "https://site.test/c/1",
		ImageWorkers: 3,
		ImageDelay:   time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", used)

	assert.Equal(t, "/tmp/out", cfg.Output)
	assert.Equal(t, "https://site.test/c/1", cfg.DefaultURL)
	assert.Equal(t, 3, cfg.ImageWorkers)
	assert.Equal(t, time.Second, cfg.ImageDelay.Duration)

	// untouched fields keep their defaults
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 200, cfg.MaxChapters)
	assert.Equal(t, 20000, cfg.PageHeightLimit)
	assert.Equal(t, 5, cfg.ChaptersPerPDF)
}

func TestDurationYAMLForms(t *testing.T) {
	var cfg Config
	src := `
image_delay: 200ms
chapter_delay: 2
post_load_wait: 4.5
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &cfg))
	assert.Equal(t, 200*time.Millisecond, cfg.ImageDelay.Duration)
	assert.Equal(t, 2*time.Second, cfg.ChapterDelay.Duration)
	assert.Equal(t, 4500*time.Millisecond, cfg.PostLoadWait.Duration)
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg.ImageDelay, back.ImageDelay)
	assert.Equal(t, cfg.ChapterDelay, back.ChapterDelay)
}

func TestDurationRejectsGarbage(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte(`image_delay: "soon"`), &cfg)
	assert.Error(t, err)
}

func TestNormalizeDefaultsFillsZeroes(t *testing.T) {
	var cfg Config
	normalizeDefaults(&cfg)
	assert.Equal(t, ".", cfg.Output)
	assert.Equal(t, 1, cfg.ImageWorkers)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 1, cfg.MaxFailures)
	assert.Equal(t, 300, cfg.MaxPagesPerFile)
	assert.Equal(t, 75, cfg.JPEGQuality)
}
