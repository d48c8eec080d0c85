package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output       string `yaml:"output"`
	Title        string `yaml:"title"`
	Debug        bool   `yaml:"debug"`
	DefaultURL   string `yaml:"default_url"`
	ImageWorkers int    `yaml:"image_workers"`
	Retries      int    `yaml:"retries"`
	DeleteImages bool   `yaml:"delete_images"`

	// pacing between network operations
	ImageDelay   Duration `yaml:"image_delay"`
	ChapterDelay Duration `yaml:"chapter_delay"`

	// crawl safety limits
	MaxChapters int `yaml:"max_chapters"`
	MaxFailures int `yaml:"max_failures"`

	// browser session
	ProfileDir      string   `yaml:"profile_dir"`
	PostLoadWait    Duration `yaml:"post_load_wait"`
	KeepSessionOpen bool     `yaml:"keep_session_open"`
	StaticFetch     bool     `yaml:"static_fetch"`

	// headers/auth for the image client
	UserAgent  string `yaml:"user_agent"`
	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`

	// PDF layout
	PageHeightLimit int  `yaml:"page_height_limit"`
	MaxPagesPerFile int  `yaml:"max_pages_per_file"`
	JPEGQuality     int  `yaml:"jpeg_quality"`
	MaxWidth        int  `yaml:"max_width"`
	Grayscale       bool `yaml:"grayscale"`

	// merge
	ChaptersPerPDF int `yaml:"chapters_per_pdf"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	Title        string
	DefaultURL   string
	ImageWorkers int
	DeleteImages bool
	ImageDelay   time.Duration
	ChapterDelay time.Duration
	ProfileDir   string
	PostLoadWait time.Duration
	KeepSession  bool
	StaticFetch  bool
	UserAgent    string
	Cookie       string
	CookieFile   string
	ChaptersPer  int
}

func DefaultConfig() *Config {
	return &Config{
		Output:          ".",
		ImageWorkers:    1,
		Retries:         3,
		ImageDelay:      DurationFrom(200 * time.Millisecond),
		ChapterDelay:    DurationFrom(2 * time.Second),
		MaxChapters:     200,
		MaxFailures:     1,
		PostLoadWait:    DurationFrom(4 * time.Second),
		PageHeightLimit: 20000,
		MaxPagesPerFile: 300,
		JPEGQuality:     75,
		MaxWidth:        1200,
		ChaptersPerPDF:  5,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `mparkdl config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.DeleteImages {
		c.DeleteImages = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.ImageDelay != 0 {
		c.ImageDelay = DurationFrom(o.ImageDelay)
	}
	if o.ChapterDelay != 0 {
		c.ChapterDelay = DurationFrom(o.ChapterDelay)
	}
	if o.ProfileDir != "" {
		c.ProfileDir = o.ProfileDir
	}
	if o.PostLoadWait != 0 {
		c.PostLoadWait = DurationFrom(o.PostLoadWait)
	}
	if o.KeepSession {
		c.KeepSessionOpen = true
	}
	if o.StaticFetch {
		c.StaticFetch = true
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.ChaptersPer != 0 {
		c.ChaptersPerPDF = o.ChaptersPer
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers == 0 {
		c.ImageWorkers = 1
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.MaxChapters == 0 {
		c.MaxChapters = 200
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 1
	}
	if c.PageHeightLimit == 0 {
		c.PageHeightLimit = 20000
	}
	if c.MaxPagesPerFile == 0 {
		c.MaxPagesPerFile = 300
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 75
	}
	if c.ChaptersPerPDF == 0 {
		c.ChaptersPerPDF = 5
	}
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	if c.Title != "" {
		fmt.Printf(" -title: %s\n", c.Title)
	}
	if c.DefaultURL != "" {
		fmt.Printf(" -url: %s\n", c.DefaultURL)
	}
	fmt.Printf(" -image_workers: %d\n", c.ImageWorkers)
	fmt.Printf(" -retries: %d\n", c.Retries)
	fmt.Printf(" -image_delay: %s\n", c.ImageDelay)
	fmt.Printf(" -chapter_delay: %s\n", c.ChapterDelay)
	fmt.Printf(" -post_load_wait: %s\n", c.PostLoadWait)
	fmt.Printf(" -max_chapters: %d\n", c.MaxChapters)
	fmt.Printf(" -max_failures: %d\n", c.MaxFailures)
	if c.ProfileDir != "" {
		fmt.Printf(" -profile_dir: %s\n", c.ProfileDir)
	}
	if c.KeepSessionOpen {
		fmt.Printf(" -keep_session_open: %t\n", c.KeepSessionOpen)
	}
	if c.StaticFetch {
		fmt.Printf(" -static_fetch: %t\n", c.StaticFetch)
	}
	if c.DeleteImages {
		fmt.Printf(" -delete_images: %t\n", c.DeleteImages)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	fmt.Printf(" -page_height_limit: %d\n", c.PageHeightLimit)
	fmt.Printf(" -max_pages_per_file: %d\n", c.MaxPagesPerFile)
	fmt.Printf(" -jpeg_quality: %d\n", c.JPEGQuality)
	fmt.Printf(" -max_width: %d\n", c.MaxWidth)
	if c.Grayscale {
		fmt.Printf(" -grayscale: %t\n", c.Grayscale)
	}
	fmt.Printf(" -chapters_per_pdf: %d\n", c.ChaptersPerPDF)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
}
