package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var timeNow = time.Now

const (
	manifestDir     = "_manifests"
	latestPointerFn = "latest_manifest.txt"
)

// Manifest records what one run produced, so a later merge pass can
// restrict itself to this session's chapters.
type Manifest struct {
	StartedAt time.Time         `json:"started_at"`
	StartURL  string            `json:"start_url"`
	Title     string            `json:"title,omitempty"`
	Chapters  []ManifestChapter `json:"chapters"`
}

// ManifestChapter is one completed chapter entry.
type ManifestChapter struct {
	Ordinal    int       `json:"ordinal"`
	Number     float64   `json:"number"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Images     int       `json:"images"`
	Files      []string  `json:"files,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// PDFNames flattens the per-chapter output files into base filenames.
func (m *Manifest) PDFNames() []string {
	var names []string
	for _, ch := range m.Chapters {
		for _, f := range ch.Files {
			names = append(names, filepath.Base(f))
		}
	}
	return names
}

// ManifestWriter persists a manifest after every chapter, so a crash or
// cancellation still leaves an accurate record on disk. The file appears
// with the first chapter entry; a run that never finishes a chapter
// leaves no bookkeeping behind.
type ManifestWriter struct {
	path     string
	manifest Manifest
}

func NewManifestWriter(outputDir, startURL, title string) (*ManifestWriter, error) {
	now := time.Now()
	return &ManifestWriter{
		path: filepath.Join(outputDir, manifestDir, fmt.Sprintf("session_%s.json", now.Format("20060102_150405"))),
		manifest: Manifest{
			StartedAt: now,
			StartURL:  startURL,
			Title:     title,
		},
	}, nil
}

func (w *ManifestWriter) AppendChapter(ch ManifestChapter) error {
	w.manifest.Chapters = append(w.manifest.Chapters, ch)
	return w.flush()
}

func (w *ManifestWriter) Manifest() *Manifest { return &w.manifest }

func (w *ManifestWriter) flush() error {
	data, err := json.MarshalIndent(&w.manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create manifest folder: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	pointer := filepath.Join(filepath.Dir(w.path), latestPointerFn)
	return os.WriteFile(pointer, []byte(filepath.Base(w.path)+"\n"), 0o644)
}

// LoadLatestManifest reads the manifest the latest pointer names, or an
// error when no run has recorded one yet.
func LoadLatestManifest(outputDir string) (*Manifest, error) {
	dir := filepath.Join(outputDir, manifestDir)
	raw, err := os.ReadFile(filepath.Join(dir, latestPointerFn))
	if err != nil {
		return nil, fmt.Errorf("no session manifest found in %s: %w", outputDir, err)
	}
	name := strings.TrimSpace(string(raw))
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", name, err)
	}
	return &m, nil
}
