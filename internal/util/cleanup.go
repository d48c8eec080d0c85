package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanupUnfinishedImageFolders removes leftover per-chapter image folders.
// Chapter image folders follow the "Chapter_*" pattern and contain only
// numbered image files, so removing them never touches finished PDFs.
func CleanupUnfinishedImageFolders(outputDir string) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && strings.HasPrefix(name, "Chapter_") {
			full := filepath.Join(outputDir, name)

			if err := os.RemoveAll(full); err != nil {
				fmt.Printf("Error cleaning up %s: %v\n", full, err)
			} else {
				fmt.Printf("Removed %s\n", full)
			}
		}
	}
}

func RemoveIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		if err := os.Remove(dir); err == nil {
			fmt.Printf("Removed empty output folder: %s\n", dir)
		}
	}
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}

// SanitizeFilename strips characters that are invalid in file names on
// common filesystems. Used for titles embedded in PDF names.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, ch := range invalid {
		name = strings.ReplaceAll(name, ch, "")
	}
	return strings.TrimSpace(name)
}
