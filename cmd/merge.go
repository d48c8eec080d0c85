package cmd

import (
	"errors"
	"fmt"

	"github.com/mika534/mparkdl/internal/config"
	"github.com/mika534/mparkdl/internal/crawler"
	"github.com/mika534/mparkdl/internal/pdf"
	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagMergeOutput    string
	flagMergeTitle     string
	flagChaptersPerPDF int
	flagSessionOnly    bool
	flagKeepOriginals  bool
)

func init() {
	mergeCmd := &cobra.Command{
		Use:   "merge [dir]",
		Short: "Merge per-chapter PDFs in the output folder into bundles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMerge,
	}

	mergeCmd.Flags().StringVar(&flagMergeOutput, "output", "", "folder holding the chapter PDFs")
	mergeCmd.Flags().StringVar(&flagMergeTitle, "title", "", "series title for the bundle filenames")
	mergeCmd.Flags().IntVar(&flagChaptersPerPDF, "chapters-per-pdf", 0, "chapters per bundle")
	mergeCmd.Flags().BoolVar(&flagSessionOnly, "session-only", false, "only merge chapters from the latest download run")
	mergeCmd.Flags().BoolVar(&flagKeepOriginals, "keep-originals", true, "move merged chapters to _originals instead of deleting them")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	output := flagMergeOutput
	if len(args) == 1 {
		output = args[0]
	}

	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Output:       output,
		Title:        flagMergeTitle,
		ChaptersPer:  flagChaptersPerPDF,
	})
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	var only []string
	if flagSessionOnly {
		manifest, err := crawler.LoadLatestManifest(cfg.Output)
		if err != nil {
			return err
		}
		only = manifest.PDFNames()
		if len(only) == 0 {
			fmt.Println("The latest run produced no chapter PDFs, nothing to merge.")
			return nil
		}
	}

	m := &pdf.Merger{
		ChaptersPerBundle: cfg.ChaptersPerPDF,
		KeepOriginals:     flagKeepOriginals,
		Log:               logSvc,
	}
	res, err := m.MergeDir(cfg.Output, only, util.SanitizeFilename(cfg.Title))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Merge Summary:")
	fmt.Printf("Bundles: %d\n", len(res.Merged))
	for _, b := range res.Merged {
		fmt.Printf("  %s\n", b)
	}
	if len(res.Skipped) > 0 {
		fmt.Printf("Skipped: %d (no chapter number in name)\n", len(res.Skipped))
	}
	if len(res.Errors) > 0 {
		return errors.Join(res.Errors...)
	}

	fmt.Println("\nAll done.")
	return nil
}
