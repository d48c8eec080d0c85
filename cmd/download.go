package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mika534/mparkdl/internal/config"
	"github.com/mika534/mparkdl/internal/crawler"
	"github.com/mika534/mparkdl/internal/downloader"
	"github.com/mika534/mparkdl/internal/pdf"
	"github.com/mika534/mparkdl/internal/provider"
	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL      string
	flagAuto     bool
	flagChapters int

	// runtime
	flagOutput       string
	flagTitle        string
	flagWorkers      int
	flagImageDelay   time.Duration
	flagChapterDelay time.Duration
	flagDeleteImages bool
	flagMaxChapters  int
	flagMaxFailures  int

	// fetch backend
	flagStatic      bool
	flagProfile     string
	flagKeepSession bool
	flagWait        time.Duration

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Crawl chapters starting from a chapter page and produce PDF files. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "first chapter page URL")
	downloadCmd.Flags().BoolVar(&flagAuto, "auto", false, "follow next links until the series ends")
	downloadCmd.Flags().IntVar(&flagChapters, "chapters", 1, "number of chapters to fetch (ignored with --auto)")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for PDF files")
	downloadCmd.Flags().StringVar(&flagTitle, "title", "", "series title appended to output filenames")
	downloadCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel image downloads per chapter (max 4)")
	downloadCmd.Flags().DurationVar(&flagImageDelay, "image-delay", 0, "pause between image downloads")
	downloadCmd.Flags().DurationVar(&flagChapterDelay, "chapter-delay", 0, "pause between chapters")
	downloadCmd.Flags().BoolVar(&flagDeleteImages, "delete-images", false, "remove image folders once the chapter PDF exists")
	downloadCmd.Flags().IntVar(&flagMaxChapters, "max-chapters", 0, "safety cap for --auto runs")
	downloadCmd.Flags().IntVar(&flagMaxFailures, "max-failures", 0, "consecutive chapter failures before giving up (1 stops on the first)")

	// fetch backend
	downloadCmd.Flags().BoolVar(&flagStatic, "static", false, "fetch pages with plain HTTP instead of a browser session")
	downloadCmd.Flags().StringVar(&flagProfile, "profile", "", "browser profile folder to reuse between runs")
	downloadCmd.Flags().BoolVar(&flagKeepSession, "keep-session", false, "leave the browser session open after the run")
	downloadCmd.Flags().DurationVar(&flagWait, "wait", 0, "time to let a page settle after load")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Output:       flagOutput,
		Title:        flagTitle,
		DefaultURL:   flagURL,
		ImageWorkers: flagWorkers,
		DeleteImages: flagDeleteImages,
		ImageDelay:   flagImageDelay,
		ChapterDelay: flagChapterDelay,
		ProfileDir:   flagProfile,
		PostLoadWait: flagWait,
		KeepSession:  flagKeepSession,
		StaticFetch:  flagStatic,
		UserAgent:    flagUserAgent,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
	})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("max-chapters") {
		cfg.MaxChapters = flagMaxChapters
	}
	if cmd.Flags().Changed("max-failures") {
		cfg.MaxFailures = flagMaxFailures
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}

	mode := crawler.ModeManual
	if flagAuto {
		mode = crawler.ModeAutomatic
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     30 * time.Second,
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		DebugLogger: logSvc,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	util.CleanupUnfinishedImageFolders(cfg.Output)

	prov, err := buildProvider(ctx, cfg, client, logSvc)
	if err != nil {
		return err
	}
	defer prov.Close()

	pm := ui.NewProgressManager()
	stats := &ui.Stats{}
	sink := newRunSink(pm, stats, logSvc)

	seq := &crawler.Sequencer{
		Provider: prov,
		Downloader: downloader.New(client, downloader.Options{
			Retries:   cfg.Retries,
			Quality:   cfg.JPEGQuality,
			MaxWidth:  cfg.MaxWidth,
			Grayscale: cfg.Grayscale,
		}, logSvc),
		Assembler: &pdf.Assembler{
			PageHeightLimit: cfg.PageHeightLimit,
			MaxPagesPerFile: cfg.MaxPagesPerFile,
			Quality:         cfg.JPEGQuality,
			Log:             logSvc,
		},
		Log:  logSvc,
		Sink: sink,
	}

	job := crawler.Job{
		StartURL:  cfg.DefaultURL,
		Mode:      mode,
		Count:     flagChapters,
		OutputDir: cfg.Output,
		Title:     util.SanitizeFilename(cfg.Title),
		Pacing: crawler.Pacing{
			ImageDelay:   cfg.ImageDelay.Duration,
			ChapterDelay: cfg.ChapterDelay.Duration,
		},
		Workers:      cfg.ImageWorkers,
		DeleteImages: cfg.DeleteImages,
		MaxChapters:  cfg.MaxChapters,
		MaxFailures:  cfg.MaxFailures,
	}

	start := time.Now()
	state, _, err := seq.Run(ctx, job)
	pm.Close()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Crawl Summary:")
	fmt.Printf("Chapters: %d\n", stats.TotalChapters.Load())
	fmt.Printf("Images:   %d\n", stats.TotalImages.Load())
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Status:   %s\n", state.Status)

	switch state.Status {
	case crawler.StatusFailed:
		util.RemoveIfEmpty(cfg.Output)
		return fmt.Errorf("run failed at chapter %d: %w", state.FailedOrdinal, state.Err)
	case crawler.StatusCancelled:
		util.CleanupUnfinishedImageFolders(cfg.Output)
		util.RemoveIfEmpty(cfg.Output)
		fmt.Println("\nInterrupted, finished chapters are intact.")
	default:
		fmt.Println("\nAll done.")
	}
	return nil
}

func buildProvider(ctx context.Context, cfg *config.Config, client *http.Client, log *ui.Logger) (provider.Provider, error) {
	if cfg.StaticFetch {
		return provider.NewStatic(client, cfg.Retries, log), nil
	}
	return provider.NewSession(ctx, provider.SessionOptions{
		ProfileDir:   cfg.ProfileDir,
		UserAgent:    cfg.UserAgent,
		Cookie:       cfg.Cookie,
		PostLoadWait: cfg.PostLoadWait.Duration,
		Retries:      cfg.Retries,
		KeepOpen:     cfg.KeepSessionOpen,
	}, log)
}
