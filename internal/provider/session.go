package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"
)

// SessionOptions configure the controlled browser session.
type SessionOptions struct {
	ProfileDir   string
	UserAgent    string
	Cookie       string
	PostLoadWait time.Duration
	NavTimeout   time.Duration
	Retries      int
	// KeepOpen leaves the browser running on Close. Debug only, no
	// effect on correctness.
	KeepOpen bool
}

// Session is a Provider backed by a single headless browser. The browser
// context is stateful and non-reentrant: one navigation at a time.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   SessionOptions
	log    *ui.Logger
}

func NewSession(parent context.Context, opts SessionOptions, log *ui.Logger) (*Session, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:    browserCtx,
		cancel: func() { cancelBrowser(); cancelAlloc() },
		opts:   opts,
		log:    log,
	}

	if opts.ProfileDir != "" {
		log.Debugf("[Session] using browser profile %s\n", opts.ProfileDir)
	}

	return s, nil
}

// FetchChapter navigates to the chapter URL, waits for the page to settle,
// and extracts images, title and the next-chapter pointer. Transient
// failures are retried here with exponential backoff; the error returned
// after exhaustion is fatal for the run.
func (s *Session) FetchChapter(ctx context.Context, ref ChapterRef) (*ChapterContent, error) {
	var lastErr error

	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			s.log.Debugf("[Session] retry %d/%d for %s after %v\n", attempt+1, s.opts.Retries, ref.URL, backoff)
			if err := util.Pause(ctx, backoff); err != nil {
				return nil, err
			}
		}

		content, err := s.fetchOnce(ctx, ref.URL)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		s.log.Debugf("[Session] fetch failed (attempt %d/%d): %v\n", attempt+1, s.opts.Retries, err)
	}

	return nil, &Error{
		URL: ref.URL,
		Err: fmt.Errorf("after %d attempts: %w", s.opts.Retries, lastErr),
	}
}

func (s *Session) fetchOnce(ctx context.Context, pageURL string) (*ChapterContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(s.ctx, s.opts.NavTimeout)
	defer cancel()

	var tasks []chromedp.Action
	if s.opts.Cookie != "" {
		cookies := buildCookies(s.opts.Cookie, pageURL)
		if len(cookies) > 0 {
			tasks = append(tasks, chromedp.ActionFunc(func(c context.Context) error {
				return network.SetCookies(cookies).Do(c)
			}))
		}
	}
	tasks = append(tasks,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	)

	if err := chromedp.Run(navCtx, tasks...); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	// let lazy-loaded panes populate before reading the DOM
	if s.opts.PostLoadWait > 0 {
		if err := util.Pause(ctx, s.opts.PostLoadWait); err != nil {
			return nil, err
		}
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("failed to read DOM: %w", err)
	}

	return ParseChapterHTML(html, pageURL)
}

// Close tears down the browser unless KeepOpen was requested.
func (s *Session) Close() error {
	if s.opts.KeepOpen {
		s.log.Debugf("[Session] keep_session_open set, leaving browser running\n")
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// buildCookies turns a "k=v; k2=v2" header string into cookie params for
// the target page's registrable domain.
func buildCookies(header, pageURL string) []*network.CookieParam {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}

	var out []*network.CookieParam
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		out = append(out, &network.CookieParam{
			Name:   strings.TrimSpace(k),
			Value:  strings.TrimSpace(v),
			Domain: u.Hostname(),
			Path:   "/",
		})
	}
	return out
}
