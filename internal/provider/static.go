package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mika534/mparkdl/internal/ui"
	"github.com/mika534/mparkdl/internal/util"
)

// Static is a Provider for sites that render chapter pages server-side,
// fetched over plain HTTP without a browser.
type Static struct {
	client  *http.Client
	retries int
	log     *ui.Logger
}

func NewStatic(client *http.Client, retries int, log *ui.Logger) *Static {
	if retries <= 0 {
		retries = 3
	}
	return &Static{client: client, retries: retries, log: log}
}

func (s *Static) FetchChapter(ctx context.Context, ref ChapterRef) (*ChapterContent, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", ref.URL, nil)
	if err != nil {
		return nil, &Error{URL: ref.URL, Err: err}
	}

	resp, err := util.DoWithRetry(s.client, req, s.retries, 500*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{URL: ref.URL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: ref.URL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: ref.URL, Err: err}
	}

	content, err := ParseChapterHTML(string(body), ref.URL)
	if err != nil {
		return nil, &Error{URL: ref.URL, Err: err}
	}

	return content, nil
}

func (s *Static) Close() error { return nil }
