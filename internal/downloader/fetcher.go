package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mika534/mparkdl/internal/util"
)

// AssetError reports a single image that could not be obtained or decoded.
// A chapter with any AssetError is treated as failed.
type AssetError struct {
	URL      string
	Index    int // 1-based position within the chapter
	Attempts int
	Err      error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("image %d (%s) after %d attempt(s): %v", e.Index, e.URL, e.Attempts, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// transientStatus reports whether an HTTP status is worth retrying.
// Anything else in the 4xx range means the asset is gone for good.
func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

const maxFetchBackoff = 8 * time.Second

// fetchImage downloads one image body, retrying transient failures with
// exponential backoff. Permanent failures (non-retryable 4xx) return
// immediately. The returned attempt count covers all tries made.
func (d *Downloader) fetchImage(ctx context.Context, imageURL, referer string) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		if attempt > 1 {
			backoff := time.Second << (attempt - 2)
			if backoff > maxFetchBackoff {
				backoff = maxFetchBackoff
			}
			if err := util.Pause(ctx, backoff); err != nil {
				return nil, attempt - 1, err
			}
		}

		data, transient, err := d.fetchOnce(ctx, imageURL, referer)
		if err == nil {
			return data, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
		if !transient {
			return nil, attempt, err
		}
		lastErr = err
		d.log.Debugf("retrying %s (attempt %d/%d): %v\n", imageURL, attempt, d.retries, err)
	}
	return nil, d.retries, lastErr
}

func (d *Downloader) fetchOnce(ctx context.Context, imageURL, referer string) (data []byte, transient bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, err
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
			return nil, true, err
		}
		// Transport-level failures without a response are assumed recoverable.
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		return nil, transientStatus(resp.StatusCode), err
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, true, errors.New("empty response body")
	}
	return data, false, nil
}
