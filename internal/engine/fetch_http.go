package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrPageStatus marks a non-retryable HTTP status from FetchPage.
var ErrPageStatus = errors.New("unexpected page status")

// FetchPage performs an HTML GET with exponential backoff on retryable statuses.
// When bc is non-nil the request goes out with a Chrome TLS fingerprint.
func FetchPage(ctx context.Context, hc *http.Client, bc *BrowserClient, pageURL string) ([]byte, error) {
	operation := func() ([]byte, error) {
		if bc != nil {
			data, status, err := bc.Get(ctx, pageURL, ChromeHeaders())
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return checkPageStatus(status, data)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", RandomUserAgent())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := hc.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		data, err := readResponseBody(resp)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("read page: %w", err))
		}
		return checkPageStatus(resp.StatusCode, data)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
}

func checkPageStatus(status int, data []byte) ([]byte, error) {
	if IsRetryableStatus(status) {
		return nil, fmt.Errorf("status %d", status)
	}
	if status != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("%w: %d", ErrPageStatus, status))
	}
	return data, nil
}

// readResponseBody reads at most maxPageBytes, handling gzip decompression if needed.
func readResponseBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, maxPageBytes))
}
