// Package fetch downloads receipt pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"golang.org/x/net/html/charset"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	DefaultUserAgent    = "receipt-ledger/1.0"
)

// Options tunes an HTTPFetcher.
type Options struct {
	Client       *http.Client
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// HTTPFetcher retrieves receipt pages over HTTP and returns them as UTF-8.
// Failures are returned immediately without retrying.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPFetcher creates a fetcher.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &HTTPFetcher{client: client, userAgent: userAgent, maxBodyBytes: maxBody}
}

// Fetch downloads url. Any non-2xx status is a *common.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &common.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	slog.Info("Fetching receipt", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &common.FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		slog.Error("Failed to fetch receipt", "url", url, "status", resp.StatusCode)
		return nil, &common.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &common.FetchError{URL: url, Err: fmt.Errorf("unsupported charset: %w", err)}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &common.FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	slog.Debug("Fetched receipt", "url", url, "bytes", len(data))
	return data, nil
}
