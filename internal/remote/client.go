// Package remote fetches trees, lazy children and preview images over HTTP
// or from disk.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/buildinfo"
)

// Sentinel errors for HTTP failures.
var (
	ErrNotFound = errors.New("resource not found")
	ErrNetwork  = errors.New("network error")
)

// maxBody caps response sizes.
const maxBody = 64 << 20

// Options configures a Client. Zero values take defaults.
type Options struct {
	Timeout   time.Duration
	Attempts  int
	Delay     time.Duration
	MaxDelay  time.Duration
	UserAgent string
	// OnRetry is told about every failed attempt that will be retried.
	OnRetry func(url string, attempt int, err error)
}

// Client performs GET requests with retries on network errors and 5xx
// responses.
type Client struct {
	http      *http.Client
	backoff   Backoff
	onRetry   func(url string, attempt int, err error)
	userAgent string
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 8 * opts.Delay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.Current().UserAgent()
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		backoff:   Backoff{Attempts: opts.Attempts, Delay: opts.Delay, MaxDelay: opts.MaxDelay},
		onRetry:   opts.OnRetry,
		userAgent: opts.UserAgent,
	}
}

// Get fetches url and returns the body. Failures carry a canopy error code:
// NOT_FOUND for 404, NETWORK_ERROR otherwise.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	b := c.backoff
	if c.onRetry != nil {
		b.OnRetry = func(attempt int, _ time.Duration, err error) { c.onRetry(url, attempt, err) }
	}
	err := b.Do(ctx, func(ctx context.Context) error {
		data, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, ErrNotFound):
		return nil, canopy.Wrap(canopy.ErrCodeNotFound, err, "not found: %s", url)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, canopy.Wrap(canopy.ErrCodeNetwork, err, "fetch %s", url)
	}
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transient("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, transient("%w: read body: %v", ErrNetwork, err)
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return transient("%w: status %d", ErrNetwork, code)
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
