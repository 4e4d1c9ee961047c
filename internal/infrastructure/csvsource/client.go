// Package csvsource fetches and parses the planogram data files.
package csvsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harpa/backend/internal/domain"
)

const (
	maxAttempts = 3

	// maxBodyBytes caps a single data file download.
	maxBodyBytes = 64 << 20

	// maxErrorBodyBytes caps how much of an error response is logged.
	maxErrorBodyBytes = 1024
)

// HTTPConfig holds configuration for the HTTP fetcher
type HTTPConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// HTTPFetcher downloads data files from a static file host
type HTTPFetcher struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger

	backoff func(attempt int) time.Duration
	now     func() time.Time
}

// NewHTTPFetcher creates a fetcher for files under baseURL
func NewHTTPFetcher(baseURL string, config HTTPConfig, logger *zap.Logger) *HTTPFetcher {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.Burst <= 0 {
		config.Burst = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:      logger.Named("fetcher"),
		backoff:     exponentialBackoff,
		now:         time.Now,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// retryable reports whether a response status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// fileURL builds the request URL with a cache-busting timestamp
func (c *HTTPFetcher) fileURL(name string) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + url.PathEscape(name))
	if err != nil {
		return "", eris.Wrapf(err, "invalid url for %s", name)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doRequest executes an HTTP GET request with proper headers
func (c *HTTPFetcher) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "harpa/1.0")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrSourceFailure, "%v", err)
	}
	return resp, nil
}

// Fetch downloads name. Transport errors, 5xx and 429 are retried with
// exponential backoff; other 4xx fail at once and 404 maps to
// ErrSourceNotFound.
func (c *HTTPFetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	reqURL, err := c.fileURL(name)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, c.backoff(attempt-1)); err != nil {
				return nil, eris.Wrapf(err, "fetch %s", name)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter error")
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrapf(ctx.Err(), "fetch %s", name)
			}
			c.logger.Warn("request failed",
				zap.String("file", name), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, err := readLimitedBody(resp.Body, maxBodyBytes)
			resp.Body.Close()
			if err != nil {
				return nil, eris.Wrapf(err, "read %s", name)
			}
			c.logger.Debug("fetched file", zap.String("file", name), zap.Int("bytes", len(body)))
			return io.NopCloser(bytes.NewReader(body)), nil
		}

		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, eris.Wrapf(domain.ErrSourceNotFound, "fetch %s", name)
		}

		lastErr = eris.Wrapf(domain.ErrSourceFailure, "fetch %s: status %d", name, resp.StatusCode)
		if !retryable(resp.StatusCode) {
			return nil, lastErr
		}

		c.logger.Warn("retryable status",
			zap.String("file", name),
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
	}

	c.logger.Error("all retries failed", zap.String("file", name), zap.Error(lastErr))
	return nil, lastErr
}

func (c *HTTPFetcher) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DirFetcher reads data files from a local directory
type DirFetcher struct {
	dir string
}

// NewDirFetcher creates a fetcher rooted at dir
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

// Dir returns the directory files are read from.
func (f *DirFetcher) Dir() string {
	return f.dir
}

// Fetch opens name inside the directory. Names may not escape it.
func (f *DirFetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || name != filepath.Base(name) {
		return nil, eris.Wrapf(domain.ErrInvalidRequest, "invalid file name %q", name)
	}

	file, err := os.Open(filepath.Join(f.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrapf(domain.ErrSourceNotFound, "open %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", name)
	}
	return file, nil
}
