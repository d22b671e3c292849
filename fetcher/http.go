package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxBodySize caps downloads; checksum lists are a few hundred bytes
const maxBodySize = 4 << 20

// HTTPFetcher reads image metadata from a plain HTTP file server
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout
func NewHTTPFetcher(timeout time.Duration, userAgent string, logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// LastModified issues a HEAD request and parses the Last-Modified header
func (f *HTTPFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	resp, err := f.do(ctx, http.MethodHead, url)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	header := resp.Header.Get("Last-Modified")
	if header == "" {
		return time.Time{}, fmt.Errorf("no Last-Modified header for %s", url)
	}

	modified, err := http.ParseTime(header)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid Last-Modified header for %s: %w", url, err)
	}
	return modified, nil
}

// Download returns the body of url
func (f *HTTPFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxBodySize)
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unable to fetch %s: %s", url, resp.Status)
	}
	return resp, nil
}
