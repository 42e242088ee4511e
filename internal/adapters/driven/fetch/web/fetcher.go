// Package web provides the plain HTTP page fetcher.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; finsight/1.0)"

	// maxPageBytes bounds the response size read per page.
	maxPageBytes = 4 << 20
)

// Config holds configuration for the HTTP fetcher.
type Config struct {
	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration

	// UserAgent is sent on every request (default: DefaultUserAgent).
	UserAgent string
}

// Fetcher downloads pages over HTTP with a bounded per-request time.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a new HTTP fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch downloads the page at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
