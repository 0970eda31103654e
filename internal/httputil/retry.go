// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the proxy-aware fetcher used for both the
// landing page and the file download.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// DefaultUserAgent identifies a common desktop browser. Mirrors block
// obvious non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 11_0_1) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/89.0.4389.90 Safari/537.36"

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Retries is the total number of attempts per URL. Zero means no
	// attempt is made and every Fetch fails.
	Retries int

	// Proxy routes requests through an outbound proxy when non-nil.
	Proxy *Proxy

	// UserAgent defaults to DefaultUserAgent.
	UserAgent string

	// Timeout bounds connecting and waiting for response headers.
	Timeout time.Duration

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	// Transport replaces the transport built from Proxy and Timeout.
	Transport http.RoundTripper

	Logger zerolog.Logger
}

// Fetcher performs streaming GET requests, retrying transport failures.
type Fetcher struct {
	client     *http.Client
	retries    int
	retryDelay time.Duration
	headers    http.Header
	log        zerolog.Logger
}

// NewFetcher builds a Fetcher. It fails only when the proxy settings
// cannot produce a transport.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport := cfg.Transport
	if transport == nil {
		if cfg.Proxy != nil {
			t, err := cfg.Proxy.Transport(cfg.Timeout)
			if err != nil {
				return nil, err
			}
			transport = t
		} else {
			transport = newTransport(cfg.Timeout)
		}
	}

	headers := make(http.Header)
	headers.Set("User-Agent", cfg.UserAgent)

	return &Fetcher{
		client:     &http.Client{Transport: transport},
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		headers:    headers,
		log:        cfg.Logger,
	}, nil
}

// Fetch issues a GET for url and returns the response with its body
// unread. The caller must close the body.
//
// Only transport failures are retried: any received response, whatever
// its status, is returned to the caller. The request is attempted at most
// Retries times; when every attempt fails Fetch returns a
// *types.FetchError. If ctx is cancelled the loop stops and the
// FetchError wraps ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	req.Header = f.headers.Clone()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < f.retries; attempt++ {
		if attempt > 0 && f.retryDelay > 0 {
			if err := wait(ctx, f.retryDelay); err != nil {
				return nil, &types.FetchError{URL: url, Attempts: attempts, Err: err}
			}
		}

		attempts++
		resp, err := f.client.Do(req.Clone(ctx))
		if err == nil {
			f.log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("attempt", attempts).
				Msg("fetched")
			return resp, nil
		}

		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, &types.FetchError{URL: url, Attempts: attempts, Err: ctx.Err()}
			}
		}
		f.log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempts).
			Int("retries", f.retries).
			Msg("retrying...")
	}

	return nil, &types.FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
