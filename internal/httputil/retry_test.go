// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// failingTransport fails every round trip and counts the attempts.
type failingTransport struct {
	calls int32
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, errors.New("dial tcp: connection refused")
}

// flakyTransport fails the first n round trips, then delegates.
type flakyTransport struct {
	failures int32
	calls    int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func newTestFetcher(t *testing.T, cfg FetcherConfig) *Fetcher {
	t.Helper()
	cfg.Logger = zerolog.Nop()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	return f
}

func TestFetch_ImmediateSuccess(t *testing.T) {
	var calls int32
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := newTestFetcher(t, FetcherConfig{Retries: 3})
	resp, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetch_TransportFailureExhaustsRetries(t *testing.T) {
	tr := &failingTransport{}
	f := newTestFetcher(t, FetcherConfig{Retries: 3, Transport: tr})

	resp, err := f.Fetch(context.Background(), "http://mirror.invalid/10.1000/x")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrFetchFailure)

	var fe *types.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "http://mirror.invalid/10.1000/x", fe.URL)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&tr.calls))
}

func TestFetch_ZeroRetriesMakesNoAttempt(t *testing.T) {
	tr := &failingTransport{}
	f := newTestFetcher(t, FetcherConfig{Retries: 0, Transport: tr})

	_, err := f.Fetch(context.Background(), "http://mirror.invalid/")
	assert.ErrorIs(t, err, types.ErrFetchFailure)
	assert.Equal(t, int32(0), atomic.LoadInt32(&tr.calls))
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	tr := &flakyTransport{failures: 2, next: http.DefaultTransport}
	f := newTestFetcher(t, FetcherConfig{Retries: 5, Transport: tr})

	resp, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&tr.calls))
}

func TestFetch_HTTPErrorStatusIsNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(status)
			}))
			defer ts.Close()

			f := newTestFetcher(t, FetcherConfig{Retries: 5})
			resp, err := f.Fetch(context.Background(), ts.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestFetch_ClosedServerIsTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	addr := ts.URL
	ts.Close()

	f := newTestFetcher(t, FetcherConfig{Retries: 2})
	_, err := f.Fetch(context.Background(), addr)

	var fe *types.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Attempts)
	assert.NotNil(t, fe.Err)
}

func TestFetch_ContextCancelledDuringDelay(t *testing.T) {
	tr := &failingTransport{}
	f := newTestFetcher(t, FetcherConfig{Retries: 5, RetryDelay: 500 * time.Millisecond, Transport: tr})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, "http://mirror.invalid/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, types.ErrFetchFailure)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tr.calls))
}

func TestNewFetcher_RejectsNegativeRetries(t *testing.T) {
	_, err := NewFetcher(FetcherConfig{Retries: -1})
	assert.Error(t, err)
}

func TestNewFetcher_CustomUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	f := newTestFetcher(t, FetcherConfig{Retries: 1, UserAgent: "custom/1.0"})
	resp, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "custom/1.0", gotUA)
}
