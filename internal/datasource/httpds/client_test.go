package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// noSleep records requested backoffs without waiting.
func noSleep(rec *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*rec = append(*rec, d)
		return ctx.Err()
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})

	assert.Equal(t, 60*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 0, c.maxRetries)
	assert.Equal(t, 500*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 10*time.Second, c.maxBackoff)
	assert.Equal(t, UserAgent, c.baseHeaders.Get("User-Agent"))

	transport, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok, "expected *http.Transport, got %T", c.httpClient.Transport)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestGet_SuccessNoRetry(t *testing.T) {
	t.Parallel()

	var hits int32
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		ua.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, Timeout: 2 * time.Second})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, UserAgent, ua.Load())
}

func TestGet_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	var waits []time.Duration
	c := NewClient(Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Logger:         zap.New(core),
	})
	c.sleep = noSleep(&waits)

	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, waits)
	assert.Equal(t, 2, logs.FilterMessage("retrying request").Len())
}

func TestGet_StopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var waits []time.Duration
	c := NewClient(Config{MaxRetries: 2})
	c.sleep = noSleep(&waits)

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retryable status 429")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Len(t, waits, 2)
}

func TestGet_NonRetryableStatusReturnsResponse(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 5})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGet_HeadersOverrideBase(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	c := NewClient(Config{BaseHeaders: http.Header{"X-Env": {"base"}, "Accept": {"application/zip"}}})
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"X-Env": {"override"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"override"}, got.Values("X-Env"))
	assert.Equal(t, "application/zip", got.Get("Accept"))
}

func TestGet_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{}).Get(context.Background(), "", nil)
	require.Error(t, err)
}

func TestGet_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(Config{}).Get(ctx, "http://example.invalid", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGet_TransportErrorIsRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("ok")),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})

	var waits []time.Duration
	c := NewClient(Config{MaxRetries: 1, Transport: rt})
	c.sleep = noSleep(&waits)

	resp, err := c.Get(context.Background(), "http://archive.test/odis_json.zip", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, waits, 1)
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{"first", 100 * time.Millisecond, 0, time.Second, 100 * time.Millisecond},
		{"doubles", 100 * time.Millisecond, 2, time.Second, 400 * time.Millisecond},
		{"clamped", 100 * time.Millisecond, 5, time.Second, time.Second},
		{"initial above max", 2 * time.Second, 0, time.Second, time.Second},
		{"huge attempt", time.Second, 64, 10 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffDuration(tt.initial, tt.attempt, tt.max))
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{
		200: false, 304: false, 400: false, 404: false,
		429: true, 500: true, 502: true, 503: true, 599: true,
	} {
		assert.Equal(t, want, isRetryableStatus(code), "status %d", code)
	}
}

func TestSleepWithContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepWithContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepWithContext(context.Background(), time.Millisecond))
}
