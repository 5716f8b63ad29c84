package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-api/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-api/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "token-introspection",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0.25,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("closing response body: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	_, err = New(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service name is required")
}

func TestNew_AppliesDefaults(t *testing.T) {
	client, err := New(&Config{
		ServiceName: "svc",
		BaseURL:     "https://auth.example.com/",
		Transport: config.TransportConfig{
			MaxIdleConns:        7,
			MaxIdleConnsPerHost: 3,
			IdleConnTimeout:     time.Minute,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", client.baseURL)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, 1, client.cfg.Retry.MaxAttempts)
	assert.Equal(t, "svc", client.ServiceName())
	assert.Equal(t, StateClosed, client.CircuitState())

	transport, ok := client.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	assert.Equal(t, 3, transport.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, transport.IdleConnTimeout)
}

func TestClient_PostForm(t *testing.T) {
	var (
		gotForm        url.Values
		gotContentType string
		gotAuth        string
		gotRequestID   string
		gotCorrelation string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/introspect", r.URL.Path)
		assert.NoError(t, r.ParseForm())

		gotForm = r.PostForm
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(middleware.HeaderRequestID)
		gotCorrelation = r.Header.Get(middleware.HeaderCorrelationID)

		_, _ = io.WriteString(w, `{"active":true}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AuthFunc = func(r *http.Request) { r.SetBasicAuth("api", "secret") }

	client, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := client.PostForm(ctx, "oauth/introspect", url.Values{"token": {"abc"}})
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", gotForm.Get("token"))
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, gotAuth, "Basic ")
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "corr-1", gotCorrelation)
}

func TestClient_RetriesServerErrorsWithBody(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.PostForm.Get("token"), "body must be replayed on retry")

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	resp, err := client.PostForm(context.Background(), "/introspect", url.Values{"token": {"abc"}})
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/")

	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "server error: 502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_CircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2

	client, err := New(cfg)
	require.NoError(t, err)

	for range 2 {
		_, err = client.Get(context.Background(), "/")
		require.ErrorIs(t, err, ErrRequestFailed)
	}

	assert.Equal(t, StateOpen, client.CircuitState())

	_, err = client.Get(context.Background(), "/")
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClient_CanceledContextStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.InitialInterval = time.Second
	cfg.Retry.MaxInterval = time.Second

	client, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Get(ctx, "/")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCalculateBackoff(t *testing.T) {
	client, err := New(testConfig("http://localhost"))
	require.NoError(t, err)

	for n := range 6 {
		wait := client.calculateBackoff(n)

		assert.Positive(t, wait)
		assert.LessOrEqual(t, wait, 25*time.Millisecond, "capped at max interval plus jitter")
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
	assert.False(t, isRetryableError(errors.New("plain")))
}

func TestBuildURL(t *testing.T) {
	client, err := New(testConfig("https://auth.example.com/"))
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", client.buildURL(""))
	assert.Equal(t, "https://auth.example.com/introspect", client.buildURL("introspect"))
	assert.Equal(t, "https://auth.example.com/introspect", client.buildURL("/introspect"))
}
