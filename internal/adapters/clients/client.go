package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotes-api/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-api/internal/platform/config"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotes-api/internal/adapters/clients"

	defaultTimeout = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path.
	BaseURL string

	// ServiceName labels logs, spans and metrics for the downstream.
	ServiceName string

	// Timeout bounds a single attempt. Retries can exceed it in total.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc decorates every attempt, including retries.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client is an instrumented HTTP client for one downstream service.
// Every call is traced and measured, guarded by a circuit breaker and
// retried with exponential backoff on transport faults and 5xx responses.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	logger  *slog.Logger
	breaker *CircuitBreaker
	tracer  trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a client. ServiceName is required.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("downstream", c.ServiceName))

	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   c.Circuit.MaxFailures,
		Timeout:       c.Circuit.Timeout,
		HalfOpenLimit: c.Circuit.HalfOpenLimit,
	})
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Outbound HTTP requests by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.Transport.MaxIdleConns > 0 {
		transport.MaxIdleConns = c.Transport.MaxIdleConns
	}

	if c.Transport.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.Transport.MaxIdleConnsPerHost
	}

	if c.Transport.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = c.Transport.IdleConnTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: c.Timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(c.BaseURL, "/"),
		cfg:             c,
		logger:          logger,
		breaker:         breaker,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Do sends req through the breaker, retry loop and tracing.
// Requests with a body are only retried when req.GetBody is set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.record(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	c.injectHeaders(ctx, req)

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.cfg.ServiceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.cfg.ServiceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.attempt(ctx, req, logger)
	duration := time.Since(start)

	if err != nil {
		c.breaker.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, 0, duration, "error")
		logger.ErrorContext(ctx, "request failed",
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)

		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.record(ctx, req.Method, resp.StatusCode, duration, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Log(ctx, logging.LevelTrace, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// attempt runs the retry loop.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for n := range c.cfg.Retry.MaxAttempts {
		if n > 0 {
			if err := c.backoff(ctx, req, n, logger); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		switch {
		case err != nil && isRetryableError(err):
			lastErr = err
		case err != nil:
			return nil, err
		case resp.StatusCode >= http.StatusInternalServerError:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		default:
			return resp, nil
		}

		logger.DebugContext(ctx, "attempt failed",
			slog.Int("attempt", n+1),
			slog.Any("error", lastErr),
		)
	}

	return nil, lastErr
}

// backoff sleeps before retry n and rewinds the request body.
func (c *Client) backoff(ctx context.Context, req *http.Request, n int, logger *slog.Logger) error {
	wait := c.calculateBackoff(n)
	logger.DebugContext(ctx, "retrying request",
		slog.Int("attempt", n+1),
		slog.Duration("backoff", wait),
	)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("rewinding request body: %w", err)
		}

		req.Body = body
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}

	return nil
}

// PostForm sends form-encoded values. The body is rewindable, so retries are safe.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// CircuitState reports the breaker state.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

// ServiceName returns the downstream name.
func (c *Client) ServiceName() string {
	return c.cfg.ServiceName
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.baseURL
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff returns initial*multiplier^n capped at the max interval,
// spread by ±JitterFactor.
func (c *Client) calculateBackoff(n int) time.Duration {
	wait := float64(c.cfg.Retry.InitialInterval) * math.Pow(c.cfg.Retry.Multiplier, float64(n))
	if limit := float64(c.cfg.Retry.MaxInterval); limit > 0 && wait > limit {
		wait = limit
	}

	jitter := wait * c.cfg.Retry.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec // jitter needs no crypto randomness

	return time.Duration(wait + jitter)
}

func (c *Client) record(ctx context.Context, method string, status int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// isRetryableError reports transport faults worth another attempt.
// Cancellation and deadline expiry are final.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
