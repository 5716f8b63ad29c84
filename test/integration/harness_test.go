//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-api/internal/adapters/clients/acl"
	apihttp "github.com/jsamuelsen/quotes-api/internal/adapters/http"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-api/internal/adapters/store/bolt"
	"github.com/jsamuelsen/quotes-api/internal/app"
	"github.com/jsamuelsen/quotes-api/internal/platform/config"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const (
	providerClientID     = "quotes-api"
	providerClientSecret = "s3cret"
	introspectPath       = "/oauth2/introspect"
)

// subject is what the fake provider knows about a token.
type subject struct {
	ID    string
	Email string
}

// fakeProvider is an RFC 7662 introspection endpoint backed by a token table.
type fakeProvider struct {
	mu     sync.RWMutex
	tokens map[string]subject
	calls  atomic.Int32
	down   atomic.Bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{tokens: make(map[string]subject)}
}

func (p *fakeProvider) issue(token string, s subject) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tokens[token] = s
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)

	if p.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != providerClientID || secret != providerClientSecret {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)

		return
	}

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mu.RLock()
	s, known := p.tokens[r.PostForm.Get("token")]
	p.mu.RUnlock()

	body := map[string]any{"active": false}
	if known {
		body = map[string]any{
			"active": true,
			"sub":    s.ID,
			"email":  s.Email,
			"exp":    time.Now().Add(time.Hour).Unix(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// harness runs the API in process on a bolt store, authenticating
// through the introspection client against a fake provider.
type harness struct {
	api      *httptest.Server
	provider *fakeProvider
}

func testClientConfig(baseURL string) *clients.Config {
	return &clients.Config{
		BaseURL:     baseURL,
		ServiceName: "token-introspection",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		AuthFunc: acl.BasicAuth(providerClientID, providerClientSecret),
		Logger:   discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHarness(tb testing.TB) *harness {
	tb.Helper()

	gin.SetMode(gin.TestMode)

	provider := newFakeProvider()
	providerServer := httptest.NewServer(provider)
	tb.Cleanup(providerServer.Close)

	client, err := clients.New(testClientConfig(providerServer.URL))
	if err != nil {
		tb.Fatalf("creating introspection client: %v", err)
	}

	store, err := bolt.Open(bolt.Config{Path: filepath.Join(tb.TempDir(), "quotes.db"), Bucket: "quotes"})
	if err != nil {
		tb.Fatalf("opening bolt store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	registry := ports.NewHealthRegistry()
	if err := registry.Register(store); err != nil {
		tb.Fatalf("registering store: %v", err)
	}

	engine := gin.New()
	apihttp.SetupRouter(engine, apihttp.RouterConfig{
		ServiceName:   "quotes-api-integration",
		CORS:          config.CORSConfig{AllowedOrigins: []string{"*"}},
		Timeout:       5 * time.Second,
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("it", "none", "now")),
		QuoteHandler: handlers.NewQuoteHandler(app.NewQuoteService(app.QuoteServiceConfig{
			Repository: store,
			Logger:     discardLogger(),
		})),
		Verifier: acl.NewIntrospectionVerifier(client, introspectPath),
	})

	api := httptest.NewServer(engine)
	tb.Cleanup(api.Close)

	return &harness{api: api, provider: provider}
}
