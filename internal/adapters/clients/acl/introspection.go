package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const introspectOperation = "introspect token"

var _ ports.IdentityVerifier = (*IntrospectionVerifier)(nil)

// Poster is the subset of *clients.Client the verifier needs.
type Poster interface {
	PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error)
	ServiceName() string
}

// IntrospectionVerifier validates opaque bearer tokens against an
// RFC 7662 introspection endpoint. Every call asks the server again.
type IntrospectionVerifier struct {
	client Poster
	path   string
}

// NewIntrospectionVerifier builds a verifier that posts to path on client.
// Client credentials belong on the client's AuthFunc.
func NewIntrospectionVerifier(client Poster, path string) *IntrospectionVerifier {
	if client == nil {
		panic("acl: introspection verifier requires a client")
	}

	return &IntrospectionVerifier{client: client, path: path}
}

// BasicAuth returns a clients.Config AuthFunc that sends client credentials.
func BasicAuth(clientID, clientSecret string) func(*http.Request) {
	return func(r *http.Request) {
		r.SetBasicAuth(url.QueryEscape(clientID), url.QueryEscape(clientSecret))
	}
}

// Verify resolves token into an identity. Inactive tokens and every
// server or transport failure come back as domain.ErrUnauthenticated.
func (v *IntrospectionVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.NewUnauthenticatedError("empty token")
	}

	logger := logging.FromContext(ctx)

	resp, err := v.client.PostForm(ctx, v.path, url.Values{
		"token":           {token},
		"token_type_hint": {"access_token"},
	})
	if err != nil {
		return nil, v.reject(ctx, logger, MapHTTPError(nil, err, v.client.ServiceName(), introspectOperation))
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()

		cause := MapHTTPError(resp, nil, v.client.ServiceName(), introspectOperation)
		if cause == nil {
			cause = domain.NewUnavailableError(v.client.ServiceName(), fmt.Sprintf("unexpected status %d", resp.StatusCode))
		}

		return nil, v.reject(ctx, logger, cause)
	}

	verdict, err := DecodeResponse[introspectionResponse](resp.Body)
	if err != nil {
		return nil, v.reject(ctx, logger, domain.NewUnavailableError(v.client.ServiceName(), err.Error()))
	}

	identity, err := translateIntrospection(verdict)
	if err != nil {
		logger.DebugContext(ctx, "token rejected by introspection", slog.Any("error", err))
		return nil, err
	}

	return identity, nil
}

// reject logs cause and returns an unauthenticated error. Rejections the
// server made on purpose log at DEBUG; faults log at WARN.
func (v *IntrospectionVerifier) reject(ctx context.Context, logger *slog.Logger, cause error) error {
	if domain.IsUnauthenticated(cause) {
		logger.DebugContext(ctx, "token rejected by introspection", slog.Any("error", cause))
		return cause
	}

	logger.WarnContext(ctx, "token introspection failed", slog.Any("error", cause))

	return domain.NewUnauthenticatedError("identity provider unavailable")
}
