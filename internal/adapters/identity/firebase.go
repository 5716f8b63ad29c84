// Package identity verifies bearer tokens issued by Firebase Authentication.
package identity

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

var _ ports.IdentityVerifier = (*FirebaseVerifier)(nil)

// TokenVerifier is the subset of *auth.Client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens on every call. Nothing is cached.
type FirebaseVerifier struct {
	tokens TokenVerifier
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(tokens TokenVerifier) *FirebaseVerifier {
	if tokens == nil {
		panic("identity: firebase verifier requires a token verifier")
	}

	return &FirebaseVerifier{tokens: tokens}
}

// Verify validates token and returns the caller's identity.
// Every failure is reported as domain.ErrUnauthenticated.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.NewUnauthenticatedError("empty token")
	}

	decoded, err := v.tokens.VerifyIDToken(ctx, token)
	if err != nil {
		reason := "invalid id token"
		if auth.IsIDTokenExpired(err) {
			reason = "id token expired"
		}

		logging.FromContext(ctx).DebugContext(ctx, "firebase token rejected",
			slog.String("reason", reason),
			slog.Any("error", err),
		)

		return nil, domain.NewUnauthenticatedError(reason)
	}

	if decoded.UID == "" {
		return nil, domain.NewUnauthenticatedError("token has no subject")
	}

	email, _ := decoded.Claims["email"].(string)

	return &domain.Identity{SubjectID: decoded.UID, Email: email}, nil
}
