package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const (
	// ContextKeyIdentity is the gin context key for the verified caller.
	ContextKeyIdentity = "identity"

	headerAuthorization   = "Authorization"
	headerWWWAuthenticate = "WWW-Authenticate"
	bearerScheme          = "Bearer"
)

// RequireBearer verifies the request's bearer token with verifier and stores
// the resulting identity for handlers. Requests without a valid token are
// aborted with 401 before any handler or body binding runs.
func RequireBearer(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, ok := BearerToken(c.GetHeader(headerAuthorization))
		if !ok {
			rejectUnauthenticated(c, domain.NewUnauthenticatedError("missing bearer token"))
			return
		}

		identity, err := verifier.Verify(ctx, token)
		if err != nil {
			rejectUnauthenticated(c, err)
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Request = c.Request.WithContext(logging.WithUserID(ctx, identity.SubjectID))

		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// GetIdentity returns the caller verified by RequireBearer, or nil.
func GetIdentity(c *gin.Context) *domain.Identity {
	if v, exists := c.Get(ContextKeyIdentity); exists {
		if identity, ok := v.(*domain.Identity); ok {
			return identity
		}
	}

	return nil
}

func rejectUnauthenticated(c *gin.Context, err error) {
	ctx := c.Request.Context()
	logging.FromContext(ctx).DebugContext(ctx, "request not authenticated", slog.Any("error", err))

	if !domain.IsUnauthenticated(err) {
		err = domain.NewUnauthenticatedError(err.Error())
	}

	c.Header(headerWWWAuthenticate, bearerScheme)
	dto.AbortWithError(c, err)
}
