package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

const (
	msgUnauthenticated = "authentication required"
	msgInternal        = "an internal error occurred"
)

// MapDomainError maps err to an HTTP status and error body. Only the domain
// error's own message is exposed, never the wrapping context. Store and
// provider faults (domain.ErrUnavailable) and unknown errors become a masked
// 500.
func MapDomainError(err error) (int, *ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusOK, nil

	case domain.IsUnauthenticated(err):
		return http.StatusUnauthorized, NewErrorResponse(ErrorCodeUnauthorized, msgUnauthenticated)

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(
			ErrorCodeNotFound,
			publicMessage[*domain.NotFoundError](err, domain.ErrNotFound),
		)

	case domain.IsForbidden(err):
		return http.StatusForbidden, NewErrorResponse(
			ErrorCodeForbidden,
			publicMessage[*domain.ForbiddenError](err, domain.ErrForbidden),
		)

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(
			ErrorCodeConflict,
			publicMessage[*domain.ConflictError](err, domain.ErrConflict),
		)

	case domain.IsValidation(err):
		resp := NewErrorResponse(
			ErrorCodeValidation,
			publicMessage[*domain.ValidationError](err, domain.ErrValidation),
		)

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}

		return http.StatusBadRequest, resp

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, msgInternal)
	}
}

// publicMessage returns the message of the first T in err's chain, or the
// sentinel's text when err carries no T.
func publicMessage[T error](err, sentinel error) string {
	var target T
	if errors.As(err, &target) {
		return target.Error()
	}

	return sentinel.Error()
}

// GetTraceID returns the current trace id, or "" outside a sampled span.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}

// HandleError writes the error envelope for err. Server-side failures are
// logged with the full error chain.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed",
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	c.JSON(status, resp)
}

// HandleBindError writes a 400 for a body that failed BindAndValidate.
func HandleBindError(c *gin.Context, err error) {
	var resp *ErrorResponse

	if details := ValidationErrors(err); len(details) > 0 {
		resp = NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", details)
	} else {
		resp = NewErrorResponse(ErrorCodeBadRequest, "request body must be a JSON object with text and author")
	}

	c.JSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))
}

// AbortWithError aborts the handler chain with the envelope for err.
func AbortWithError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	c.AbortWithStatusJSON(status, resp.WithTraceID(GetTraceID(c)))
}

// AbortWithErrorCode aborts the handler chain with a fixed code and message.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}
