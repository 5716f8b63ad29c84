package middleware

import "context"

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
)

// RequestIDFromContext returns the id stored by RequestID. The
// introspection client forwards it to the identity provider.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey{})
}

// CorrelationIDFromContext returns the id stored by CorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey{})
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func stringValue(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}

	v, _ := ctx.Value(key).(string)

	return v
}
