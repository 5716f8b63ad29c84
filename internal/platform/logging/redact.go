package logging

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	jwtPattern       = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	bearerPattern    = regexp.MustCompile(`(?i)^bearer\s+.+$`)
	basicAuthPattern = regexp.MustCompile(`(?i)^basic\s+.+$`)
)

// DefaultRedactOptions returns the masq options applied to every log sink.
// They cover bearer tokens, Firebase ID tokens and the introspection
// client credentials wherever they appear as fields or values.
func DefaultRedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("token"),
		masq.WithFieldName("id_token"),
		masq.WithFieldName("idToken"),
		masq.WithFieldName("access_token"),
		masq.WithFieldName("accessToken"),
		masq.WithFieldName("refresh_token"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("client_secret"),
		masq.WithFieldName("ClientSecret"),
		masq.WithFieldName("password"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("private_key"),

		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),

		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(basicAuthPattern),
	}
}

// NewReplaceAttr creates a slog ReplaceAttr function that redacts secrets.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	allOpts := append(DefaultRedactOptions(), opts...)
	return masq.New(allOpts...)
}

// redactHandler applies a ReplaceAttr function for handlers that lack one,
// such as the charm pretty printer.
type redactHandler struct {
	next    slog.Handler
	replace func(groups []string, a slog.Attr) slog.Attr
	groups  []string
}

func newRedactHandler(next slog.Handler, replace func([]string, slog.Attr) slog.Attr) *redactHandler {
	return &redactHandler{next: next, replace: replace}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.replace(h.groups, a))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.replace(h.groups, a)
	}

	return &redactHandler{next: h.next.WithAttrs(clean), replace: h.replace, groups: h.groups}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	groups := append(append([]string(nil), h.groups...), name)

	return &redactHandler{next: h.next.WithGroup(name), replace: h.replace, groups: groups}
}
