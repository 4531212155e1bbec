// Package requestctx carries per-request values (logger, trace, language)
// between middleware and handlers.
package requestctx

import (
	"context"

	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/i18n"
)

type (
	loggerKey   struct{}
	traceKey    struct{}
	languageKey struct{}
)

var nop = zap.NewNop()

// TraceInfo is the Cloud Trace span a request belongs to.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

func with(ctx context.Context, key, value any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func lookup[T any](ctx context.Context, key any) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// WithLogger attaches logger to ctx. A nil logger attaches a no-op one.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return with(ctx, loggerKey{}, logger)
}

// Logger returns the request logger, never nil.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := lookup[*zap.Logger](ctx, loggerKey{}); ok && logger != nil {
		return logger
	}
	return nop
}

// NoopLogger is the logger handed out when none was attached.
func NoopLogger() *zap.Logger { return nop }

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return with(ctx, traceKey{}, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	return lookup[TraceInfo](ctx, traceKey{})
}

// TraceID is "" outside a traced request.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithLanguage records the language negotiated for the request.
func WithLanguage(ctx context.Context, lang i18n.Language) context.Context {
	return with(ctx, languageKey{}, lang)
}

// Language returns the negotiated language, falling back to i18n.Default.
func Language(ctx context.Context) i18n.Language {
	if lang, ok := lookup[i18n.Language](ctx, languageKey{}); ok && lang.Valid() {
		return lang
	}
	return i18n.Default
}
