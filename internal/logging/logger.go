// Package logging provides structured JSON logging with trace-ID
// propagation. Every HTTP request gets a trace ID (incoming X-Trace-ID, or a
// fresh one) that rides the request context; FromContext returns a logger
// pre-annotated with it, and the analysis log persists it per run so a log
// line and its database row can be correlated.
package logging

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey struct{}

var traceIDKey contextKey

// TraceHeader is the HTTP header carrying the trace ID in both directions.
const TraceHeader = "X-Trace-ID"

// Logger is the process-wide structured logger. Request-scoped code should
// prefer FromContext(ctx) so the trace ID is attached.
var Logger *slog.Logger

func init() {
	Setup(os.Getenv("TUBELENS_LOG_LEVEL"), os.Getenv("TUBELENS_LOG_FORMAT"))
}

// Setup (re-)initialises the package logger and the slog default. level is
// one of debug/info/warn/error (default info); format is "json" (default)
// or "text".
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewTraceID generates a fresh trace ID.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext retrieves the trace ID stored in the context, or ""
// when the context carries none.
func TraceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// FromContext returns a *slog.Logger annotated with the trace_id from ctx.
func FromContext(ctx context.Context) *slog.Logger {
	if id := TraceIDFromContext(ctx); id != "" {
		return Logger.With("trace_id", id)
	}
	return Logger
}

// Middleware puts a trace ID into every request context and echoes it in the
// response. An incoming X-Trace-ID is honored so a caller can correlate its
// own logs with ours; otherwise a new ID is generated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = NewTraceID()
		}
		ctx := WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
