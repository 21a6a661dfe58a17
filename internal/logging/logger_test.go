package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	if got := TraceIDFromContext(ctx); got != "trace-123" {
		t.Errorf("TraceIDFromContext = %q, want trace-123", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty trace id from bare context, got %q", got)
	}
}

func TestNewTraceID_Unique(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty trace ids, got %q and %q", a, b)
	}
}

func TestMiddleware_GeneratesTraceID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("expected a trace id in the request context")
	}
	if got := rec.Header().Get(TraceHeader); got != seen {
		t.Errorf("response header %s = %q, want %q", TraceHeader, got, seen)
	}
}

func TestMiddleware_HonorsIncomingTraceID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "caller-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "caller-supplied" {
		t.Errorf("expected the incoming trace id to be kept, got %q", seen)
	}
	if got := rec.Header().Get(TraceHeader); got != "caller-supplied" {
		t.Errorf("response header = %q, want caller-supplied", got)
	}
}
