package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"journals-backend/pkg/common"
	apperrors "journals-backend/pkg/errors"
	"journals-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

type stubGate struct {
	err   error
	calls int
}

func (g *stubGate) EnsureReady(ctx context.Context) error {
	g.calls++
	return g.err
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestConnectionGate_RefusesWhenUnavailable(t *testing.T) {
	// Arrange
	gate := &stubGate{err: apperrors.NewConnection("record store unavailable", errors.New("dial tcp: refused"))}
	rejected := 0
	called := false
	h := ConnectionGate(gate, GateOptions{OnReject: func() { rejected++ }}, zap.NewNop())(okHandler(&called))

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journals", nil))

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"message":"`+GateUnavailableMessage+`"}`, rec.Body.String())
	assert.False(t, called, "handler must not run")
	assert.Equal(t, 1, rejected)
}

func TestConnectionGate_PassesWhenReady(t *testing.T) {
	gate := &stubGate{}
	called := false
	h := ConnectionGate(gate, GateOptions{}, zap.NewNop())(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/journals/abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, 1, gate.calls)
}

func TestConnectionGate_SkipPaths(t *testing.T) {
	tests := []struct {
		path  string
		gated bool
	}{
		{path: "/health", gated: false},
		{path: "/health/deep", gated: true},
		{path: "/", gated: false},
		{path: "/static/app.css", gated: false},
		{path: "/ready", gated: true},
		{path: "/unknown", gated: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gate := &stubGate{err: errors.New("down")}
			called := false
			opts := GateOptions{SkipPaths: []string{"/health", "/", "/static/"}}
			h := ConnectionGate(gate, opts, zap.NewNop())(okHandler(&called))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, !tt.gated, called)
			if tt.gated {
				assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			}
		})
	}
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, seen)
	assert.Less(t, len(seen), 200)
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	collector := observability.NewCollector("test")
	r := chi.NewRouter()
	r.Use(Metrics(collector))
	r.Get("/api/journals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/journals/42", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		collector.HTTPRequests.WithLabelValues(http.MethodGet, "/api/journals/{id}", "404"),
	))
}

func TestTracing_StartsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	r := chi.NewRouter()
	r.Use(Tracing(provider.Tracer("test")))
	r.Get("/api/journals", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journals", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/journals", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), rec.Header().Get("X-Trace-ID"))
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
