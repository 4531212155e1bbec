package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Micevski239/gerbera-sub000/internal/platform/requestctx"
)

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/homepage", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal_server_error" {
		t.Fatalf("unexpected body %v", body)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestRequestLoggerMiddlewareLogsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	chain := InjectLoggerMiddleware(zap.New(core))(RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestctx.Logger(r.Context()) == requestctx.NoopLogger() {
			t.Errorf("expected request logger on context")
		}
		w.WriteHeader(http.StatusNotFound)
	})))

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/products", nil))

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion log, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("expected warn level for 404, got %s", entries[0].Level)
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusNotFound) {
		t.Fatalf("unexpected status field %v", entries[0].ContextMap()["status"])
	}
}

func TestParseCloudTraceContext(t *testing.T) {
	sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if sc.TraceID().String() != "105445aa7843bc8bf206b12000100000" || !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("unexpected span context %+v", sc)
	}
	if _, ok := parseCloudTraceContext("short/1"); ok {
		t.Fatalf("expected malformed trace id to be rejected")
	}
	if _, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/zz"); ok {
		t.Fatalf("expected malformed span id to be rejected")
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("not-a-level")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("expected debug to be disabled")
	}
	if !logger.Core().Enabled(zap.InfoLevel) {
		t.Fatalf("expected info to be enabled")
	}
}
