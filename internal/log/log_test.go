package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetmanager/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})

	logger.Debug("hidden")
	logger.Info("Mirrored entry", FieldActivityID, 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec[FieldComponent] != ComponentWorker {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentWorker)
	}
	if rec[FieldActivityID] != float64(7) {
		t.Errorf("activity_id = %v, want 7", rec[FieldActivityID])
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("Component() = %s", logger.Component())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf}).WithComponent(ComponentHTTP)
	logger.Info("hello")

	if !strings.Contains(buf.String(), "component=http") {
		t.Errorf("missing component in %q", buf.String())
	}
	if logger.Component() != ComponentHTTP {
		t.Errorf("Component() = %s, want http", logger.Component())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Logger == nil {
		t.Fatal("FromContext returned nil logger")
	}
	if logger.Component() != "unknown" {
		t.Errorf("Component() = %s, want unknown", logger.Component())
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "text", Output: &buf, Component: ComponentHTTP})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside handler")
		})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id not propagated: %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentImport).
		WithYearMonth(core.YearMonth{Year: 2024, Month: 3}).
		WithImport("tok", 3).
		WithActor("").
		WithError(nil)

	if fields[FieldYear] != 2024 || fields[FieldMonth] != 3 {
		t.Errorf("year/month fields = %v/%v", fields[FieldYear], fields[FieldMonth])
	}
	if fields[FieldAccountID] != int64(3) {
		t.Errorf("account_id = %v", fields[FieldAccountID])
	}
	if _, ok := fields[FieldActor]; ok {
		t.Error("empty actor should be skipped")
	}
	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should be skipped")
	}
	if got := len(fields.ToSlice()); got != 2*len(fields) {
		t.Errorf("ToSlice() has %d items, want %d", got, 2*len(fields))
	}

	resp := NewFields().WithHTTPResponse(404, 12)
	if resp[FieldSuccess] != false {
		t.Errorf("success = %v for 404", resp[FieldSuccess])
	}
}
