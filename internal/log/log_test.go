package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentExport)

	logger.Info("export written", FieldCompany, "EMS")

	out := buf.String()
	if !strings.Contains(out, "component=export") || !strings.Contains(out, "company=EMS") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithCompany("ESS").
		WithRecord("r1", "2025-08-01", "prune", 4).
		WithUser("Leonardo", "manager").
		WithError(errors.New("boom")).
		WithError(nil)

	if fields[FieldCompany] != "ESS" || fields[FieldQuantity] != 4 || fields[FieldRole] != "manager" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields[FieldError] != "boom" {
		t.Errorf("nil error must not overwrite existing error, got %v", fields[FieldError])
	}
	if len(fields.ToSlice()) != len(fields)*2 {
		t.Errorf("ToSlice must emit key/value pairs")
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)
	var seen *Logger

	h := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("expected http component logger in context, got %+v", seen)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}

func TestStructuredLoggerRecordEvents(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))

	sl.LogRecordSaved(context.Background(), "EMS", "r1", "2025-08-01", "prune", 3)
	sl.LogRecordsChanged(context.Background(), "EMS", OpClear, "")

	out := buf.String()
	for _, want := range []string{"record_id=r1", "operation=upsert", "operation=clear", "qty=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
