package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/esi/esi-bot/internal/ctxutil"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			log := NewWithWriter(tt.level, &bytes.Buffer{})
			if got := log.Level(); got != tt.want {
				t.Errorf("NewWithWriter(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter("info", &buf).Warn("disk almost full")

	entry := decodeLine(t, &buf)
	for _, field := range []string{"timestamp", "level", "message"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("JSON log missing required field %q", field)
		}
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
	if entry["message"] != "disk almost full" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.WithModule("esi").
		WithError(errors.New("boom")).
		WithFields(map[string]any{"host": "https://esi.evetech.net"}).
		Error("request failed")

	entry := decodeLine(t, &buf)
	if entry["module"] != "esi" {
		t.Errorf("module = %v", entry["module"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["host"] != "https://esi.evetech.net" {
		t.Errorf("host = %v", entry["host"])
	}
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	child := log.WithModule("bot")

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %s", buf.String())
	}

	if err := log.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug) error = %v", err)
	}
	child.Debug("visible")
	if buf.Len() == 0 {
		t.Error("child logger did not pick up level change")
	}

	if err := log.SetLevel("verbose"); err == nil {
		t.Error("SetLevel(verbose) error = nil, want error")
	}
}

func TestContextHandlerAddsTracingValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithUserID(context.Background(), "U12345")
	ctx = ctxutil.WithChannelID(ctx, "C67890")
	ctx = ctxutil.WithRequestID(ctx, "req-abc")
	ctx = ctxutil.WithMessageID(ctx, "1500000000.000200")

	log.InfoContext(ctx, "dispatched")

	entry := decodeLine(t, &buf)
	want := map[string]string{
		"user_id":    "U12345",
		"channel_id": "C67890",
		"request_id": "req-abc",
		"message_id": "1500000000.000200",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %s", k, entry[k], v)
		}
	}
}

func TestFanoutWritesToAllHandlers(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	h := &fanout{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h).With("service", "esi-bot")

	log.Info("only first")
	log.Error("both")

	if bytes.Count(a.Bytes(), []byte("\n")) != 2 {
		t.Errorf("first handler got %q", a.String())
	}
	if bytes.Count(b.Bytes(), []byte("\n")) != 1 {
		t.Errorf("second handler got %q", b.String())
	}
	if !bytes.Contains(b.Bytes(), []byte(`"service":"esi-bot"`)) {
		t.Errorf("attrs not propagated: %q", b.String())
	}
}
