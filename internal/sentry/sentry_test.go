package sentry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Sentry keeps its client in a global hub, so these tests are not parallel.

func TestInitialize_EmptyDSN(t *testing.T) {
	if err := Initialize(Config{DSN: ""}); err != nil {
		t.Errorf("Expected nil error for empty DSN, got %v", err)
	}
}

func TestInitialize_InvalidDSN(t *testing.T) {
	if err := Initialize(Config{DSN: "not a dsn"}); err == nil {
		t.Error("Expected error for malformed DSN")
	}
}

func TestInitialize_ValidConfig(t *testing.T) {
	err := Initialize(Config{
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
		SampleRate:  0, // defaults to 1.0
	})
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	if !IsEnabled() {
		t.Error("Expected IsEnabled() to return true after initialization")
	}

	// Capturing must never block or panic, even without a reachable server.
	CaptureExceptionWithContext(context.Background(), errors.New("boom"), map[string]string{"command": "item"})
	CaptureException(errors.New("boom"))
	Flush(100 * time.Millisecond)
}
