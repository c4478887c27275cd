package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		if userID := GetUserID(context.Background()); userID != "" {
			t.Errorf("Expected empty string, got %s", userID)
		}
	})

	t.Run("with user ID", func(t *testing.T) {
		t.Parallel()
		ctx := WithUserID(context.Background(), "U1234567890")
		if userID := GetUserID(ctx); userID != "U1234567890" {
			t.Errorf("Expected userID U1234567890, got %s", userID)
		}
	})
}

func TestChannelIDContext(t *testing.T) {
	t.Parallel()

	ctx := WithChannelID(context.Background(), "C024BE91L")
	if got := GetChannelID(ctx); got != "C024BE91L" {
		t.Errorf("Expected channel C024BE91L, got %s", got)
	}
	if got := GetChannelID(context.Background()); got != "" {
		t.Errorf("Expected empty channel, got %s", got)
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("Expected no request ID on empty context")
	}

	ctx := WithRequestID(context.Background(), "req-1")
	requestID, ok := GetRequestID(ctx)
	if !ok || requestID != "req-1" {
		t.Errorf("Expected req-1, got %q (ok=%v)", requestID, ok)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithUserID(parent, "U1")
	parent = WithChannelID(parent, "C1")
	parent = WithRequestID(parent, "R1")
	parent = WithMessageID(parent, "1500000000.000100")
	cancel()

	detached := PreserveTracing(parent)

	if detached.Err() != nil {
		t.Errorf("Detached context should not be canceled, got %v", detached.Err())
	}
	if _, ok := detached.Deadline(); ok {
		t.Error("Detached context should not carry a deadline")
	}
	if GetUserID(detached) != "U1" || GetChannelID(detached) != "C1" || GetMessageID(detached) != "1500000000.000100" {
		t.Error("Tracing values were not preserved")
	}
	if id, _ := GetRequestID(detached); id != "R1" {
		t.Errorf("Expected request ID R1, got %s", id)
	}
}
