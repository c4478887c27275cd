package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateAdmit(t *testing.T) {
	t.Parallel()

	g := NewGate(300 * time.Second)
	orig := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name   string
		ev     Event
		want   bool
		reason string
	}{
		{"new message", Event{ID: "1", Channel: "C", Timestamp: orig}, true, ""},
		{"edit inside window", Event{ID: "1", Channel: "C", Timestamp: orig, EditedAt: orig.Add(300 * time.Second)}, true, ""},
		{"edit outside window", Event{ID: "1", Channel: "C", Timestamp: orig, EditedAt: orig.Add(301 * time.Second)}, false, SuppressStaleEdit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, reason := g.Admit(tt.ev)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestGateRecord(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Minute)
	orig := time.Unix(1_700_000_000, 0)
	ev := Event{ID: "1", Channel: "C1", Timestamp: orig}

	g.Record(ev)
	ok, reason := g.Admit(ev)
	assert.False(t, ok)
	assert.Equal(t, SuppressAnswered, reason)

	ok, _ = g.Admit(Event{ID: "1", Channel: "C2", Timestamp: orig})
	assert.True(t, ok, "ids are scoped to their channel")
}

func TestGatePrune(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	g.Record(Event{ID: "old", Channel: "C", Timestamp: now.Add(-2 * time.Minute)})
	g.Record(Event{ID: "new", Channel: "C", Timestamp: now.Add(-30 * time.Second)})

	assert.Equal(t, 1, g.Prune(now))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Seen(Event{ID: "new", Channel: "C"}))
	assert.False(t, g.Seen(Event{ID: "old", Channel: "C"}))
}

func TestGateConcurrentPrune(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Millisecond)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			ev := Event{ID: string(rune('a' + i%26)), Channel: "C", Timestamp: time.Now()}
			if ok, _ := g.Admit(ev); ok {
				g.Record(ev)
			}
			g.Prune(time.Now())
		})
	}
	wg.Wait()
}
