package bot

import (
	"sync"
	"time"
)

// Suppression reasons reported by Gate.Admit.
const (
	SuppressAnswered  = "answered"
	SuppressStaleEdit = "stale_edit"
)

// Event is one inbound chat message, or an edit of one.
type Event struct {
	// ID is the transport id of the original message. Edits share it.
	ID        string
	Channel   string
	User      string
	Text      string
	Timestamp time.Time
	// EditedAt is zero unless the event is an edit.
	EditedAt time.Time
}

// Edited reports whether the event is an edit of an earlier message.
func (e Event) Edited() bool {
	return !e.EditedAt.IsZero()
}

func (e Event) key() string {
	return e.Channel + "/" + e.ID
}

// Gate remembers which messages already got an answer so redelivered or
// edited events are not answered twice.
type Gate struct {
	mu       sync.Mutex
	window   time.Duration
	answered map[string]time.Time
}

// NewGate creates a gate honoring edits made within window of the original.
func NewGate(window time.Duration) *Gate {
	return &Gate{
		window:   window,
		answered: make(map[string]time.Time),
	}
}

// Admit reports whether ev should be dispatched, and why not when it
// should not.
func (g *Gate) Admit(ev Event) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.answered[ev.key()]; ok {
		return false, SuppressAnswered
	}
	if ev.Edited() && ev.EditedAt.Sub(ev.Timestamp) > g.window {
		return false, SuppressStaleEdit
	}
	return true, ""
}

// Record marks ev as answered. Call it only after a visible reply was sent.
func (g *Gate) Record(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.answered[ev.key()]; !ok {
		g.answered[ev.key()] = ev.Timestamp
	}
}

// Seen reports whether ev has been recorded.
func (g *Gate) Seen(ev Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.answered[ev.key()]
	return ok
}

// Prune drops entries whose original message is older than the window and
// returns how many were removed.
func (g *Gate) Prune(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for k, ts := range g.answered {
		if now.Sub(ts) > g.window {
			delete(g.answered, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of recorded messages.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.answered)
}
