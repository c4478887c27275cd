package slackbot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/slack-go/slack"

	"github.com/esi/esi-bot/internal/logger"
)

// ErrNoPrimaryChannel is returned when the first allowed channel could not be joined.
var ErrNoPrimaryChannel = errors.New("slackbot: primary channel not joined")

const conversationsPageSize = 200

// Channels is the allow-list. It is configured with channel names; Slack
// events carry ids, so Join resolves and enters them.
type Channels struct {
	api     API
	allowed []string
	log     *logger.Logger

	mu      sync.RWMutex
	joined  map[string]string // id -> name
	primary string
}

// NewChannels creates an allow-list. The first name is the primary channel.
func NewChannels(api API, allowed []string, log *logger.Logger) *Channels {
	return &Channels{
		api:     api,
		allowed: allowed,
		log:     log.WithModule("channels"),
		joined:  make(map[string]string),
	}
}

// Join lists public channels and joins the allowed ones. It fails when the
// primary channel could not be joined.
func (c *Channels) Join(ctx context.Context) error {
	byName, err := c.list(ctx)
	if err != nil {
		return err
	}

	joined := make(map[string]string)
	primary := ""
	for i, name := range c.allowed {
		id, ok := byName[name]
		if !ok {
			c.log.WithField("channel", name).Warn("Allowed channel does not exist")
			continue
		}
		if _, _, _, err := c.api.JoinConversationContext(ctx, id); err != nil {
			c.log.WithError(err).WithField("channel", name).Warn("Failed to join channel")
			continue
		}
		joined[id] = name
		if i == 0 {
			primary = id
		}
	}

	c.mu.Lock()
	c.joined = joined
	c.primary = primary
	c.mu.Unlock()

	if primary == "" {
		return ErrNoPrimaryChannel
	}
	c.log.WithField("joined", len(joined)).Info("Joined channels")
	return nil
}

func (c *Channels) list(ctx context.Context) (map[string]string, error) {
	byName := make(map[string]string)
	cursor := ""
	for {
		page, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor:          cursor,
			ExcludeArchived: true,
			Limit:           conversationsPageSize,
			Types:           []string{"public_channel"},
		})
		if err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		for _, ch := range page {
			if slices.Contains(c.allowed, ch.Name) {
				byName[ch.Name] = ch.ID
			}
		}
		if next == "" {
			return byName, nil
		}
		cursor = next
	}
}

// Allowed reports whether events from the channel id should be processed.
func (c *Channels) Allowed(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.joined[id]
	return ok
}

// Name returns the channel name for a joined id.
func (c *Channels) Name(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joined[id]
}

// Primary returns the primary channel id, or "" before Join succeeds.
func (c *Channels) Primary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primary
}
