package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/esi/esi-bot/internal/bot"
)

func (h *Handlers) refresh(ctx context.Context, req bot.Request) (bot.Reply, error) {
	host := h.host(req.Message)
	updated := h.specs.Refresh(ctx, host)
	h.logger.WithField("host", host).
		WithField("updated", updated).
		InfoContext(ctx, "Refreshed specs on request")
	return bot.Text{Content: RefreshMessage(updated)}, nil
}

// RefreshMessage describes the versions a refresh updated.
func RefreshMessage(updated []string) string {
	switch len(updated) {
	case 0:
		return "my internal specs are up to date (try again later)"
	case 1:
		return fmt.Sprintf("I refreshed my internal copy of the %s spec", updated[0])
	default:
		last := len(updated) - 1
		return fmt.Sprintf("I refreshed my internal copy of the %s and %s specs",
			strings.Join(updated[:last], ", "), updated[last])
	}
}
