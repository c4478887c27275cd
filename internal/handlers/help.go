package handlers

import (
	"context"
	"fmt"

	"github.com/esi/esi-bot/internal/bot"
)

const unknownCommand = "I'm sorry, that's an unknown command."

// help answers "help <command>" with extended help, and anything else with
// the command list. Reached as the unmatched fallback it replies ephemerally.
func (h *Handlers) help(_ context.Context, req bot.Request) (bot.Reply, error) {
	if args := req.Positional(); len(args) > 0 {
		if doc, ok := h.registry.Help(args[0]); ok {
			return bot.Text{Content: fmt.Sprintf("ESI-bot help for %s:\n>>>%s", args[0], doc)}, nil
		}
	}

	list := h.registry.CommandList()
	if req.Command == bot.HelpCommand {
		return bot.Text{Content: list}, nil
	}
	return bot.Ephemeral{Content: unknownCommand + " " + list}, nil
}
