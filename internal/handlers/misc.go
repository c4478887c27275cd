package handlers

import (
	"context"

	"github.com/esi/esi-bot/internal/bot"
	"github.com/esi/esi-bot/internal/buildinfo"
)

func (h *Handlers) hello(_ context.Context, req bot.Request) (bot.Reply, error) {
	mention := req.Mention()
	switch {
	case req.Flag("whatup"):
		return bot.Text{Content: "not much. whatup " + mention}, nil
	case req.Command == "o7" || req.Command == "o/":
		return bot.Text{Content: "o7 " + mention}, nil
	case req.Command == "7o" || req.Command == `\o`:
		return bot.Text{Content: "7o " + mention}, nil
	default:
		return bot.Text{Content: "hey " + mention + " howsit goin?"}, nil
	}
}

func (h *Handlers) version(context.Context, bot.Request) (bot.Reply, error) {
	return bot.Text{Content: "ESI-bot version " + buildinfo.DisplayVersion()}, nil
}
