package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/esi/esi-bot/internal/bot"
)

const (
	serverTimeLayout     = "2006-01-02T15:04:05Z"
	serverIndeterminate  = "Cannot determine server status. It might be offline, or experiencing connectivity issues."
	datasourceTQ         = "tranquility"
	datasourceSerenity   = "serenity"
	serverStatusTemplate = "%s/v1/status/?datasource=%s"
)

// ServerStatus is the body of /v1/status/.
type ServerStatus struct {
	Players       int    `json:"players"`
	ServerVersion string `json:"server_version"`
	StartTime     string `json:"start_time"`
	VIP           *bool  `json:"vip"`
}

func (h *Handlers) tranquility(ctx context.Context, _ bot.Request) (bot.Reply, error) {
	return h.serverStatus(ctx, h.hosts.Tranquility, datasourceTQ), nil
}

func (h *Handlers) serenity(ctx context.Context, _ bot.Request) (bot.Reply, error) {
	return h.serverStatus(ctx, h.hosts.China, datasourceSerenity), nil
}

func (h *Handlers) serverStatus(ctx context.Context, host, datasource string) bot.Reply {
	res := h.api.Get(ctx, fmt.Sprintf(serverStatusTemplate, host, datasource))
	name := capitalize(datasource)

	var attachment slack.Attachment
	switch res.StatusCode {
	case http.StatusOK:
		var status ServerStatus
		if err := res.Decode(&status); err != nil {
			attachment = indeterminate(name)
			break
		}
		attachment = onlineAttachment(name, status, h.now())
	case http.StatusServiceUnavailable:
		attachment = slack.Attachment{
			Color:    "danger",
			Title:    name + " status",
			Text:     "Offline",
			Fallback: name + " status: Offline",
		}
	default:
		attachment = indeterminate(name)
	}
	return bot.Rich{Attachments: []slack.Attachment{attachment}}
}

func onlineAttachment(name string, status ServerStatus, now time.Time) slack.Attachment {
	p := message.NewPrinter(language.English)
	vip := status.VIP != nil && *status.VIP

	running := "unknown"
	if started, err := time.Parse(serverTimeLayout, status.StartTime); err == nil {
		running = RunningFor(now.Sub(started))
	}

	fields := []slack.AttachmentField{
		{Title: "Players online", Value: p.Sprintf("%d", status.Players)},
		{Title: "Started at", Value: status.StartTime, Short: true},
		{Title: "Running for", Value: running, Short: true},
	}
	color := "good"
	suffix := ""
	if vip {
		fields = append([]slack.AttachmentField{{Title: "In VIP mode"}}, fields...)
		color = "warning"
		suffix = ", in VIP"
	}

	return slack.Attachment{
		Color:    color,
		Title:    name + " status",
		Fields:   fields,
		Fallback: p.Sprintf("%s status: %d online, started at %s%s", name, status.Players, status.StartTime, suffix),
	}
}

func indeterminate(name string) slack.Attachment {
	return slack.Attachment{
		Color:    "danger",
		Title:    name + " status",
		Text:     serverIndeterminate,
		Fallback: name + " status: " + serverIndeterminate,
	}
}

// RunningFor renders an uptime as hours and minutes.
func RunningFor(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	return plural(hours, "hour") + ", " + plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
