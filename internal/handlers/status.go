package handlers

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/esi/esi-bot/internal/bot"
	domerrors "github.com/esi/esi-bot/internal/errors"
)

const (
	statusFetchFailed = ":fire: (failed to fetch status.json)"
	// statusListLimit is the route count above which the list is cut to statusListShown.
	statusListLimit = 99
	statusListShown = 80
)

// RouteStatus is one entry of ESI's status.json.
type RouteStatus struct {
	Endpoint string   `json:"endpoint"`
	Method   string   `json:"method"`
	Route    string   `json:"route"`
	Status   string   `json:"status"`
	Tags     []string `json:"tags"`
}

type statusCacheEntry struct {
	fetched time.Time
	routes  []RouteStatus
}

var statusCategories = []struct {
	status string
	emoji  string
	color  string
}{
	{"red", ":fire:", "danger"},
	{"yellow", ":fire_engine:", "warning"},
}

// capitalize title-cases s. Casers are stateful, so each call gets its own.
func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}

// esiStatus summarizes degraded routes. status.json is cached per host; a
// failed fetch leaves the cached copy in place.
func (h *Handlers) esiStatus(ctx context.Context, req bot.Request) (bot.Reply, error) {
	routes, err := h.routeStatuses(ctx, h.host(req.Message))
	if err != nil {
		return nil, err
	}
	return bot.Rich{Attachments: StatusAttachments(routes)}, nil
}

func (h *Handlers) routeStatuses(ctx context.Context, host string) ([]RouteStatus, error) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()

	cached, ok := h.status[host]
	if ok && h.now().Sub(cached.fetched) <= h.statusTTL {
		return cached.routes, nil
	}

	url := host + "/status.json"
	res := h.api.Get(ctx, url)
	if res.StatusCode != 200 {
		return nil, domerrors.NewUserError(statusFetchFailed,
			domerrors.NewUpstreamError(url, res.StatusCode, fmt.Errorf("status %d", res.StatusCode)))
	}
	var routes []RouteStatus
	if err := res.Decode(&routes); err != nil {
		return nil, domerrors.NewUserError(statusFetchFailed, err)
	}

	h.status[host] = statusCacheEntry{fetched: h.now(), routes: routes}
	return routes, nil
}

// StatusAttachments builds one attachment per degraded category, or a single
// ":ok_hand:" when everything is green.
func StatusAttachments(routes []RouteStatus) []slack.Attachment {
	var attachments []slack.Attachment
	total := len(routes)

	for _, cat := range statusCategories {
		var matched []RouteStatus
		for _, r := range routes {
			if r.Status == cat.status {
				matched = append(matched, r)
			}
		}
		if len(matched) == 0 {
			continue
		}

		ratio := float64(len(matched)) / float64(total)
		emoji := strings.Repeat(cat.emoji, emojiCount(ratio))
		count := fmt.Sprintf("%d %s (out of %d, %.2f%%)", len(matched), cat.status, total, ratio*100)
		attachments = append(attachments, slack.Attachment{
			Color: cat.color,
			Fallback: fmt.Sprintf("%s: %d out of %d, %.2f%%",
				capitalize(cat.status), len(matched), total, ratio*100),
			Text: fmt.Sprintf("%s %s %s %s", emoji, count, emoji, routeList(matched)),
		})
	}

	if len(attachments) == 0 {
		attachments = append(attachments, slack.Attachment{Color: "good", Text: ":ok_hand:"})
	}
	return attachments
}

// emojiCount scales the emoji with the share of affected routes, between 1 and 5.
func emojiCount(ratio float64) int {
	return max(min(int(math.RoundToEven(ratio*10)), 5), 1)
}

// routeList renders routes as an aligned code block.
func routeList(routes []RouteStatus) string {
	if len(routes) == 0 {
		return ""
	}
	sorted := slices.Clone(routes)
	slices.SortFunc(sorted, func(a, b RouteStatus) int {
		return cmp.Or(cmp.Compare(a.Route, b.Route), cmp.Compare(a.Method, b.Method))
	})

	pad := 0
	for _, r := range sorted {
		pad = max(pad, len(r.Method))
	}
	lines := make([]string, 0, len(sorted))
	for _, r := range sorted {
		lines = append(lines, fmt.Sprintf("%-*s %s", pad, strings.ToUpper(r.Method), r.Route))
	}
	if len(sorted) > statusListLimit {
		lines = append(lines[:statusListShown], fmt.Sprintf("And %d more...", len(sorted)-statusListShown))
	}
	return "```" + strings.Join(lines, "\n") + "```"
}
