// Package handlers implements the bot's commands and registers them in
// match order.
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/esi/esi-bot/internal/bot"
	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/esi"
	"github.com/esi/esi-bot/internal/logger"
)

// DefaultIssuesAPI is the GitHub API root for esi-issues.
const DefaultIssuesAPI = "https://api.github.com/repos/esi/esi-issues"

// API is the outbound HTTP surface handlers need.
type API interface {
	Get(ctx context.Context, url string) *esi.Response
	MultiGet(ctx context.Context, urls []string) []*esi.Response
}

// Deps holds everything the commands read from.
type Deps struct {
	API      API
	Specs    *esi.SpecCache
	Resolver *esi.Resolver
	Hosts    esi.Hosts
	// IssuesAPI defaults to DefaultIssuesAPI.
	IssuesAPI string
	// StatusTTL is how long a fetched status.json is reused.
	StatusTTL time.Duration
	Logger    *logger.Logger
}

// Handlers owns command state such as the status.json cache.
type Handlers struct {
	api       API
	specs     *esi.SpecCache
	resolver  *esi.Resolver
	hosts     esi.Hosts
	issuesAPI string
	statusTTL time.Duration
	logger    *logger.Logger
	registry  *bot.Registry
	links     []Link
	now       func() time.Time

	statusMu sync.Mutex
	status   map[string]statusCacheEntry
}

// New creates the command set.
func New(d Deps) (*Handlers, error) {
	links, err := LoadLinks()
	if err != nil {
		return nil, err
	}
	h := &Handlers{
		api:       d.API,
		specs:     d.Specs,
		resolver:  d.Resolver,
		hosts:     d.Hosts,
		issuesAPI: d.IssuesAPI,
		statusTTL: d.StatusTTL,
		logger:    d.Logger,
		links:     links,
		now:       time.Now,
		status:    make(map[string]statusCacheEntry),
	}
	if h.issuesAPI == "" {
		h.issuesAPI = DefaultIssuesAPI
	}
	if h.statusTTL <= 0 {
		h.statusTTL = config.StatusCacheTTL
	}
	return h, nil
}

// Register adds every command to reg. The order here is the match order.
func (h *Handlers) Register(reg *bot.Registry) {
	h.registry = reg

	reg.Register(bot.Token(bot.HelpCommand), bot.HelpCommand, "Return help on an available command, or list all commands.", h.help)
	reg.Register(bot.NewPattern(requestPattern), "request", "Make an ESI GET request, if the path is known. Options: --headers --china", h.request)
	reg.Register(bot.Token("refresh"), "refresh", "Refresh internal specs. Options: --china", h.refresh)
	reg.Register(bot.Token("status"), "status", "Return the current ESI health/status. Options: --china", h.esiStatus)
	reg.Register(bot.TokenSet{"tq", "tranquility"}, "tranquility", "Display current status of Tranquility, the main game server.", h.tranquility)
	reg.Register(bot.Token("serenity"), "serenity", "Display current status of Serenity, the main server in China.", h.serenity)
	reg.Register(bot.TokenSet{"item", "item_id", "type", "type_id"}, "item", "Look up a type by ID, including dogma information. Options: --china", h.item)
	reg.Register(bot.NewPattern(issuePattern), "issue", "Look up ESI-issue details on GitHub.", h.issue)
	reg.Register(bot.Token("new"), "new_issue", "Return instructions for opening a new ESI issue.", h.newIssue)
	reg.Register(bot.TokenSet{"bug", "br"}, "bug", "Return instructions for reporting an ESI bug.", h.bug)
	reg.Register(bot.TokenSet{"feature", "fr", "enhancement"}, "feature", "Return instructions for creating a new feature request.", h.feature)
	reg.Register(bot.Token("inconsistency"), "inconsistency", "Return instructions for reporting an inconsistency.", h.inconsistency)
	for _, l := range h.links {
		reg.Register(l.trigger(), l.Name, l.Doc, h.link(l))
	}
	reg.Register(bot.TokenSet{"hey", "hi", "hello", "o7", "7o", "o/", `\o`}, "hello", "TIL you need help to say hello.", h.hello)
	reg.Register(bot.Token("version"), "version", "Display ESI-bot's running version.", h.version)
}

// host picks the ESI host for a message.
func (h *Handlers) host(msg bot.Message) string {
	return h.hosts.For(msg.Flag(bot.ChinaFlag))
}
