package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/ctxutil"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
)

// Processor handles the core logic of processing chat events.
// It orchestrates the prefix gate, deduplication, dispatch and reply emission.
// Events are processed one at a time.
type Processor struct {
	prefix     string
	dispatcher *Dispatcher
	router     *Router
	gate       *Gate
	limiter    RateLimiter
	reactions  []ReactionTrigger
	logger     *logger.Logger
	metrics    *metrics.Metrics

	timeout    time.Duration
	pruneEvery int
	now        func() time.Time

	mu        sync.Mutex
	processed int
}

// RateLimiter throttles commands per speaker. *ratelimit.KeyedLimiter
// satisfies it.
type RateLimiter interface {
	Allow(key string) bool
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Prefix     string
	Dispatcher *Dispatcher
	Router     *Router
	Gate       *Gate
	// Limiter is consulted per speaker after the gate. Nil disables limiting.
	Limiter RateLimiter
	// Reactions defaults to DefaultReactions when nil.
	Reactions []ReactionTrigger
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	// Timeout bounds dispatch plus emission. Defaults to config.EventProcessing.
	Timeout time.Duration
	// PruneEvery is the number of events between gate sweeps. Defaults to
	// config.PruneEveryEvents.
	PruneEvery int
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		prefix:     cfg.Prefix,
		dispatcher: cfg.Dispatcher,
		router:     cfg.Router,
		gate:       cfg.Gate,
		limiter:    cfg.Limiter,
		reactions:  cfg.Reactions,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		timeout:    cfg.Timeout,
		pruneEvery: cfg.PruneEvery,
		now:        time.Now,
	}
	if p.reactions == nil {
		p.reactions = DefaultReactions
	}
	if p.timeout <= 0 {
		p.timeout = config.EventProcessing
	}
	if p.pruneEvery <= 0 {
		p.pruneEvery = config.PruneEveryEvents
	}
	return p
}

// Process handles one inbound event. The only error it returns is a failed
// outbound call, wrapping ErrTransport.
func (p *Processor) Process(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if p.processed%p.pruneEvery == 0 {
		if n := p.gate.Prune(p.now()); n > 0 {
			p.logger.WithField("pruned", n).Debug("Pruned dedup gate")
		}
	}

	ctx = ctxutil.WithUserID(ctx, ev.User)
	ctx = ctxutil.WithChannelID(ctx, ev.Channel)
	ctx = ctxutil.WithMessageID(ctx, ev.ID)

	command, args, ok := ParseCommand(ev.Text, p.prefix)
	if !ok {
		return p.react(ctx, ev)
	}

	if admitted, reason := p.gate.Admit(ev); !admitted {
		p.logger.WithField("reason", reason).
			WithField("edited", ev.Edited()).
			DebugContext(ctx, "Event suppressed")
		if p.metrics != nil {
			p.metrics.RecordDedupSuppressed(reason)
		}
		return nil
	}

	if p.limiter != nil && !p.limiter.Allow(ev.User) {
		p.logger.WithField("command", command).
			WarnContext(ctx, "Command rate limited")
		return nil
	}

	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())
	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.logger.WithField("command", command).
		WithField("args", len(args)).
		WithField("edited", ev.Edited()).
		InfoContext(processCtx, "Processing command")

	res := p.dispatcher.Dispatch(processCtx, Message{
		Speaker: ev.User,
		Channel: ev.Channel,
		Command: command,
		Args:    args,
	})

	if err := p.router.Route(processCtx, ev.Channel, ev.User, res.Reply); err != nil {
		p.logger.WithError(err).
			WithField("command", res.Command).
			WithField("reply", Kind(res.Reply)).
			ErrorContext(processCtx, "Failed to emit reply")
		return err
	}

	// Help leaves the message open so an edit into a real command is answered.
	if !res.Unmatched && !res.Failed && res.Command != HelpCommand && !IsEmpty(res.Reply) {
		p.gate.Record(ev)
	}
	return nil
}

// react adds reactions to plain chatter. Edits never react again.
func (p *Processor) react(ctx context.Context, ev Event) error {
	if ev.Edited() {
		return nil
	}
	var errs []error
	for _, name := range MatchReactions(ev.Text, p.reactions) {
		if err := p.router.React(ctx, ev.Channel, ev.ID, name); err != nil {
			p.logger.WithError(err).
				WithField("reaction", name).
				WarnContext(ctx, "Failed to add reaction")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
