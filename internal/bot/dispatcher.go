package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	domerrors "github.com/esi/esi-bot/internal/errors"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
	"github.com/esi/esi-bot/internal/sentry"
)

// Result is the outcome of dispatching one message.
type Result struct {
	// Command is the name of the entry that produced the reply.
	Command string
	// Unmatched is set when no trigger matched and help answered instead.
	Unmatched bool
	// Failed is set when the handler errored unexpectedly or panicked.
	Failed bool
	Reply  Reply
	Err    error
}

// Dispatcher selects and runs the handler for a message.
type Dispatcher struct {
	registry    *Registry
	logger      *logger.Logger
	metrics     *metrics.Metrics
	middlewares []Middleware
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(registry *Registry, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   log,
		metrics:  m,
		middlewares: []Middleware{
			RecoveryMiddleware(log),
			LoggingMiddleware(log),
		},
	}
}

// Dispatch runs the first entry whose trigger matches msg.Command, or help
// when none does. Handler errors never escape: user-facing ones become a Text
// reply, anything else is reported and answered with a generic message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	start := time.Now()

	entry, captures, ok := d.registry.Match(msg.Command)
	res := Result{}
	if !ok {
		res.Unmatched = true
		entry, ok = d.registry.Lookup(HelpCommand)
		if !ok {
			d.record(msg.Command, metrics.OutcomeUnmatched, start)
			return res
		}
	}
	res.Command = entry.Name

	h := Chain(entry.Name, entry.Handler, d.middlewares...)
	reply, err := h(ctx, Request{Message: msg, Captures: captures})

	switch {
	case err == nil:
		res.Reply = reply
	case IsUserFacing(err):
		res.Reply = Text{Content: domerrors.UserMessage(err)}
		res.Err = err
		d.logger.WithField("command", entry.Name).
			WithError(err).
			InfoContext(ctx, "Handler returned a user-facing error")
	default:
		res.Failed = true
		res.Err = err
		res.Reply = Text{Content: fmt.Sprintf("something went wrong running `%s`, sorry about that", msg.Command)}
		d.logger.WithField("command", entry.Name).
			WithError(err).
			ErrorContext(ctx, "Handler failed")
		sentry.CaptureExceptionWithContext(ctx, err, map[string]string{"command": entry.Name})
	}

	d.record(entry.Name, outcome(res), start)
	return res
}

func (d *Dispatcher) record(command, outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.RecordCommand(command, outcome, time.Since(start).Seconds())
	}
}

func outcome(res Result) string {
	switch {
	case res.Failed:
		return metrics.OutcomeFailed
	case res.Unmatched:
		return metrics.OutcomeUnmatched
	case IsEmpty(res.Reply):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeMatched
	}
}

// IsUserFacing reports whether err carries a message meant for the channel.
func IsUserFacing(err error) bool {
	var userErr *domerrors.UserError
	return errors.As(err, &userErr) ||
		domerrors.IsInvalidInput(err) ||
		domerrors.IsNotFoundInSchema(err) ||
		domerrors.IsUpstreamUnavailable(err)
}
