package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/esi/esi-bot/internal/logger"
)

// Middleware wraps the handler registered under name.
type Middleware func(name string, next Handler) Handler

// Chain applies mws to h so that the first middleware runs outermost.
func Chain(name string, h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](name, h)
	}
	return h
}

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// LoggingMiddleware logs handler execution with timing and result info.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(name string, next Handler) Handler {
		return func(ctx context.Context, req Request) (Reply, error) {
			start := time.Now()

			log.WithField("command", name).
				WithField("args", len(req.Args)).
				DebugContext(ctx, "Handler started")

			reply, err := next(ctx, req)

			log.WithField("command", name).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("reply", Kind(reply)).
				WithField("error", err != nil).
				DebugContext(ctx, "Handler completed")

			return reply, err
		}
	}
}

// RecoveryMiddleware turns a handler panic into a *PanicError.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(name string, next Handler) Handler {
		return func(ctx context.Context, req Request) (reply Reply, err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					log.WithField("command", name).
						WithField("panic", r).
						WithField("stack", string(stack)).
						ErrorContext(ctx, "Handler panicked")
					reply, err = nil, &PanicError{Value: r, Stack: stack}
				}
			}()

			return next(ctx, req)
		}
	}
}
