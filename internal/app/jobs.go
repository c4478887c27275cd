package app

import (
	"context"
	"time"

	"github.com/esi/esi-bot/internal/config"
)

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.refreshSpecs(ctx)
	})
}

// refreshSpecs refreshes every host at startup and then on each interval.
func (a *Application) refreshSpecs(ctx context.Context) {
	a.logger.Debug("Spec refresh job started")
	defer a.logger.Debug("Spec refresh job stopped")

	a.runSpecRefresh(ctx)

	ticker := time.NewTicker(a.cfg.SpecRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSpecRefresh(ctx)
		}
	}
}

// runSpecRefresh refreshes each host with its own deadline. Concurrent
// "refresh" commands for the same host join the running refresh.
func (a *Application) runSpecRefresh(ctx context.Context) {
	start := time.Now()
	total := 0
	for _, host := range a.specs.Hosts() {
		if ctx.Err() != nil {
			return
		}
		hostCtx, cancel := context.WithTimeout(ctx, config.SpecRefreshTimeout)
		updated := a.specs.Refresh(hostCtx, host)
		cancel()
		total += len(updated)
	}
	a.logger.WithField("updated", total).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Spec refresh completed")
}
