// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esi/esi-bot/internal/bot"
	"github.com/esi/esi-bot/internal/buildinfo"
	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/esi"
	"github.com/esi/esi-bot/internal/handlers"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
	"github.com/esi/esi-bot/internal/ratelimit"
	"github.com/esi/esi-bot/internal/sentry"
	"github.com/esi/esi-bot/internal/slackbot"
	"github.com/esi/esi-bot/internal/storage"
)

const sourceRepo = "https://github.com/esi/esi-bot"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *storage.DB
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	specs    *esi.SpecCache
	adapter  *slackbot.Adapter
	limiter  *ratelimit.KeyedLimiter
	server   *http.Server
	wg       sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "esi-bot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger so package-level slog.*Context() calls also pick
	// up user, channel and request ids via ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.DisplayVersion()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.DisplayVersion(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	client := esi.NewClient(esi.ClientConfig{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.HTTPMaxRetries,
		Workers:    cfg.HTTPWorkers,
		UserAgent:  buildinfo.UserAgent(),
		ChinaHost:  cfg.ESIChinaHost,
	}, log, m)

	hosts := esi.Hosts{Tranquility: cfg.ESIHost, China: cfg.ESIChinaHost}
	specs := esi.NewSpecCache(client, esi.SpecCacheConfig{StaleAfter: cfg.SpecStaleAfter}, db, log, m, hosts.All()...)

	// Warm start: answer requests from the last saved specs while the first
	// refresh is still running.
	if restored, err := specs.Restore(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore spec snapshots")
	} else {
		log.WithField("restored", restored).Info("Restored spec snapshots")
	}

	cmds, err := handlers.New(handlers.Deps{
		API:      client,
		Specs:    specs,
		Resolver: esi.NewResolver(specs),
		Hosts:    hosts,
		Logger:   log,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("handlers: %w", err)
	}
	commands := bot.NewRegistry()
	cmds.Register(commands)

	procCfg := bot.ProcessorConfig{
		Prefix:     cfg.Prefix,
		Dispatcher: bot.NewDispatcher(commands, log, m),
		Gate:       bot.NewGate(cfg.EditWindow),
		Logger:     log,
		Metrics:    m,
	}
	var limiter *ratelimit.KeyedLimiter
	if cfg.UserBurst > 0 {
		limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:       "user",
			Burst:      cfg.UserBurst,
			RefillRate: cfg.UserRefillRate,
			Metrics:    m,
		})
		procCfg.Limiter = limiter
		log.WithField("burst", cfg.UserBurst).
			WithField("refill_per_sec", cfg.UserRefillRate).
			Info("Per-user command rate limiting enabled")
	}

	slackAPI := slackbot.NewClient(cfg.SlackBotToken, cfg.SlackAppToken)
	procCfg.Router = bot.NewRouter(slackbot.NewSender(slackAPI), m)
	processor := bot.NewProcessor(procCfg)
	adapter := slackbot.NewAdapter(slackAPI, processor, slackbot.AdapterConfig{
		Channels: cfg.Channels,
		Greeting: cfg.StartupGreeting,
	}, log)

	app := &Application{
		cfg:      cfg,
		logger:   log,
		db:       db,
		metrics:  m,
		registry: registry,
		specs:    specs,
		adapter:  adapter,
		limiter:  limiter,
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.WithField("commands", len(commands.Entries())).
		WithField("channels", cfg.Channels).
		Info("Initialization complete")
	return app, nil
}

// routes builds the HTTP surface: probes, metrics and a landing redirect.
func (a *Application) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", a.redirectToGitHub)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return router
}

func (a *Application) redirectToGitHub(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, sourceRepo)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// readinessCheck reports ready once at least one swagger document is cached
// and the snapshot database answers.
func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	if !a.specs.Loaded() {
		a.logger.Debug("Readiness check: no spec loaded yet")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "specs not loaded",
		})
		return
	}

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	versions := make(map[string][]string)
	for _, host := range a.specs.Hosts() {
		for _, v := range a.specs.Versions(host) {
			if e, _ := a.specs.Entry(host, v); !e.Empty() {
				versions[host] = append(versions[host], v)
			}
		}
	}
	snapshots, err := a.db.CountSpecs(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count spec snapshots")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"database":  "connected",
		"specs":     versions,
		"snapshots": snapshots,
	})
}

// Run connects to Slack, starts the HTTP server and background jobs, and
// blocks until SIGINT/SIGTERM or a fatal Slack error.
//
// Shutdown order:
//  1. Cancel context to stop the Slack loop and background jobs
//  2. Wait for them so no refresh writes to a closed database
//  3. Stop the HTTP server, then close resources
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	slackErr := make(chan error, 1)
	a.wg.Go(func() {
		slackErr <- a.adapter.Run(ctx)
	})

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	case runErr = <-slackErr:
		if runErr != nil {
			a.logger.WithError(runErr).Error("Slack connection failed")
		} else {
			a.logger.Warn("Slack connection closed")
		}
	}

	stop()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return errors.Join(runErr, a.shutdown())
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// shutdown stops the HTTP server and closes resources. Call it only after
// background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
