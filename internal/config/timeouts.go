// Package config provides centralized timeout constants for the application.
//
// Slack gives Socket Mode clients a few seconds to acknowledge an envelope,
// so events are acked before processing and processing gets its own budget.
// ESI is usually fast but swagger documents are large and the China host can
// be slow from outside the mainland.
package config

import "time"

// Event processing
const (
	// EventProcessing bounds dispatch plus reply emission for one inbound event.
	// Type lookups fan out to a few hundred dogma requests, so this is generous.
	EventProcessing = 90 * time.Second

	// DefaultEditWindow is how long after the original message an edit is honored.
	DefaultEditWindow = 300 * time.Second

	// PruneEveryEvents is how many processed events pass between dedup sweeps.
	PruneEveryEvents = 10

	// RateLimiterCleanup is how often idle per-user buckets are dropped.
	RateLimiterCleanup = 5 * time.Minute
)

// HTTP server timeouts
const (
	HTTPRead  = 10 * time.Second
	HTTPWrite = 30 * time.Second
	HTTPIdle  = 120 * time.Second

	// ReadinessCheckTimeout bounds the /readyz dependency checks.
	ReadinessCheckTimeout = 3 * time.Second
)

// Outbound request timeouts
const (
	// ESIRequest is the timeout for a single HTTP request to ESI or GitHub.
	ESIRequest = 30 * time.Second

	// ESIRetryInitial is the initial delay before retrying a failed request.
	// Uses exponential backoff: 500ms -> 1s -> 2s
	ESIRetryInitial = 500 * time.Millisecond

	// ESIRetryAfterMax is the longest server-requested backoff honored before
	// giving up on a request.
	ESIRetryAfterMax = 10 * time.Second
)

// ESI spec cache
const (
	// SpecStaleAfter is the age after which a cached swagger document is refetched.
	SpecStaleAfter = 5 * time.Minute

	// SpecRefreshInterval is how often the background job refreshes all hosts.
	SpecRefreshInterval = 30 * time.Minute

	// SpecRefreshTimeout bounds one refresh of one host.
	SpecRefreshTimeout = 2 * time.Minute

	// StatusCacheTTL is how long a fetched status.json is reused.
	StatusCacheTTL = 60 * time.Second
)

// Database
const (
	// DatabaseBusyTimeout is how long SQLite waits for a lock.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime recycles pooled connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
