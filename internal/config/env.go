package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Slack (Required in server mode)
	EnvSlackBotToken = "ESIBOT_SLACK_BOT_TOKEN"
	EnvSlackAppToken = "ESIBOT_SLACK_APP_TOKEN"

	// Bot behavior
	EnvPrefix          = "ESIBOT_PREFIX"
	EnvChannels        = "ESIBOT_CHANNELS"
	EnvEditWindow      = "ESIBOT_EDIT_WINDOW"
	EnvStartupGreeting = "ESIBOT_STARTUP_GREETING"
	EnvUserBurst       = "ESIBOT_USER_BURST"
	EnvUserRefillRate  = "ESIBOT_USER_REFILL_RATE"

	// Server
	EnvPort            = "ESIBOT_PORT"
	EnvLogLevel        = "ESIBOT_LOG_LEVEL"
	EnvShutdownTimeout = "ESIBOT_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "ESIBOT_DATA_DIR"

	// ESI
	EnvESIHost             = "ESIBOT_ESI_HOST"
	EnvESIChinaHost        = "ESIBOT_ESI_CHINA_HOST"
	EnvSpecStaleAfter      = "ESIBOT_SPEC_STALE_AFTER"
	EnvSpecRefreshInterval = "ESIBOT_SPEC_REFRESH_INTERVAL"

	// Outbound HTTP
	EnvHTTPTimeout    = "ESIBOT_HTTP_TIMEOUT"
	EnvHTTPMaxRetries = "ESIBOT_HTTP_MAX_RETRIES"
	EnvHTTPWorkers    = "ESIBOT_HTTP_WORKERS"

	// Metrics
	EnvMetricsUsername = "ESIBOT_METRICS_USERNAME"
	EnvMetricsPassword = "ESIBOT_METRICS_PASSWORD"

	// Sentry
	EnvSentryDSN         = "ESIBOT_SENTRY_DSN"
	EnvSentryEnvironment = "ESIBOT_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "ESIBOT_SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "ESIBOT_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "ESIBOT_BETTERSTACK_ENDPOINT"
)
