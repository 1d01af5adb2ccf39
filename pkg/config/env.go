package config

const (
	EnvGoEnv = "GO_ENV"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBackendURL            = "BACKEND_URL"
	EnvBackendProbeTimeout   = "BACKEND_PROBE_TIMEOUT"
	EnvBackendRequestTimeout = "BACKEND_REQUEST_TIMEOUT"
	EnvMirrorOnSuccess       = "MIRROR_ON_SUCCESS"

	EnvAuth0Domain   = "AUTH0_DOMAIN"
	EnvAuth0Audience = "AUTH0_AUDIENCE"
	EnvJWTSecret     = "JWT_SECRET"

	EnvRedisURL = "REDIS_URL"

	EnvKafkaEnabled     = "KAFKA_ENABLED"
	EnvSyncEventsTopic  = "SYNC_EVENTS_TOPIC"
	EnvNotifierGroupID  = "NOTIFIER_GROUP_ID"
	EnvPhoneRegions     = "PHONE_REGIONS"
	EnvAllowedWSOrigins = "ALLOWED_WS_ORIGINS"
)
