package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "motorhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBackendURL            = "http://localhost:5000"
	DefaultBackendProbeTimeout   = 1500 * time.Millisecond
	DefaultBackendRequestTimeout = 10 * time.Second
	DefaultMirrorOnSuccess       = true

	DefaultSyncEventsTopic = "motorhub.sync-events"
	DefaultNotifierGroupID = "motorhub-notifier"
	DefaultPhoneRegions    = "US,IL"
)
