package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"motorhub/pkg/client"
	"motorhub/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BackendURL            string
	BackendProbeTimeout   time.Duration
	BackendRequestTimeout time.Duration
	MirrorOnSuccess       bool

	Auth0Domain   string
	Auth0Audience string
	JWTSecret     string

	RedisURL string

	KafkaEnabled    bool
	SyncEventsTopic string
	NotifierGroupID string

	PhoneRegions     []string
	AllowedWSOrigins []string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env files, then the environment, and exits on invalid
// configuration.
func Load(serviceName string) *Config {
	loadEnvFiles()

	cfg := FromEnv(serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the current environment without validating it.
func FromEnv(serviceName string) *Config {
	logLevel := getEnvStr(EnvLogLevel, DefaultLogLevel)

	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: logLevel,

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BackendURL:            getEnvStr(EnvBackendURL, DefaultBackendURL),
		BackendProbeTimeout:   getEnvDuration(EnvBackendProbeTimeout, DefaultBackendProbeTimeout),
		BackendRequestTimeout: getEnvDuration(EnvBackendRequestTimeout, DefaultBackendRequestTimeout),
		MirrorOnSuccess:       getEnvBool(EnvMirrorOnSuccess, DefaultMirrorOnSuccess),

		Auth0Domain:   getEnvStr(EnvAuth0Domain, ""),
		Auth0Audience: getEnvStr(EnvAuth0Audience, ""),
		JWTSecret:     getEnvStr(EnvJWTSecret, ""),

		RedisURL: getEnvStr(EnvRedisURL, ""),

		KafkaEnabled:    getEnvBool(EnvKafkaEnabled, false),
		SyncEventsTopic: getEnvStr(EnvSyncEventsTopic, DefaultSyncEventsTopic),
		NotifierGroupID: getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		PhoneRegions:     getEnvList(EnvPhoneRegions, DefaultPhoneRegions),
		AllowedWSOrigins: getEnvList(EnvAllowedWSOrigins, ""),

		Log: logger.New(logger.Config{
			Level:     logLevel,
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL)
}

func (cfg *Config) BackendConfig() client.BackendConfig {
	return client.BackendConfig{
		BaseURL:        cfg.BackendURL,
		RequestTimeout: cfg.BackendRequestTimeout,
		ProbeTimeout:   cfg.BackendProbeTimeout,
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://.+`).MatchString(cfg.MongoURI) {
		errors = append(errors, "MongoURI must start with 'mongodb://' or 'mongodb+srv://'")
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if u, err := url.Parse(cfg.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("BackendURL must be an absolute http(s) URL, got: %s", cfg.BackendURL))
	}

	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		errors = append(errors, "RedisURL must start with 'redis://' or 'rediss://'")
	}

	if cfg.Auth0Domain != "" && cfg.Auth0Audience == "" {
		errors = append(errors, "Auth0Audience is required when Auth0Domain is set")
	}

	if cfg.KafkaEnabled && cfg.SyncEventsTopic == "" {
		errors = append(errors, "SyncEventsTopic cannot be empty when Kafka is enabled")
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BackendProbeTimeout", cfg.BackendProbeTimeout},
		{"BackendRequestTimeout", cfg.BackendRequestTimeout},
	} {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// ValidateAuth checks that some token verifier is configured. Only services
// that authenticate callers need it.
func (cfg *Config) ValidateAuth() error {
	if cfg.Auth0Domain == "" && cfg.JWTSecret == "" {
		return fmt.Errorf("either %s or %s must be set", EnvAuth0Domain, EnvJWTSecret)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"backend_url", cfg.BackendURL,
		"backend_probe_timeout", cfg.BackendProbeTimeout,
		"mirror_on_success", cfg.MirrorOnSuccess,
		"auth0_domain", cfg.Auth0Domain,
		"jwt_secret_set", cfg.JWTSecret != "",
		"redis_url", redactRedisURL(cfg.RedisURL),
		"kafka_enabled", cfg.KafkaEnabled,
		"sync_events_topic", cfg.SyncEventsTopic,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func loadEnvFiles() {
	if env := os.Getenv(EnvGoEnv); env != "" {
		_ = godotenv.Load(".env." + env)
	}
	_ = godotenv.Load()
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword("***", "***")
	}
	return u.String()
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
