package main

import (
	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	jobhandler "motorhub/internal/jobs/handler"
	"motorhub/internal/jobs/repository"
	"motorhub/internal/jobs/service"
	jobvalidator "motorhub/internal/jobs/validator"
	"motorhub/internal/notifications"
	"motorhub/internal/parts"
	"motorhub/internal/profile"
	"motorhub/internal/session"
	"motorhub/pkg/app"
	"motorhub/pkg/client"
	"motorhub/pkg/config"
	"motorhub/pkg/contracts"
	"motorhub/pkg/docstore"
	"motorhub/pkg/kafka"
	kafka_config "motorhub/pkg/kafka/config"
	kafkamiddleware "motorhub/pkg/kafka/middleware"
	"motorhub/pkg/sanitizer"
	"motorhub/pkg/validation"
)

const ServiceName = "gateway"

func main() {
	cfg := config.Load(ServiceName)
	if err := cfg.ValidateAuth(); err != nil {
		cfg.Log.Fatal("Invalid auth configuration", "error", err)
	}
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting gateway")
	serverApp := app.NewApplication(cfg)

	store := docstore.NewMongoStore(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.ReadTimeout, cfg.WriteTimeout)
	backend := client.NewBackend(cfg.BackendConfig(), cfg.Log)
	publisher := initPublisher(cfg, serverApp)

	sync := dualwrite.New(backend, store, cfg.Log, dualwrite.Options{
		Mirror: cfg.MirrorOnSuccess,
		Events: publisher,
	})

	gate := initGate(cfg)
	handlers := initHandlers(cfg, store, sync, publisher, gate)

	serverApp.SetApp(app.NewHealthHandler(store, backend.Probe, cfg.Log), gate, handlers...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, sync events are not published")
		return events.Nop{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.SyncEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Publishing sync events", "topic", cfg.SyncEventsTopic)
	return events.NewKafkaPublisher(producer)
}

func initGate(cfg *config.Config) *session.Gate {
	auth, err := session.NewAuthenticator(session.Config{
		Auth0Domain:   cfg.Auth0Domain,
		Auth0Audience: cfg.Auth0Audience,
		JWTSecret:     cfg.JWTSecret,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to configure token verification", "error", err)
	}

	var revocations session.Revocations = session.NewMemoryRevocations()
	if cfg.Client.Redis != nil {
		revocations = session.NewRedisRevocations(cfg.Client.Redis)
	}
	return session.NewGate(auth, revocations, session.NewHub(), cfg.Log)
}

func initHandlers(
	cfg *config.Config,
	store docstore.Store,
	sync *dualwrite.Synchronizer,
	publisher events.Publisher,
	gate *session.Gate,
) []contracts.Handler {
	phones := sanitizer.NewPhones(cfg.PhoneRegions)
	validator := validation.New(phones, cfg.Log)
	jobValidator := jobvalidator.NewJobValidator(validator)

	resolver := profile.NewResolver(store, sync, validator, cfg.Log)

	jobService := service.NewJobService(
		repository.NewJobRepository(sync, dualwrite.Jobs),
		jobValidator,
		phones,
		publisher,
		cfg.Log,
	)
	bookingService := service.NewBookingService(
		repository.NewJobRepository(sync, dualwrite.Bookings),
		jobValidator,
		phones,
		publisher,
		cfg.Log,
	)
	partService := parts.NewService(store, validator, cfg.Log)
	notificationRepo := notifications.NewRepository(store)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		session.NewHandler(gate, cfg.AllowedWSOrigins, cfg.Log),
		profile.NewHandler(resolver, cfg.Log),
		jobhandler.NewJobHandler(jobService, resolver, cfg.Log),
		jobhandler.NewBookingHandler(bookingService, resolver, cfg.Log),
		parts.NewHandler(partService, resolver, cfg.Log),
		notifications.NewHandler(notificationRepo, cfg.Log),
	}
}
