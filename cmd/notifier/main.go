package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"motorhub/internal/notifications"
	"motorhub/pkg/config"
	"motorhub/pkg/docstore"
	"motorhub/pkg/kafka"
	kafka_config "motorhub/pkg/kafka/config"
	kafkamiddleware "motorhub/pkg/kafka/middleware"
)

const ServiceName = "notifier"

// The notifier turns sync events into per-user notifications.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	store := docstore.NewMongoStore(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.ReadTimeout, cfg.WriteTimeout)
	notifier := notifications.NewNotifier(notifications.NewRepository(store), cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.SyncEventsTopic, cfg.NotifierGroupID, notifier.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming sync events",
		"topic", cfg.SyncEventsTopic,
		"group_id", cfg.NotifierGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
