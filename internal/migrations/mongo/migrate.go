package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motorhub/internal/migrations/mongo/validators"
	"motorhub/pkg/docstore"
	"motorhub/pkg/logger"
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: docstore.FieldNeedsSync, Value: 1}}},
	}

	JobsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "assigned_provider_id", Value: 1},
			{Key: "service_center_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: docstore.FieldNeedsSync, Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "service_center_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: docstore.FieldNeedsSync, Value: 1}}},
	}

	SparePartsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "brand", Value: 1},
		}},
	}

	NotificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}
)

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		docstore.CollectionUsers: {
			Indexes:   UsersIndexes,
			Validator: validators.ProfileValidator,
		},
		docstore.CollectionJobs: {
			Indexes:   JobsIndexes,
			Validator: validators.JobValidator,
		},
		docstore.CollectionBookings: {
			Indexes:   BookingsIndexes,
			Validator: validators.JobValidator,
		},
		docstore.CollectionSpareParts: {
			Indexes:   SparePartsIndexes,
			Validator: validators.SparePartValidator,
		},
		docstore.CollectionNotifications: {
			Indexes:   NotificationsIndexes,
			Validator: validators.NotificationValidator,
		},
	}
}

// RunMigration creates the gateway's collections with their validators and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
