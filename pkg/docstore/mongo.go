package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoUnauthorized is the server code for a rejected privilege check.
const mongoUnauthorized = 13

type mongoStore struct {
	db           *mongo.Database
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoStore(db *mongo.Database, readTimeout, writeTimeout time.Duration) Store {
	return &mongoStore{
		db:           db,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// withTimeout uses the shorter of the caller's remaining deadline and timeout.
// Session contexts are returned unchanged.
func (s *mongoStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *mongoStore) Get(ctx context.Context, collection, id string) (bson.Raw, error) {
	return s.FindOne(ctx, collection, bson.M{FieldID: id})
}

func (s *mongoStore) FindOne(ctx context.Context, collection string, filter bson.M) (bson.Raw, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	raw, err := s.db.Collection(collection).FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, translate("find document", err)
	}
	return raw, nil
}

func (s *mongoStore) Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.Raw, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	findOpts := options.Find()
	if opts.SortField != "" {
		order := 1
		if opts.Descending {
			order = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortField, Value: order}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if filter == nil {
		filter = bson.M{}
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, translate("find documents", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.Raw
	for cursor.Next(ctx) {
		doc := make(bson.Raw, len(cursor.Current))
		copy(doc, cursor.Current)
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, translate("iterate documents", err)
	}
	return docs, nil
}

func (s *mongoStore) Upsert(ctx context.Context, collection, id string, fields bson.M, at time.Time) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	at = Timestamp(at)
	set, onInsert := splitUpsert(fields, at)

	// Matches only when the stored copy is not newer. A newer copy makes the
	// upsert try an insert with a taken _id, which surfaces as a duplicate key.
	filter := bson.M{
		FieldID: id,
		"$or": bson.A{
			bson.M{FieldUpdatedAt: bson.M{"$lte": at}},
			bson.M{FieldUpdatedAt: bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": set, "$setOnInsert": onInsert}

	_, err := s.db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s/%s", ErrStale, collection, id)
		}
		return translate("upsert document", err)
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{FieldID: id})
	if err != nil {
		return translate("delete document", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func translate(op string, err error) error {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(mongoUnauthorized) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "not authorized") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
