// Package docstore wraps the document database behind a small interface:
// documents keyed by string id, equality queries, and timestamp-guarded
// merge upserts.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections
const (
	CollectionUsers         = "users"
	CollectionJobs          = "jobs"
	CollectionBookings      = "bookings"
	CollectionSpareParts    = "spareParts"
	CollectionNotifications = "notifications"
)

// Field names the store manages on every document.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldNeedsSync = "needs_sync"
	FieldRestRef   = "rest_ref"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrStale            = errors.New("a newer version of the document exists")
	ErrPermissionDenied = errors.New("document store permission denied")
	ErrUnavailable      = errors.New("document store unavailable")
)

type FindOptions struct {
	SortField  string
	Descending bool
	Limit      int64
}

type Store interface {
	Get(ctx context.Context, collection, id string) (bson.Raw, error)
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.Raw, error)
	Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.Raw, error)
	// Upsert merges fields into the document with the given id, creating it
	// if needed. The write is rejected with ErrStale when the stored document
	// has an updated_at later than at.
	Upsert(ctx context.Context, collection, id string, fields bson.M, at time.Time) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
}

// ToFields converts a record to a field map using its bson tags. The _id
// field is dropped; callers pass the id separately.
func ToFields(record any) (bson.M, error) {
	data, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	delete(fields, FieldID)
	return fields, nil
}

// Decode unmarshals one document.
func Decode[T any](doc bson.Raw) (*T, error) {
	var out T
	if err := bson.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &out, nil
}

// DecodeAll unmarshals a result set, skipping nothing: one bad document
// fails the whole call.
func DecodeAll[T any](docs []bson.Raw) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// splitUpsert separates the managed timestamps from the caller's fields.
func splitUpsert(fields bson.M, at time.Time) (set bson.M, onInsert bson.M) {
	set = make(bson.M, len(fields)+1)
	createdAt := at
	for k, v := range fields {
		switch k {
		case FieldID, FieldUpdatedAt:
			continue
		case FieldCreatedAt:
			if t, ok := asTime(v); ok && !t.IsZero() {
				createdAt = t
			}
			continue
		}
		set[k] = v
	}
	set[FieldUpdatedAt] = at
	return set, bson.M{FieldCreatedAt: createdAt}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		if int64(t) == zeroDateTime {
			return time.Time{}, true
		}
		return t.Time(), true
	default:
		return time.Time{}, false
	}
}

var zeroDateTime = int64(primitive.NewDateTimeFromTime(time.Time{}))

// Timestamp truncates t to the store's millisecond precision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
