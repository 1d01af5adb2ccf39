// Package notifications turns sync and assignment events into per-user
// notifications and serves them to the gateway.
package notifications

import (
	"context"
	"errors"
	"time"

	"motorhub/pkg/docstore"
	"motorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const defaultListLimit = 50

var ErrNotFound = errors.New("notification not found")

type Repository interface {
	// Add stores n unless a notification with its id exists. It reports
	// whether n was new.
	Add(ctx context.Context, n *model.Notification) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
}

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) Repository {
	return &repository{store: store}
}

func (r *repository) Add(ctx context.Context, n *model.Notification) (bool, error) {
	_, err := r.store.Get(ctx, docstore.CollectionNotifications, n.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, docstore.ErrNotFound):
		return false, err
	}

	fields, err := docstore.ToFields(n)
	if err != nil {
		return false, err
	}
	if err := r.store.Upsert(ctx, docstore.CollectionNotifications, n.ID, fields, n.CreatedAt); err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	docs, err := r.store.Find(ctx, docstore.CollectionNotifications, bson.M{"user_id": userID}, docstore.FindOptions{
		SortField:  docstore.FieldCreatedAt,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Notification](docs)
}

func (r *repository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	doc, err := r.store.FindOne(ctx, docstore.CollectionNotifications, bson.M{docstore.FieldID: id, "user_id": userID})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	n, err := docstore.Decode[model.Notification](doc)
	if err != nil {
		return err
	}
	n.Read = true
	fields, err := docstore.ToFields(n)
	if err != nil {
		return err
	}
	return r.store.Upsert(ctx, docstore.CollectionNotifications, id, fields, at)
}
