package dualwrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"motorhub/internal/session"
	"motorhub/pkg/client"
	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
)

type Origin string

const (
	OriginBackend Origin = "backend"
	OriginStore   Origin = "store"
)

type View[T any] struct {
	Item   *T
	Origin Origin
	Notice string
}

type Page[T any] struct {
	Items  []*T
	Origin Origin
	Notice string
}

type ListQuery struct {
	// UserID selects GET /api/<resource>/user/<id> instead of the full list.
	UserID string
	// Filter selects documents when the store answers.
	Filter bson.M
	Sort   docstore.FindOptions
}

// Read fetches one record from the backend, or from the document store when
// the backend cannot serve it. The store is asked by document key first and
// by rest_ref second.
func Read[T any](ctx context.Context, s *Synchronizer, target Target, id string) (*View[T], error) {
	notice := ""
	if target.Resource != "" {
		res, reached := s.fetch(ctx, target, func(rc *client.ResourceClient) (*client.Response, error) {
			return rc.GetByID(ctx, id)
		})
		switch {
		case !reached:
			notice = NoticeWorkingOffline
		case res.Outcome == client.Success:
			var item T
			if err := json.Unmarshal(res.Data, &item); err == nil {
				return &View[T]{Item: &item, Origin: OriginBackend}, nil
			}
			s.log.Warn("Backend returned an unreadable record", "resource", target.Resource, "id", id)
		}
	}

	doc, err := s.store.Get(ctx, target.Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		doc, err = s.store.FindOne(ctx, target.Collection, bson.M{docstore.FieldRestRef: id})
	}
	if err != nil {
		return nil, readError(ctx, target, id, err)
	}

	// A record first stored offline is keyed by its logical id, which the
	// backend does not know. Once synced, the backend copy under rest_ref
	// is the current one.
	if restRef := lookupString(doc, docstore.FieldRestRef); notice == "" && target.Resource != "" &&
		restRef != "" && restRef != id && !lookupBool(doc, docstore.FieldNeedsSync) {
		res, reached := s.fetch(ctx, target, func(rc *client.ResourceClient) (*client.Response, error) {
			return rc.GetByID(ctx, restRef)
		})
		switch {
		case !reached:
			notice = NoticeWorkingOffline
		case res.Outcome == client.Success:
			var item T
			if err := json.Unmarshal(res.Data, &item); err == nil {
				return &View[T]{Item: &item, Origin: OriginBackend}, nil
			}
			s.log.Warn("Backend returned an unreadable record", "resource", target.Resource, "id", restRef)
		}
	}

	item, err := docstore.Decode[T](doc)
	if err != nil {
		return nil, apperrors.Internal("Failed to read record", err)
	}
	return &View[T]{Item: item, Origin: OriginStore, Notice: notice}, nil
}

// List fetches records from the backend and appends the ones still waiting
// to reach it. When the backend cannot be reached the document store answers
// on its own.
func List[T any](ctx context.Context, s *Synchronizer, target Target, q ListQuery) (*Page[T], error) {
	if target.Resource == "" {
		return listStore[T](ctx, s, target, q, "")
	}

	res, reached := s.fetch(ctx, target, func(rc *client.ResourceClient) (*client.Response, error) {
		if q.UserID != "" {
			return rc.GetByUser(ctx, q.UserID)
		}
		return rc.List(ctx)
	})
	if !reached {
		return listStore[T](ctx, s, target, q, NoticeWorkingOffline)
	}
	if res.Outcome != client.Success {
		if res.NotFound() {
			return listStore[T](ctx, s, target, q, "")
		}
		return nil, apperrors.BusinessRejected(res.Message, res.StatusCode)
	}

	var raws []json.RawMessage
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &raws); err != nil {
			return nil, apperrors.Internal("Backend returned an unreadable list", err)
		}
	}

	seen := make(map[string]bool, len(raws))
	items := make([]*T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			s.log.Warn("Skipping unreadable backend record", "resource", target.Resource, "error", err)
			continue
		}
		if id := client.ExtractID(raw); id != "" {
			seen[id] = true
		}
		items = append(items, &item)
	}

	pending, err := s.pending(ctx, target, q)
	if err != nil {
		s.log.Warn("Failed to read records waiting to sync", "collection", target.Collection, "error", err)
		return &Page[T]{Items: items, Origin: OriginBackend}, nil
	}
	for _, doc := range pending {
		if seen[lookupString(doc, docstore.FieldID)] || seen[lookupString(doc, docstore.FieldRestRef)] {
			continue
		}
		item, err := docstore.Decode[T](doc)
		if err != nil {
			s.log.Warn("Skipping unreadable document", "collection", target.Collection, "error", err)
			continue
		}
		items = append(items, item)
	}
	return &Page[T]{Items: items, Origin: OriginBackend}, nil
}

func listStore[T any](ctx context.Context, s *Synchronizer, target Target, q ListQuery, notice string) (*Page[T], error) {
	docs, err := s.store.Find(ctx, target.Collection, q.Filter, q.Sort)
	if err != nil {
		return nil, readError(ctx, target, "", err)
	}
	items, err := docstore.DecodeAll[T](docs)
	if err != nil {
		return nil, apperrors.Internal("Failed to read records", err)
	}
	return &Page[T]{Items: items, Origin: OriginStore, Notice: notice}, nil
}

// fetch probes and calls the backend. reached is false when either step hit
// a network failure.
func (s *Synchronizer) fetch(ctx context.Context, target Target, call func(*client.ResourceClient) (*client.Response, error)) (client.Result, bool) {
	if !s.probe.Reachable(ctx, target.Resource) {
		return client.Result{Outcome: client.NetworkFailure}, false
	}
	res := client.Classify(call(s.backend.Resource(target.Resource)))
	if res.Outcome == client.NetworkFailure {
		s.log.Warn("Backend read failed, using saved data", "resource", target.Resource, "error", res.Err, "status", res.StatusCode)
		return res, false
	}
	return res, true
}

func (s *Synchronizer) pending(ctx context.Context, target Target, q ListQuery) ([]bson.Raw, error) {
	filter := bson.M{docstore.FieldNeedsSync: true, docstore.FieldRestRef: nil}
	for k, v := range q.Filter {
		filter[k] = v
	}
	return s.store.Find(ctx, target.Collection, filter, q.Sort)
}

func readError(ctx context.Context, target Target, id string, err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		if id == "" {
			return apperrors.NotFound(target.Name)
		}
		return apperrors.NotFoundWithID(target.Name, id)
	case errors.Is(err, docstore.ErrPermissionDenied):
		return apperrors.PermissionDenied(session.Account(ctx), err)
	case errors.Is(err, docstore.ErrUnavailable):
		return apperrors.BackendUnreachable(err)
	default:
		return apperrors.Internal(fmt.Sprintf("Failed to read %s", target.Name), err)
	}
}

func lookupString(doc bson.Raw, key string) string {
	v, err := doc.LookupErr(key)
	if err != nil {
		return ""
	}
	s, _ := v.StringValueOK()
	return s
}

func lookupBool(doc bson.Raw, key string) bool {
	v, err := doc.LookupErr(key)
	if err != nil {
		return false
	}
	b, _ := v.BooleanOK()
	return b
}

// Lookup fetches the backend record owned by userID. Data is nil when the
// backend has none or refused; reached is false when it could not be asked.
// A list answer yields its first element.
func (s *Synchronizer) Lookup(ctx context.Context, target Target, userID string) (json.RawMessage, bool) {
	if target.Resource == "" {
		return nil, true
	}
	res, reached := s.fetch(ctx, target, func(rc *client.ResourceClient) (*client.Response, error) {
		return rc.GetByUser(ctx, userID)
	})
	if !reached || res.Outcome != client.Success || len(res.Data) == 0 {
		return nil, reached
	}

	var list []json.RawMessage
	if err := json.Unmarshal(res.Data, &list); err == nil {
		if len(list) == 0 {
			return nil, true
		}
		return list[0], true
	}
	return res.Data, true
}
