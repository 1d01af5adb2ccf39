// Package docstoretest provides an in-memory docstore.Store for tests.
package docstoretest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"motorhub/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory keeps documents as field maps per collection. Filters support
// top-level equality only; a nil value matches a missing or null field.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]bson.M

	// Err, when set, is returned by every call.
	Err error
	// Calls counts operations by name.
	Calls map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]bson.M),
		Calls:       make(map[string]int),
	}
}

var _ docstore.Store = (*Memory)(nil)

// Put stores doc as-is under id, bypassing the upsert guard.
func (m *Memory) Put(collection, id string, doc any) {
	fields, err := docstore.ToFields(doc)
	if err != nil {
		panic(err)
	}
	fields[docstore.FieldID] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll(collection)[id] = fields
}

// Len returns the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

// Fields returns a copy of the stored document.
func (m *Memory) Fields(collection, id string) (bson.M, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, false
	}
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, true
}

func (m *Memory) Get(ctx context.Context, collection, id string) (bson.Raw, error) {
	return m.FindOne(ctx, collection, bson.M{docstore.FieldID: id})
}

func (m *Memory) FindOne(ctx context.Context, collection string, filter bson.M) (bson.Raw, error) {
	docs, err := m.find("FindOne", collection, filter, docstore.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return docs[0], nil
}

func (m *Memory) Find(ctx context.Context, collection string, filter bson.M, opts docstore.FindOptions) ([]bson.Raw, error) {
	return m.find("Find", collection, filter, opts)
}

func (m *Memory) Upsert(ctx context.Context, collection, id string, fields bson.M, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Upsert"]++
	if m.Err != nil {
		return m.Err
	}

	at = docstore.Timestamp(at)
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}

	coll := m.coll(collection)
	existing, ok := coll[id]
	if ok {
		if stored, has := timeOf(existing[docstore.FieldUpdatedAt]); has && stored.After(at) {
			return fmt.Errorf("%w: %s/%s", docstore.ErrStale, collection, id)
		}
	} else {
		existing = bson.M{docstore.FieldID: id, docstore.FieldCreatedAt: primitive.NewDateTimeFromTime(at)}
		if t, has := timeOf(normalized[docstore.FieldCreatedAt]); has && !t.IsZero() {
			existing[docstore.FieldCreatedAt] = primitive.NewDateTimeFromTime(t)
		}
		coll[id] = existing
	}

	for k, v := range normalized {
		if k == docstore.FieldID || k == docstore.FieldCreatedAt {
			continue
		}
		existing[k] = v
	}
	existing[docstore.FieldUpdatedAt] = primitive.NewDateTimeFromTime(at)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Delete"]++
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.collections[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.Err
}

func (m *Memory) find(op, collection string, filter bson.M, opts docstore.FindOptions) ([]bson.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[op]++
	if m.Err != nil {
		return nil, m.Err
	}

	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	var matched []bson.M
	for _, doc := range m.collections[collection] {
		if matches(doc, want) {
			matched = append(matched, doc)
		}
	}

	sortField := opts.SortField
	if sortField == "" {
		sortField = docstore.FieldID
	}
	sort.SliceStable(matched, func(i, j int) bool {
		c := compare(matched[i][sortField], matched[j][sortField])
		if opts.Descending {
			return c > 0
		}
		return c < 0
	})

	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]bson.Raw, 0, len(matched))
	for _, doc := range matched {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (m *Memory) coll(name string) map[string]bson.M {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]bson.M)
		m.collections[name] = c
	}
	return c
}

// normalize round-trips through bson so values compare the way they are
// stored.
func normalize(in bson.M) (bson.M, error) {
	if in == nil {
		return bson.M{}, nil
	}
	data, err := bson.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func timeOf(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time(), true
	case time.Time:
		return t, true
	default:
		return time.Time{}, false
	}
}

func compare(a, b any) int {
	if ta, ok := timeOf(a); ok {
		tb, _ := timeOf(b)
		return ta.Compare(tb)
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case int32, int64, float64:
		fa, fb := number(a), number(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return 0
}

func number(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
