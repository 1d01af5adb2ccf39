package repository

import (
	"context"
	"time"

	"motorhub/internal/dualwrite"
	"motorhub/pkg/model"
)

// JobRepository reads and writes one kind of job record through the
// synchronizer. Marketplace jobs and bookings use separate instances.
type JobRepository interface {
	Get(ctx context.Context, id string) (*dualwrite.View[model.Job], error)
	List(ctx context.Context, q dualwrite.ListQuery) (*dualwrite.Page[model.Job], error)
	Save(ctx context.Context, req dualwrite.Request) (*dualwrite.Ack, error)
	Now() time.Time
}

type jobRepository struct {
	sync   *dualwrite.Synchronizer
	target dualwrite.Target
}

func NewJobRepository(sync *dualwrite.Synchronizer, target dualwrite.Target) JobRepository {
	return &jobRepository{sync: sync, target: target}
}

func (r *jobRepository) Get(ctx context.Context, id string) (*dualwrite.View[model.Job], error) {
	view, err := dualwrite.Read[model.Job](ctx, r.sync, r.target, id)
	if err != nil {
		return nil, err
	}
	normalize(view.Item)
	return view, nil
}

func (r *jobRepository) List(ctx context.Context, q dualwrite.ListQuery) (*dualwrite.Page[model.Job], error) {
	page, err := dualwrite.List[model.Job](ctx, r.sync, r.target, q)
	if err != nil {
		return nil, err
	}
	for _, j := range page.Items {
		normalize(j)
	}
	return page, nil
}

func (r *jobRepository) Save(ctx context.Context, req dualwrite.Request) (*dualwrite.Ack, error) {
	req.Target = r.target
	return r.sync.Write(ctx, req)
}

func (r *jobRepository) Now() time.Time {
	return r.sync.Now()
}

// normalize settles what decoding cannot: a record without a status key is
// Pending, and a record that is not waiting to sync came from, or has
// reached, the backend, so without an explicit rest_ref its id is the
// backend id.
func normalize(j *model.Job) {
	if j == nil {
		return
	}
	j.Status = model.NormalizeStatus(string(j.Status))
	if !j.NeedsSync && j.RestRef == "" {
		j.RestRef = j.ID
	}
}
