package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	"motorhub/internal/jobs/repository"
	"motorhub/internal/jobs/validator"
	"motorhub/pkg/client"
	"motorhub/pkg/docstore/docstoretest"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
	"motorhub/pkg/validation"
)

// jobsBackend keeps /api/jobs records in memory.
type jobsBackend struct {
	mu      sync.Mutex
	down    bool
	reject  string
	records map[string]map[string]any
	order   []string
	calls   int
}

func newJobsBackend() *jobsBackend {
	return &jobsBackend{records: map[string]map[string]any{}}
}

func (b *jobsBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path == client.HealthCheckPath {
		w.WriteHeader(http.StatusOK)
		return
	}
	b.calls++

	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet && b.reject != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintf(w, `{"success":false,"message":%q}`, b.reject)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs"), "/"), "/")
	id := parts[0]

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		list := make([]map[string]any, 0, len(b.order))
		for _, key := range b.order {
			list = append(list, b.records[key])
		}
		writeData(w, list)
	case r.Method == http.MethodGet:
		rec, ok := b.records[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"Job not found"}`))
			return
		}
		writeData(w, rec)
	case r.Method == http.MethodPost:
		key := fmt.Sprintf("rest-%d", len(b.order)+1)
		body["id"] = key
		b.records[key] = body
		b.order = append(b.order, key)
		w.WriteHeader(http.StatusCreated)
		writeData(w, body)
	case r.Method == http.MethodPut:
		rec, ok := b.records[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"Job not found"}`))
			return
		}
		for k, v := range body {
			rec[k] = v
		}
		rec["id"] = id
		writeData(w, rec)
	}
}

func (b *jobsBackend) put(job model.Job) {
	data, _ := json.Marshal(job)
	var rec map[string]any
	_ = json.Unmarshal(data, &rec)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[job.ID] = rec
	b.order = append(b.order, job.ID)
}

// putRaw stores rec as the backend sends it, missing keys included.
func (b *jobsBackend) putRaw(id string, rec map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec["id"] = id
	b.records[id] = rec
	b.order = append(b.order, id)
}

func (b *jobsBackend) get(id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records[id]
}

func (b *jobsBackend) setDown(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = down
}

func (b *jobsBackend) setReject(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = message
}

func (b *jobsBackend) requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func writeData(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) find(eventType string) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == eventType {
			return e, true
		}
	}
	return events.Event{}, false
}

type fixture struct {
	backend  *jobsBackend
	store    *docstoretest.Memory
	events   *recorder
	jobs     JobService
	bookings BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: newJobsBackend(),
		store:   docstoretest.NewMemory(),
		events:  &recorder{},
	}
	srv := httptest.NewServer(f.backend)
	t.Cleanup(srv.Close)

	backend := client.NewBackend(client.BackendConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		ProbeTimeout:   time.Second,
	}, logger.Discard())

	clock := time.Now().UTC()
	ids := 0
	synchronizer := dualwrite.New(backend, f.store, logger.Discard(), dualwrite.Options{
		Mirror: true,
		Events: f.events,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("local-%d", ids)
		},
	})

	phones := sanitizer.NewPhones(sanitizer.DefaultPhoneRegions)
	jv := validator.NewJobValidator(validation.New(phones, logger.Discard()))
	f.jobs = NewJobService(repository.NewJobRepository(synchronizer, dualwrite.Jobs), jv, phones, f.events, logger.Discard())
	f.bookings = NewBookingService(repository.NewJobRepository(synchronizer, dualwrite.Bookings), jv, phones, f.events, logger.Discard())
	return f
}

var (
	owner      = model.Identity{ID: "owner-1", Email: "owner@example.com"}
	technician = model.Identity{ID: "tech-1", Email: "tech@example.com"}
	other      = model.Identity{ID: "tech-2", Email: "other@example.com"}
	center     = model.Identity{ID: "center-1", Email: "center@example.com"}
)

func newJob() *model.Job {
	return &model.Job{
		CustomerName:  "  Dana   Levi ",
		ContactNumber: "054-456-7890",
		Vehicle:       "Mazda 3",
		ServiceType:   "Brake check",
		Message:       "Squeaking front brakes",
		ScheduledAt:   time.Now().Add(48 * time.Hour),
	}
}

func openJob(id string) model.Job {
	job := *newJob()
	job.ID = id
	job.RequesterID = owner.ID
	job.ContactNumber = "+972544567890"
	job.Status = model.StatusPending
	job.CreatedAt = time.Now().Add(-time.Hour)
	job.UpdatedAt = job.CreatedAt
	return job
}
