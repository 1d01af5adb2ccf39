// Package dualwrite writes records through the REST backend first and falls
// back to the document store when the backend cannot be reached.
//
// A record has one logical id, which is also its document key. Records that
// reached the backend carry the backend's id in rest_ref. Documents written
// while the backend was down carry needs_sync=true until the same record is
// written again with the backend reachable.
package dualwrite

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"motorhub/internal/events"
	"motorhub/pkg/client"
	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	NoticeSavedOffline   = "Saved offline, will sync later"
	NoticeWorkingOffline = "Working offline, showing saved data"
)

type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpUpdateStatus
	OpUpdateAvailability
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpUpdateStatus:
		return "update_status"
	case OpUpdateAvailability:
		return "update_availability"
	default:
		return "unknown"
	}
}

// Target pairs a backend resource with the collection that mirrors it. An
// empty Resource means the collection is the only store for the record.
type Target struct {
	Name       string
	Resource   string
	Collection string
}

var (
	Jobs           = Target{Name: "job", Resource: client.ResourceJobs, Collection: docstore.CollectionJobs}
	Bookings       = Target{Name: "booking", Resource: client.ResourceJobs, Collection: docstore.CollectionBookings}
	Technicians    = Target{Name: "profile", Resource: client.ResourceTechnicians, Collection: docstore.CollectionUsers}
	ServiceCenters = Target{Name: "profile", Resource: client.ResourceServiceCenters, Collection: docstore.CollectionUsers}
	Owners         = Target{Name: "profile", Collection: docstore.CollectionUsers}
)

type Request struct {
	Target Target
	Op     Op
	// ID is the logical id. Empty for a record never stored before.
	ID string
	// RestID is the backend's id for the record, if it has one.
	RestID string
	// Record is the full record. It is what the document store receives.
	Record any
	// Patch, when set, is the backend body for status and availability ops.
	Patch any

	ActorID    string
	ActorEmail string
	Recipients []string
}

type Mode string

const (
	ModeSynced   Mode = "synced"
	ModeDegraded Mode = "degraded"
)

type Ack struct {
	Mode   Mode   `json:"mode"`
	ID     string `json:"id"`
	RestID string `json:"rest_id,omitempty"`
	Notice string `json:"notice,omitempty"`
	// Data is the backend's copy of the record on a synced write.
	Data json.RawMessage `json:"-"`
}

func (a *Ack) Degraded() bool {
	return a.Mode == ModeDegraded
}

// Prober reports whether the backend answers for a resource.
type Prober interface {
	Reachable(ctx context.Context, resource string) bool
}

type Options struct {
	// Mirror copies successful backend writes into the document store.
	Mirror bool
	Events events.Publisher
	Now    func() time.Time
	NewID  func() string
}

type Synchronizer struct {
	backend *client.Backend
	probe   Prober
	store   docstore.Store
	events  events.Publisher
	log     *logger.Logger
	mirror  bool
	now     func() time.Time
	newID   func() string
}

func New(backend *client.Backend, store docstore.Store, log *logger.Logger, opts Options) *Synchronizer {
	s := &Synchronizer{
		backend: backend,
		probe:   backend.Probe,
		store:   store,
		events:  opts.Events,
		log:     log,
		mirror:  opts.Mirror,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// WithProber replaces the reachability probe.
func (s *Synchronizer) WithProber(p Prober) *Synchronizer {
	s.probe = p
	return s
}

func (s *Synchronizer) Now() time.Time {
	return s.now()
}

// Write stores req.Record. The returned Ack is synced when the backend
// accepted the write and degraded when it went to the document store only.
// A backend rejection is returned as BUSINESS_REJECTED and never applied
// locally.
func (s *Synchronizer) Write(ctx context.Context, req Request) (*Ack, error) {
	if req.Record == nil {
		return nil, apperrors.Internal("Nothing to write", errors.New("nil record"))
	}
	if req.Op != OpCreate && req.ID == "" && req.RestID == "" {
		return nil, apperrors.InvalidInput("Record id is required")
	}

	at := s.now()
	req.ID = s.logicalID(ctx, req)
	if req.Target.Resource == "" {
		return s.storeOnly(ctx, req, at)
	}

	if !s.probe.Reachable(ctx, req.Target.Resource) {
		s.log.Warn("Backend unreachable, writing offline",
			"resource", req.Target.Resource,
			"op", req.Op.String(),
			"id", req.ID,
		)
		return s.fallback(ctx, req, at)
	}

	res := s.send(ctx, req)
	switch res.Outcome {
	case client.Success:
		return s.synced(ctx, req, res, at), nil
	case client.BusinessFailure:
		s.log.Info("Backend rejected write",
			"resource", req.Target.Resource,
			"op", req.Op.String(),
			"status", res.StatusCode,
			"message", res.Message,
		)
		return nil, apperrors.BusinessRejected(res.Message, res.StatusCode)
	default:
		s.log.Warn("Backend write failed, writing offline",
			"resource", req.Target.Resource,
			"op", req.Op.String(),
			"status", res.StatusCode,
			"error", res.Err,
		)
		return s.fallback(ctx, req, at)
	}
}

// logicalID finds the document that already mirrors req.RestID, so a record
// first stored offline keeps its original key after it reaches the backend.
func (s *Synchronizer) logicalID(ctx context.Context, req Request) string {
	if req.RestID == "" || (req.ID != "" && req.ID != req.RestID) {
		return req.ID
	}
	doc, err := s.store.FindOne(ctx, req.Target.Collection, bson.M{docstore.FieldRestRef: req.RestID})
	if err != nil {
		return req.ID
	}
	if id := lookupString(doc, docstore.FieldID); id != "" {
		return id
	}
	return req.ID
}

func (s *Synchronizer) send(ctx context.Context, req Request) client.Result {
	rc := s.backend.Resource(req.Target.Resource)

	var resp *client.Response
	var err error
	switch {
	case req.RestID == "":
		// Never reached the backend. The logical id lets the backend
		// collapse a create that is retried after a lost response.
		resp, err = rc.Create(ctx, req.Record, req.ID)
	case req.Op == OpUpdateStatus:
		resp, err = rc.UpdateStatus(ctx, req.RestID, req.body())
	case req.Op == OpUpdateAvailability:
		resp, err = rc.UpdateAvailability(ctx, req.RestID, req.body())
	default:
		resp, err = rc.Update(ctx, req.RestID, req.Record)
	}
	return client.Classify(resp, err)
}

func (r Request) body() any {
	if r.Patch != nil {
		return r.Patch
	}
	return r.Record
}

func (s *Synchronizer) synced(ctx context.Context, req Request, res client.Result, at time.Time) *Ack {
	restID := res.ID()
	if restID == "" {
		restID = req.RestID
	}
	key := req.ID
	if key == "" {
		key = restID
	}

	ack := &Ack{Mode: ModeSynced, ID: key, RestID: restID, Data: res.Data}

	// A record first stored offline must learn its backend id even when
	// mirroring is off, or it would be created twice.
	resync := req.RestID == "" && req.ID != ""
	switch {
	case key == "":
		s.log.Warn("Backend response carried no id, skipping mirror", "resource", req.Target.Resource)
	case s.mirror || resync:
		if err := s.upsert(ctx, req, key, restID, false, at); err != nil {
			s.log.Warn("Mirror write failed",
				"collection", req.Target.Collection,
				"id", key,
				"error", err,
			)
		}
	}

	s.log.Info("Record synced",
		"resource", req.Target.Resource,
		"op", req.Op.String(),
		"id", key,
		"rest_id", restID,
	)
	events.Emit(ctx, s.events, s.log, events.Event{
		Type:       events.RecordSynced,
		RecordID:   key,
		RestRef:    restID,
		Collection: req.Target.Collection,
		ActorID:    req.ActorID,
		OccurredAt: at,
	})
	return ack
}

func (s *Synchronizer) fallback(ctx context.Context, req Request, at time.Time) (*Ack, error) {
	key := req.ID
	if key == "" {
		key = req.RestID
	}
	if key == "" {
		key = s.newID()
	}

	if err := s.upsert(ctx, req, key, req.RestID, true, at); err != nil {
		return nil, s.storeError(req, err)
	}

	s.log.Warn("Record saved offline",
		"collection", req.Target.Collection,
		"op", req.Op.String(),
		"id", key,
	)
	events.Emit(ctx, s.events, s.log, events.Event{
		Type:       events.RecordDegraded,
		RecordID:   key,
		RestRef:    req.RestID,
		Collection: req.Target.Collection,
		ActorID:    req.ActorID,
		Recipients: nonEmpty(req.ActorID),
		Notice:     NoticeSavedOffline,
		OccurredAt: at,
	})
	return &Ack{Mode: ModeDegraded, ID: key, RestID: req.RestID, Notice: NoticeSavedOffline}, nil
}

func (s *Synchronizer) storeOnly(ctx context.Context, req Request, at time.Time) (*Ack, error) {
	key := req.ID
	if key == "" {
		key = s.newID()
	}
	if err := s.upsert(ctx, req, key, "", false, at); err != nil {
		return nil, s.storeError(req, err)
	}
	s.log.Info("Record stored", "collection", req.Target.Collection, "id", key)
	return &Ack{Mode: ModeSynced, ID: key}, nil
}

func (s *Synchronizer) upsert(ctx context.Context, req Request, key, restID string, needsSync bool, at time.Time) error {
	fields, err := docstore.ToFields(req.Record)
	if err != nil {
		return err
	}
	fields[docstore.FieldNeedsSync] = needsSync
	if restID != "" {
		fields[docstore.FieldRestRef] = restID
	} else {
		delete(fields, docstore.FieldRestRef)
	}
	return s.store.Upsert(ctx, req.Target.Collection, key, fields, at)
}

func (s *Synchronizer) storeError(req Request, err error) error {
	switch {
	case errors.Is(err, docstore.ErrStale):
		return apperrors.Conflict("This record was changed elsewhere, reload and try again")
	case errors.Is(err, docstore.ErrPermissionDenied):
		s.log.Error("Document store denied write", "collection", req.Target.Collection, "account", req.ActorEmail, "error", err)
		return apperrors.PermissionDenied(req.ActorEmail, err)
	case errors.Is(err, docstore.ErrUnavailable):
		return apperrors.BackendUnreachable(err)
	default:
		return apperrors.Internal("Failed to save record", err)
	}
}

func nonEmpty(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
