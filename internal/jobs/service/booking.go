package service

import (
	"context"

	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	"motorhub/internal/jobs"
	"motorhub/internal/jobs/repository"
	"motorhub/internal/jobs/validator"
	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

// BookingService handles owners booking a service center directly.
type BookingService interface {
	Create(ctx context.Context, actor model.Identity, booking *model.Job) (*Result, error)
	GetByID(ctx context.Context, actor model.Identity, id string) (*model.Job, string, error)
	Update(ctx context.Context, actor model.Identity, id string, update *model.JobUpdate) (*Result, error)
	UpdateStatus(ctx context.Context, actor model.Identity, id, status string) (*Result, error)
	ListByRequester(ctx context.Context, requesterID string, c jobs.Criteria) (*List, error)
	ListByServiceCenter(ctx context.Context, centerID string, c jobs.Criteria) (*List, error)
}

type bookingService struct {
	base
	validator *validator.JobValidator
}

func NewBookingService(
	repo repository.JobRepository,
	validator *validator.JobValidator,
	phones *sanitizer.Phones,
	publisher events.Publisher,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		base: base{
			name:       "Booking",
			collection: docstore.CollectionBookings,
			repo:       repo,
			events:     publisher,
			phones:     phones,
			log:        log,
		},
		validator: validator,
	}
}

func (s *bookingService) Create(ctx context.Context, actor model.Identity, booking *model.Job) (*Result, error) {
	s.sanitize(booking)
	booking.AssignedProviderID = ""
	booking.Cost = 0
	booking.StartedAt = nil
	booking.CompletedAt = nil

	if err := s.validator.ValidateBooking(booking); err != nil {
		s.log.Warn("Booking validation failed", "requester_id", actor.ID, "error", err)
		return nil, err
	}
	return s.create(ctx, actor, booking, events.BookingCreated)
}

func (s *bookingService) GetByID(ctx context.Context, actor model.Identity, id string) (*model.Job, string, error) {
	booking, notice, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !party(booking, actor.ID) {
		return nil, "", apperrors.Forbidden("You do not have access to this booking")
	}
	return booking, notice, nil
}

func (s *bookingService) Update(ctx context.Context, actor model.Identity, id string, update *model.JobUpdate) (*Result, error) {
	if update == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	sanitizeUpdate(update, s.phones)
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, id, dualwrite.OpUpdate, func(b model.Job) (model.Job, error) {
		if !party(&b, actor.ID) {
			return b, jobs.ErrNotParty
		}
		if update.Cost != nil && b.ServiceCenterID != actor.ID {
			return b, jobs.ErrCostByServiceCenter
		}
		applyUpdate(&b, update)
		return b, nil
	}, nil, events.BookingUpdated)
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor model.Identity, id, status string) (*Result, error) {
	at := s.repo.Now()
	return s.transition(ctx, actor, id, dualwrite.OpUpdateStatus, func(b model.Job) (model.Job, error) {
		if b.ServiceCenterID != actor.ID {
			return b, jobs.ErrNotServiceCenter
		}
		return jobs.SetStatus(b, status, at)
	}, statusPatch, events.BookingStatusChanged)
}

// Bookings are listed from the full backend list; the backend's user route
// matches providers, not requesters.
func (s *bookingService) ListByRequester(ctx context.Context, requesterID string, c jobs.Criteria) (*List, error) {
	return s.list(ctx, "requester_id", requesterID, c, func(b *model.Job) bool {
		return b.RequesterID == requesterID
	})
}

func (s *bookingService) ListByServiceCenter(ctx context.Context, centerID string, c jobs.Criteria) (*List, error) {
	return s.list(ctx, "service_center_id", centerID, c, func(b *model.Job) bool {
		return b.ServiceCenterID == centerID
	})
}

func (s *bookingService) list(ctx context.Context, field, id string, c jobs.Criteria, keep func(*model.Job) bool) (*List, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	page, err := s.repo.List(ctx, dualwrite.ListQuery{
		Filter: bson.M{field: id},
		Sort:   newestFirst(),
	})
	if err != nil {
		return nil, err
	}
	items := jobs.Where(page.Items, func(b *model.Job) bool {
		return b.ServiceCenterID != "" && keep(b)
	})
	return finish(items, c, page.Notice), nil
}

func party(b *model.Job, id string) bool {
	return id != "" && (b.RequesterID == id || b.ServiceCenterID == id)
}

func sanitizeUpdate(u *model.JobUpdate, phones *sanitizer.Phones) {
	trim := func(p *string, f func(string) string) {
		if p != nil {
			*p = f(*p)
		}
	}
	trim(u.CustomerName, sanitizer.NormalizeName)
	trim(u.Vehicle, sanitizer.TrimAndNormalize)
	trim(u.ServiceType, sanitizer.TrimAndNormalize)
	trim(u.Message, sanitizer.TrimAndNormalize)
	if u.ContactNumber != nil {
		if phone := phones.Normalize(*u.ContactNumber); phone != "" {
			*u.ContactNumber = phone
		}
	}
}

func applyUpdate(b *model.Job, u *model.JobUpdate) {
	if u.CustomerName != nil {
		b.CustomerName = *u.CustomerName
	}
	if u.ContactNumber != nil {
		b.ContactNumber = *u.ContactNumber
	}
	if u.Vehicle != nil {
		b.Vehicle = *u.Vehicle
	}
	if u.ServiceType != nil {
		b.ServiceType = *u.ServiceType
	}
	if u.Message != nil {
		b.Message = *u.Message
	}
	if u.ScheduledAt != nil {
		b.ScheduledAt = *u.ScheduledAt
	}
	if u.Cost != nil {
		b.Cost = *u.Cost
	}
}
