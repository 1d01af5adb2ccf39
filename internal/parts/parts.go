// Package parts serves the spare-parts catalogue. Parts live only in the
// document store.
package parts

import (
	"context"
	"errors"
	"time"

	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
	"motorhub/pkg/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Criteria narrows the catalogue. Search matches name, brand or category.
// Category and Brand must match whole values, ignoring case.
type Criteria struct {
	Search   string
	Category string
	Brand    string
}

type Service struct {
	store     docstore.Store
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(store docstore.Store, validator *validation.Validator, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		validator: validator,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// List returns matching parts sorted by name.
func (s *Service) List(ctx context.Context, c Criteria) ([]*model.SparePart, error) {
	docs, err := s.store.Find(ctx, docstore.CollectionSpareParts, bson.M{}, docstore.FindOptions{SortField: "name"})
	if err != nil {
		return nil, storeError(err)
	}
	all, err := docstore.DecodeAll[model.SparePart](docs)
	if err != nil {
		return nil, apperrors.Internal("Failed to read spare parts", err)
	}
	return Filter(all, c), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*model.SparePart, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Spare part ID cannot be empty")
	}
	doc, err := s.store.Get(ctx, docstore.CollectionSpareParts, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("spare part", id)
		}
		return nil, storeError(err)
	}
	part, err := docstore.Decode[model.SparePart](doc)
	if err != nil {
		return nil, apperrors.Internal("Failed to read spare part", err)
	}
	return part, nil
}

// Create adds a part to the catalogue.
func (s *Service) Create(ctx context.Context, part *model.SparePart) error {
	part.Name = sanitizer.NormalizeName(part.Name)
	part.Brand = sanitizer.TrimAndNormalize(part.Brand)
	part.Category = sanitizer.TrimAndNormalize(part.Category)
	if err := s.validator.Struct(part); err != nil {
		return err
	}

	now := s.now().UTC()
	part.ID = s.newID()
	part.CreatedAt = now
	part.UpdatedAt = now

	fields, err := docstore.ToFields(part)
	if err != nil {
		return apperrors.Internal("Failed to save spare part", err)
	}
	if err := s.store.Upsert(ctx, docstore.CollectionSpareParts, part.ID, fields, now); err != nil {
		return storeError(err)
	}
	s.log.Info("Spare part created", "id", part.ID, "name", part.Name)
	return nil
}

// Filter keeps the parts matching c, preserving order.
func Filter(parts []*model.SparePart, c Criteria) []*model.SparePart {
	category := sanitizer.NormalizeSearch(c.Category)
	brand := sanitizer.NormalizeSearch(c.Brand)

	out := make([]*model.SparePart, 0, len(parts))
	for _, p := range parts {
		if category != "" && sanitizer.NormalizeSearch(p.Category) != category {
			continue
		}
		if brand != "" && sanitizer.NormalizeSearch(p.Brand) != brand {
			continue
		}
		if !sanitizer.ContainsFold(p.Name, c.Search) &&
			!sanitizer.ContainsFold(p.Brand, c.Search) &&
			!sanitizer.ContainsFold(p.Category, c.Search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func storeError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrUnavailable):
		return apperrors.BackendUnreachable(err)
	case errors.Is(err, docstore.ErrPermissionDenied):
		return apperrors.PermissionDenied("", err)
	default:
		return apperrors.Internal("Spare parts store failed", err)
	}
}
