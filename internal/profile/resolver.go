// Package profile resolves the signed-in identity to its role-specific
// profile and writes profile edits through the synchronizer.
package profile

import (
	"context"
	"encoding/json"
	"errors"

	"motorhub/internal/dualwrite"
	"motorhub/internal/session"
	"motorhub/pkg/client"
	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
	"motorhub/pkg/validation"
)

// Resolution is a profile together with what the UI derives from its role.
type Resolution struct {
	Profile    model.Profile   `json:"profile"`
	Role       model.Role      `json:"role"`
	Navigation []model.NavItem `json:"navigation"`
	Notice     string          `json:"notice,omitempty"`
}

// Outcome is the result of a profile write.
type Outcome struct {
	Resolution
	Mode dualwrite.Mode `json:"mode"`
}

func (o *Outcome) Degraded() bool {
	return o != nil && o.Mode == dualwrite.ModeDegraded
}

type Resolver struct {
	store     docstore.Store
	sync      *dualwrite.Synchronizer
	validator *validation.Validator
	phones    *sanitizer.Phones
	log       *logger.Logger
}

func NewResolver(store docstore.Store, sync *dualwrite.Synchronizer, validator *validation.Validator, log *logger.Logger) *Resolver {
	return &Resolver{
		store:     store,
		sync:      sync,
		validator: validator,
		phones:    validator.Phones(),
		log:       log,
	}
}

// Resolve loads the users document for identity and, for roles with a
// backend profile, overlays the backend's fields.
func (r *Resolver) Resolve(ctx context.Context, identity model.Identity) (*Resolution, error) {
	p, err := r.load(ctx, identity.ID, identity.Email)
	if err != nil {
		return nil, err
	}

	notice := ""
	if target, ok := targetFor(p.Kind()); ok && target.Resource != "" {
		data, reached := r.sync.Lookup(ctx, target, identity.ID)
		switch {
		case !reached:
			notice = dualwrite.NoticeWorkingOffline
		case data != nil:
			r.overlay(p, data)
		}
	}
	return resolution(p, notice), nil
}

// Role reports the caller's role from the users document alone.
func (r *Resolver) Role(ctx context.Context, identityID string) (model.Role, error) {
	p, err := r.load(ctx, identityID, session.Account(ctx))
	if err != nil {
		return "", err
	}
	return p.Kind(), nil
}

func (r *Resolver) load(ctx context.Context, identityID, account string) (model.Profile, error) {
	if identityID == "" {
		return nil, apperrors.Unauthenticated("Please sign in to continue")
	}
	doc, err := r.store.Get(ctx, docstore.CollectionUsers, identityID)
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return nil, apperrors.NotFound("profile")
		case errors.Is(err, docstore.ErrUnavailable):
			return nil, apperrors.BackendUnreachable(err)
		case errors.Is(err, docstore.ErrPermissionDenied):
			return nil, apperrors.PermissionDenied(account, err)
		default:
			return nil, apperrors.Internal("Failed to load profile", err)
		}
	}

	p, err := model.DecodeProfile(doc)
	if err != nil {
		r.log.Error("Stored profile is unreadable", "identity_id", identityID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	return p, nil
}

// overlay applies the backend's copy on top of p. Keys and sync state stay
// as the users document has them.
func (r *Resolver) overlay(p model.Profile, data json.RawMessage) {
	base := *p.Base()
	if err := json.Unmarshal(data, p); err != nil {
		r.log.Warn("Backend profile is unreadable, using saved profile", "identity_id", base.ID, "error", err)
		*p.Base() = base
		return
	}

	b := p.Base()
	b.ID = base.ID
	b.Role = base.Role
	b.NeedsSync = base.NeedsSync
	b.CreatedAt = base.CreatedAt
	if restID := client.ExtractID(data); restID != "" {
		b.RestRef = restID
	} else {
		b.RestRef = base.RestRef
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = base.UpdatedAt
	}
}

func resolution(p model.Profile, notice string) *Resolution {
	return &Resolution{
		Profile:    p,
		Role:       p.Kind(),
		Navigation: model.Navigation(p.Kind()),
		Notice:     notice,
	}
}

func targetFor(role model.Role) (dualwrite.Target, bool) {
	switch role {
	case model.RoleTechnician:
		return dualwrite.Technicians, true
	case model.RoleServiceCenter:
		return dualwrite.ServiceCenters, true
	case model.RoleOwner:
		return dualwrite.Owners, true
	default:
		return dualwrite.Target{}, false
	}
}
