package profile

import (
	"context"

	"motorhub/internal/dualwrite"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
)

// Patch is a profile edit. Nil fields are left unchanged; fields that do not
// belong to the caller's role are ignored.
type Patch struct {
	DisplayName   *string `json:"display_name,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`

	Vehicle *model.VehicleInfo `json:"vehicle,omitempty"`

	Specialization  *string `json:"specialization,omitempty"`
	ExperienceYears *int    `json:"experience_years,omitempty"`

	Certification *string  `json:"certification,omitempty"`
	Address       *string  `json:"address,omitempty"`
	Services      []string `json:"services,omitempty"`
}

// Registration is the signup form.
type Registration struct {
	Role model.Role `json:"category"`
	Patch
}

// Register creates the users document for a new identity.
func (r *Resolver) Register(ctx context.Context, identity model.Identity, form *Registration) (*Outcome, error) {
	if form == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	role, ok := model.ParseRole(string(form.Role))
	if !ok {
		return nil, apperrors.MissingFields([]string{"category"})
	}

	if _, err := r.load(ctx, identity.ID, identity.Email); err == nil {
		return nil, apperrors.Conflict("A profile already exists for this account")
	} else if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	p, err := model.NewProfile(role)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	now := r.sync.Now()
	b := p.Base()
	b.ID = identity.ID
	b.Email = identity.Email
	b.CreatedAt = now

	out, err := r.write(ctx, identity, p, &form.Patch, dualwrite.OpCreate, nil)
	if err != nil {
		return nil, err
	}
	r.log.Info("Profile registered", "identity_id", identity.ID, "role", role, "mode", out.Mode)
	return out, nil
}

// Update merges patch into the caller's profile and writes it.
func (r *Resolver) Update(ctx context.Context, identity model.Identity, patch *Patch) (*Outcome, error) {
	if patch == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	res, err := r.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	return r.write(ctx, identity, res.Profile, patch, dualwrite.OpUpdate, nil)
}

type availability struct {
	Available bool `json:"available"`
}

// SetAvailability toggles whether a technician takes new jobs.
func (r *Resolver) SetAvailability(ctx context.Context, identity model.Identity, available bool) (*Outcome, error) {
	res, err := r.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	tech, ok := res.Profile.(*model.TechnicianProfile)
	if !ok {
		return nil, apperrors.Forbidden("Only technicians have an availability setting")
	}
	tech.Available = available
	return r.write(ctx, identity, tech, &Patch{}, dualwrite.OpUpdateAvailability, availability{Available: available})
}

func (r *Resolver) write(ctx context.Context, identity model.Identity, p model.Profile, patch *Patch, op dualwrite.Op, body any) (*Outcome, error) {
	r.apply(p, patch)
	if err := r.validator.Struct(p); err != nil {
		return nil, err
	}
	target, ok := targetFor(p.Kind())
	if !ok {
		return nil, apperrors.InvalidInput("Unknown profile role")
	}

	b := p.Base()
	b.UpdatedAt = r.sync.Now()
	ack, err := r.sync.Write(ctx, dualwrite.Request{
		Target:     target,
		Op:         op,
		ID:         b.ID,
		RestID:     b.RestRef,
		Record:     p,
		Patch:      body,
		ActorID:    identity.ID,
		ActorEmail: identity.Email,
	})
	if err != nil {
		return nil, err
	}

	if ack.RestID != "" {
		b.RestRef = ack.RestID
	}
	b.NeedsSync = ack.Degraded()
	return &Outcome{Resolution: *resolution(p, ack.Notice), Mode: ack.Mode}, nil
}

func (r *Resolver) apply(p model.Profile, patch *Patch) {
	b := p.Base()
	if patch.DisplayName != nil {
		b.DisplayName = sanitizer.NormalizeName(*patch.DisplayName)
	}
	if patch.ContactNumber != nil {
		b.ContactNumber = sanitizer.TrimAndNormalize(*patch.ContactNumber)
		if phone := r.phones.Normalize(b.ContactNumber); phone != "" {
			b.ContactNumber = phone
		}
	}

	switch v := p.(type) {
	case *model.OwnerProfile:
		if patch.Vehicle != nil {
			v.Vehicle = model.VehicleInfo{
				Make:        sanitizer.TrimAndNormalize(patch.Vehicle.Make),
				Model:       sanitizer.TrimAndNormalize(patch.Vehicle.Model),
				Year:        patch.Vehicle.Year,
				PlateNumber: sanitizer.TrimAndNormalize(patch.Vehicle.PlateNumber),
			}
		}
	case *model.TechnicianProfile:
		if patch.Specialization != nil {
			v.Specialization = sanitizer.TrimAndNormalize(*patch.Specialization)
		}
		if patch.ExperienceYears != nil {
			v.ExperienceYears = *patch.ExperienceYears
		}
	case *model.ServiceCenterProfile:
		if patch.Certification != nil {
			v.Certification = sanitizer.TrimAndNormalize(*patch.Certification)
		}
		if patch.Address != nil {
			v.Address = sanitizer.TrimAndNormalize(*patch.Address)
		}
		if patch.Services != nil {
			v.Services = sanitizer.NormalizeServices(patch.Services)
		}
	}
}
