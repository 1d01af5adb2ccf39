package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type Role string

const (
	RoleOwner         Role = "owner"
	RoleTechnician    Role = "technician"
	RoleServiceCenter Role = "service-center"
)

// ParseRole accepts the spellings found in stored user documents.
func ParseRole(raw string) (Role, bool) {
	switch strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(raw))) {
	case "owner", "vehicleowner":
		return RoleOwner, true
	case "technician":
		return RoleTechnician, true
	case "servicecenter":
		return RoleServiceCenter, true
	default:
		return "", false
	}
}

// ProfileBase holds the fields every role carries. ID is the identity id and
// the users document key; RestRef is the backend's id once one exists.
type ProfileBase struct {
	ID            string    `json:"id" bson:"_id"`
	Role          Role      `json:"category" bson:"category"`
	DisplayName   string    `json:"display_name" bson:"display_name" validate:"required,min=2,max=100"`
	Email         string    `json:"email" bson:"email" validate:"omitempty,email"`
	ContactNumber string    `json:"contact_number,omitempty" bson:"contact_number,omitempty"`
	NeedsSync     bool      `json:"needs_sync" bson:"needs_sync"`
	RestRef       string    `json:"rest_ref,omitempty" bson:"rest_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Profile is one of *OwnerProfile, *TechnicianProfile, *ServiceCenterProfile.
type Profile interface {
	Base() *ProfileBase
	Kind() Role
}

type VehicleInfo struct {
	Make        string `json:"make,omitempty" bson:"make,omitempty"`
	Model       string `json:"model,omitempty" bson:"model,omitempty"`
	Year        int    `json:"year,omitempty" bson:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	PlateNumber string `json:"plate_number,omitempty" bson:"plate_number,omitempty"`
}

type OwnerProfile struct {
	ProfileBase `bson:",inline"`
	Vehicle     VehicleInfo `json:"vehicle" bson:"vehicle"`
}

type TechnicianProfile struct {
	ProfileBase     `bson:",inline"`
	Specialization  string `json:"specialization" bson:"specialization"`
	ExperienceYears int    `json:"experience_years" bson:"experience_years" validate:"min=0,max=80"`
	Available       bool   `json:"available" bson:"available"`
}

type ServiceCenterProfile struct {
	ProfileBase   `bson:",inline"`
	Certification string   `json:"certification" bson:"certification"`
	Address       string   `json:"address" bson:"address"`
	Services      []string `json:"services" bson:"services"`
}

func (p *OwnerProfile) Base() *ProfileBase         { return &p.ProfileBase }
func (p *OwnerProfile) Kind() Role                 { return RoleOwner }
func (p *TechnicianProfile) Base() *ProfileBase    { return &p.ProfileBase }
func (p *TechnicianProfile) Kind() Role            { return RoleTechnician }
func (p *ServiceCenterProfile) Base() *ProfileBase { return &p.ProfileBase }
func (p *ServiceCenterProfile) Kind() Role         { return RoleServiceCenter }

// NewProfile returns an empty profile of the given role.
func NewProfile(role Role) (Profile, error) {
	switch role {
	case RoleOwner:
		return &OwnerProfile{ProfileBase: ProfileBase{Role: RoleOwner}}, nil
	case RoleTechnician:
		return &TechnicianProfile{ProfileBase: ProfileBase{Role: RoleTechnician}}, nil
	case RoleServiceCenter:
		return &ServiceCenterProfile{ProfileBase: ProfileBase{Role: RoleServiceCenter}}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// DecodeProfile picks the variant from the document's category field and
// decodes the whole document into it.
func DecodeProfile(doc bson.Raw) (Profile, error) {
	var header struct {
		Category string `bson:"category"`
		Role     string `bson:"role"`
	}
	if err := bson.Unmarshal(doc, &header); err != nil {
		return nil, fmt.Errorf("failed to decode profile header: %w", err)
	}

	raw := header.Category
	if raw == "" {
		raw = header.Role
	}
	role, ok := ParseRole(raw)
	if !ok {
		return nil, fmt.Errorf("unknown profile category %q", raw)
	}

	p, _ := NewProfile(role)
	if err := bson.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s profile: %w", role, err)
	}
	p.Base().Role = role
	return p, nil
}

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Navigation is the sidebar shown for a role.
func Navigation(role Role) []NavItem {
	switch role {
	case RoleTechnician:
		return []NavItem{
			{"Dashboard", "/technician"},
			{"Available Jobs", "/technician/jobs"},
			{"My Jobs", "/technician/my-jobs"},
			{"Profile", "/profile"},
		}
	case RoleServiceCenter:
		return []NavItem{
			{"Dashboard", "/service-center"},
			{"Bookings", "/service-center/bookings"},
			{"Spare Parts", "/spare-parts"},
			{"Profile", "/profile"},
		}
	default:
		return []NavItem{
			{"Dashboard", "/owner"},
			{"Book a Service", "/owner/book"},
			{"My Bookings", "/owner/bookings"},
			{"Spare Parts", "/spare-parts"},
			{"Profile", "/profile"},
		}
	}
}

// RestResource is the backend resource holding the role's profile, or "" for
// roles that only live in the document store.
func (r Role) RestResource() string {
	switch r {
	case RoleTechnician:
		return "technicians"
	case RoleServiceCenter:
		return "service-centers"
	default:
		return ""
	}
}
