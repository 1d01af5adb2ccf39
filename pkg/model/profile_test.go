package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func rawDoc(t *testing.T, m bson.M) bson.Raw {
	t.Helper()
	b, err := bson.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"owner", RoleOwner, true},
		{"Vehicle Owner", RoleOwner, true},
		{"technician", RoleTechnician, true},
		{"service-center", RoleServiceCenter, true},
		{"service_center", RoleServiceCenter, true},
		{"ServiceCenter", RoleServiceCenter, true},
		{"admin", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestDecodeProfile_Variants(t *testing.T) {
	t.Run("technician", func(t *testing.T) {
		p, err := DecodeProfile(rawDoc(t, bson.M{
			"_id":              "uid-1",
			"category":         "technician",
			"display_name":     "Ana",
			"specialization":   "Brakes",
			"experience_years": 6,
			"available":        true,
		}))
		require.NoError(t, err)

		tech, ok := p.(*TechnicianProfile)
		require.True(t, ok)
		assert.Equal(t, "uid-1", tech.ID)
		assert.Equal(t, "Brakes", tech.Specialization)
		assert.Equal(t, 6, tech.ExperienceYears)
		assert.True(t, tech.Available)
		assert.Equal(t, RoleTechnician, p.Kind())
	})

	t.Run("service center from legacy role field", func(t *testing.T) {
		p, err := DecodeProfile(rawDoc(t, bson.M{
			"_id":      "uid-2",
			"role":     "service_center",
			"address":  "1 Main St",
			"services": bson.A{"Oil change"},
		}))
		require.NoError(t, err)

		sc, ok := p.(*ServiceCenterProfile)
		require.True(t, ok)
		assert.Equal(t, RoleServiceCenter, sc.Role)
		assert.Equal(t, []string{"Oil change"}, sc.Services)
	})

	t.Run("owner", func(t *testing.T) {
		p, err := DecodeProfile(rawDoc(t, bson.M{
			"_id":      "uid-3",
			"category": "owner",
			"vehicle":  bson.M{"make": "Honda", "model": "Civic", "year": 2019},
		}))
		require.NoError(t, err)
		owner := p.(*OwnerProfile)
		assert.Equal(t, "Civic", owner.Vehicle.Model)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := DecodeProfile(rawDoc(t, bson.M{"_id": "uid-4", "category": "admin"}))
		assert.Error(t, err)
	})
}

func TestProfile_JSONFlattensBase(t *testing.T) {
	p := &TechnicianProfile{
		ProfileBase:    ProfileBase{ID: "uid-1", Role: RoleTechnician, DisplayName: "Ana"},
		Specialization: "Engines",
	}
	out, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "uid-1", m["id"])
	assert.Equal(t, "technician", m["category"])
	assert.Equal(t, "Engines", m["specialization"])
}

func TestNavigation(t *testing.T) {
	assert.Equal(t, "/technician/jobs", Navigation(RoleTechnician)[1].Path)
	assert.Equal(t, "/service-center/bookings", Navigation(RoleServiceCenter)[1].Path)
	assert.Equal(t, "/owner/book", Navigation(RoleOwner)[1].Path)
}

func TestRole_RestResource(t *testing.T) {
	assert.Equal(t, "technicians", RoleTechnician.RestResource())
	assert.Equal(t, "service-centers", RoleServiceCenter.RestResource())
	assert.Empty(t, RoleOwner.RestResource())
}
