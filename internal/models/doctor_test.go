package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoctorPatch_ApplyOnlySetFields(t *testing.T) {
	spec := "spec-1"
	price := 35.0
	d := Doctor{
		FullName:    "Dr. Ana",
		SpecialtyID: &spec,
		About:       "Cardio",
		Price:       &price,
		Insurances:  []string{"IESS"},
		Status:      DoctorActive,
	}

	newPrice := 40.0
	DoctorPatch{Price: &newPrice}.Apply(&d)

	assert.Equal(t, 40.0, *d.Price)
	assert.Equal(t, "Dr. Ana", d.FullName)
	assert.Equal(t, "spec-1", *d.SpecialtyID)
	assert.Equal(t, "Cardio", d.About)
	assert.Equal(t, []string{"IESS"}, d.Insurances)
	assert.Equal(t, DoctorActive, d.Status)
}

func TestDoctorPatch_IsEmpty(t *testing.T) {
	assert.True(t, DoctorPatch{}.IsEmpty())

	featured := false
	assert.False(t, DoctorPatch{IsFeatured: &featured}.IsEmpty())
}

func TestPromotion_ActiveAtIsInclusive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	p := Promotion{StartDate: start, EndDate: end}

	assert.True(t, p.ActiveAt(start))
	assert.True(t, p.ActiveAt(end))
	assert.True(t, p.ActiveAt(start.Add(time.Hour)))
	assert.False(t, p.ActiveAt(start.Add(-time.Second)))
	assert.False(t, p.ActiveAt(end.Add(time.Second)))
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RolePatient, RoleDoctor, RoleAdmin} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("staff").Valid())
	assert.False(t, Role("").Valid())
}
