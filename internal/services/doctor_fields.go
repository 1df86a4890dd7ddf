package services

import (
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

// DoctorFields is a doctor profile as submitted by a client.
type DoctorFields struct {
	UserID          string
	FullName        string
	SpecialtyID     *string
	CityID          *string
	About           string
	Price           *float64
	Insurances      []string
	IsFeatured      bool
	PhotoURL        *string
	SocialFacebook  *string
	SocialInstagram *string
	WhatsApp        *string
	Status          string
}

func (f DoctorFields) toDoctor() *models.Doctor {
	insurances := f.Insurances
	if insurances == nil {
		insurances = []string{}
	}
	status := f.Status
	if status == "" {
		status = models.DoctorPending
	}
	return &models.Doctor{
		ID:              store.NewID(),
		UserID:          f.UserID,
		FullName:        f.FullName,
		SpecialtyID:     nonEmpty(f.SpecialtyID),
		CityID:          nonEmpty(f.CityID),
		About:           f.About,
		Price:           f.Price,
		Insurances:      insurances,
		IsFeatured:      f.IsFeatured,
		PhotoURL:        nonEmpty(f.PhotoURL),
		SocialFacebook:  nonEmpty(f.SocialFacebook),
		SocialInstagram: nonEmpty(f.SocialInstagram),
		WhatsApp:        nonEmpty(f.WhatsApp),
		Status:          status,
	}
}

// nonEmpty stores empty strings as null.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
