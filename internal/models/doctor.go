package models

import "time"

const (
	DoctorPending = "pending"
	DoctorActive  = "active"
)

type Doctor struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`
	FullName        string    `bson:"fullName" json:"fullName"`
	SpecialtyID     *string   `bson:"specialtyId" json:"specialtyId"`
	CityID          *string   `bson:"cityId" json:"cityId"`
	About           string    `bson:"about" json:"about"`
	Price           *float64  `bson:"price" json:"price"`
	Insurances      []string  `bson:"insurances" json:"insurances"`
	IsFeatured      bool      `bson:"isFeatured" json:"isFeatured"`
	PhotoURL        *string   `bson:"photoUrl" json:"photoUrl"`
	SocialFacebook  *string   `bson:"socialFacebook" json:"socialFacebook"`
	SocialInstagram *string   `bson:"socialInstagram" json:"socialInstagram"`
	WhatsApp        *string   `bson:"whatsapp" json:"whatsapp"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`

	// Joined on read, never stored.
	Specialty *Specialty `bson:"specialty,omitempty" json:"specialty"`
	City      *City      `bson:"city,omitempty" json:"city"`
}

// HasInsurance reports whether name is among the accepted insurances.
func (d *Doctor) HasInsurance(name string) bool {
	for _, ins := range d.Insurances {
		if ins == name {
			return true
		}
	}
	return false
}

// DoctorPatch holds a partial update. Nil fields are left untouched.
type DoctorPatch struct {
	FullName        *string
	SpecialtyID     *string
	CityID          *string
	About           *string
	Price           *float64
	Insurances      *[]string
	IsFeatured      *bool
	PhotoURL        *string
	SocialFacebook  *string
	SocialInstagram *string
	WhatsApp        *string
	Status          *string
}

func (p DoctorPatch) IsEmpty() bool {
	return p == DoctorPatch{}
}

// Apply copies every set field of p onto d.
func (p DoctorPatch) Apply(d *Doctor) {
	if p.FullName != nil {
		d.FullName = *p.FullName
	}
	if p.SpecialtyID != nil {
		d.SpecialtyID = p.SpecialtyID
	}
	if p.CityID != nil {
		d.CityID = p.CityID
	}
	if p.About != nil {
		d.About = *p.About
	}
	if p.Price != nil {
		d.Price = p.Price
	}
	if p.Insurances != nil {
		d.Insurances = append([]string(nil), (*p.Insurances)...)
	}
	if p.IsFeatured != nil {
		d.IsFeatured = *p.IsFeatured
	}
	if p.PhotoURL != nil {
		d.PhotoURL = p.PhotoURL
	}
	if p.SocialFacebook != nil {
		d.SocialFacebook = p.SocialFacebook
	}
	if p.SocialInstagram != nil {
		d.SocialInstagram = p.SocialInstagram
	}
	if p.WhatsApp != nil {
		d.WhatsApp = p.WhatsApp
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
}
