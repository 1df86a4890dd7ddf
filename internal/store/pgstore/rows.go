package pgstore

import (
	"time"

	"github.com/lib/pq"

	"github.com/harentsoaR/mysimo-api/internal/models"
)

type userRow struct {
	ID           string    `gorm:"type:text;primaryKey"`
	Name         string    `gorm:"type:text"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         string    `gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type specialtyRow struct {
	ID   string `gorm:"type:text;primaryKey"`
	Name string `gorm:"type:text;uniqueIndex;not null"`
}

func (specialtyRow) TableName() string { return "specialties" }

type cityRow struct {
	ID          string `gorm:"type:text;primaryKey"`
	Name        string `gorm:"type:text;uniqueIndex;not null"`
	CountryCode string `gorm:"type:varchar(2)"`
}

func (cityRow) TableName() string { return "cities" }

type doctorRow struct {
	ID              string         `gorm:"type:text;primaryKey"`
	UserID          string         `gorm:"type:text;uniqueIndex;not null"`
	FullName        string         `gorm:"type:text;not null"`
	SpecialtyID     *string        `gorm:"type:text;index"`
	CityID          *string        `gorm:"type:text;index"`
	About           string         `gorm:"type:text"`
	Price           *float64       `gorm:"type:numeric(10,2)"`
	Insurances      pq.StringArray `gorm:"type:text[]"`
	IsFeatured      bool           `gorm:"not null;index"`
	PhotoURL        *string        `gorm:"type:text"`
	SocialFacebook  *string        `gorm:"type:text"`
	SocialInstagram *string        `gorm:"type:text"`
	WhatsApp        *string        `gorm:"column:whatsapp;type:text"`
	Status          string         `gorm:"type:varchar(16);not null"`
	CreatedAt       time.Time      `gorm:"index"`
	UpdatedAt       time.Time

	// Filled only by the featured query.
	PromotionCount int64 `gorm:"->;-:migration"`

	User      *userRow      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Specialty *specialtyRow `gorm:"foreignKey:SpecialtyID"`
	City      *cityRow      `gorm:"foreignKey:CityID"`
}

func (doctorRow) TableName() string { return "doctors" }

type promotionRow struct {
	ID        string     `gorm:"type:text;primaryKey"`
	DoctorID  string     `gorm:"type:text;not null;index"`
	StartDate time.Time  `gorm:"not null"`
	EndDate   time.Time  `gorm:"not null;index"`
	Priority  int        `gorm:"not null"`
	CreatedAt time.Time
	Doctor    *doctorRow `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
}

func (promotionRow) TableName() string { return "promotions" }

type appointmentRow struct {
	ID        string     `gorm:"type:text;primaryKey"`
	PatientID string     `gorm:"type:text;not null;index"`
	DoctorID  string     `gorm:"type:text;not null;index"`
	DateTime  time.Time  `gorm:"not null"`
	Notes     string     `gorm:"type:text"`
	Status    string     `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
	Patient   *userRow   `gorm:"foreignKey:PatientID"`
	Doctor    *doctorRow `gorm:"foreignKey:DoctorID"`
}

func (appointmentRow) TableName() string { return "appointments" }

func userFromModel(u *models.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

func doctorFromModel(d *models.Doctor) doctorRow {
	insurances := d.Insurances
	if insurances == nil {
		insurances = []string{}
	}
	return doctorRow{
		ID:              d.ID,
		UserID:          d.UserID,
		FullName:        d.FullName,
		SpecialtyID:     d.SpecialtyID,
		CityID:          d.CityID,
		About:           d.About,
		Price:           d.Price,
		Insurances:      pq.StringArray(insurances),
		IsFeatured:      d.IsFeatured,
		PhotoURL:        d.PhotoURL,
		SocialFacebook:  d.SocialFacebook,
		SocialInstagram: d.SocialInstagram,
		WhatsApp:        d.WhatsApp,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r doctorRow) toModel() models.Doctor {
	d := models.Doctor{
		ID:              r.ID,
		UserID:          r.UserID,
		FullName:        r.FullName,
		SpecialtyID:     r.SpecialtyID,
		CityID:          r.CityID,
		About:           r.About,
		Price:           r.Price,
		Insurances:      append([]string{}, r.Insurances...),
		IsFeatured:      r.IsFeatured,
		PhotoURL:        r.PhotoURL,
		SocialFacebook:  r.SocialFacebook,
		SocialInstagram: r.SocialInstagram,
		WhatsApp:        r.WhatsApp,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Specialty != nil {
		sp := r.Specialty.toModel()
		d.Specialty = &sp
	}
	if r.City != nil {
		c := r.City.toModel()
		d.City = &c
	}
	return d
}

func doctorsToModels(rows []doctorRow) []models.Doctor {
	out := make([]models.Doctor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

func (r specialtyRow) toModel() models.Specialty {
	return models.Specialty{ID: r.ID, Name: r.Name}
}

func (r cityRow) toModel() models.City {
	return models.City{ID: r.ID, Name: r.Name, CountryCode: r.CountryCode}
}

func (r appointmentRow) toModel() models.Appointment {
	a := models.Appointment{
		ID:        r.ID,
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		DateTime:  r.DateTime,
		Notes:     r.Notes,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
	if r.Doctor != nil {
		d := r.Doctor.toModel()
		a.Doctor = &d
	}
	if r.Patient != nil {
		u := r.Patient.toModel()
		sum := u.Summary()
		a.Patient = &sum
	}
	return a
}
