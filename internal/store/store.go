// Package store declares the persistence contract shared by the Mongo,
// Postgres and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harentsoaR/mysimo-api/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrReference is returned when a row points at a missing parent. Only
	// backends with foreign keys report it.
	ErrReference = errors.New("store: missing referenced record")
)

// DoctorFilter is the conjunctive base filter of a doctor search. Empty
// fields match everything.
type DoctorFilter struct {
	Text      string // case-insensitive substring of the full name
	Specialty string // case-insensitive specialty name
	City      string // case-insensitive city name
	Insurance string // exact member of the insurances list
}

// FeaturedQuery selects doctors matching Filter that are flagged featured or
// have a promotion window containing Now. Results are ordered by the flag,
// then by the number of active promotions, then newest first.
type FeaturedQuery struct {
	Filter DoctorFilter
	Now    time.Time
	Limit  int
}

// PageQuery selects a page of doctors matching Filter, newest first.
type PageQuery struct {
	Filter DoctorFilter
	Skip   int
	Limit  int
}

// AppointmentQuery lists appointments ordered by date-time descending.
// Empty ids are not filtered on.
type AppointmentQuery struct {
	PatientID      string
	DoctorID       string
	IncludeDoctor  bool
	IncludePatient bool
}

type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	// Migrate creates tables or indexes, including the unique constraints on
	// user email, doctor owner and reference names.
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	// CreateUserWithDoctor writes both records or neither.
	CreateUserWithDoctor(ctx context.Context, u *models.User, d *models.Doctor) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	FeaturedDoctors(ctx context.Context, q FeaturedQuery) ([]models.Doctor, error)
	CountDoctors(ctx context.Context, f DoctorFilter) (int64, error)
	ListDoctors(ctx context.Context, q PageQuery) ([]models.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
	FindDoctorByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	CreateDoctor(ctx context.Context, d *models.Doctor) error
	UpdateDoctor(ctx context.Context, id string, p models.DoctorPatch) (*models.Doctor, error)
	CreatePromotion(ctx context.Context, p *models.Promotion) error

	CreateAppointment(ctx context.Context, a *models.Appointment) error
	ListAppointments(ctx context.Context, q AppointmentQuery) ([]models.Appointment, error)

	ListSpecialties(ctx context.Context) ([]models.Specialty, error)
	ListCities(ctx context.Context) ([]models.City, error)
	// UpsertSpecialty inserts s unless one with the same name exists; either
	// way s.ID ends up holding the stored id.
	UpsertSpecialty(ctx context.Context, s *models.Specialty) error
	UpsertCity(ctx context.Context, c *models.City) error
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}
