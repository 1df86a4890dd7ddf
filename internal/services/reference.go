package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
	"github.com/harentsoaR/mysimo-api/internal/utils"
)

const (
	AdminEmail       = "admin@mysimo.ec"
	adminPassword    = "Admin123"
	demoPassword     = "123456"
	demoWhatsApp     = "+593987654321"
	demoPatients     = 3
	demoDoctors      = 5
	demoFeaturedUpTo = 2
)

var (
	SeedSpecialties = []string{
		"Cardiología",
		"Odontología",
		"Traumatología",
		"Dermatología",
		"Pediatría",
		"Ginecología",
		"Neurología",
	}
	SeedCities = []models.City{
		{Name: "Guayaquil", CountryCode: "EC"},
		{Name: "Quito", CountryCode: "EC"},
		{Name: "Manta", CountryCode: "EC"},
		{Name: "Jipijapa", CountryCode: "EC"},
	}
)

type SeedOptions struct {
	// Demo adds sample patients, doctors and promotions.
	Demo bool
}

// SeedReport counts the records created by a seed run. Records that already
// existed are not counted.
type SeedReport struct {
	Users      int
	Doctors    int
	Promotions int
}

type ReferenceService struct {
	store store.Store
	now   Clock
	log   zerolog.Logger
}

func NewReferenceService(st store.Store, logger zerolog.Logger) *ReferenceService {
	return &ReferenceService{store: st, now: time.Now, log: logger.With().Str("service", "reference").Logger()}
}

func (s *ReferenceService) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	out, err := s.store.ListSpecialties(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "list specialties")
	}
	return out, nil
}

func (s *ReferenceService) ListCities(ctx context.Context) ([]models.City, error) {
	out, err := s.store.ListCities(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "list cities")
	}
	return out, nil
}

// Seed loads the admin account and the lookup tables. It is safe to run
// repeatedly.
func (s *ReferenceService) Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	report := &SeedReport{}

	created, _, err := s.ensureUser(ctx, "Administrador General", AdminEmail, adminPassword, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if created {
		report.Users++
	}

	specialties := make([]models.Specialty, 0, len(SeedSpecialties))
	for _, name := range SeedSpecialties {
		sp := models.Specialty{Name: name}
		if err := s.store.UpsertSpecialty(ctx, &sp); err != nil {
			return nil, fmt.Errorf("upsert specialty %s: %w", name, err)
		}
		specialties = append(specialties, sp)
	}

	cities := make([]models.City, 0, len(SeedCities))
	for _, c := range SeedCities {
		c := c
		if err := s.store.UpsertCity(ctx, &c); err != nil {
			return nil, fmt.Errorf("upsert city %s: %w", c.Name, err)
		}
		cities = append(cities, c)
	}

	if opts.Demo {
		if err := s.seedDemo(ctx, specialties, cities, report); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Int("users", report.Users).
		Int("doctors", report.Doctors).
		Int("promotions", report.Promotions).
		Bool("demo", opts.Demo).
		Msg("seed complete")
	return report, nil
}

func (s *ReferenceService) seedDemo(ctx context.Context, specialties []models.Specialty, cities []models.City, report *SeedReport) error {
	for i := 1; i <= demoPatients; i++ {
		created, _, err := s.ensureUser(ctx, fmt.Sprintf("Paciente %d", i), fmt.Sprintf("paciente%d@mail.com", i), demoPassword, models.RolePatient)
		if err != nil {
			return err
		}
		if created {
			report.Users++
		}
	}

	now := s.now().UTC()
	for i := 1; i <= demoDoctors; i++ {
		created, user, err := s.ensureUser(ctx, fmt.Sprintf("Doctor %d", i), fmt.Sprintf("doctor%d@mail.com", i), demoPassword, models.RoleDoctor)
		if err != nil {
			return err
		}
		if created {
			report.Users++
		}

		_, err = s.store.FindDoctorByUserID(ctx, user.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("find doctor for %s: %w", user.Email, err)
		}

		price := float64(35 + i*5)
		whatsapp := demoWhatsApp
		d := &models.Doctor{
			ID:          store.NewID(),
			UserID:      user.ID,
			FullName:    "Dr. " + user.Name,
			SpecialtyID: &specialties[(i-1)%len(specialties)].ID,
			CityID:      &cities[(i-1)%len(cities)].ID,
			About:       "Atención integral con enfoque humano.",
			Price:       &price,
			Insurances:  []string{"IESS", "Privado"},
			IsFeatured:  i <= demoFeaturedUpTo,
			WhatsApp:    &whatsapp,
			Status:      models.DoctorActive,
		}
		if err := s.store.CreateDoctor(ctx, d); err != nil {
			return fmt.Errorf("create doctor for %s: %w", user.Email, err)
		}
		report.Doctors++

		if !d.IsFeatured {
			continue
		}
		p := &models.Promotion{
			ID:        store.NewID(),
			DoctorID:  d.ID,
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(7 * 24 * time.Hour),
			Priority:  1,
		}
		if err := s.store.CreatePromotion(ctx, p); err != nil {
			return fmt.Errorf("create promotion for %s: %w", user.Email, err)
		}
		report.Promotions++
	}
	return nil
}

// ensureUser returns the user with email, creating it when missing.
func (s *ReferenceService) ensureUser(ctx context.Context, name, email, password string, role models.Role) (bool, *models.User, error) {
	u, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return false, u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, nil, fmt.Errorf("find user %s: %w", email, err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, nil, err
	}
	u = &models.User{
		ID:           store.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return false, nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return true, u, nil
}
