package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

// dateTimeLayouts are the accepted date_time formats, tried in order.
// Layouts without an offset are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.Validationf("Invalid date_time %q", raw)
}

// BookingNotifier is told about new appointments. It must not block.
type BookingNotifier interface {
	AppointmentBooked(doctor *models.Doctor, a *models.Appointment)
}

type AppointmentInput struct {
	DoctorID string
	DateTime string
	Notes    string
}

type AppointmentService struct {
	store    store.Store
	notifier BookingNotifier
	log      zerolog.Logger
}

// NewAppointmentService builds the service. notifier may be nil.
func NewAppointmentService(st store.Store, notifier BookingNotifier, logger zerolog.Logger) *AppointmentService {
	return &AppointmentService{store: st, notifier: notifier, log: logger.With().Str("service", "appointments").Logger()}
}

func (s *AppointmentService) Create(ctx context.Context, caller models.Identity, in AppointmentInput) (*models.Appointment, error) {
	if strings.TrimSpace(in.DoctorID) == "" || strings.TrimSpace(in.DateTime) == "" {
		return nil, apperrors.Validation("doctor_id and date_time are required")
	}
	when, err := ParseDateTime(in.DateTime)
	if err != nil {
		return nil, err
	}

	a := &models.Appointment{
		ID:        store.NewID(),
		PatientID: caller.ID,
		DoctorID:  strings.TrimSpace(in.DoctorID),
		DateTime:  when,
		Notes:     in.Notes,
		Status:    models.AppointmentPending,
	}
	err = s.store.CreateAppointment(ctx, a)
	if errors.Is(err, store.ErrReference) {
		return nil, apperrors.Validation("Doctor does not exist")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "create appointment")
	}

	s.log.Info().Str("appointment_id", a.ID).Str("doctor_id", a.DoctorID).Str("patient_id", a.PatientID).Msg("appointment created")
	s.notify(ctx, a)
	return a, nil
}

// notify is best effort. A missing doctor or a failed lookup only logs.
func (s *AppointmentService) notify(ctx context.Context, a *models.Appointment) {
	if s.notifier == nil {
		return
	}
	d, err := s.store.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		s.log.Warn().Err(err).Str("doctor_id", a.DoctorID).Msg("skip booking notification")
		return
	}
	s.notifier.AppointmentBooked(d, a)
}

// ListMine returns the caller's appointments, newest date first.
func (s *AppointmentService) ListMine(ctx context.Context, caller models.Identity) ([]models.Appointment, error) {
	switch caller.Role {
	case models.RolePatient:
		return s.listForPatient(ctx, caller)
	case models.RoleDoctor:
		return s.listForDoctor(ctx, caller)
	case models.RoleAdmin:
		return s.listAll(ctx)
	default:
		return nil, apperrors.Forbidden("Forbidden")
	}
}

func (s *AppointmentService) listForPatient(ctx context.Context, caller models.Identity) ([]models.Appointment, error) {
	return s.list(ctx, store.AppointmentQuery{PatientID: caller.ID, IncludeDoctor: true})
}

func (s *AppointmentService) listForDoctor(ctx context.Context, caller models.Identity) ([]models.Appointment, error) {
	d, err := s.store.FindDoctorByUserID(ctx, caller.ID)
	if errors.Is(err, store.ErrNotFound) {
		return []models.Appointment{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err, "find doctor profile")
	}
	return s.list(ctx, store.AppointmentQuery{DoctorID: d.ID, IncludePatient: true})
}

func (s *AppointmentService) listAll(ctx context.Context) ([]models.Appointment, error) {
	return s.list(ctx, store.AppointmentQuery{})
}

func (s *AppointmentService) list(ctx context.Context, q store.AppointmentQuery) ([]models.Appointment, error) {
	out, err := s.store.ListAppointments(ctx, q)
	if err != nil {
		return nil, apperrors.Internal(err, "list appointments")
	}
	if out == nil {
		out = []models.Appointment{}
	}
	return out, nil
}
