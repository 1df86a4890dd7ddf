package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store/memstore"
	"github.com/harentsoaR/mysimo-api/internal/utils"
)

var fixedNow = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store        *memstore.Store
	tokens       *utils.TokenManager
	auth         *AuthService
	doctors      *DoctorService
	appointments *AppointmentService
	reference    *ReferenceService
	notifier     *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	logger := zerolog.Nop()
	tokens := utils.NewTokenManager("test-secret", utils.TokenTTL)
	notifier := &recordingNotifier{}

	doctors := NewDoctorService(st, logger)
	doctors.now = func() time.Time { return fixedNow }
	reference := NewReferenceService(st, logger)
	reference.now = func() time.Time { return fixedNow }

	return &fixture{
		store:        st,
		tokens:       tokens,
		auth:         NewAuthService(st, tokens, logger),
		doctors:      doctors,
		appointments: NewAppointmentService(st, notifier, logger),
		reference:    reference,
		notifier:     notifier,
	}
}

type recordingNotifier struct {
	doctors      []*models.Doctor
	appointments []*models.Appointment
}

func (n *recordingNotifier) AppointmentBooked(d *models.Doctor, a *models.Appointment) {
	n.doctors = append(n.doctors, d)
	n.appointments = append(n.appointments, a)
}

func (f *fixture) register(t *testing.T, name, email string, role models.Role) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "pw123456", Role: role})
	require.NoError(t, err)
	return res
}

// admin seeds the admin account and logs it in.
func (f *fixture) admin(t *testing.T) *AuthResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.reference.Seed(ctx, SeedOptions{})
	require.NoError(t, err)
	res, err := f.auth.Login(ctx, AdminEmail, adminPassword)
	require.NoError(t, err)
	return res
}

func (f *fixture) identity(res *AuthResult) models.Identity {
	return models.Identity{ID: res.User.ID, Role: res.User.Role, Name: res.User.Name, Email: res.User.Email}
}

func requireKind(t *testing.T, want apperrors.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, apperrors.KindOf(err), "error: %v", err)
}

func strPtr(s string) *string { return &s }
