package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
	"github.com/harentsoaR/mysimo-api/internal/utils"
)

var errInvalidCredentials = apperrors.Unauthorized("Invalid credentials")

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	// Doctor is used only when Role is doctor. Its UserID and Status are
	// ignored.
	Doctor *DoctorFields
}

type AuthResult struct {
	User  models.UserSummary `json:"user"`
	Token string             `json:"token"`
}

type AuthService struct {
	store  store.Store
	tokens *utils.TokenManager
	log    zerolog.Logger
}

func NewAuthService(st store.Store, tokens *utils.TokenManager, logger zerolog.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, log: logger.With().Str("service", "auth").Logger()}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.Validation("Email and password are required")
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return nil, apperrors.Validationf("Password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	role := in.Role
	if role == "" {
		role = models.RolePatient
	}
	if !role.Valid() {
		return nil, apperrors.Validationf("Unknown role %q", role)
	}
	// Admins come from the seed command only.
	if role == models.RoleAdmin {
		return nil, apperrors.Validation("Admin accounts cannot be self-registered")
	}

	_, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("Email already registered")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.Internal(err, "look up email")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "hash password")
	}
	user := &models.User{
		ID:           store.NewID(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if role == models.RoleDoctor {
		var fields DoctorFields
		if in.Doctor != nil {
			fields = *in.Doctor
		}
		fields.UserID = user.ID
		fields.Status = models.DoctorPending
		if fields.FullName == "" {
			fields.FullName = in.Name
		}
		err = s.store.CreateUserWithDoctor(ctx, user, fields.toDoctor())
	} else {
		err = s.store.CreateUser(ctx, user)
	}
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperrors.Conflict("Email already registered")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "create user")
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return s.issue(user)
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.Internal(err, "look up email")
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, apperrors.Internal(err, "issue token")
	}
	return &AuthResult{User: u.Summary(), Token: token}, nil
}
