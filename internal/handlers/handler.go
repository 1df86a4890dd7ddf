package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/middleware"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/services"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth         *services.AuthService
	Doctors      *services.DoctorService
	Appointments *services.AppointmentService
	Reference    *services.ReferenceService
	Assistant    *services.Assistant
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: logger.With().Str("component", "http").Logger()}
}

// bindBody decodes a JSON object body. A malformed body is a validation
// error.
func bindBody(c *gin.Context) (body, error) {
	b := body{}
	if err := c.ShouldBindJSON(&b); err != nil {
		return nil, apperrors.Validation("Invalid request body")
	}
	return b, nil
}

// caller returns the identity stored by the auth middleware.
func caller(c *gin.Context) (models.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, apperrors.Unauthorized("Unauthorized")
	}
	return id, nil
}

// doctorOwner resolves profile ownership for RequireOwnerOrAdmin.
func (h *Handler) doctorOwner(ctx context.Context, id string) (string, error) {
	owner, err := h.svc.Doctors.OwnerOf(ctx, id)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return "", middleware.ErrNoOwner
	}
	return owner, err
}
