package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
)

// CreateAppointment books an appointment for the authenticated caller.
func (h *Handler) CreateAppointment(c *gin.Context) {
	id, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Validation("Invalid request body"))
		return
	}

	apt, err := h.svc.Appointments.Create(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

// MyAppointments lists the caller's appointments according to their role.
func (h *Handler) MyAppointments(c *gin.Context) {
	id, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	list, err := h.svc.Appointments.ListMine(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
