package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
)

// Register creates an account, plus a doctor profile when role is doctor.
func (h *Handler) Register(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	in, err := registerInputFromBody(b)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Validation("Invalid request body"))
		return
	}

	res, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
