package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
)

// Chat forwards a visitor question to the assistant. We expect
// {"message": "..."}.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Validation(`Invalid request format, expecting {"message": "..."}`))
		return
	}

	reply, err := h.svc.Assistant.Reply(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": reply})
}
