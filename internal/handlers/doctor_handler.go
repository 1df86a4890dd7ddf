package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/mysimo-api/internal/services"
)

// ListDoctors serves the directory search. featured=true returns only the
// featured set.
func (h *Handler) ListDoctors(c *gin.Context) {
	q := services.DoctorSearch{
		Text:         c.Query("q"),
		Specialty:    c.Query("specialty"),
		City:         c.Query("city"),
		Insurance:    c.Query("insurance"),
		FeaturedOnly: strings.EqualFold(c.Query("featured"), "true"),
		Paging:       services.ParsePaging(c.Query("page"), c.Query("limit")),
	}

	res, err := h.svc.Doctors.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	d, err := h.svc.Doctors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	fields, err := doctorFieldsFromBody(b)
	if err != nil {
		h.respondError(c, err)
		return
	}

	d, err := h.svc.Doctors.Create(c.Request.Context(), fields)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	patch, err := doctorPatchFromBody(b)
	if err != nil {
		h.respondError(c, err)
		return
	}

	d, err := h.svc.Doctors.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) CreatePromotion(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	in, err := promotionInputFromBody(b)
	if err != nil {
		h.respondError(c, err)
		return
	}

	p, err := h.svc.Doctors.Promote(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
