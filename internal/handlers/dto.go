package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/services"
)

// body is a decoded JSON object whose snake_case keys are read one by one,
// so that absent keys stay distinguishable from zero values. A null value
// reads as absent.
type body map[string]json.RawMessage

// fieldReader collects the first type error met while reading a body.
type fieldReader struct {
	b   body
	err error
}

func (r *fieldReader) raw(key string) (json.RawMessage, bool) {
	v, ok := r.b[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func (r *fieldReader) fail(key, want string) {
	if r.err == nil {
		r.err = apperrors.Validationf("%s must be %s", key, want)
	}
}

func (r *fieldReader) str(key string) *string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		r.fail(key, "a string")
		return nil
	}
	return &s
}

func (r *fieldReader) text(key string) string {
	if s := r.str(key); s != nil {
		return *s
	}
	return ""
}

// flag accepts a JSON boolean or the strings "true" and "false".
func (r *fieldReader) flag(key string) *bool {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return &parsed
		}
	}
	r.fail(key, "a boolean")
	return nil
}

func (r *fieldReader) list(key string) *[]string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		r.fail(key, "a list of strings")
		return nil
	}
	if out == nil {
		out = []string{}
	}
	return &out
}

// number accepts a JSON number or a numeric string. An empty string reads
// as absent.
func (r *fieldReader) number(key string) *float64 {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return &parsed
		}
	}
	r.fail(key, "a number")
	return nil
}

func (r *fieldReader) integer(key string) int {
	f := r.number(key)
	if f == nil {
		return 0
	}
	if *f != float64(int(*f)) {
		r.fail(key, "an integer")
		return 0
	}
	return int(*f)
}

func doctorPatchFromBody(b body) (models.DoctorPatch, error) {
	r := &fieldReader{b: b}
	p := models.DoctorPatch{
		FullName:        r.str("full_name"),
		SpecialtyID:     r.str("specialty_id"),
		CityID:          r.str("city_id"),
		About:           r.str("about"),
		Price:           r.number("price"),
		Insurances:      r.list("insurances"),
		IsFeatured:      r.flag("is_featured"),
		PhotoURL:        r.str("photo_url"),
		SocialFacebook:  r.str("social_facebook"),
		SocialInstagram: r.str("social_instagram"),
		WhatsApp:        r.str("whatsapp"),
		Status:          r.str("status"),
	}
	return p, r.err
}

func doctorFieldsFromBody(b body) (services.DoctorFields, error) {
	r := &fieldReader{b: b}
	f := services.DoctorFields{
		UserID:          r.text("user_id"),
		FullName:        r.text("full_name"),
		SpecialtyID:     r.str("specialty_id"),
		CityID:          r.str("city_id"),
		About:           r.text("about"),
		Price:           r.number("price"),
		PhotoURL:        r.str("photo_url"),
		SocialFacebook:  r.str("social_facebook"),
		SocialInstagram: r.str("social_instagram"),
		WhatsApp:        r.str("whatsapp"),
		Status:          r.text("status"),
	}
	if ins := r.list("insurances"); ins != nil {
		f.Insurances = *ins
	}
	if featured := r.flag("is_featured"); featured != nil {
		f.IsFeatured = *featured
	}
	return f, r.err
}

func registerInputFromBody(b body) (services.RegisterInput, error) {
	r := &fieldReader{b: b}
	in := services.RegisterInput{
		Name:     r.text("name"),
		Email:    r.text("email"),
		Password: r.text("password"),
		Role:     models.Role(r.text("role")),
	}
	if r.err != nil {
		return in, r.err
	}
	if in.Role == models.RoleDoctor {
		fields, err := doctorFieldsFromBody(b)
		if err != nil {
			return in, err
		}
		in.Doctor = &fields
	}
	return in, nil
}

func promotionInputFromBody(b body) (services.PromotionInput, error) {
	r := &fieldReader{b: b}
	start, end := r.text("start_date"), r.text("end_date")
	priority := r.integer("priority")
	if r.err != nil {
		return services.PromotionInput{}, r.err
	}
	if start == "" || end == "" {
		return services.PromotionInput{}, apperrors.Validation("start_date and end_date are required")
	}

	in := services.PromotionInput{Priority: priority}
	var err error
	if in.StartDate, err = services.ParseDateTime(start); err != nil {
		return in, err
	}
	if in.EndDate, err = services.ParseDateTime(end); err != nil {
		return in, err
	}
	return in, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type appointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	DateTime string `json:"date_time"`
	Notes    string `json:"notes"`
}

func (r appointmentRequest) toInput() services.AppointmentInput {
	return services.AppointmentInput{DoctorID: r.DoctorID, DateTime: r.DateTime, Notes: r.Notes}
}

type chatRequest struct {
	Message string `json:"message"`
}
