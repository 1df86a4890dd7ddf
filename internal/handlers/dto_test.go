package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
)

func parseBody(t *testing.T, raw string) body {
	t.Helper()
	b := body{}
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func TestDoctorPatchFromBody(t *testing.T) {
	p, err := doctorPatchFromBody(parseBody(t, `{"price":"40","is_featured":"true","insurances":["IESS"],"whatsapp":null}`))
	require.NoError(t, err)

	require.NotNil(t, p.Price)
	assert.Equal(t, 40.0, *p.Price)
	require.NotNil(t, p.IsFeatured)
	assert.True(t, *p.IsFeatured)
	assert.Equal(t, &[]string{"IESS"}, p.Insurances)
	assert.Nil(t, p.WhatsApp)
	assert.Nil(t, p.FullName)

	empty, err := doctorPatchFromBody(parseBody(t, `{"unknown":1}`))
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestDoctorPatchFromBody_TypeErrors(t *testing.T) {
	for _, raw := range []string{
		`{"price":"forty"}`,
		`{"price":true}`,
		`{"is_featured":"maybe"}`,
		`{"insurances":"IESS"}`,
		`{"full_name":12}`,
	} {
		_, err := doctorPatchFromBody(parseBody(t, raw))
		require.Error(t, err, raw)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), raw)
	}
}

func TestRegisterInputFromBody(t *testing.T) {
	in, err := registerInputFromBody(parseBody(t, `{"name":"Ana","email":"ana@mail.com","password":"pw","role":"doctor","full_name":"Dra. Ana","price":35,"specialty_id":"s1"}`))
	require.NoError(t, err)

	assert.Equal(t, models.RoleDoctor, in.Role)
	require.NotNil(t, in.Doctor)
	assert.Equal(t, "Dra. Ana", in.Doctor.FullName)
	assert.Equal(t, 35.0, *in.Doctor.Price)
	assert.Equal(t, "s1", *in.Doctor.SpecialtyID)

	patient, err := registerInputFromBody(parseBody(t, `{"email":"p@mail.com","password":"pw","full_name":"ignored"}`))
	require.NoError(t, err)
	assert.Nil(t, patient.Doctor)
}

func TestPromotionInputFromBody(t *testing.T) {
	in, err := promotionInputFromBody(parseBody(t, `{"start_date":"2026-05-01","end_date":"2026-05-08T23:59","priority":"2"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, in.Priority)
	assert.Equal(t, 2026, in.StartDate.Year())
	assert.Equal(t, 23, in.EndDate.Hour())

	_, err = promotionInputFromBody(parseBody(t, `{"start_date":"2026-05-01"}`))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = promotionInputFromBody(parseBody(t, `{"start_date":"2026-05-01","end_date":"soon"}`))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = promotionInputFromBody(parseBody(t, `{"start_date":"2026-05-01","end_date":"2026-05-02","priority":1.5}`))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
