package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

func TestParsePaging(t *testing.T) {
	tests := []struct {
		page, limit string
		want        Paging
	}{
		{"", "", Paging{Page: 1, Limit: 20, Skip: 0}},
		{"3", "20", Paging{Page: 3, Limit: 20, Skip: 40}},
		{"2", "100", Paging{Page: 2, Limit: 50, Skip: 50}},
		{"1", "50", Paging{Page: 1, Limit: 50, Skip: 0}},
		{"abc", "xyz", Paging{Page: 1, Limit: 20, Skip: 0}},
		{"0", "0", Paging{Page: 1, Limit: 20, Skip: 0}},
		{"-2", "-5", Paging{Page: 1, Limit: 20, Skip: 0}},
		{" 2 ", " 5 ", Paging{Page: 2, Limit: 5, Skip: 5}},
		{"922337203685477581", "20", Paging{Page: math.MaxInt / 20, Limit: 20, Skip: (math.MaxInt/20 - 1) * 20}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%q limit=%q", tt.page, tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePaging(tt.page, tt.limit))
		})
	}
}

func (f *fixture) addDoctor(t *testing.T, name string, createdAt time.Time, mutate func(*models.Doctor)) *models.Doctor {
	t.Helper()
	d := &models.Doctor{
		ID:         store.NewID(),
		UserID:     store.NewID(),
		FullName:   name,
		Insurances: []string{},
		Status:     models.DoctorActive,
		CreatedAt:  createdAt,
	}
	if mutate != nil {
		mutate(d)
	}
	require.NoError(t, f.store.CreateDoctor(context.Background(), d))
	return d
}

func (f *fixture) promote(t *testing.T, doctorID string, start, end time.Time) {
	t.Helper()
	_, err := f.doctors.Promote(context.Background(), doctorID, PromotionInput{StartDate: start, EndDate: end, Priority: 1})
	require.NoError(t, err)
}

func TestSearch_FeaturedCapAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var flagged []*models.Doctor
	for i := 0; i < 6; i++ {
		flagged = append(flagged, f.addDoctor(t, fmt.Sprintf("Flagged %d", i), fixedNow.Add(-time.Duration(i)*time.Hour), func(d *models.Doctor) {
			d.IsFeatured = true
		}))
	}
	promoted := f.addDoctor(t, "Promoted twice", fixedNow.Add(-48*time.Hour), nil)
	f.promote(t, promoted.ID, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	f.promote(t, promoted.ID, fixedNow, fixedNow)
	for i := 0; i < 4; i++ {
		d := f.addDoctor(t, fmt.Sprintf("Promoted %d", i), fixedNow.Add(-time.Duration(i)*time.Minute), nil)
		f.promote(t, d.ID, fixedNow.Add(-24*time.Hour), fixedNow.Add(24*time.Hour))
	}
	expired := f.addDoctor(t, "Expired", fixedNow, nil)
	f.promote(t, expired.ID, fixedNow.Add(-48*time.Hour), fixedNow.Add(-time.Second))

	res, err := f.doctors.Search(ctx, DoctorSearch{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Featured, FeaturedLimit)

	for i, d := range flagged {
		assert.Equal(t, d.ID, res.Featured[i].ID, "flagged doctors come first, newest first")
	}
	assert.Equal(t, promoted.ID, res.Featured[6].ID, "two active promotions outrank one")
	for _, d := range res.Featured {
		assert.NotEqual(t, expired.ID, d.ID)
	}
}

func TestSearch_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 45; i++ {
		f.addDoctor(t, fmt.Sprintf("Doctor %02d", i), fixedNow.Add(-time.Duration(i)*time.Minute), nil)
	}

	first, err := f.doctors.Search(ctx, DoctorSearch{Paging: ParsePaging("1", "20")})
	require.NoError(t, err)
	assert.Len(t, first.Data, 20)
	assert.EqualValues(t, 45, first.Total)
	assert.Equal(t, "Doctor 00", first.Data[0].FullName)
	assert.Empty(t, first.Featured)
	assert.NotNil(t, first.Featured)

	third, err := f.doctors.Search(ctx, DoctorSearch{Paging: ParsePaging("3", "20")})
	require.NoError(t, err)
	assert.Len(t, third.Data, 5)
	assert.Equal(t, 3, third.Page)

	fourth, err := f.doctors.Search(ctx, DoctorSearch{Paging: ParsePaging("4", "20")})
	require.NoError(t, err)
	assert.Empty(t, fourth.Data)
	assert.EqualValues(t, 45, fourth.Total)

	huge, err := f.doctors.Search(ctx, DoctorSearch{Paging: ParsePaging("922337203685477581", "20")})
	require.NoError(t, err)
	assert.Empty(t, huge.Data)
	assert.EqualValues(t, 45, huge.Total)
	assert.Positive(t, huge.Page)

	capped, err := f.doctors.Search(ctx, DoctorSearch{Paging: ParsePaging("1", "100")})
	require.NoError(t, err)
	assert.Equal(t, 50, capped.Limit)
	assert.Len(t, capped.Data, 45)

	defaulted, err := f.doctors.Search(ctx, DoctorSearch{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaulted.Page)
	assert.Equal(t, 20, defaulted.Limit)
}

func TestSearch_FiltersApplyToBothSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cardio := models.Specialty{Name: "Cardiología"}
	require.NoError(t, f.store.UpsertSpecialty(ctx, &cardio))
	quito := models.City{Name: "Quito", CountryCode: "EC"}
	require.NoError(t, f.store.UpsertCity(ctx, &quito))

	match := f.addDoctor(t, "Dra. Ana Pérez", fixedNow, func(d *models.Doctor) {
		d.SpecialtyID, d.CityID = &cardio.ID, &quito.ID
		d.Insurances = []string{"IESS"}
		d.IsFeatured = true
	})
	f.addDoctor(t, "Dr. Ana Otra", fixedNow, func(d *models.Doctor) { d.IsFeatured = true })

	res, err := f.doctors.Search(ctx, DoctorSearch{Text: "ana", Specialty: "cardiología", City: "QUITO", Insurance: "IESS"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	require.Len(t, res.Featured, 1)
	assert.Equal(t, match.ID, res.Data[0].ID)
	assert.Equal(t, match.ID, res.Featured[0].ID)
	require.NotNil(t, res.Data[0].Specialty)
	assert.Equal(t, "Cardiología", res.Data[0].Specialty.Name)
}

func TestSearchResult_JSONShapes(t *testing.T) {
	featuredOnly, err := json.Marshal(&SearchResult{FeaturedOnly: true, Featured: []models.Doctor{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":0,"data":[]}`, string(featuredOnly))

	page, err := json.Marshal(&SearchResult{Featured: []models.Doctor{}, Data: []models.Doctor{}, Total: 3, Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.JSONEq(t, `{"featured":[],"results":0,"total":3,"page":2,"limit":20,"data":[]}`, string(page))
}

func TestDoctor_GetNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.doctors.Get(context.Background(), "missing")
	requireKind(t, apperrors.KindNotFound, err)
}

func TestDoctor_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.doctors.Create(ctx, DoctorFields{FullName: "No owner"})
	requireKind(t, apperrors.KindValidation, err)

	d, err := f.doctors.Create(ctx, DoctorFields{UserID: "u1", FullName: "Dr. Uno", PhotoURL: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, models.DoctorPending, d.Status)
	assert.Nil(t, d.PhotoURL)
	assert.Equal(t, []string{}, d.Insurances)

	_, err = f.doctors.Create(ctx, DoctorFields{UserID: "u1", FullName: "Dr. Uno again"})
	requireKind(t, apperrors.KindConflict, err)
}

func TestDoctor_UpdateOnlyPresentFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	price := 25.0
	d := f.addDoctor(t, "Dr. Patch", fixedNow, func(d *models.Doctor) {
		d.About = "Cardiólogo"
		d.Price = &price
		d.Insurances = []string{"IESS"}
	})

	newPrice := 40.0
	updated, err := f.doctors.Update(ctx, d.ID, models.DoctorPatch{Price: &newPrice})
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.Equal(t, 40.0, *updated.Price)
	assert.Equal(t, "Dr. Patch", updated.FullName)
	assert.Equal(t, "Cardiólogo", updated.About)
	assert.Equal(t, []string{"IESS"}, updated.Insurances)

	same, err := f.doctors.Update(ctx, d.ID, models.DoctorPatch{})
	require.NoError(t, err)
	assert.Equal(t, 40.0, *same.Price)

	_, err = f.doctors.Update(ctx, "missing", models.DoctorPatch{Price: &newPrice})
	requireKind(t, apperrors.KindNotFound, err)
}

func TestDoctor_Promote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.addDoctor(t, "Dr. Promo", fixedNow, nil)

	_, err := f.doctors.Promote(ctx, d.ID, PromotionInput{StartDate: fixedNow})
	requireKind(t, apperrors.KindValidation, err)

	_, err = f.doctors.Promote(ctx, d.ID, PromotionInput{StartDate: fixedNow, EndDate: fixedNow.Add(-time.Hour)})
	requireKind(t, apperrors.KindValidation, err)

	_, err = f.doctors.Promote(ctx, "missing", PromotionInput{StartDate: fixedNow, EndDate: fixedNow.Add(time.Hour)})
	requireKind(t, apperrors.KindNotFound, err)

	p, err := f.doctors.Promote(ctx, d.ID, PromotionInput{StartDate: fixedNow.Add(-time.Hour), EndDate: fixedNow.Add(time.Hour), Priority: 2})
	require.NoError(t, err)
	assert.Equal(t, d.ID, p.DoctorID)

	res, err := f.doctors.Search(ctx, DoctorSearch{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Featured, 1)
	assert.Equal(t, d.ID, res.Featured[0].ID)
}

func TestDoctor_OwnerOf(t *testing.T) {
	f := newFixture(t)
	d := f.addDoctor(t, "Dr. Owner", fixedNow, nil)

	owner, err := f.doctors.OwnerOf(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.UserID, owner)

	_, err = f.doctors.OwnerOf(context.Background(), "missing")
	requireKind(t, apperrors.KindNotFound, err)
}
