package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

const (
	FeaturedLimit   = 8
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Paging is a resolved page request.
type Paging struct {
	Page  int
	Limit int
	Skip  int
}

// ParsePaging resolves raw query values. A missing, non-numeric or
// non-positive limit falls back to DefaultPageSize and larger values are
// capped at MaxPageSize. A page that is not a positive integer reads as 1,
// and pages whose offset would overflow int are clamped to the last
// representable one.
func ParsePaging(pageRaw, limitRaw string) Paging {
	limit, err := strconv.Atoi(strings.TrimSpace(limitRaw))
	if err != nil || limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page, err := strconv.Atoi(strings.TrimSpace(pageRaw))
	if err != nil || page <= 0 {
		page = 1
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Paging{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

type DoctorSearch struct {
	Text         string
	Specialty    string
	City         string
	Insurance    string
	FeaturedOnly bool
	Paging       Paging
}

func (q DoctorSearch) filter() store.DoctorFilter {
	return store.DoctorFilter{
		Text:      strings.TrimSpace(q.Text),
		Specialty: strings.TrimSpace(q.Specialty),
		City:      strings.TrimSpace(q.City),
		Insurance: strings.TrimSpace(q.Insurance),
	}
}

// SearchResult renders as {results, data} for a featured-only search and as
// the full page envelope otherwise.
type SearchResult struct {
	FeaturedOnly bool
	Featured     []models.Doctor
	Data         []models.Doctor
	Total        int64
	Page         int
	Limit        int
}

func (r *SearchResult) MarshalJSON() ([]byte, error) {
	if r.FeaturedOnly {
		return json.Marshal(struct {
			Results int             `json:"results"`
			Data    []models.Doctor `json:"data"`
		}{len(r.Featured), r.Featured})
	}
	return json.Marshal(struct {
		Featured []models.Doctor `json:"featured"`
		Results  int             `json:"results"`
		Total    int64           `json:"total"`
		Page     int             `json:"page"`
		Limit    int             `json:"limit"`
		Data     []models.Doctor `json:"data"`
	}{r.Featured, len(r.Data), r.Total, r.Page, r.Limit, r.Data})
}

type PromotionInput struct {
	StartDate time.Time
	EndDate   time.Time
	Priority  int
}

type DoctorService struct {
	store store.Store
	now   Clock
	log   zerolog.Logger
}

func NewDoctorService(st store.Store, logger zerolog.Logger) *DoctorService {
	return &DoctorService{store: st, now: time.Now, log: logger.With().Str("service", "doctors").Logger()}
}

func (s *DoctorService) Search(ctx context.Context, q DoctorSearch) (*SearchResult, error) {
	f := q.filter()

	featured, err := s.store.FeaturedDoctors(ctx, store.FeaturedQuery{
		Filter: f,
		Now:    s.now().UTC(),
		Limit:  FeaturedLimit,
	})
	if err != nil {
		return nil, apperrors.Internal(err, "featured doctors")
	}
	if q.FeaturedOnly {
		return &SearchResult{FeaturedOnly: true, Featured: featured}, nil
	}

	paging := q.Paging
	if paging.Limit == 0 {
		paging = ParsePaging("", "")
	}

	total, err := s.store.CountDoctors(ctx, f)
	if err != nil {
		return nil, apperrors.Internal(err, "count doctors")
	}
	page, err := s.store.ListDoctors(ctx, store.PageQuery{Filter: f, Skip: paging.Skip, Limit: paging.Limit})
	if err != nil {
		return nil, apperrors.Internal(err, "list doctors")
	}

	return &SearchResult{
		Featured: featured,
		Data:     page,
		Total:    total,
		Page:     paging.Page,
		Limit:    paging.Limit,
	}, nil
}

func (s *DoctorService) Get(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := s.store.GetDoctor(ctx, id)
	if err != nil {
		return nil, storeError(err, "get doctor", "Doctor not found")
	}
	return d, nil
}

// OwnerOf returns the id of the user owning the profile.
func (s *DoctorService) OwnerOf(ctx context.Context, id string) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return d.UserID, nil
}

func (s *DoctorService) Create(ctx context.Context, f DoctorFields) (*models.Doctor, error) {
	if strings.TrimSpace(f.UserID) == "" || strings.TrimSpace(f.FullName) == "" {
		return nil, apperrors.Validation("user_id and full_name are required")
	}

	d := f.toDoctor()
	err := s.store.CreateDoctor(ctx, d)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperrors.Conflict("User already has a doctor profile")
	case errors.Is(err, store.ErrReference):
		return nil, apperrors.Validation("Referenced user, specialty or city does not exist")
	case err != nil:
		return nil, apperrors.Internal(err, "create doctor")
	}

	s.log.Info().Str("doctor_id", d.ID).Str("user_id", d.UserID).Msg("doctor created")
	return s.Get(ctx, d.ID)
}

// Update applies the fields present in p. An empty patch returns the
// profile unchanged.
func (s *DoctorService) Update(ctx context.Context, id string, p models.DoctorPatch) (*models.Doctor, error) {
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	d, err := s.store.UpdateDoctor(ctx, id, p)
	if errors.Is(err, store.ErrReference) {
		return nil, apperrors.Validation("Referenced specialty or city does not exist")
	}
	if err != nil {
		return nil, storeError(err, "update doctor", "Doctor not found")
	}
	return d, nil
}

// Promote adds a promotion window to the doctor.
func (s *DoctorService) Promote(ctx context.Context, id string, in PromotionInput) (*models.Promotion, error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, apperrors.Validation("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, apperrors.Validation("end_date must not be before start_date")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	p := &models.Promotion{
		ID:        store.NewID(),
		DoctorID:  id,
		StartDate: in.StartDate.UTC(),
		EndDate:   in.EndDate.UTC(),
		Priority:  in.Priority,
	}
	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return nil, storeError(err, "create promotion", "Doctor not found")
	}

	s.log.Info().Str("doctor_id", id).Time("start", p.StartDate).Time("end", p.EndDate).Msg("promotion created")
	return p, nil
}
