// Package memstore is an in-process Store used for local development and
// tests. Data does not survive a restart.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[string]*models.User
	doctors      map[string]*models.Doctor
	promotions   []*models.Promotion
	specialties  map[string]*models.Specialty
	cities       map[string]*models.City
	appointments []*models.Appointment
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[string]*models.User),
		doctors:     make(map[string]*models.Doctor),
		specialties: make(map[string]*models.Specialty),
		cities:      make(map[string]*models.City),
	}
}

func (s *Store) Ping(context.Context) error    { return nil }
func (s *Store) Close(context.Context) error   { return nil }
func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(u)
}

func (s *Store) CreateUserWithDoctor(_ context.Context, u *models.User, d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkDoctor(d); err != nil {
		return err
	}
	if err := s.insertUser(u); err != nil {
		return err
	}
	s.insertDoctor(d)
	return nil
}

func (s *Store) insertUser(u *models.User) error {
	if _, ok := s.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FeaturedDoctors(_ context.Context, q store.FeaturedQuery) ([]models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		doc    *models.Doctor
		active int
	}
	var candidates []ranked
	for _, d := range s.doctors {
		if !s.matches(d, q.Filter) {
			continue
		}
		active := 0
		for _, p := range s.promotions {
			if p.DoctorID == d.ID && p.ActiveAt(q.Now) {
				active++
			}
		}
		if d.IsFeatured || active > 0 {
			candidates = append(candidates, ranked{doc: d, active: active})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.doc.IsFeatured != b.doc.IsFeatured {
			return a.doc.IsFeatured
		}
		if a.active != b.active {
			return a.active > b.active
		}
		return a.doc.CreatedAt.After(b.doc.CreatedAt)
	})
	if q.Limit > 0 && len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	out := make([]models.Doctor, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, s.joined(c.doc))
	}
	return out, nil
}

func (s *Store) CountDoctors(_ context.Context, f store.DoctorFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, d := range s.doctors {
		if s.matches(d, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListDoctors(_ context.Context, q store.PageQuery) ([]models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Doctor
	for _, d := range s.doctors {
		if s.matches(d, q.Filter) {
			matched = append(matched, d)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	out := make([]models.Doctor, 0)
	skip := max(q.Skip, 0)
	if skip >= len(matched) {
		return out, nil
	}
	matched = matched[skip:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	for _, d := range matched {
		out = append(out, s.joined(d))
	}
	return out, nil
}

// matches must be called with s.mu held.
func (s *Store) matches(d *models.Doctor, f store.DoctorFilter) bool {
	if f.Text != "" && !strings.Contains(strings.ToLower(d.FullName), strings.ToLower(f.Text)) {
		return false
	}
	if f.Specialty != "" {
		if d.SpecialtyID == nil {
			return false
		}
		sp, ok := s.specialties[*d.SpecialtyID]
		if !ok || !strings.EqualFold(sp.Name, f.Specialty) {
			return false
		}
	}
	if f.City != "" {
		if d.CityID == nil {
			return false
		}
		c, ok := s.cities[*d.CityID]
		if !ok || !strings.EqualFold(c.Name, f.City) {
			return false
		}
	}
	if f.Insurance != "" && !d.HasInsurance(f.Insurance) {
		return false
	}
	return true
}

// joined must be called with s.mu held.
func (s *Store) joined(d *models.Doctor) models.Doctor {
	cp := *d
	cp.Insurances = append([]string{}, d.Insurances...)
	cp.Specialty, cp.City = nil, nil
	if d.SpecialtyID != nil {
		if sp, ok := s.specialties[*d.SpecialtyID]; ok {
			spc := *sp
			cp.Specialty = &spc
		}
	}
	if d.CityID != nil {
		if c, ok := s.cities[*d.CityID]; ok {
			cc := *c
			cp.City = &cc
		}
	}
	return cp
}

func (s *Store) GetDoctor(_ context.Context, id string) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := s.joined(d)
	return &out, nil
}

func (s *Store) FindDoctorByUserID(_ context.Context, userID string) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		if d.UserID == userID {
			out := s.joined(d)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateDoctor(_ context.Context, d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkDoctor(d); err != nil {
		return err
	}
	s.insertDoctor(d)
	return nil
}

// checkDoctor enforces the unique id and owner constraints.
func (s *Store) checkDoctor(d *models.Doctor) error {
	if _, ok := s.doctors[d.ID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range s.doctors {
		if existing.UserID == d.UserID {
			return store.ErrDuplicate
		}
	}
	return nil
}

func (s *Store) insertDoctor(d *models.Doctor) {
	now := s.now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	cp := *d
	cp.Specialty, cp.City = nil, nil
	cp.Insurances = append([]string{}, d.Insurances...)
	s.doctors[d.ID] = &cp
}

func (s *Store) UpdateDoctor(_ context.Context, id string, p models.DoctorPatch) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Apply(d)
	d.UpdatedAt = s.now().UTC()
	out := s.joined(d)
	return &out, nil
}

func (s *Store) CreatePromotion(_ context.Context, p *models.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	cp := *p
	s.promotions = append(s.promotions, &cp)
	return nil
}

func (s *Store) CreateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	cp := *a
	cp.Doctor, cp.Patient = nil, nil
	s.appointments = append(s.appointments, &cp)
	return nil
}

func (s *Store) ListAppointments(_ context.Context, q store.AppointmentQuery) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Appointment, 0)
	for _, a := range s.appointments {
		if q.PatientID != "" && a.PatientID != q.PatientID {
			continue
		}
		if q.DoctorID != "" && a.DoctorID != q.DoctorID {
			continue
		}
		cp := *a
		if q.IncludeDoctor {
			if d, ok := s.doctors[a.DoctorID]; ok {
				jd := s.joined(d)
				cp.Doctor = &jd
			}
		}
		if q.IncludePatient {
			if u, ok := s.users[a.PatientID]; ok {
				sum := u.Summary()
				cp.Patient = &sum
			}
		}
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out, nil
}

func (s *Store) ListSpecialties(context.Context) ([]models.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Specialty, 0, len(s.specialties))
	for _, sp := range s.specialties {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListCities(context.Context) ([]models.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.City, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpsertSpecialty(_ context.Context, sp *models.Specialty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.specialties {
		if existing.Name == sp.Name {
			sp.ID = existing.ID
			return nil
		}
	}
	if sp.ID == "" {
		sp.ID = store.NewID()
	}
	cp := *sp
	s.specialties[sp.ID] = &cp
	return nil
}

func (s *Store) UpsertCity(_ context.Context, c *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cities {
		if existing.Name == c.Name {
			c.ID = existing.ID
			return nil
		}
	}
	if c.ID == "" {
		c.ID = store.NewID()
	}
	cp := *c
	s.cities[c.ID] = &cp
	return nil
}
