// Package pgstore implements store.Store on PostgreSQL through GORM.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// activePromotion is true for promotions of the outer doctor row whose
// window contains the bound instant. Both placeholders take the same time.
const activePromotion = "promotions.doctor_id = doctors.id AND promotions.start_date <= ? AND promotions.end_date >= ?"

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn. Slow and failing statements are logged through log.
func Open(dsn string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{log: log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db), nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Str("component", "gorm").Msgf(format, args...)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&userRow{},
		&specialtyRow{},
		&cityRow{},
		&doctorRow{},
		&promotionRow{},
		&appointmentRow{},
	)
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation:
		return fmt.Errorf("%w: %v", store.ErrReference, err)
	default:
		return err
	}
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	row := userFromModel(u)
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) CreateUserWithDoctor(ctx context.Context, u *models.User, d *models.Doctor) error {
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	stampDoctor(d, now)
	user, doctor := userFromModel(u), doctorFromModel(d)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&doctor).Error
	})
	return translate(err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	u := row.toModel()
	return &u, nil
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func applyDoctorFilter(tx *gorm.DB, f store.DoctorFilter) *gorm.DB {
	if f.Text != "" {
		tx = tx.Where("doctors.full_name ILIKE ?", "%"+escapeLike(f.Text)+"%")
	}
	if f.Specialty != "" {
		tx = tx.Where("doctors.specialty_id IN (SELECT id FROM specialties WHERE LOWER(specialties.name) = LOWER(?))", f.Specialty)
	}
	if f.City != "" {
		tx = tx.Where("doctors.city_id IN (SELECT id FROM cities WHERE LOWER(cities.name) = LOWER(?))", f.City)
	}
	if f.Insurance != "" {
		tx = tx.Where("? = ANY(doctors.insurances)", f.Insurance)
	}
	return tx
}

func (s *Store) doctors(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&doctorRow{})
}

func (s *Store) FeaturedDoctors(ctx context.Context, q store.FeaturedQuery) ([]models.Doctor, error) {
	tx := s.doctors(ctx).
		Select("doctors.*, (SELECT COUNT(*) FROM promotions WHERE "+activePromotion+") AS promotion_count", q.Now, q.Now).
		Where("(doctors.is_featured OR EXISTS (SELECT 1 FROM promotions WHERE "+activePromotion+"))", q.Now, q.Now)
	tx = applyDoctorFilter(tx, q.Filter).
		Order("doctors.is_featured DESC").
		Order("promotion_count DESC").
		Order("doctors.created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []doctorRow
	if err := tx.Preload("Specialty").Preload("City").Find(&rows).Error; err != nil {
		return nil, err
	}
	return doctorsToModels(rows), nil
}

func (s *Store) CountDoctors(ctx context.Context, f store.DoctorFilter) (int64, error) {
	var n int64
	err := applyDoctorFilter(s.doctors(ctx), f).Count(&n).Error
	return n, err
}

func (s *Store) ListDoctors(ctx context.Context, q store.PageQuery) ([]models.Doctor, error) {
	tx := applyDoctorFilter(s.doctors(ctx), q.Filter).
		Order("doctors.created_at DESC").
		Order("doctors.id DESC")
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []doctorRow
	if err := tx.Preload("Specialty").Preload("City").Find(&rows).Error; err != nil {
		return nil, err
	}
	return doctorsToModels(rows), nil
}

func (s *Store) findDoctor(ctx context.Context, query string, arg string) (*models.Doctor, error) {
	var row doctorRow
	err := s.db.WithContext(ctx).
		Preload("Specialty").
		Preload("City").
		Where(query, arg).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	d := row.toModel()
	return &d, nil
}

func (s *Store) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	return s.findDoctor(ctx, "doctors.id = ?", id)
}

func (s *Store) FindDoctorByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	return s.findDoctor(ctx, "doctors.user_id = ?", userID)
}

func (s *Store) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	stampDoctor(d, s.now().UTC())
	row := doctorFromModel(d)
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) UpdateDoctor(ctx context.Context, id string, p models.DoctorPatch) (*models.Doctor, error) {
	cols := patchColumns(p)
	cols["updated_at"] = s.now().UTC()

	res := s.db.WithContext(ctx).Model(&doctorRow{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetDoctor(ctx, id)
}

func (s *Store) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	row := promotionRow{
		ID:        p.ID,
		DoctorID:  p.DoctorID,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Priority:  p.Priority,
		CreatedAt: p.CreatedAt,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	row := appointmentRow{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		DateTime:  a.DateTime,
		Notes:     a.Notes,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) ListAppointments(ctx context.Context, q store.AppointmentQuery) ([]models.Appointment, error) {
	tx := s.db.WithContext(ctx).Model(&appointmentRow{})
	if q.PatientID != "" {
		tx = tx.Where("patient_id = ?", q.PatientID)
	}
	if q.DoctorID != "" {
		tx = tx.Where("doctor_id = ?", q.DoctorID)
	}
	if q.IncludeDoctor {
		tx = tx.Preload("Doctor.Specialty").Preload("Doctor.City")
	}
	if q.IncludePatient {
		tx = tx.Preload("Patient")
	}

	var rows []appointmentRow
	if err := tx.Order("date_time DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	var rows []specialtyRow
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Specialty, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) ListCities(ctx context.Context) ([]models.City, error) {
	var rows []cityRow
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.City, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) UpsertSpecialty(ctx context.Context, sp *models.Specialty) error {
	if sp.ID == "" {
		sp.ID = store.NewID()
	}
	var row specialtyRow
	err := s.db.WithContext(ctx).
		Where(specialtyRow{Name: sp.Name}).
		Attrs(specialtyRow{ID: sp.ID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return translate(err)
	}
	sp.ID = row.ID
	return nil
}

func (s *Store) UpsertCity(ctx context.Context, c *models.City) error {
	if c.ID == "" {
		c.ID = store.NewID()
	}
	var row cityRow
	err := s.db.WithContext(ctx).
		Where(cityRow{Name: c.Name}).
		Attrs(cityRow{ID: c.ID, CountryCode: c.CountryCode}).
		FirstOrCreate(&row).Error
	if err != nil {
		return translate(err)
	}
	c.ID = row.ID
	c.CountryCode = row.CountryCode
	return nil
}

func stampDoctor(d *models.Doctor, now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	if d.Insurances == nil {
		d.Insurances = []string{}
	}
}

// patchColumns maps the set fields of p to column names.
func patchColumns(p models.DoctorPatch) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.SpecialtyID != nil {
		cols["specialty_id"] = *p.SpecialtyID
	}
	if p.CityID != nil {
		cols["city_id"] = *p.CityID
	}
	if p.About != nil {
		cols["about"] = *p.About
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Insurances != nil {
		cols["insurances"] = pq.StringArray(*p.Insurances)
	}
	if p.IsFeatured != nil {
		cols["is_featured"] = *p.IsFeatured
	}
	if p.PhotoURL != nil {
		cols["photo_url"] = *p.PhotoURL
	}
	if p.SocialFacebook != nil {
		cols["social_facebook"] = *p.SocialFacebook
	}
	if p.SocialInstagram != nil {
		cols["social_instagram"] = *p.SocialInstagram
	}
	if p.WhatsApp != nil {
		cols["whatsapp"] = *p.WhatsApp
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}
