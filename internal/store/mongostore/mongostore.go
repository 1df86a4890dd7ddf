// Package mongostore implements store.Store on MongoDB. Registration with a
// doctor profile runs in a multi-document transaction, so the server must be
// a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

const (
	colUsers        = "users"
	colDoctors      = "doctors"
	colPromotions   = "promotions"
	colSpecialties  = "specialties"
	colCities       = "cities"
	colAppointments = "appointments"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to uri and checks the connection before returning.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	s := New(client, database)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		colUsers:        {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		colDoctors:      {{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}, {Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		colSpecialties:  {{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique}},
		colCities:       {{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique}},
		colPromotions:   {{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "endDate", Value: 1}}}},
		colAppointments: {{Keys: bson.D{{Key: "patientId", Value: 1}}}, {Keys: bson.D{{Key: "doctorId", Value: 1}}}},
	}
	for col, idx := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Collection(colUsers).InsertOne(ctx, u)
	return translate(err)
}

func (s *Store) CreateUserWithDoctor(ctx context.Context, u *models.User, d *models.Doctor) error {
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	stampDoctor(d, now)

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.db.Collection(colUsers).InsertOne(sc, u); err != nil {
			return nil, err
		}
		if _, err := s.db.Collection(colDoctors).InsertOne(sc, storedDoctor(d)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return translate(err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) aggregateDoctors(ctx context.Context, p mongo.Pipeline) ([]models.Doctor, error) {
	cursor, err := s.db.Collection(colDoctors).Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	doctors := make([]models.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (s *Store) FeaturedDoctors(ctx context.Context, q store.FeaturedQuery) ([]models.Doctor, error) {
	return s.aggregateDoctors(ctx, featuredPipeline(q))
}

func (s *Store) ListDoctors(ctx context.Context, q store.PageQuery) ([]models.Doctor, error) {
	return s.aggregateDoctors(ctx, pagePipeline(q))
}

func (s *Store) CountDoctors(ctx context.Context, f store.DoctorFilter) (int64, error) {
	cursor, err := s.db.Collection(colDoctors).Aggregate(ctx, countPipeline(f))
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var res []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &res); err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Total, nil
}

func (s *Store) findDoctor(ctx context.Context, match bson.D) (*models.Doctor, error) {
	docs, err := s.aggregateDoctors(ctx, doctorByPipeline(match))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return &docs[0], nil
}

func (s *Store) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	return s.findDoctor(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindDoctorByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	return s.findDoctor(ctx, bson.D{{Key: "userId", Value: userID}})
}

func (s *Store) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	stampDoctor(d, s.now().UTC())
	_, err := s.db.Collection(colDoctors).InsertOne(ctx, storedDoctor(d))
	return translate(err)
}

func (s *Store) UpdateDoctor(ctx context.Context, id string, p models.DoctorPatch) (*models.Doctor, error) {
	set := patchSet(p)
	set = append(set, bson.E{Key: "updatedAt", Value: s.now().UTC()})

	res, err := s.db.Collection(colDoctors).UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return nil, translate(err)
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetDoctor(ctx, id)
}

func (s *Store) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Collection(colPromotions).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	stored := *a
	stored.Doctor, stored.Patient = nil, nil
	_, err := s.db.Collection(colAppointments).InsertOne(ctx, stored)
	return translate(err)
}

func (s *Store) ListAppointments(ctx context.Context, q store.AppointmentQuery) ([]models.Appointment, error) {
	cursor, err := s.db.Collection(colAppointments).Aggregate(ctx, appointmentsPipeline(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	appointments := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (s *Store) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	out := make([]models.Specialty, 0)
	err := s.findSorted(ctx, colSpecialties, &out)
	return out, err
}

func (s *Store) ListCities(ctx context.Context) ([]models.City, error) {
	out := make([]models.City, 0)
	err := s.findSorted(ctx, colCities, &out)
	return out, err
}

func (s *Store) findSorted(ctx context.Context, col string, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(col).Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (s *Store) UpsertSpecialty(ctx context.Context, sp *models.Specialty) error {
	if sp.ID == "" {
		sp.ID = store.NewID()
	}
	return s.upsertByName(ctx, colSpecialties, sp.Name, bson.D{
		{Key: "_id", Value: sp.ID},
	}, sp)
}

func (s *Store) UpsertCity(ctx context.Context, c *models.City) error {
	if c.ID == "" {
		c.ID = store.NewID()
	}
	return s.upsertByName(ctx, colCities, c.Name, bson.D{
		{Key: "_id", Value: c.ID},
		{Key: "countryCode", Value: c.CountryCode},
	}, c)
}

// upsertByName inserts doc when no row named name exists, then decodes the
// stored row into out.
func (s *Store) upsertByName(ctx context.Context, col, name string, doc bson.D, out interface{}) error {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.db.Collection(col).FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.D{{Key: "$setOnInsert", Value: doc}},
		opts,
	).Decode(out)
	return translate(err)
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

// storedDoctor strips the joined fields.
func storedDoctor(d *models.Doctor) models.Doctor {
	cp := *d
	cp.Specialty, cp.City = nil, nil
	return cp
}

func patchSet(p models.DoctorPatch) bson.D {
	set := bson.D{}
	add := func(key string, v interface{}) { set = append(set, bson.E{Key: key, Value: v}) }
	if p.FullName != nil {
		add("fullName", *p.FullName)
	}
	if p.SpecialtyID != nil {
		add("specialtyId", *p.SpecialtyID)
	}
	if p.CityID != nil {
		add("cityId", *p.CityID)
	}
	if p.About != nil {
		add("about", *p.About)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Insurances != nil {
		add("insurances", *p.Insurances)
	}
	if p.IsFeatured != nil {
		add("isFeatured", *p.IsFeatured)
	}
	if p.PhotoURL != nil {
		add("photoUrl", *p.PhotoURL)
	}
	if p.SocialFacebook != nil {
		add("socialFacebook", *p.SocialFacebook)
	}
	if p.SocialInstagram != nil {
		add("socialInstagram", *p.SocialInstagram)
	}
	if p.WhatsApp != nil {
		add("whatsapp", *p.WhatsApp)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	return set
}
