package mongostore

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/mysimo-api/internal/store"
)

// referenceJoin embeds the specialty and city documents into each doctor.
func referenceJoin() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: colSpecialties},
			{Key: "localField", Value: "specialtyId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "specialty"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$specialty"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: colCities},
			{Key: "localField", Value: "cityId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "city"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$city"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// exactFold matches s as a whole value, ignoring case.
func exactFold(s string) bson.D {
	return bson.D{{Key: "$regex", Value: "^" + regexp.QuoteMeta(s) + "$"}, {Key: "$options", Value: "i"}}
}

// doctorMatch is the base filter. It expects the reference join to have run.
func doctorMatch(f store.DoctorFilter) bson.D {
	match := bson.D{}
	if f.Text != "" {
		match = append(match, bson.E{Key: "fullName", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(f.Text)},
			{Key: "$options", Value: "i"},
		}})
	}
	if f.Specialty != "" {
		match = append(match, bson.E{Key: "specialty.name", Value: exactFold(f.Specialty)})
	}
	if f.City != "" {
		match = append(match, bson.E{Key: "city.name", Value: exactFold(f.City)})
	}
	if f.Insurance != "" {
		match = append(match, bson.E{Key: "insurances", Value: f.Insurance})
	}
	return match
}

func filteredDoctors(f store.DoctorFilter) mongo.Pipeline {
	p := referenceJoin()
	return append(p, bson.D{{Key: "$match", Value: doctorMatch(f)}})
}

func featuredPipeline(q store.FeaturedQuery) mongo.Pipeline {
	p := filteredDoctors(q.Filter)
	p = append(p,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: colPromotions},
			{Key: "let", Value: bson.D{{Key: "doctorId", Value: "$_id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: activeWindow(q.Now)}}}},
			}},
			{Key: "as", Value: "activePromotions"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "promotionCount", Value: bson.D{{Key: "$size", Value: "$activePromotions"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "isFeatured", Value: true}},
			bson.D{{Key: "promotionCount", Value: bson.D{{Key: "$gt", Value: 0}}}},
		}}}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "isFeatured", Value: -1},
			{Key: "promotionCount", Value: -1},
			{Key: "createdAt", Value: -1},
		}}},
	)
	if q.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	}
	return append(p, bson.D{{Key: "$project", Value: bson.D{
		{Key: "activePromotions", Value: 0},
		{Key: "promotionCount", Value: 0},
	}}})
}

func activeWindow(now time.Time) bson.D {
	return bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$doctorId", "$$doctorId"}}},
		bson.D{{Key: "$lte", Value: bson.A{"$startDate", now}}},
		bson.D{{Key: "$gte", Value: bson.A{"$endDate", now}}},
	}}}
}

func pagePipeline(q store.PageQuery) mongo.Pipeline {
	p := filteredDoctors(q.Filter)
	p = append(p, bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}})
	if q.Skip > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: int64(q.Skip)}})
	}
	if q.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	}
	return p
}

func countPipeline(f store.DoctorFilter) mongo.Pipeline {
	return append(filteredDoctors(f), bson.D{{Key: "$count", Value: "total"}})
}

func doctorByPipeline(match bson.D) mongo.Pipeline {
	p := mongo.Pipeline{{{Key: "$match", Value: match}}}
	p = append(p, referenceJoin()...)
	return append(p, bson.D{{Key: "$limit", Value: int64(1)}})
}

func appointmentsPipeline(q store.AppointmentQuery) mongo.Pipeline {
	match := bson.D{}
	if q.PatientID != "" {
		match = append(match, bson.E{Key: "patientId", Value: q.PatientID})
	}
	if q.DoctorID != "" {
		match = append(match, bson.E{Key: "doctorId", Value: q.DoctorID})
	}
	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "dateTime", Value: -1}}}},
	}
	if q.IncludeDoctor {
		p = append(p,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: colDoctors},
				{Key: "let", Value: bson.D{{Key: "doctorId", Value: "$doctorId"}}},
				{Key: "pipeline", Value: doctorJoin()},
				{Key: "as", Value: "doctor"},
			}}},
			// A dangling doctorId leaves the field absent.
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$doctor"},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
		)
	}
	if q.IncludePatient {
		p = append(p,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: colUsers},
				{Key: "localField", Value: "patientId"},
				{Key: "foreignField", Value: "_id"},
				{Key: "as", Value: "patient"},
			}}},
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$patient"},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
			bson.D{{Key: "$project", Value: bson.D{{Key: "patient.passwordHash", Value: 0}}}},
		)
	}
	return p
}

// doctorJoin resolves $$doctorId to its doctor with specialty and city
// embedded.
func doctorJoin() bson.A {
	p := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
			{Key: "$eq", Value: bson.A{"$_id", "$$doctorId"}},
		}}}}},
	}
	for _, s := range referenceJoin() {
		p = append(p, s)
	}
	return p
}
