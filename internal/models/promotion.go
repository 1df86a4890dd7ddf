package models

import "time"

// Promotion surfaces a doctor in the featured set while now lies in
// [StartDate, EndDate].
type Promotion struct {
	ID        string    `bson:"_id" json:"id"`
	DoctorID  string    `bson:"doctorId" json:"doctorId"`
	StartDate time.Time `bson:"startDate" json:"startDate"`
	EndDate   time.Time `bson:"endDate" json:"endDate"`
	Priority  int       `bson:"priority" json:"priority"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ActiveAt reports whether the window contains t, both ends inclusive.
func (p *Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}
