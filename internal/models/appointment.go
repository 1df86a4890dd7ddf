package models

import "time"

const AppointmentPending = "pending"

type Appointment struct {
	ID        string    `bson:"_id" json:"id"`
	PatientID string    `bson:"patientId" json:"patientId"`
	DoctorID  string    `bson:"doctorId" json:"doctorId"`
	DateTime  time.Time `bson:"dateTime" json:"dateTime"`
	Notes     string    `bson:"notes" json:"notes"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	// Joined on read, never stored.
	Doctor  *Doctor      `bson:"doctor,omitempty" json:"doctor,omitempty"`
	Patient *UserSummary `bson:"patient,omitempty" json:"patient,omitempty"`
}
