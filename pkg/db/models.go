package db

import (
	"math"
	"time"
)

// Account represents a Patients or Caregivers row
type Account struct {
	Username string
	Salt     []byte
	Hash     []byte
}

// MaxDoses is the most doses a single vaccine row may hold
const MaxDoses = math.MaxInt32

// Vaccine represents a Vaccines row
type Vaccine struct {
	Name  string
	Doses int
}

// Availability represents an Availabilities row.
// A row means the caregiver is NOT available on Date.
type Availability struct {
	CaregiverName string
	Date          time.Time
}

// Appointment represents an Appointments row
type Appointment struct {
	ID            string
	Date          time.Time
	PatientName   string
	CaregiverName string
	VaccineName   string
}
