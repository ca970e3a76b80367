package model

type AccountKind string

const (
	KindPatient   AccountKind = "patient"
	KindCaregiver AccountKind = "caregiver"
)

func (k AccountKind) IsValid() bool {
	return k == KindPatient || k == KindCaregiver
}

// Principal is the authenticated identity of a session
type Principal struct {
	Kind     AccountKind
	Username string
}

func (p *Principal) IsPatient() bool {
	return p != nil && p.Kind == KindPatient
}

func (p *Principal) IsCaregiver() bool {
	return p != nil && p.Kind == KindCaregiver
}

// Confirmation is returned for a confirmed reservation
type Confirmation struct {
	AppointmentID     string
	CaregiverUsername string
	Date              string // mm-dd-yyyy
	VaccineName       string
}

// AppointmentView is one row of show_appointments.
// Counterpart is the caregiver for patients and the patient for caregivers.
type AppointmentView struct {
	AppointmentID string
	VaccineName   string
	Date          string // mm-dd-yyyy
	Counterpart   string
}

// VaccineStock is a vaccine and its remaining doses
type VaccineStock struct {
	Name  string
	Doses int
}

// Schedule is the result of search_caregiver_schedule
type Schedule struct {
	Date       string
	Caregivers []string
	Vaccines   []VaccineStock
}
