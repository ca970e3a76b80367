package db

import (
	"context"
	"time"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
)

// CredentialStore persists accounts for both account kinds
type CredentialStore interface {
	GetAccount(ctx context.Context, kind model.AccountKind, username string) (*Account, error)
	AccountExists(ctx context.Context, kind model.AccountKind, username string) (bool, error)
	InsertAccount(ctx context.Context, kind model.AccountKind, account *Account) error
}

// InventoryLedger tracks vaccine dose counts
type InventoryLedger interface {
	GetVaccine(ctx context.Context, name string) (*Vaccine, error)
	ListVaccines(ctx context.Context) ([]Vaccine, error)
	// UpsertDoses creates the vaccine with delta doses or adds delta to it.
	// It returns ErrDoseLimit if the result would exceed MaxDoses.
	UpsertDoses(ctx context.Context, name string, delta int) (int, error)
	// ReserveDose decrements by one only if at least one dose remains
	ReserveDose(ctx context.Context, name string) error
	// ReleaseDose increments by one only while below MaxDoses
	ReleaseDose(ctx context.Context, name string) error
}

// AvailabilityLedger tracks caregiver unavailability by date
type AvailabilityLedger interface {
	// MarkUnavailable inserts row, returning ErrAlreadyUnavailable if it exists
	MarkUnavailable(ctx context.Context, row *Availability) error
	ClearUnavailable(ctx context.Context, caregiver string, date time.Time) error
	// ListAvailableCaregivers returns caregivers without a row for date, ascending
	ListAvailableCaregivers(ctx context.Context, date time.Time) ([]string, error)
}

// AppointmentLedger is the system of record for bookings
type AppointmentLedger interface {
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	InsertAppointment(ctx context.Context, appt *Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointmentsForPatient(ctx context.Context, patient string) ([]Appointment, error)
	ListAppointmentsForCaregiver(ctx context.Context, caregiver string) ([]Appointment, error)
}

// Tx groups every ledger operation inside one store transaction
type Tx interface {
	CredentialStore
	InventoryLedger
	AvailabilityLedger
	AppointmentLedger
}

// Database defines the interface for all database operations.
// Both the postgres.DB and sqlite.DB implement this interface.
type Database interface {
	// RunInTx runs fn in a transaction, committing when fn returns nil
	// and rolling back otherwise
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}
