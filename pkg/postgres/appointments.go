package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

const appointmentColumns = `appointment_id, date, patient_name, caregiver_name, vaccine_name`

// GetAppointment retrieves an appointment by ID
func (t *pgTx) GetAppointment(ctx context.Context, id string) (*db.Appointment, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}

	appt, err := pgx.CollectExactlyOneRow(rows, scanAppointment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}
	return &appt, nil
}

// InsertAppointment inserts an appointment, returning db.ErrDuplicate when
// the ID is taken. ON CONFLICT keeps the surrounding transaction usable so
// the caller can retry with a fresh ID.
func (t *pgTx) InsertAppointment(ctx context.Context, appt *db.Appointment) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (appointment_id) DO NOTHING
	`, appt.ID, appt.Date, appt.PatientName, appt.CaregiverName, appt.VaccineName)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrDuplicate
	}
	return nil
}

// DeleteAppointment deletes an appointment by ID
func (t *pgTx) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM appointments WHERE appointment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ListAppointmentsForPatient retrieves a patient's appointments ordered by ID
func (t *pgTx) ListAppointmentsForPatient(ctx context.Context, patient string) ([]db.Appointment, error) {
	return t.listAppointments(ctx, "patient_name", patient)
}

// ListAppointmentsForCaregiver retrieves a caregiver's appointments ordered by ID
func (t *pgTx) ListAppointmentsForCaregiver(ctx context.Context, caregiver string) ([]db.Appointment, error) {
	return t.listAppointments(ctx, "caregiver_name", caregiver)
}

func (t *pgTx) listAppointments(ctx context.Context, column, username string) ([]db.Appointment, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE `+column+` = $1 ORDER BY appointment_id ASC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}

	appts, err := pgx.CollectRows(rows, scanAppointment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}
	return appts, nil
}

func scanAppointment(row pgx.CollectableRow) (db.Appointment, error) {
	var a db.Appointment
	err := row.Scan(&a.ID, &a.Date, &a.PatientName, &a.CaregiverName, &a.VaccineName)
	return a, err
}
