package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

const appointmentColumns = `appointment_id, date, patient_name, caregiver_name, vaccine_name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (db.Appointment, error) {
	var a db.Appointment
	var date string
	if err := row.Scan(&a.ID, &date, &a.PatientName, &a.CaregiverName, &a.VaccineName); err != nil {
		return a, err
	}
	d, err := parseDate(date)
	if err != nil {
		return a, err
	}
	a.Date = d
	return a, nil
}

// GetAppointment retrieves an appointment by ID
func (t *sqlTx) GetAppointment(ctx context.Context, id string) (*db.Appointment, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = ?`, id,
	)
	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	return &appt, nil
}

// InsertAppointment inserts an appointment, returning db.ErrDuplicate when the ID is taken
func (t *sqlTx) InsertAppointment(ctx context.Context, appt *db.Appointment) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (appointment_id) DO NOTHING
	`, appt.ID, formatDate(appt.Date), appt.PatientName, appt.CaregiverName, appt.VaccineName)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	if n == 0 {
		return db.ErrDuplicate
	}
	return nil
}

// DeleteAppointment deletes an appointment by ID
func (t *sqlTx) DeleteAppointment(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM appointments WHERE appointment_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ListAppointmentsForPatient retrieves a patient's appointments ordered by ID
func (t *sqlTx) ListAppointmentsForPatient(ctx context.Context, patient string) ([]db.Appointment, error) {
	return t.listAppointments(ctx, "patient_name", patient)
}

// ListAppointmentsForCaregiver retrieves a caregiver's appointments ordered by ID
func (t *sqlTx) ListAppointmentsForCaregiver(ctx context.Context, caregiver string) ([]db.Appointment, error) {
	return t.listAppointments(ctx, "caregiver_name", caregiver)
}

func (t *sqlTx) listAppointments(ctx context.Context, column, username string) ([]db.Appointment, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE `+column+` = ? ORDER BY appointment_id ASC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []db.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return appts, nil
}
