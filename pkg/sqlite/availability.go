package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// MarkUnavailable inserts the caregiver/date row
func (t *sqlTx) MarkUnavailable(ctx context.Context, row *db.Availability) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO availabilities (caregiver_name, date) VALUES (?, ?)
		ON CONFLICT (caregiver_name, date) DO NOTHING
	`, row.CaregiverName, formatDate(row.Date))
	if err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	if n == 0 {
		return db.ErrAlreadyUnavailable
	}
	return nil
}

// ClearUnavailable deletes the caregiver/date row
func (t *sqlTx) ClearUnavailable(ctx context.Context, caregiver string, date time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM availabilities WHERE caregiver_name = ? AND date = ?`, caregiver, formatDate(date),
	)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ListAvailableCaregivers returns caregivers with no row for date in byte order
func (t *sqlTx) ListAvailableCaregivers(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT c.username
		FROM caregivers c
		WHERE NOT EXISTS (
			SELECT 1 FROM availabilities a
			WHERE a.caregiver_name = c.username AND a.date = ?
		)
		ORDER BY c.username ASC
	`, formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query available caregivers: %w", err)
	}
	defer rows.Close()

	var caregivers []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan caregiver: %w", err)
		}
		caregivers = append(caregivers, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caregivers: %w", err)
	}
	return caregivers, nil
}
