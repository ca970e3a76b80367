package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// MarkUnavailable inserts the caregiver/date row. A concurrent insert of the
// same pair blocks on the primary key until the other transaction ends.
func (t *pgTx) MarkUnavailable(ctx context.Context, row *db.Availability) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO availabilities (caregiver_name, date) VALUES ($1, $2)
		ON CONFLICT (caregiver_name, date) DO NOTHING
	`, row.CaregiverName, row.Date)
	if err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrAlreadyUnavailable
	}
	return nil
}

// ClearUnavailable deletes the caregiver/date row
func (t *pgTx) ClearUnavailable(ctx context.Context, caregiver string, date time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM availabilities WHERE caregiver_name = $1 AND date = $2`, caregiver, date,
	)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ListAvailableCaregivers returns caregivers with no row for date in byte order
func (t *pgTx) ListAvailableCaregivers(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT c.username
		FROM caregivers c
		WHERE NOT EXISTS (
			SELECT 1 FROM availabilities a
			WHERE a.caregiver_name = c.username AND a.date = $1
		)
		ORDER BY c.username COLLATE "C" ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query available caregivers: %w", err)
	}

	caregivers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan caregiver: %w", err)
	}
	return caregivers, nil
}
