package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// GetVaccine retrieves a vaccine by name
func (t *sqlTx) GetVaccine(ctx context.Context, name string) (*db.Vaccine, error) {
	var v db.Vaccine
	err := t.tx.QueryRowContext(ctx,
		`SELECT name, doses FROM vaccines WHERE name = ?`, name,
	).Scan(&v.Name, &v.Doses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrUnknownVaccine
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vaccine: %w", err)
	}
	return &v, nil
}

// ListVaccines retrieves all vaccines ordered by name
func (t *sqlTx) ListVaccines(ctx context.Context) ([]db.Vaccine, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name, doses FROM vaccines ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vaccines: %w", err)
	}
	defer rows.Close()

	var vaccines []db.Vaccine
	for rows.Next() {
		var v db.Vaccine
		if err := rows.Scan(&v.Name, &v.Doses); err != nil {
			return nil, fmt.Errorf("failed to scan vaccine: %w", err)
		}
		vaccines = append(vaccines, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vaccines: %w", err)
	}
	return vaccines, nil
}

// UpsertDoses creates the vaccine or adds delta doses to it, returning the new count
func (t *sqlTx) UpsertDoses(ctx context.Context, name string, delta int) (int, error) {
	if delta <= 0 {
		return 0, db.ErrInvalidDelta
	}
	if delta > db.MaxDoses {
		return 0, db.ErrDoseLimit
	}

	var doses int
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO vaccines (name, doses) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET doses = doses + excluded.doses
		WHERE doses <= ?
		RETURNING doses
	`, name, delta, db.MaxDoses-delta).Scan(&doses)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, db.ErrDoseLimit
	}
	if err != nil {
		return 0, fmt.Errorf("failed to upsert vaccine doses: %w", err)
	}
	return doses, nil
}

// ReserveDose takes one dose if any remain
func (t *sqlTx) ReserveDose(ctx context.Context, name string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE vaccines SET doses = doses - 1 WHERE name = ? AND doses > 0`, name,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve dose: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve dose: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := t.GetVaccine(ctx, name); err != nil {
		return err
	}
	return db.ErrOutOfStock
}

// ReleaseDose returns one dose to the vaccine unless it is already at MaxDoses
func (t *sqlTx) ReleaseDose(ctx context.Context, name string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE vaccines SET doses = doses + 1 WHERE name = ? AND doses < ?`, name, db.MaxDoses,
	)
	if err != nil {
		return fmt.Errorf("failed to release dose: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to release dose: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := t.GetVaccine(ctx, name); err != nil {
		return err
	}
	return db.ErrDoseLimit
}
