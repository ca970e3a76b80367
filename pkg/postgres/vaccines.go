package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// GetVaccine retrieves a vaccine by name
func (t *pgTx) GetVaccine(ctx context.Context, name string) (*db.Vaccine, error) {
	var v db.Vaccine
	err := t.tx.QueryRow(ctx,
		`SELECT name, doses FROM vaccines WHERE name = $1`, name,
	).Scan(&v.Name, &v.Doses)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrUnknownVaccine
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vaccine: %w", err)
	}
	return &v, nil
}

// ListVaccines retrieves all vaccines ordered by name
func (t *pgTx) ListVaccines(ctx context.Context) ([]db.Vaccine, error) {
	rows, err := t.tx.Query(ctx, `SELECT name, doses FROM vaccines ORDER BY name COLLATE "C" ASC`)
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
func (t *pgTx) UpsertDoses(ctx context.Context, name string, delta int) (int, error) {
	if delta <= 0 {
		return 0, db.ErrInvalidDelta
	}
	if delta > db.MaxDoses {
		return 0, db.ErrDoseLimit
	}

	var doses int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO vaccines (name, doses) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET doses = vaccines.doses + EXCLUDED.doses
		WHERE vaccines.doses <= $3
		RETURNING doses
	`, name, delta, db.MaxDoses-delta).Scan(&doses)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, db.ErrDoseLimit
	}
	if err != nil {
		return 0, fmt.Errorf("failed to upsert vaccine doses: %w", err)
	}
	return doses, nil
}

// ReserveDose takes one dose. The WHERE clause is re-evaluated after any
// row lock wait, so two transactions can never both take the last dose.
func (t *pgTx) ReserveDose(ctx context.Context, name string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE vaccines SET doses = doses - 1 WHERE name = $1 AND doses > 0`, name,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve dose: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := t.GetVaccine(ctx, name); err != nil {
		return err
	}
	return db.ErrOutOfStock
}

// ReleaseDose returns one dose to the vaccine unless it is already at MaxDoses
func (t *pgTx) ReleaseDose(ctx context.Context, name string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE vaccines SET doses = doses + 1 WHERE name = $1 AND doses < $2`, name, db.MaxDoses,
	)
	if err != nil {
		return fmt.Errorf("failed to release dose: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := t.GetVaccine(ctx, name); err != nil {
		return err
	}
	return db.ErrDoseLimit
}
