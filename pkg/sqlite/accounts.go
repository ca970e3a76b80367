package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

func accountTable(kind model.AccountKind) (string, error) {
	switch kind {
	case model.KindPatient:
		return "patients", nil
	case model.KindCaregiver:
		return "caregivers", nil
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
}

// GetAccount retrieves an account by username
func (t *sqlTx) GetAccount(ctx context.Context, kind model.AccountKind, username string) (*db.Account, error) {
	table, err := accountTable(kind)
	if err != nil {
		return nil, err
	}

	var a db.Account
	err = t.tx.QueryRowContext(ctx,
		`SELECT username, salt, hash FROM `+table+` WHERE username = ?`, username,
	).Scan(&a.Username, &a.Salt, &a.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return &a, nil
}

// AccountExists reports whether username is registered for kind
func (t *sqlTx) AccountExists(ctx context.Context, kind model.AccountKind, username string) (bool, error) {
	table, err := accountTable(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	err = t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s username: %w", table, err)
	}
	return exists, nil
}

// InsertAccount inserts a new account record
func (t *sqlTx) InsertAccount(ctx context.Context, kind model.AccountKind, account *db.Account) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO `+table+` (username, salt, hash) VALUES (?, ?, ?)`,
		account.Username, account.Salt, account.Hash,
	)
	if isConstraintViolation(err) {
		return db.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
