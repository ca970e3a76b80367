package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
	"github.com/jakechorley/vaccine-scheduler/pkg/sqlite"
)

var (
	march1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	march2 = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	alice = &model.Principal{Kind: model.KindPatient, Username: "alice"}
	carol = &model.Principal{Kind: model.KindPatient, Username: "carol"}
	bob   = &model.Principal{Kind: model.KindCaregiver, Username: "bob"}
	dave  = &model.Principal{Kind: model.KindCaregiver, Username: "dave"}
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	d, err := sqlite.New(context.Background(), ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func seedAccounts(t *testing.T, database db.Database, kind model.AccountKind, names ...string) {
	t.Helper()
	err := database.RunInTx(context.Background(), func(tx db.Tx) error {
		for _, name := range names {
			acc := &db.Account{Username: name, Salt: []byte("salt"), Hash: []byte("hash")}
			if err := tx.InsertAccount(context.Background(), kind, acc); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func seedDoses(t *testing.T, database db.Database, vaccine string, count int) {
	t.Helper()
	err := database.RunInTx(context.Background(), func(tx db.Tx) error {
		_, err := tx.UpsertDoses(context.Background(), vaccine, count)
		return err
	})
	require.NoError(t, err)
}

func dosesOf(t *testing.T, database db.Database, vaccine string) int {
	t.Helper()
	var doses int
	err := database.RunInTx(context.Background(), func(tx db.Tx) error {
		v, err := tx.GetVaccine(context.Background(), vaccine)
		if err != nil {
			return err
		}
		doses = v.Doses
		return nil
	})
	require.NoError(t, err)
	return doses
}

// isUnavailable reports whether an existing caregiver has a row for date
func isUnavailable(t *testing.T, database db.Database, caregiver string, date time.Time) bool {
	t.Helper()
	var free []string
	err := database.RunInTx(context.Background(), func(tx db.Tx) error {
		var err error
		free, err = tx.ListAvailableCaregivers(context.Background(), date)
		return err
	})
	require.NoError(t, err)
	return !slices.Contains(free, caregiver)
}

func appointmentExists(t *testing.T, database db.Database, id string) bool {
	t.Helper()
	var found bool
	err := database.RunInTx(context.Background(), func(tx db.Tx) error {
		_, err := tx.GetAppointment(context.Background(), id)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	require.NoError(t, err)
	return found
}

// stubAppointmentIDs replaces the ID generator with a fixed sequence for the test
func stubAppointmentIDs(t *testing.T, ids ...string) {
	t.Helper()
	prev := newAppointmentID
	i := 0
	newAppointmentID = func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
	t.Cleanup(func() { newAppointmentID = prev })
}

// conflictingDB reports the first n MarkUnavailable calls as already taken,
// as if another session had just booked the caregiver
type conflictingDB struct {
	db.Database
	conflicts int
}

func (c *conflictingDB) RunInTx(ctx context.Context, fn func(tx db.Tx) error) error {
	return c.Database.RunInTx(ctx, func(tx db.Tx) error {
		return fn(&conflictingTx{Tx: tx, conflicts: &c.conflicts})
	})
}

type conflictingTx struct {
	db.Tx
	conflicts *int
}

func (c *conflictingTx) MarkUnavailable(ctx context.Context, row *db.Availability) error {
	if *c.conflicts > 0 {
		*c.conflicts--
		return db.ErrAlreadyUnavailable
	}
	return c.Tx.MarkUnavailable(ctx, row)
}

// faultyDB fails the named ledger call with err partway through a
// transaction, after earlier writes in the same transaction have succeeded
type faultyDB struct {
	db.Database
	failOn string
	err    error
}

func (f *faultyDB) RunInTx(ctx context.Context, fn func(tx db.Tx) error) error {
	return f.Database.RunInTx(ctx, func(tx db.Tx) error {
		return fn(&faultyTx{Tx: tx, failOn: f.failOn, err: f.err})
	})
}

type faultyTx struct {
	db.Tx
	failOn string
	err    error
}

func (f *faultyTx) ReleaseDose(ctx context.Context, name string) error {
	if f.failOn == "ReleaseDose" {
		return f.err
	}
	return f.Tx.ReleaseDose(ctx, name)
}

func (f *faultyTx) ClearUnavailable(ctx context.Context, caregiver string, date time.Time) error {
	if f.failOn == "ClearUnavailable" {
		return f.err
	}
	return f.Tx.ClearUnavailable(ctx, caregiver, date)
}

func (f *faultyTx) InsertAppointment(ctx context.Context, appt *db.Appointment) error {
	if f.failOn == "InsertAppointment" {
		return f.err
	}
	return f.Tx.InsertAppointment(ctx, appt)
}

// failingDB fails every transaction with a transport error
type failingDB struct {
	err error
}

func (f *failingDB) RunInTx(ctx context.Context, fn func(tx db.Tx) error) error {
	return f.err
}

func (f *failingDB) Close() {}
