package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
)

func TestReserve_PicksFirstCaregiverAlphabetically(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()

	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "dave", "bob", "erin")
	seedDoses(t, database, "moderna", 3)

	confirmation, err := Reserve(ctx, database, DefaultPolicy(), logger, alice, march1, "moderna")
	require.NoError(t, err)

	assert.Equal(t, "bob", confirmation.CaregiverUsername)
	assert.Equal(t, "03-01-2024", confirmation.Date)
	assert.Equal(t, "moderna", confirmation.VaccineName)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}$`), confirmation.AppointmentID)

	assert.Equal(t, 2, dosesOf(t, database, "moderna"))
	assert.True(t, isUnavailable(t, database, "bob", march1))
	assert.False(t, isUnavailable(t, database, "dave", march1))
	assert.True(t, appointmentExists(t, database, confirmation.AppointmentID))
}

func TestReserve_AliceBobScenario(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()
	policy := DefaultPolicy()

	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob")

	_, err := AddDoses(ctx, database, policy, logger, bob, "moderna", 5)
	require.NoError(t, err)

	confirmation, err := Reserve(ctx, database, policy, logger, alice, march1, "moderna")
	require.NoError(t, err)
	assert.Equal(t, "bob", confirmation.CaregiverUsername)
	assert.Equal(t, 4, dosesOf(t, database, "moderna"))

	// bob is the only caregiver and is now booked for the day
	_, err = Reserve(ctx, database, policy, logger, alice, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrNoCaregiverAvailable)
	assert.Equal(t, 4, dosesOf(t, database, "moderna"))

	require.NoError(t, Cancel(ctx, database, policy, logger, alice, confirmation.AppointmentID))
	assert.Equal(t, 5, dosesOf(t, database, "moderna"))
	assert.False(t, isUnavailable(t, database, "bob", march1))

	schedule, err := SearchCaregiverSchedule(ctx, database, policy, logger, alice, march1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, schedule.Caregivers)
}

func TestReserve_RequiresPatient(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	_, err := Reserve(ctx, database, DefaultPolicy(), zap.NewNop(), nil, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)

	_, err = Reserve(ctx, database, DefaultPolicy(), zap.NewNop(), bob, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrWrongRole)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestReserve_NoCaregiverLeavesLedgersUnchanged(t *testing.T) {
	database := newTestDB(t)
	seedAccounts(t, database, model.KindPatient, "alice")
	seedDoses(t, database, "moderna", 2)

	_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrNoCaregiverAvailable)
	assert.Equal(t, 2, dosesOf(t, database, "moderna"))
}

func TestReserve_OutOfStockLeavesCaregiverFree(t *testing.T) {
	tests := []struct {
		name    string
		vaccine string
		doses   int
	}{
		{name: "zero doses", vaccine: "pfizer", doses: 0},
		{name: "unknown vaccine", vaccine: "novavax", doses: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := newTestDB(t)
			seedAccounts(t, database, model.KindPatient, "alice")
			seedAccounts(t, database, model.KindCaregiver, "bob")
			if tt.doses == 0 {
				seedDoses(t, database, tt.vaccine, 1)
				_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march2, tt.vaccine)
				require.NoError(t, err)
			}

			_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, tt.vaccine)
			assert.ErrorIs(t, err, apperr.ErrOutOfStock)
			assert.False(t, isUnavailable(t, database, "bob", march1))

			views, err := ShowAppointments(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice)
			require.NoError(t, err)
			for _, v := range views {
				assert.NotEqual(t, "03-01-2024", v.Date)
			}
		})
	}
}

func TestReserve_InsertFailureLeavesLedgersUnchanged(t *testing.T) {
	database := newTestDB(t)
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob")
	seedDoses(t, database, "moderna", 2)
	faulty := &faultyDB{Database: database, failOn: "InsertAppointment", err: errors.New("connection reset by peer")}

	_, err := Reserve(context.Background(), faulty, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable())

	assert.Equal(t, 2, dosesOf(t, database, "moderna"))
	assert.False(t, isUnavailable(t, database, "bob", march1))
	views, err := ShowAppointments(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestReserve_ClinicClosed(t *testing.T) {
	database := newTestDB(t)
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob")
	seedDoses(t, database, "moderna", 1)

	closures, err := NewClosureCalendar([]string{"FREQ=WEEKLY;BYDAY=FR"})
	require.NoError(t, err)
	policy := DefaultPolicy()
	policy.Closures = closures

	// 2024-03-01 is a Friday
	_, err = Reserve(context.Background(), database, policy, zap.NewNop(), alice, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrClinicClosed)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 1, dosesOf(t, database, "moderna"))

	_, err = Reserve(context.Background(), database, policy, zap.NewNop(), alice, march2, "moderna")
	assert.NoError(t, err)
}

func TestReserve_ConcurrentLastDose(t *testing.T) {
	database := newTestDB(t)
	const n = 8

	for i := 0; i < n; i++ {
		seedAccounts(t, database, model.KindPatient, fmt.Sprintf("patient%d", i))
		seedAccounts(t, database, model.KindCaregiver, fmt.Sprintf("caregiver%d", i))
	}
	seedDoses(t, database, "moderna", 1)

	var confirmed, outOfStock atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		patient := &model.Principal{Kind: model.KindPatient, Username: fmt.Sprintf("patient%d", i)}
		g.Go(func() error {
			_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), patient, march1, "moderna")
			switch {
			case err == nil:
				confirmed.Add(1)
			case errors.Is(err, apperr.ErrOutOfStock):
				outOfStock.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), confirmed.Load())
	assert.Equal(t, int32(n-1), outOfStock.Load())
	assert.Equal(t, 0, dosesOf(t, database, "moderna"))
}

func TestReserve_ConcurrentSameCaregiver(t *testing.T) {
	database := newTestDB(t)
	const n = 6

	for i := 0; i < n; i++ {
		seedAccounts(t, database, model.KindPatient, fmt.Sprintf("patient%d", i))
	}
	seedAccounts(t, database, model.KindCaregiver, "bob")
	seedDoses(t, database, "moderna", n)

	var confirmed, noCaregiver atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		patient := &model.Principal{Kind: model.KindPatient, Username: fmt.Sprintf("patient%d", i)}
		g.Go(func() error {
			_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), patient, march1, "moderna")
			switch {
			case err == nil:
				confirmed.Add(1)
			case errors.Is(err, apperr.ErrNoCaregiverAvailable):
				noCaregiver.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), confirmed.Load())
	assert.Equal(t, int32(n-1), noCaregiver.Load())
	assert.Equal(t, n-1, dosesOf(t, database, "moderna"))
}

func TestReserve_RetriesWhenCaregiverTakenConcurrently(t *testing.T) {
	database := &conflictingDB{Database: newTestDB(t), conflicts: 2}
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob")
	seedDoses(t, database, "moderna", 3)

	confirmation, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	require.NoError(t, err)
	assert.Equal(t, "bob", confirmation.CaregiverUsername)
	assert.Equal(t, 0, database.conflicts)

	// rolled-back attempts must not have consumed doses
	assert.Equal(t, 2, dosesOf(t, database, "moderna"))
}

func TestReserve_GivesUpAfterMaxAttempts(t *testing.T) {
	database := &conflictingDB{Database: newTestDB(t), conflicts: 100}
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob")
	seedDoses(t, database, "moderna", 3)

	policy := DefaultPolicy()
	policy.MaxAttempts = 3

	_, err := Reserve(context.Background(), database, policy, zap.NewNop(), alice, march1, "moderna")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable())

	assert.Equal(t, 97, database.conflicts)
	assert.Equal(t, 3, dosesOf(t, database, "moderna"))
}

func TestReserve_RegeneratesCollidingID(t *testing.T) {
	database := newTestDB(t)
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob", "dave")
	seedDoses(t, database, "moderna", 2)

	stubAppointmentIDs(t, "00000001", "00000001", "00000002")

	first, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	require.NoError(t, err)
	assert.Equal(t, "00000001", first.AppointmentID)

	second, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	require.NoError(t, err)
	assert.Equal(t, "00000002", second.AppointmentID)
	assert.Equal(t, "dave", second.CaregiverUsername)
	assert.Equal(t, 0, dosesOf(t, database, "moderna"))
}

func TestReserve_IDExhaustionRollsBack(t *testing.T) {
	database := newTestDB(t)
	seedAccounts(t, database, model.KindPatient, "alice")
	seedAccounts(t, database, model.KindCaregiver, "bob", "dave")
	seedDoses(t, database, "moderna", 2)

	stubAppointmentIDs(t, "00000001")
	policy := DefaultPolicy()
	policy.IDAttempts = 3

	_, err := Reserve(context.Background(), database, policy, zap.NewNop(), alice, march1, "moderna")
	require.NoError(t, err)

	_, err = Reserve(context.Background(), database, policy, zap.NewNop(), alice, march1, "moderna")
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)

	assert.Equal(t, 1, dosesOf(t, database, "moderna"))
	assert.False(t, isUnavailable(t, database, "dave", march1))
}

func TestReserve_StorageFailureIsRetryable(t *testing.T) {
	database := &failingDB{err: errors.New("connection reset by peer")}

	_, err := Reserve(context.Background(), database, DefaultPolicy(), zap.NewNop(), alice, march1, "moderna")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestNewAppointmentID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{8}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, newAppointmentID())
	}
}
