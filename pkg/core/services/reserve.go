package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// errCaregiverTaken means another transaction booked the selected caregiver
// between listing and marking. The whole transaction is retried.
var errCaregiverTaken = errors.New("selected caregiver was booked concurrently")

// Reserve books the lexicographically first available caregiver on date and
// one dose of vaccine for the logged-in patient.
//
// Caregiver selection, the dose decrement, the unavailability row and the
// appointment insert commit together or not at all.
func Reserve(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal, date time.Time, vaccine string) (*model.Confirmation, error) {
	if err := requirePatient(principal); err != nil {
		return nil, err
	}
	if vaccine == "" {
		return nil, apperr.ErrInvalidArgument.Withf("vaccine name is required")
	}
	if policy.Closures.IsClosed(date) {
		return nil, apperr.ErrClinicClosed.Withf("clinic is closed on %s", model.FormatDate(date))
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	logger.Debug("Reserving appointment",
		zap.String("patient", principal.Username),
		zap.String("date", model.FormatDate(date)),
		zap.String("vaccine", vaccine))

	for attempt := 1; attempt <= policy.maxAttempts(); attempt++ {
		var confirmation *model.Confirmation
		err := database.RunInTx(ctx, func(tx db.Tx) error {
			c, err := reserveInTx(ctx, tx, policy, logger, principal.Username, date, vaccine)
			if err != nil {
				return err
			}
			confirmation = c
			return nil
		})

		if err == nil {
			logger.Info("Appointment reserved",
				zap.String("appointment_id", confirmation.AppointmentID),
				zap.String("patient", principal.Username),
				zap.String("caregiver", confirmation.CaregiverUsername),
				zap.String("date", confirmation.Date),
				zap.String("vaccine", vaccine),
				zap.Int("attempt", attempt))
			return confirmation, nil
		}

		if errors.Is(err, errCaregiverTaken) {
			logger.Debug("Caregiver booked concurrently, retrying", zap.Int("attempt", attempt))
			continue
		}

		return nil, apperr.Storage(err)
	}

	logger.Warn("Reservation gave up after repeated conflicts", zap.Int("attempts", policy.maxAttempts()))
	return nil, apperr.ErrStorageFailure.Withf("reservation conflicted with concurrent bookings, please retry")
}

func reserveInTx(ctx context.Context, tx db.Tx, policy *Policy, logger *zap.Logger, patient string, date time.Time, vaccine string) (*model.Confirmation, error) {
	caregivers, err := tx.ListAvailableCaregivers(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list available caregivers: %w", err)
	}
	if len(caregivers) == 0 {
		return nil, apperr.ErrNoCaregiverAvailable
	}
	caregiver := caregivers[0]

	if err := tx.ReserveDose(ctx, vaccine); err != nil {
		if errors.Is(err, db.ErrOutOfStock) || errors.Is(err, db.ErrUnknownVaccine) {
			return nil, apperr.ErrOutOfStock.Wrap(err)
		}
		return nil, fmt.Errorf("failed to reserve dose: %w", err)
	}

	if err := tx.MarkUnavailable(ctx, &db.Availability{CaregiverName: caregiver, Date: date}); err != nil {
		if errors.Is(err, db.ErrAlreadyUnavailable) {
			return nil, errCaregiverTaken
		}
		return nil, fmt.Errorf("failed to mark caregiver unavailable: %w", err)
	}

	appt := &db.Appointment{
		Date:          date,
		PatientName:   patient,
		CaregiverName: caregiver,
		VaccineName:   vaccine,
	}
	if err := insertWithFreshID(ctx, tx, policy, logger, appt); err != nil {
		return nil, err
	}

	return &model.Confirmation{
		AppointmentID:     appt.ID,
		CaregiverUsername: caregiver,
		Date:              model.FormatDate(date),
		VaccineName:       vaccine,
	}, nil
}

// insertWithFreshID assigns generated IDs until the insert does not collide
func insertWithFreshID(ctx context.Context, tx db.Tx, policy *Policy, logger *zap.Logger, appt *db.Appointment) error {
	for i := 0; i < policy.idAttempts(); i++ {
		appt.ID = newAppointmentID()
		err := tx.InsertAppointment(ctx, appt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
		logger.Debug("Appointment ID collision, regenerating", zap.String("appointment_id", appt.ID))
	}
	return apperr.ErrStorageFailure.Withf("could not allocate a unique appointment id")
}
