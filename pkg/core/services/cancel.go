package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// Cancel deletes an appointment, returns its dose to inventory and frees the
// caregiver for that date, all in one transaction.
//
// Any logged-in principal may cancel any appointment unless
// policy.RestrictCancel is set.
func Cancel(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal, appointmentID string) error {
	if err := requireLoggedIn(principal); err != nil {
		return err
	}
	if appointmentID == "" {
		return apperr.ErrInvalidArgument.Withf("appointment id is required")
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	logger.Debug("Canceling appointment",
		zap.String("appointment_id", appointmentID),
		zap.String("principal", principal.Username))

	var appt *db.Appointment
	err := database.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		appt, err = tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("failed to fetch appointment: %w", err)
		}

		if !isParty(principal, appt.PatientName, appt.CaregiverName) {
			if policy.RestrictCancel {
				return apperr.ErrWrongRole.Withf("only the appointment's patient or caregiver may cancel it")
			}
			logger.Warn("Appointment canceled by a principal who is not party to it",
				zap.String("appointment_id", appt.ID),
				zap.String("principal", principal.Username),
				zap.String("principal_kind", string(principal.Kind)))
		}

		// Deleting first makes a concurrent cancel of the same id see NotFound
		if err := tx.DeleteAppointment(ctx, appt.ID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("failed to delete appointment: %w", err)
		}

		if err := tx.ReleaseDose(ctx, appt.VaccineName); err != nil {
			if errors.Is(err, db.ErrUnknownVaccine) {
				return apperr.ErrUnknownVaccine.Wrap(err)
			}
			if errors.Is(err, db.ErrDoseLimit) {
				return apperr.ErrTooManyDoses.Wrap(err)
			}
			return fmt.Errorf("failed to release dose: %w", err)
		}

		if err := tx.ClearUnavailable(ctx, appt.CaregiverName, appt.Date); err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("failed to clear caregiver unavailability: %w", err)
			}
			logger.Warn("No unavailability row for canceled appointment",
				zap.String("appointment_id", appt.ID),
				zap.String("caregiver", appt.CaregiverName),
				zap.String("date", model.FormatDate(appt.Date)))
		}
		return nil
	})
	if err != nil {
		return apperr.Storage(err)
	}

	logger.Info("Appointment canceled",
		zap.String("appointment_id", appt.ID),
		zap.String("caregiver", appt.CaregiverName),
		zap.String("vaccine", appt.VaccineName))
	return nil
}
