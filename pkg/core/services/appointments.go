package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// ShowAppointments returns the principal's appointments ordered by ID.
// Patients see the caregiver on each row and caregivers see the patient.
func ShowAppointments(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal) ([]model.AppointmentView, error) {
	if err := requireLoggedIn(principal); err != nil {
		return nil, err
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	var appts []db.Appointment
	err := database.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		if principal.IsPatient() {
			appts, err = tx.ListAppointmentsForPatient(ctx, principal.Username)
		} else {
			appts, err = tx.ListAppointmentsForCaregiver(ctx, principal.Username)
		}
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	views := make([]model.AppointmentView, 0, len(appts))
	for _, a := range appts {
		counterpart := a.CaregiverName
		if principal.IsCaregiver() {
			counterpart = a.PatientName
		}
		views = append(views, model.AppointmentView{
			AppointmentID: a.ID,
			VaccineName:   a.VaccineName,
			Date:          model.FormatDate(a.Date),
			Counterpart:   counterpart,
		})
	}

	logger.Debug("Listed appointments",
		zap.String("principal", principal.Username),
		zap.Int("count", len(views)))
	return views, nil
}
