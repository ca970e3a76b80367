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

// UploadAvailability records a row for the logged-in caregiver on date.
// A stored row means the caregiver is blocked for that date, the same
// meaning reserve gives it, so uploading takes the caregiver out of search
// and reserve results for the day.
func UploadAvailability(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal, date time.Time) error {
	if err := requireCaregiver(principal); err != nil {
		return err
	}
	if policy.Closures.IsClosed(date) {
		return apperr.ErrClinicClosed.Withf("clinic is closed on %s", model.FormatDate(date))
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	err := database.RunInTx(ctx, func(tx db.Tx) error {
		if err := tx.MarkUnavailable(ctx, &db.Availability{CaregiverName: principal.Username, Date: date}); err != nil {
			if errors.Is(err, db.ErrAlreadyUnavailable) {
				return apperr.ErrAlreadyUnavailable
			}
			return fmt.Errorf("failed to upload availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage(err)
	}

	logger.Info("Availability uploaded",
		zap.String("caregiver", principal.Username),
		zap.String("date", model.FormatDate(date)))
	return nil
}

// SearchCaregiverSchedule lists caregivers free on date and the vaccine catalog
func SearchCaregiverSchedule(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal, date time.Time) (*model.Schedule, error) {
	if err := requireLoggedIn(principal); err != nil {
		return nil, err
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	schedule := &model.Schedule{Date: model.FormatDate(date)}
	err := database.RunInTx(ctx, func(tx db.Tx) error {
		caregivers, err := tx.ListAvailableCaregivers(ctx, date)
		if err != nil {
			return fmt.Errorf("failed to list available caregivers: %w", err)
		}

		vaccines, err := tx.ListVaccines(ctx)
		if err != nil {
			return fmt.Errorf("failed to list vaccines: %w", err)
		}

		schedule.Caregivers = caregivers
		schedule.Vaccines = make([]model.VaccineStock, 0, len(vaccines))
		for _, v := range vaccines {
			schedule.Vaccines = append(schedule.Vaccines, model.VaccineStock{Name: v.Name, Doses: v.Doses})
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	logger.Debug("Searched caregiver schedule",
		zap.String("date", schedule.Date),
		zap.Int("caregivers", len(schedule.Caregivers)),
		zap.Int("vaccines", len(schedule.Vaccines)))
	return schedule, nil
}
