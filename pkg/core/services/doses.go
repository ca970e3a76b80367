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

// AddDoses adds count doses of vaccine, creating it on first use.
// It returns the new dose count.
func AddDoses(ctx context.Context, database db.Database, policy *Policy, logger *zap.Logger, principal *model.Principal, vaccine string, count int) (int, error) {
	if err := requireCaregiver(principal); err != nil {
		return 0, err
	}
	if vaccine == "" {
		return 0, apperr.ErrInvalidArgument.Withf("vaccine name is required")
	}
	if count <= 0 {
		return 0, apperr.ErrInvalidArgument.Withf("dose count must be a positive integer, got %d", count)
	}
	if count > db.MaxDoses {
		return 0, apperr.ErrTooManyDoses.Withf("at most %d doses can be added at once, got %d", db.MaxDoses, count)
	}

	ctx, cancel := policy.withTimeout(ctx)
	defer cancel()

	var doses int
	err := database.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		doses, err = tx.UpsertDoses(ctx, vaccine, count)
		if errors.Is(err, db.ErrDoseLimit) {
			return apperr.ErrTooManyDoses.Wrap(err)
		}
		if err != nil {
			return fmt.Errorf("failed to add doses: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Storage(err)
	}

	logger.Info("Doses updated",
		zap.String("caregiver", principal.Username),
		zap.String("vaccine", vaccine),
		zap.Int("added", count),
		zap.Int("doses", doses))
	return doses, nil
}
