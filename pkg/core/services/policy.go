package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/vaccine-scheduler/internal/config"
)

// Policy carries the reservation engine settings derived from config
type Policy struct {
	MaxAttempts      int
	IDAttempts       int
	OperationTimeout time.Duration
	// RestrictCancel limits cancel to the appointment's patient or caregiver
	RestrictCancel bool
	Closures       *ClosureCalendar
}

// DefaultPolicy matches the config defaults with no clinic closures
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:      5,
		IDAttempts:       10,
		OperationTimeout: 10 * time.Second,
	}
}

// NewPolicy builds a Policy from a validated config
func NewPolicy(cfg *config.Config) (*Policy, error) {
	closures, err := NewClosureCalendar(cfg.Clinic.ClosedDays)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clinic closures: %w", err)
	}

	return &Policy{
		MaxAttempts:      cfg.Reservation.MaxAttempts,
		IDAttempts:       cfg.Reservation.IDAttempts,
		OperationTimeout: cfg.Database.OperationTimeout,
		RestrictCancel:   cfg.Reservation.RestrictCancelToParticipants,
		Closures:         closures,
	}, nil
}

func (p *Policy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.OperationTimeout)
}

func (p *Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p *Policy) idAttempts() int {
	if p.IDAttempts < 1 {
		return 1
	}
	return p.IDAttempts
}
