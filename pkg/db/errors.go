package db

import "errors"

var (
	// ErrNotFound is returned when a keyed row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits an existing key
	ErrDuplicate = errors.New("duplicate record")
	// ErrOutOfStock is returned by ReserveDose when no doses remain
	ErrOutOfStock = errors.New("no doses remaining")
	// ErrUnknownVaccine is returned for a vaccine name with no row
	ErrUnknownVaccine = errors.New("unknown vaccine")
	// ErrAlreadyUnavailable is returned when a caregiver/date row already exists
	ErrAlreadyUnavailable = errors.New("caregiver already unavailable")
	// ErrInvalidDelta is returned by UpsertDoses for a non-positive delta
	ErrInvalidDelta = errors.New("dose delta must be positive")
	// ErrDoseLimit is returned when a change would take a vaccine past MaxDoses
	ErrDoseLimit = errors.New("dose count limit exceeded")
)
