package services

import (
	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
)

func requireLoggedIn(p *model.Principal) error {
	if p == nil {
		return apperr.ErrNotLoggedIn
	}
	return nil
}

func requirePatient(p *model.Principal) error {
	if p == nil {
		return apperr.ErrNotLoggedIn
	}
	if !p.IsPatient() {
		return apperr.ErrWrongRole.Withf("operation requires a patient login")
	}
	return nil
}

func requireCaregiver(p *model.Principal) error {
	if p == nil {
		return apperr.ErrNotLoggedIn
	}
	if !p.IsCaregiver() {
		return apperr.ErrWrongRole.Withf("operation requires a caregiver login")
	}
	return nil
}

// isParty reports whether p is the appointment's patient or caregiver
func isParty(p *model.Principal, patient, caregiver string) bool {
	switch {
	case p.IsPatient():
		return p.Username == patient
	case p.IsCaregiver():
		return p.Username == caregiver
	default:
		return false
	}
}
