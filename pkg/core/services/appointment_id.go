package services

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// newAppointmentID returns a random 8-digit numeric string.
// Uniqueness is enforced by the appointment ledger; callers retry on collision.
var newAppointmentID = func() string {
	u := uuid.New()
	return fmt.Sprintf("%08d", binary.BigEndian.Uint64(u[:8])%100_000_000)
}
