package automation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRunTime = fmt.Errorf("auto-run time must be HH:MM in 24-hour format")

// Settings holds a firm's automation state. LastRunDate is the persisted
// daily-run marker: it survives restarts, so the scheduler never trusts
// in-memory state to decide whether today's run already happened.
type Settings struct {
	FirmID      uuid.UUID
	Enabled     bool
	AutoRunTime string // "HH:MM", wall clock
	LastRunDate sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateRunTime checks the HH:MM wall-clock format.
func ValidateRunTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRunTime, value)
	}
	return nil
}

// RanOn reports whether the last completed run happened on the given day.
func (s *Settings) RanOn(day time.Time) bool {
	if !s.LastRunDate.Valid {
		return false
	}
	lr := s.LastRunDate.Time
	return lr.Year() == day.Year() && lr.Month() == day.Month() && lr.Day() == day.Day()
}
