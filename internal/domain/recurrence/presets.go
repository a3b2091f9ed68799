package recurrence

import (
	"time"

	"github.com/google/uuid"
)

// Presets returns the canonical compliance cadences seeded for a firm that
// has no patterns yet. Names double as the idempotency key for seeding.
func Presets(firmID uuid.UUID) []*Pattern {
	return []*Pattern{
		{
			FirmID:   firmID,
			Name:     "Monthly filing (20th)",
			Type:     TypeMonthly,
			Monthly:  &MonthlyConfig{Frequency: 1, Day: DaySelector{DayOfMonth: 20}},
			End:      EndCondition{Type: EndNever},
			IsActive: true,
		},
		{
			FirmID:   firmID,
			Name:     "Payroll remittance (15th)",
			Type:     TypeMonthly,
			Monthly:  &MonthlyConfig{Frequency: 1, Day: DaySelector{DayOfMonth: 15}},
			End:      EndCondition{Type: EndNever},
			IsActive: true,
		},
		{
			FirmID: firmID,
			Name:   "Quarterly estimated tax (18th)",
			Type:   TypeQuarterly,
			Quarterly: &QuarterlyConfig{
				Frequency:      1,
				MonthOfQuarter: 1,
				Day:            DaySelector{DayOfMonth: 18},
			},
			End:      EndCondition{Type: EndNever},
			IsActive: true,
		},
		{
			FirmID: firmID,
			Name:   "Annual report (end of July)",
			Type:   TypeYearly,
			Yearly: &YearlyConfig{
				Frequency: 1,
				Months:    []time.Month{time.July},
				Day:       DaySelector{EndOfMonth: true},
			},
			End:      EndCondition{Type: EndNever},
			IsActive: true,
		},
	}
}
