package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMonthly() *Pattern {
	return &Pattern{
		FirmID:  uuid.New(),
		Name:    "Monthly filing",
		Type:    TypeMonthly,
		Monthly: &MonthlyConfig{Frequency: 1, Day: DaySelector{DayOfMonth: 20}},
		End:     EndCondition{Type: EndNever},
	}
}

func TestPatternValidate(t *testing.T) {
	t.Run("valid patterns pass", func(t *testing.T) {
		patterns := []*Pattern{
			validMonthly(),
			{
				FirmID: uuid.New(),
				Name:   "Quarterly estimated tax",
				Type:   TypeQuarterly,
				Quarterly: &QuarterlyConfig{
					Frequency:      1,
					MonthOfQuarter: 1,
					Day:            DaySelector{DayOfMonth: 18},
				},
				End: EndCondition{Type: EndAfterOccurrences, Occurrences: 8},
			},
			{
				FirmID: uuid.New(),
				Name:   "Annual report",
				Type:   TypeYearly,
				Yearly: &YearlyConfig{
					Frequency: 1,
					Months:    []time.Month{time.July},
					Day:       DaySelector{EndOfMonth: true},
				},
				End: EndCondition{Type: EndByDate, Until: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
			{
				FirmID: uuid.New(),
				Name:   "Biweekly check-in",
				Type:   TypeCustom,
				Custom: &CustomConfig{
					Frequency:  2,
					Unit:       UnitWeeks,
					DaysOfWeek: []time.Weekday{time.Monday},
				},
				End: EndCondition{Type: EndNever},
			},
		}
		for _, p := range patterns {
			assert.NoError(t, p.Validate(), "pattern %q", p.Name)
		}
	})

	t.Run("invalid patterns are rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(p *Pattern)
		}{
			{"missing name", func(p *Pattern) { p.Name = "" }},
			{"missing firm", func(p *Pattern) { p.FirmID = uuid.Nil }},
			{"no config block", func(p *Pattern) { p.Monthly = nil }},
			{"two config blocks", func(p *Pattern) {
				p.Custom = &CustomConfig{Frequency: 1, Unit: UnitDays}
			}},
			{"type/config mismatch", func(p *Pattern) {
				p.Type = TypeYearly
				p.Monthly = nil
				p.Quarterly = &QuarterlyConfig{Frequency: 1, MonthOfQuarter: 1, Day: DaySelector{DayOfMonth: 1}}
			}},
			{"zero frequency", func(p *Pattern) { p.Monthly.Frequency = 0 }},
			{"day of month too large", func(p *Pattern) { p.Monthly.Day = DaySelector{DayOfMonth: 32} }},
			{"week of month too large", func(p *Pattern) {
				p.Monthly.Day = DaySelector{WeekOfMonth: 6, DayOfWeek: time.Monday}
			}},
			{"no day selection", func(p *Pattern) { p.Monthly.Day = DaySelector{} }},
			{"two day selections", func(p *Pattern) {
				p.Monthly.Day = DaySelector{DayOfMonth: 20, EndOfMonth: true}
			}},
			{"unknown pattern type", func(p *Pattern) { p.Type = Type("WEEKLY") }},
			{"unknown end type", func(p *Pattern) { p.End.Type = EndType("SOMEDAY") }},
			{"occurrence limit without count", func(p *Pattern) {
				p.End = EndCondition{Type: EndAfterOccurrences}
			}},
			{"by-date without date", func(p *Pattern) {
				p.End = EndCondition{Type: EndByDate}
			}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := validMonthly()
				tt.mutate(p)
				err := p.Validate()
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPattern)
			})
		}
	})

	t.Run("custom refinement ranges", func(t *testing.T) {
		p := &Pattern{
			FirmID: uuid.New(),
			Name:   "Bad custom",
			Type:   TypeCustom,
			Custom: &CustomConfig{Frequency: 1, Unit: UnitMonths, DaysOfMonth: []int{0}},
			End:    EndCondition{Type: EndNever},
		}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPattern)

		p.Custom = &CustomConfig{Frequency: 1, Unit: Unit("FORTNIGHTS")}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPattern)

		p.Custom = &CustomConfig{Frequency: 1, Unit: UnitYears, MonthsOfYear: []time.Month{13}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPattern)
	})
}

func TestPresetsAreValid(t *testing.T) {
	firmID := uuid.New()
	presets := Presets(firmID)
	require.Len(t, presets, 4)

	names := make(map[string]bool)
	for _, p := range presets {
		assert.NoError(t, p.Validate(), "preset %q", p.Name)
		assert.Equal(t, firmID, p.FirmID)
		assert.True(t, p.IsActive)
		assert.False(t, names[p.Name], "duplicate preset name %q", p.Name)
		names[p.Name] = true
	}
}
