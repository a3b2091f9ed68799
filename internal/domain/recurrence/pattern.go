package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation errors. Callers compare with errors.Is; the wrapped message
// carries the offending field.
var ErrInvalidPattern = fmt.Errorf("invalid pattern configuration")

// Pattern is a firm-scoped recurrence rule. Exactly one of the four
// configuration blocks is non-nil, selected by Type; Validate enforces this
// before a pattern may be persisted.
type Pattern struct {
	ID        uuid.UUID
	FirmID    uuid.UUID
	Name      string
	Type      Type
	Monthly   *MonthlyConfig
	Yearly    *YearlyConfig
	Quarterly *QuarterlyConfig
	Custom    *CustomConfig
	End       EndCondition
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DaySelector picks the concrete day within a target month. Exactly one of
// the three forms is used: a day number (clamped to short months), the N-th
// weekday (week 5 meaning "last"), or the last calendar day of the month.
type DaySelector struct {
	DayOfMonth  int          // 1-31, 0 when unused
	WeekOfMonth int          // 1-5 (5 = last), 0 when unused
	DayOfWeek   time.Weekday // meaningful only with WeekOfMonth
	EndOfMonth  bool
}

// MonthlyConfig repeats every Frequency months.
type MonthlyConfig struct {
	Frequency int
	Day       DaySelector
}

// YearlyConfig repeats every Frequency years in the configured months.
type YearlyConfig struct {
	Frequency int
	Months    []time.Month
	Day       DaySelector
}

// QuarterlyConfig repeats every Frequency quarters; MonthOfQuarter (1-3)
// selects the month within the quarter.
type QuarterlyConfig struct {
	Frequency      int
	MonthOfQuarter int
	Day            DaySelector
}

// CustomConfig advances by Frequency of Unit. The optional refinement sets
// narrow which days qualify; when any are present the next occurrence is the
// nearest date matching all of them.
type CustomConfig struct {
	Frequency    int
	Unit         Unit
	DaysOfWeek   []time.Weekday
	DaysOfMonth  []int
	MonthsOfYear []time.Month
}

// EndCondition bounds how long a pattern keeps producing occurrences.
type EndCondition struct {
	Type        EndType
	Occurrences int       // meaningful for EndAfterOccurrences
	Until       time.Time // meaningful for EndByDate
}

// Validate checks range constraints and type/config consistency. It is called
// at write time; a pattern that fails validation is never persisted.
func (p *Pattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPattern)
	}
	if p.FirmID == uuid.Nil {
		return fmt.Errorf("%w: firm ID is required", ErrInvalidPattern)
	}

	configured := 0
	if p.Monthly != nil {
		configured++
	}
	if p.Yearly != nil {
		configured++
	}
	if p.Quarterly != nil {
		configured++
	}
	if p.Custom != nil {
		configured++
	}
	if configured != 1 {
		return fmt.Errorf("%w: exactly one configuration block must be set, got %d", ErrInvalidPattern, configured)
	}

	switch p.Type {
	case TypeMonthly:
		if p.Monthly == nil {
			return fmt.Errorf("%w: type MONTHLY requires the monthly block", ErrInvalidPattern)
		}
		if p.Monthly.Frequency < 1 {
			return fmt.Errorf("%w: monthly frequency must be >= 1", ErrInvalidPattern)
		}
		if err := p.Monthly.Day.validate(); err != nil {
			return err
		}
	case TypeYearly:
		if p.Yearly == nil {
			return fmt.Errorf("%w: type YEARLY requires the yearly block", ErrInvalidPattern)
		}
		if p.Yearly.Frequency < 1 {
			return fmt.Errorf("%w: yearly frequency must be >= 1", ErrInvalidPattern)
		}
		if len(p.Yearly.Months) == 0 {
			return fmt.Errorf("%w: yearly pattern requires at least one month", ErrInvalidPattern)
		}
		for _, m := range p.Yearly.Months {
			if m < time.January || m > time.December {
				return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPattern, m)
			}
		}
		if err := p.Yearly.Day.validate(); err != nil {
			return err
		}
	case TypeQuarterly:
		if p.Quarterly == nil {
			return fmt.Errorf("%w: type QUARTERLY requires the quarterly block", ErrInvalidPattern)
		}
		if p.Quarterly.Frequency < 1 {
			return fmt.Errorf("%w: quarterly frequency must be >= 1", ErrInvalidPattern)
		}
		if p.Quarterly.MonthOfQuarter < 1 || p.Quarterly.MonthOfQuarter > 3 {
			return fmt.Errorf("%w: month of quarter %d out of range 1-3", ErrInvalidPattern, p.Quarterly.MonthOfQuarter)
		}
		if err := p.Quarterly.Day.validate(); err != nil {
			return err
		}
	case TypeCustom:
		if p.Custom == nil {
			return fmt.Errorf("%w: type CUSTOM requires the custom block", ErrInvalidPattern)
		}
		if err := p.Custom.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown pattern type %q", ErrInvalidPattern, p.Type)
	}

	return p.End.validate()
}

func (d DaySelector) validate() error {
	forms := 0
	if d.DayOfMonth != 0 {
		forms++
	}
	if d.WeekOfMonth != 0 {
		forms++
	}
	if d.EndOfMonth {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("%w: exactly one of day-of-month, week-of-month or end-of-month must be set", ErrInvalidPattern)
	}
	if d.DayOfMonth != 0 && (d.DayOfMonth < 1 || d.DayOfMonth > 31) {
		return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidPattern, d.DayOfMonth)
	}
	if d.WeekOfMonth != 0 {
		if d.WeekOfMonth < 1 || d.WeekOfMonth > 5 {
			return fmt.Errorf("%w: week of month %d out of range 1-5", ErrInvalidPattern, d.WeekOfMonth)
		}
		if d.DayOfWeek < time.Sunday || d.DayOfWeek > time.Saturday {
			return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidPattern, d.DayOfWeek)
		}
	}
	return nil
}

func (c *CustomConfig) validate() error {
	if c.Frequency < 1 {
		return fmt.Errorf("%w: custom frequency must be >= 1", ErrInvalidPattern)
	}
	switch c.Unit {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
	default:
		return fmt.Errorf("%w: unknown custom unit %q", ErrInvalidPattern, c.Unit)
	}
	for _, wd := range c.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidPattern, wd)
		}
	}
	for _, dom := range c.DaysOfMonth {
		if dom < 1 || dom > 31 {
			return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidPattern, dom)
		}
	}
	for _, m := range c.MonthsOfYear {
		if m < time.January || m > time.December {
			return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPattern, m)
		}
	}
	return nil
}

func (e EndCondition) validate() error {
	switch e.Type {
	case EndNever:
		return nil
	case EndAfterOccurrences:
		if e.Occurrences < 1 {
			return fmt.Errorf("%w: end-after-occurrences count must be >= 1", ErrInvalidPattern)
		}
		return nil
	case EndByDate:
		if e.Until.IsZero() {
			return fmt.Errorf("%w: end-by-date requires a date", ErrInvalidPattern)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown end condition type %q", ErrInvalidPattern, e.Type)
	}
}

// Expired reports whether the end condition forbids an occurrence on the
// given date. Occurrence-count limits are checked by the generation service
// against the instance store, not here.
func (e EndCondition) Expired(next time.Time) bool {
	if e.Type != EndByDate {
		return false
	}
	day := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
	limit := time.Date(e.Until.Year(), e.Until.Month(), e.Until.Day(), 0, 0, 0, 0, next.Location())
	return day.After(limit)
}
