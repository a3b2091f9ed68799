package recurrence

import (
	"fmt"
	"time"
)

// ErrScanExhausted signals that a custom pattern's refinement sets never
// matched within the scan cap. It marks a misconfigured pattern; the caller
// decides whether to surface or skip it.
var ErrScanExhausted = fmt.Errorf("no qualifying occurrence within scan horizon")

// customScanHorizonDays bounds the forward scan for refined custom patterns
// so a misconfigured pattern terminates instead of looping.
const customScanHorizonDays = 10 * 366

// NextOccurrence computes the first date implied by the pattern that is
// strictly after from. It is pure: no I/O, no caching, deterministic for a
// given (pattern, from) pair. End conditions are deliberately NOT enforced
// here; callers check Pattern.End before trusting the result.
//
// The candidate within the current cycle is considered first: a quarterly
// day-18 pattern evaluated on January 5th yields January 18th, not April.
// Only when the current cycle's date has already passed does the cycle
// advance by the configured frequency.
func NextOccurrence(p *Pattern, from time.Time) (time.Time, error) {
	from = dateOnly(from)

	switch p.Type {
	case TypeMonthly:
		return nextMonthly(p.Monthly, from), nil
	case TypeYearly:
		return nextYearly(p.Yearly, from), nil
	case TypeQuarterly:
		return nextQuarterly(p.Quarterly, from), nil
	case TypeCustom:
		return nextCustom(p.Custom, from)
	}
	return time.Time{}, fmt.Errorf("%w: pattern %s has unknown type %q", ErrInvalidPattern, p.ID, p.Type)
}

func nextMonthly(cfg *MonthlyConfig, from time.Time) time.Time {
	candidate := cfg.Day.resolve(from.Year(), from.Month(), from.Location())
	if candidate.After(from) {
		return candidate
	}
	y, m := addMonths(from.Year(), from.Month(), cfg.Frequency)
	return cfg.Day.resolve(y, m, from.Location())
}

func nextYearly(cfg *YearlyConfig, from time.Time) time.Time {
	months := sortedMonths(cfg.Months)

	// Current cycle year first: earliest configured month still ahead.
	for _, m := range months {
		candidate := cfg.Day.resolve(from.Year(), m, from.Location())
		if candidate.After(from) {
			return candidate
		}
	}
	// All configured months this year have passed; wrap to the next cycle.
	return cfg.Day.resolve(from.Year()+cfg.Frequency, months[0], from.Location())
}

func nextQuarterly(cfg *QuarterlyConfig, from time.Time) time.Time {
	quarterStart := time.Month((int(from.Month())-1)/3*3 + 1)
	targetMonth := time.Month(int(quarterStart) + cfg.MonthOfQuarter - 1)

	candidate := cfg.Day.resolve(from.Year(), targetMonth, from.Location())
	if candidate.After(from) {
		return candidate
	}
	y, m := addMonths(from.Year(), targetMonth, 3*cfg.Frequency)
	return cfg.Day.resolve(y, m, from.Location())
}

func nextCustom(cfg *CustomConfig, from time.Time) (time.Time, error) {
	if len(cfg.DaysOfWeek) == 0 && len(cfg.DaysOfMonth) == 0 && len(cfg.MonthsOfYear) == 0 {
		switch cfg.Unit {
		case UnitDays:
			return from.AddDate(0, 0, cfg.Frequency), nil
		case UnitWeeks:
			return from.AddDate(0, 0, 7*cfg.Frequency), nil
		case UnitMonths:
			y, m := addMonths(from.Year(), from.Month(), cfg.Frequency)
			return clampedDate(y, m, from.Day(), from.Location()), nil
		case UnitYears:
			return clampedDate(from.Year()+cfg.Frequency, from.Month(), from.Day(), from.Location()), nil
		}
	}

	// Refined pattern: scan forward a day at a time for the nearest date
	// matching every configured refinement set. The horizon cap guarantees
	// termination on an unsatisfiable combination (e.g. day 31 in February
	// only).
	for i := 1; i <= customScanHorizonDays; i++ {
		d := from.AddDate(0, 0, i)
		if cfg.qualifies(d) {
			return d, nil
		}
	}
	return time.Time{}, ErrScanExhausted
}

func (c *CustomConfig) qualifies(d time.Time) bool {
	if len(c.MonthsOfYear) > 0 && !containsMonth(c.MonthsOfYear, d.Month()) {
		return false
	}
	if len(c.DaysOfMonth) > 0 && !containsInt(c.DaysOfMonth, d.Day()) {
		return false
	}
	if len(c.DaysOfWeek) > 0 && !containsWeekday(c.DaysOfWeek, d.Weekday()) {
		return false
	}
	return true
}

// resolve maps the selector onto a concrete year/month. Day-of-month values
// beyond the month's length clamp to its last day rather than rolling over;
// week 5 means the last matching weekday, found by scanning backward from
// month end. Both are re-derived per call since month lengths vary.
func (d DaySelector) resolve(year int, month time.Month, loc *time.Location) time.Time {
	last := daysInMonth(year, month)

	switch {
	case d.EndOfMonth:
		return time.Date(year, month, last, 0, 0, 0, 0, loc)
	case d.DayOfMonth != 0:
		day := d.DayOfMonth
		if day > last {
			day = last
		}
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	default:
		if d.WeekOfMonth == 5 {
			for day := last; day >= 1; day-- {
				c := time.Date(year, month, day, 0, 0, 0, 0, loc)
				if c.Weekday() == d.DayOfWeek {
					return c
				}
			}
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		offset := (int(d.DayOfWeek) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (d.WeekOfMonth-1)*7
		if day > last {
			// A 5th week that doesn't exist falls back to the last match.
			day -= 7
		}
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	}
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	total := year*12 + int(month) - 1 + n
	return total / 12, time.Month(total%12 + 1)
}

func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sortedMonths(months []time.Month) []time.Month {
	out := make([]time.Month, len(months))
	copy(out, months)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func containsMonth(ms []time.Month, m time.Month) bool {
	for _, v := range ms {
		if v == m {
			return true
		}
	}
	return false
}

func containsInt(ns []int, n int) bool {
	for _, v := range ns {
		if v == n {
			return true
		}
	}
	return false
}

func containsWeekday(ws []time.Weekday, w time.Weekday) bool {
	for _, v := range ws {
		if v == w {
			return true
		}
	}
	return false
}
