package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"obligation_engine/internal/domain/recurrence"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Custom errors
var ErrPatternNotFound = fmt.Errorf("recurrence pattern not found")
var ErrDuplicatePatternName = fmt.Errorf("pattern with this name already exists for the firm")

type PostgresPatternRepository struct {
	db *sql.DB
}

func NewPostgresPatternRepository(db *sql.DB) *PostgresPatternRepository {
	return &PostgresPatternRepository{db: db}
}

const patternColumns = `id, firm_id, name, pattern_type, frequency,
	day_of_month, week_of_month, day_of_week, end_of_month,
	months, month_of_quarter, custom_unit, days_of_week, days_of_month, months_of_year,
	end_type, end_after_occurrences, end_by_date, is_active, created_at, updated_at`

func (r *PostgresPatternRepository) Create(ctx context.Context, p *recurrence.Pattern) error {
	row := flattenPattern(p)
	query := `INSERT INTO recurrence_patterns
               (firm_id, name, pattern_type, frequency,
                day_of_month, week_of_month, day_of_week, end_of_month,
                months, month_of_quarter, custom_unit, days_of_week, days_of_month, months_of_year,
                end_type, end_after_occurrences, end_by_date, is_active)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.FirmID, p.Name, p.Type, row.frequency,
		row.dayOfMonth, row.weekOfMonth, row.dayOfWeek, row.endOfMonth,
		pq.Array(row.months), row.monthOfQuarter, row.customUnit,
		pq.Array(row.daysOfWeek), pq.Array(row.daysOfMonth), pq.Array(row.monthsOfYear),
		p.End.Type, row.endAfterOccurrences, row.endByDate, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "recurrence_patterns_firm_name_unique") {
			return ErrDuplicatePatternName
		}
		return fmt.Errorf("error creating pattern: %w", err)
	}
	return nil
}

func (r *PostgresPatternRepository) GetByID(ctx context.Context, id uuid.UUID) (*recurrence.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurrence_patterns WHERE id = $1`
	p, err := scanPattern(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPatternNotFound
		}
		return nil, fmt.Errorf("error getting pattern by ID: %w", err)
	}
	return p, nil
}

func (r *PostgresPatternRepository) Update(ctx context.Context, p *recurrence.Pattern) error {
	row := flattenPattern(p)
	query := `UPDATE recurrence_patterns
               SET name = $1, pattern_type = $2, frequency = $3,
                   day_of_month = $4, week_of_month = $5, day_of_week = $6, end_of_month = $7,
                   months = $8, month_of_quarter = $9, custom_unit = $10,
                   days_of_week = $11, days_of_month = $12, months_of_year = $13,
                   end_type = $14, end_after_occurrences = $15, end_by_date = $16,
                   is_active = $17, updated_at = NOW()
               WHERE id = $18
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Type, row.frequency,
		row.dayOfMonth, row.weekOfMonth, row.dayOfWeek, row.endOfMonth,
		pq.Array(row.months), row.monthOfQuarter, row.customUnit,
		pq.Array(row.daysOfWeek), pq.Array(row.daysOfMonth), pq.Array(row.monthsOfYear),
		p.End.Type, row.endAfterOccurrences, row.endByDate, p.IsActive, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPatternNotFound
		}
		if strings.Contains(err.Error(), "recurrence_patterns_firm_name_unique") {
			return ErrDuplicatePatternName
		}
		return fmt.Errorf("error updating pattern: %w", err)
	}
	return nil
}

func (r *PostgresPatternRepository) ListActive(ctx context.Context, firmID uuid.UUID) ([]*recurrence.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurrence_patterns
               WHERE firm_id = $1 AND is_active = TRUE ORDER BY name`
	return r.list(ctx, query, firmID)
}

func (r *PostgresPatternRepository) ListAll(ctx context.Context, firmID uuid.UUID) ([]*recurrence.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurrence_patterns
               WHERE firm_id = $1 ORDER BY name`
	return r.list(ctx, query, firmID)
}

func (r *PostgresPatternRepository) ExistsByName(ctx context.Context, firmID uuid.UUID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM recurrence_patterns WHERE firm_id = $1 AND name = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, firmID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking pattern name existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresPatternRepository) list(ctx context.Context, query string, args ...interface{}) ([]*recurrence.Pattern, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing patterns: %w", err)
	}
	defer rows.Close()

	patterns := make([]*recurrence.Pattern, 0)
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}
	return patterns, nil
}

// patternRow is the flat persistence shape of a pattern: all four
// configuration blocks share one set of nullable columns, discriminated by
// pattern_type. flattenPattern and scanPattern convert to and from the
// in-memory tagged union.
type patternRow struct {
	frequency           int
	dayOfMonth          sql.NullInt32
	weekOfMonth         sql.NullInt32
	dayOfWeek           sql.NullInt32
	endOfMonth          bool
	months              []int64
	monthOfQuarter      sql.NullInt32
	customUnit          sql.NullString
	daysOfWeek          []int64
	daysOfMonth         []int64
	monthsOfYear        []int64
	endAfterOccurrences sql.NullInt32
	endByDate           sql.NullTime
}

func flattenPattern(p *recurrence.Pattern) patternRow {
	var row patternRow

	flattenDay := func(d recurrence.DaySelector) {
		if d.DayOfMonth != 0 {
			row.dayOfMonth = sql.NullInt32{Int32: int32(d.DayOfMonth), Valid: true}
		}
		if d.WeekOfMonth != 0 {
			row.weekOfMonth = sql.NullInt32{Int32: int32(d.WeekOfMonth), Valid: true}
			row.dayOfWeek = sql.NullInt32{Int32: int32(d.DayOfWeek), Valid: true}
		}
		row.endOfMonth = d.EndOfMonth
	}

	switch p.Type {
	case recurrence.TypeMonthly:
		row.frequency = p.Monthly.Frequency
		flattenDay(p.Monthly.Day)
	case recurrence.TypeYearly:
		row.frequency = p.Yearly.Frequency
		row.months = monthsToInts(p.Yearly.Months)
		flattenDay(p.Yearly.Day)
	case recurrence.TypeQuarterly:
		row.frequency = p.Quarterly.Frequency
		row.monthOfQuarter = sql.NullInt32{Int32: int32(p.Quarterly.MonthOfQuarter), Valid: true}
		flattenDay(p.Quarterly.Day)
	case recurrence.TypeCustom:
		row.frequency = p.Custom.Frequency
		row.customUnit = sql.NullString{String: string(p.Custom.Unit), Valid: true}
		row.daysOfWeek = weekdaysToInts(p.Custom.DaysOfWeek)
		row.daysOfMonth = intsTo64(p.Custom.DaysOfMonth)
		row.monthsOfYear = monthsToInts(p.Custom.MonthsOfYear)
	}

	if p.End.Type == recurrence.EndAfterOccurrences {
		row.endAfterOccurrences = sql.NullInt32{Int32: int32(p.End.Occurrences), Valid: true}
	}
	if p.End.Type == recurrence.EndByDate {
		row.endByDate = sql.NullTime{Time: p.End.Until, Valid: true}
	}
	return row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(s rowScanner) (*recurrence.Pattern, error) {
	p := &recurrence.Pattern{}
	var row patternRow

	err := s.Scan(
		&p.ID, &p.FirmID, &p.Name, &p.Type, &row.frequency,
		&row.dayOfMonth, &row.weekOfMonth, &row.dayOfWeek, &row.endOfMonth,
		pq.Array(&row.months), &row.monthOfQuarter, &row.customUnit,
		pq.Array(&row.daysOfWeek), pq.Array(&row.daysOfMonth), pq.Array(&row.monthsOfYear),
		&p.End.Type, &row.endAfterOccurrences, &row.endByDate,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	day := recurrence.DaySelector{
		DayOfMonth:  int(row.dayOfMonth.Int32),
		WeekOfMonth: int(row.weekOfMonth.Int32),
		DayOfWeek:   time.Weekday(row.dayOfWeek.Int32),
		EndOfMonth:  row.endOfMonth,
	}

	switch p.Type {
	case recurrence.TypeMonthly:
		p.Monthly = &recurrence.MonthlyConfig{Frequency: row.frequency, Day: day}
	case recurrence.TypeYearly:
		p.Yearly = &recurrence.YearlyConfig{
			Frequency: row.frequency,
			Months:    intsToMonths(row.months),
			Day:       day,
		}
	case recurrence.TypeQuarterly:
		p.Quarterly = &recurrence.QuarterlyConfig{
			Frequency:      row.frequency,
			MonthOfQuarter: int(row.monthOfQuarter.Int32),
			Day:            day,
		}
	case recurrence.TypeCustom:
		p.Custom = &recurrence.CustomConfig{
			Frequency:    row.frequency,
			Unit:         recurrence.Unit(row.customUnit.String),
			DaysOfWeek:   intsToWeekdays(row.daysOfWeek),
			DaysOfMonth:  ints64To(row.daysOfMonth),
			MonthsOfYear: intsToMonths(row.monthsOfYear),
		}
	default:
		return nil, fmt.Errorf("unknown pattern type %q in row %s", p.Type, p.ID)
	}

	if row.endAfterOccurrences.Valid {
		p.End.Occurrences = int(row.endAfterOccurrences.Int32)
	}
	if row.endByDate.Valid {
		p.End.Until = row.endByDate.Time
	}
	return p, nil
}

func monthsToInts(ms []time.Month) []int64 {
	out := make([]int64, 0, len(ms))
	for _, m := range ms {
		out = append(out, int64(m))
	}
	return out
}

func intsToMonths(ns []int64) []time.Month {
	if len(ns) == 0 {
		return nil
	}
	out := make([]time.Month, 0, len(ns))
	for _, n := range ns {
		out = append(out, time.Month(n))
	}
	return out
}

func weekdaysToInts(ws []time.Weekday) []int64 {
	out := make([]int64, 0, len(ws))
	for _, w := range ws {
		out = append(out, int64(w))
	}
	return out
}

func intsToWeekdays(ns []int64) []time.Weekday {
	if len(ns) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(ns))
	for _, n := range ns {
		out = append(out, time.Weekday(n))
	}
	return out
}

func intsTo64(ns []int) []int64 {
	out := make([]int64, 0, len(ns))
	for _, n := range ns {
		out = append(out, int64(n))
	}
	return out
}

func ints64To(ns []int64) []int {
	if len(ns) == 0 {
		return nil
	}
	out := make([]int, 0, len(ns))
	for _, n := range ns {
		out = append(out, int(n))
	}
	return out
}
