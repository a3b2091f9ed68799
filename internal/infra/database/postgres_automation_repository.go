package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"obligation_engine/internal/domain/automation"

	"github.com/google/uuid"
)

var ErrSettingsNotFound = fmt.Errorf("automation settings not found for firm")

type PostgresAutomationRepository struct {
	db *sql.DB
}

func NewPostgresAutomationRepository(db *sql.DB) *PostgresAutomationRepository {
	return &PostgresAutomationRepository{db: db}
}

func (r *PostgresAutomationRepository) Upsert(ctx context.Context, s *automation.Settings) error {
	// last_run_date is deliberately left alone on conflict: toggling
	// automation off and on the same day must not re-arm today's run.
	query := `INSERT INTO automation_settings (firm_id, enabled, auto_run_time)
               VALUES ($1, $2, $3)
               ON CONFLICT (firm_id) DO UPDATE
               SET enabled = EXCLUDED.enabled, auto_run_time = EXCLUDED.auto_run_time, updated_at = NOW()
               RETURNING last_run_date, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, s.FirmID, s.Enabled, s.AutoRunTime).
		Scan(&s.LastRunDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting automation settings: %w", err)
	}
	return nil
}

func (r *PostgresAutomationRepository) GetByFirm(ctx context.Context, firmID uuid.UUID) (*automation.Settings, error) {
	query := `SELECT firm_id, enabled, auto_run_time, last_run_date, created_at, updated_at
               FROM automation_settings WHERE firm_id = $1`
	s := &automation.Settings{}
	err := r.db.QueryRowContext(ctx, query, firmID).Scan(
		&s.FirmID, &s.Enabled, &s.AutoRunTime, &s.LastRunDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting automation settings: %w", err)
	}
	return s, nil
}

func (r *PostgresAutomationRepository) ListEnabled(ctx context.Context) ([]*automation.Settings, error) {
	query := `SELECT firm_id, enabled, auto_run_time, last_run_date, created_at, updated_at
               FROM automation_settings WHERE enabled = TRUE ORDER BY firm_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing enabled automation settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*automation.Settings, 0)
	for rows.Next() {
		s := &automation.Settings{}
		if err := rows.Scan(&s.FirmID, &s.Enabled, &s.AutoRunTime, &s.LastRunDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning automation settings: %w", err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automation settings: %w", err)
	}
	return settings, nil
}

func (r *PostgresAutomationRepository) MarkRunCompleted(ctx context.Context, firmID uuid.UUID, day time.Time) error {
	dayOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `UPDATE automation_settings
               SET last_run_date = $1, updated_at = NOW()
               WHERE firm_id = $2`
	res, err := r.db.ExecContext(ctx, query, dayOnly, firmID)
	if err != nil {
		return fmt.Errorf("error marking run completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSettingsNotFound
	}
	return nil
}
