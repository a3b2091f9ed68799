package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"obligation_engine/internal/domain/obligation"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrInstanceNotFound = fmt.Errorf("obligation instance not found")

// ErrDuplicateInstance is returned when the (template_id, due day) uniqueness
// constraint rejects an auto-generated instance. It is the store-level half of
// the idempotency gate: concurrent generation runs from separate processes
// cannot both insert for the same day.
var ErrDuplicateInstance = fmt.Errorf("auto-generated instance already exists for this template and day")

type PostgresInstanceRepository struct {
	db *sql.DB
}

func NewPostgresInstanceRepository(db *sql.DB) *PostgresInstanceRepository {
	return &PostgresInstanceRepository{db: db}
}

func (r *PostgresInstanceRepository) Create(ctx context.Context, inst *obligation.Instance) error {
	query := `INSERT INTO obligation_instances
               (firm_id, template_id, client_id, title, category, assigned_to, due_date, auto_generated)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		inst.FirmID, inst.TemplateID, inst.ClientID, inst.Title, inst.Category,
		pq.Array(inst.AssignedTo), inst.DueDate, inst.AutoGenerated,
	).Scan(&inst.ID, &inst.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "obligation_instances_template_due_day_unique") {
			return ErrDuplicateInstance
		}
		return fmt.Errorf("error creating obligation instance: %w", err)
	}
	return nil
}

func (r *PostgresInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*obligation.Instance, error) {
	query := `SELECT id, firm_id, template_id, client_id, title, category, assigned_to, due_date, auto_generated, created_at
               FROM obligation_instances WHERE id = $1`
	inst := &obligation.Instance{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inst.ID, &inst.FirmID, &inst.TemplateID, &inst.ClientID, &inst.Title, &inst.Category,
		pq.Array(&inst.AssignedTo), &inst.DueDate, &inst.AutoGenerated, &inst.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting obligation instance by ID: %w", err)
	}
	return inst, nil
}

// ExistsOnDay matches at day granularity, not exact timestamp, so re-running
// generation the same day finds the instance created by the first run.
func (r *PostgresInstanceRepository) ExistsOnDay(ctx context.Context, templateID uuid.UUID, dueDate time.Time) (bool, error) {
	day := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, dueDate.Location())

	query, args, err := psql.Select("1").
		From("obligation_instances").
		Where(sq.Eq{"template_id": templateID}).
		Where(sq.Expr("due_date::date = ?::date", day)).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building instance existence query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking instance existence: %w", err)
	}
	return true, nil
}

func (r *PostgresInstanceRepository) CountAutoGenerated(ctx context.Context, templateID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM obligation_instances
               WHERE template_id = $1 AND auto_generated = TRUE`
	var count int
	if err := r.db.QueryRowContext(ctx, query, templateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting auto-generated instances: %w", err)
	}
	return count, nil
}
