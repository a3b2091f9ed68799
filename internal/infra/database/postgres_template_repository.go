package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"obligation_engine/internal/domain/obligation"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrTemplateNotFound = fmt.Errorf("obligation template not found")

// psql builds queries with $N placeholders for lib/pq.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var templateColumns = []string{
	"id", "firm_id", "title", "category", "client_id", "assigned_to",
	"pattern_id", "last_generated_at", "is_active", "created_at", "updated_at",
}

type PostgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

func (r *PostgresTemplateRepository) Create(ctx context.Context, t *obligation.Template) error {
	query := `INSERT INTO obligation_templates
               (firm_id, title, category, client_id, assigned_to, pattern_id, is_active)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.FirmID, t.Title, t.Category, t.ClientID, pq.Array(t.AssignedTo), t.PatternID, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating template: %w", err)
	}
	return nil
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*obligation.Template, error) {
	query, args, err := psql.Select(templateColumns...).
		From("obligation_templates").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building template query: %w", err)
	}

	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error getting template by ID: %w", err)
	}
	return t, nil
}

func (r *PostgresTemplateRepository) Update(ctx context.Context, t *obligation.Template) error {
	query := `UPDATE obligation_templates
               SET title = $1, category = $2, client_id = $3, assigned_to = $4,
                   pattern_id = $5, is_active = $6, updated_at = NOW()
               WHERE id = $7
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Category, t.ClientID, pq.Array(t.AssignedTo), t.PatternID, t.IsActive, t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("error updating template: %w", err)
	}
	return nil
}

func (r *PostgresTemplateRepository) ListActiveByPatternIDs(ctx context.Context, firmID uuid.UUID, patternIDs []uuid.UUID) ([]*obligation.Template, error) {
	if len(patternIDs) == 0 {
		return []*obligation.Template{}, nil
	}

	query, args, err := psql.Select(templateColumns...).
		From("obligation_templates").
		Where(sq.Eq{"firm_id": firmID, "is_active": true, "pattern_id": patternIDs}).
		OrderBy("title").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building template list query: %w", err)
	}
	return r.list(ctx, query, args...)
}

func (r *PostgresTemplateRepository) UpdateLastGenerated(ctx context.Context, templateID uuid.UUID, generatedAt time.Time) error {
	query := `UPDATE obligation_templates
               SET last_generated_at = $1, updated_at = NOW()
               WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, generatedAt, templateID)
	if err != nil {
		return fmt.Errorf("error updating last generated marker: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *PostgresTemplateRepository) list(ctx context.Context, query string, args ...interface{}) ([]*obligation.Template, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*obligation.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning template: %w", err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

func scanTemplate(s rowScanner) (*obligation.Template, error) {
	t := &obligation.Template{}
	err := s.Scan(
		&t.ID, &t.FirmID, &t.Title, &t.Category, &t.ClientID, pq.Array(&t.AssignedTo),
		&t.PatternID, &t.LastGeneratedAt, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
