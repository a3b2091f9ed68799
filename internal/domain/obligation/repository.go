package obligation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TemplateRepository defines persistence operations for obligation templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	// ListActiveByPatternIDs returns active templates of the firm bound to
	// any of the given patterns. An empty pattern set yields no templates.
	ListActiveByPatternIDs(ctx context.Context, firmID uuid.UUID, patternIDs []uuid.UUID) ([]*Template, error)
	UpdateLastGenerated(ctx context.Context, templateID uuid.UUID, generatedAt time.Time) error
}

// InstanceRepository is the engine-facing slice of the obligation instance
// store. ExistsOnDay and the unique (template, day) constraint behind Create
// together form the generation idempotency gate.
type InstanceRepository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Instance, error)
	// ExistsOnDay reports whether an instance for the template already falls
	// on the same calendar day as dueDate, regardless of time of day.
	ExistsOnDay(ctx context.Context, templateID uuid.UUID, dueDate time.Time) (bool, error)
	// CountAutoGenerated returns how many auto-generated instances exist for
	// the template; used to enforce after-occurrences end conditions.
	CountAutoGenerated(ctx context.Context, templateID uuid.UUID) (int, error)
}
