package recurrence

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving Pattern
// entities. All reads are firm-scoped.
type Repository interface {
	Create(ctx context.Context, p *Pattern) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pattern, error)
	Update(ctx context.Context, p *Pattern) error // configuration, name, IsActive
	ListActive(ctx context.Context, firmID uuid.UUID) ([]*Pattern, error)
	ListAll(ctx context.Context, firmID uuid.UUID) ([]*Pattern, error)
	ExistsByName(ctx context.Context, firmID uuid.UUID, name string) (bool, error)
}
