package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for per-firm automation settings.
type Repository interface {
	// Upsert creates or replaces the firm's settings row, preserving the
	// last-run marker on update.
	Upsert(ctx context.Context, s *Settings) error
	GetByFirm(ctx context.Context, firmID uuid.UUID) (*Settings, error)
	ListEnabled(ctx context.Context) ([]*Settings, error)
	// MarkRunCompleted persists the daily-run marker after a generation run
	// finishes for the firm.
	MarkRunCompleted(ctx context.Context, firmID uuid.UUID, day time.Time) error
}
