package obligation

import (
	"time"

	"github.com/google/uuid"
)

// Instance is a concrete obligation due on a specific day. The engine only
// owns the fields it populates; assignment workflow, billing and comments
// live with the wider task storage.
type Instance struct {
	ID            uuid.UUID
	FirmID        uuid.UUID
	TemplateID    uuid.UUID
	ClientID      uuid.NullUUID
	Title         string
	Category      string
	AssignedTo    []int64
	DueDate       time.Time
	AutoGenerated bool
	CreatedAt     time.Time
}
