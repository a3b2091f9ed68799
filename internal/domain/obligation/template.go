package obligation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Template is a reusable definition of a work item: what to create. Its
// optional PatternID back-reference says when; a pattern may be shared by
// multiple templates. A template without a pattern is a one-off and is never
// touched by the generation service.
type Template struct {
	ID              uuid.UUID
	FirmID          uuid.UUID
	Title           string
	Category        string
	ClientID        uuid.NullUUID
	AssignedTo      []int64 // user IDs; empty means unassigned
	PatternID       uuid.NullUUID
	LastGeneratedAt sql.NullTime
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
