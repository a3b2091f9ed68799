package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Custom application-level errors shared by the admin-facing services.
var ErrNotAuthorized = fmt.Errorf("performing user is not authorized to manage automation")

// Authorizer gates pattern management and automation toggling. The wider
// application supplies the real role model; the engine only asks this one
// question at its boundary.
type Authorizer interface {
	CanManageAutomation(ctx context.Context, userID int64, firmID uuid.UUID) (bool, error)
}
