package auth

import (
	"context"

	"github.com/google/uuid"
)

// StaticAuthorizer gates pattern and automation management to a configured
// allowlist of user IDs. The engine itself is role-agnostic; a full
// role-per-firm model lives with the wider application, and this adapter is
// its stand-in at the engine boundary.
type StaticAuthorizer struct {
	adminIDs map[int64]struct{}
}

func NewStaticAuthorizer(adminUserIDs []int64) *StaticAuthorizer {
	ids := make(map[int64]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		ids[id] = struct{}{}
	}
	return &StaticAuthorizer{adminIDs: ids}
}

func (a *StaticAuthorizer) CanManageAutomation(_ context.Context, userID int64, _ uuid.UUID) (bool, error) {
	_, ok := a.adminIDs[userID]
	return ok, nil
}
