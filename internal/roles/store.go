package roles

import (
	"context"

	id "siscof/pkg/domain"
)

// Store persists role assignments. Writes must participate in any
// transaction carried by ctx.
type Store interface {
	// CreateIfAbsent inserts the assignment unless the (user, unit, role)
	// tuple already exists. Returns true when a row was actually created.
	// Concurrent duplicate grants race at the store's uniqueness
	// constraint; the loser reports created=false, never an error.
	CreateIfAbsent(ctx context.Context, assignment *Assignment) (bool, error)

	// Delete removes the tuple if present. Returns true when a row was
	// actually removed.
	Delete(ctx context.Context, userID id.UserID, unitID id.UnitID, role RoleName) (bool, error)

	// ListByUser returns every assignment the user holds. Order is not
	// guaranteed; callers treat the result as a set.
	ListByUser(ctx context.Context, userID id.UserID) ([]Assignment, error)

	// ListByUnit returns every assignment at a unit.
	ListByUnit(ctx context.Context, unitID id.UnitID) ([]Assignment, error)
}
