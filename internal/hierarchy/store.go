package hierarchy

import (
	"context"

	id "siscof/pkg/domain"
)

// Store is the durable home of organizational units. Implementations must
// return sentinel.ErrNotFound for missing units so services can translate.
type Store interface {
	Create(ctx context.Context, unit *Unit) error
	FindByID(ctx context.Context, unitID id.UnitID) (*Unit, error)
	Update(ctx context.Context, unit *Unit) error

	// Ancestors returns units from immediate parent to root, in order.
	Ancestors(ctx context.Context, unitID id.UnitID) ([]*Unit, error)

	// DescendantIDs returns the subtree rooted at unitID, including unitID.
	DescendantIDs(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error)

	// UnitIDsInRegions returns ids of all units whose region code is in the
	// given set. Used for regional (non-hierarchical) authority.
	UnitIDsInRegions(ctx context.Context, regionCodes []string) ([]id.UnitID, error)

	// HasChildren reports whether any active unit points at unitID as
	// parent. Inactive children do not block a parent's deactivation.
	HasChildren(ctx context.Context, unitID id.UnitID) (bool, error)
}
