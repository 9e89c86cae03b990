package members

import (
	"context"

	id "siscof/pkg/domain"
)

// Store persists the member roster. List methods page with limit/offset
// and order by full name so pages are stable.
type Store interface {
	Create(ctx context.Context, member *Member) error

	// ListByUnits returns members belonging to any of the given units.
	ListByUnits(ctx context.Context, unitIDs []id.UnitID, limit, offset int) ([]Member, error)

	// ListAll returns members across every unit. Reserved for callers with
	// global visibility.
	ListAll(ctx context.Context, limit, offset int) ([]Member, error)
}
