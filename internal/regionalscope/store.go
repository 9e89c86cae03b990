// Package regionalscope stores the set of region codes each user is scoped
// to. The scope only matters for users holding a regional role; for
// everyone else it is dormant data.
package regionalscope

import (
	"context"

	id "siscof/pkg/domain"
)

// Store persists regional scopes. Replace has full-replace semantics: the
// new set supersedes the old one atomically, and an empty set clears the
// scope entirely. Get returns an empty slice, never an error, for users
// with no scope.
type Store interface {
	Get(ctx context.Context, userID id.UserID) ([]string, error)
	Replace(ctx context.Context, userID id.UserID, regionCodes []string) error
}
