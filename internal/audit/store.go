package audit

import "context"

// Store persists audit entries. Append must participate in any transaction
// carried by ctx so the triggering write and its audit entry are atomic.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
