package audit

import (
	"context"

	"github.com/google/uuid"

	"siscof/pkg/requestcontext"
)

// Publisher is the single entry point services use to record audit events.
// It fills in entry identity and timestamp, then appends through the store.
// Append errors propagate: an unaudited grant is an inconsistent state the
// callers must not commit.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	return p.store.Append(ctx, entry)
}

// List returns entries matching the filter, newest first.
func (p *Publisher) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return p.store.List(ctx, filter)
}

// ListRecent returns the newest entries across all units, capped at limit.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return p.store.ListRecent(ctx, limit)
}
