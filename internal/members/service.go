package members

import (
	"context"
	"log/slog"

	"siscof/internal/access"
	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Visibility computes the set of units a viewer may see.
type Visibility interface {
	AccessibleUnitIDs(ctx context.Context, userID id.UserID) (*access.UnitSet, error)
}

// Service reads the roster through the viewer's visibility set.
type Service struct {
	store  Store
	access Visibility
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, visibility Visibility, opts ...Option) *Service {
	s := &Service{
		store:  store,
		access: visibility,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListVisible returns the page of members in units the viewer may see. A
// viewer with no visibility gets an empty page, not an error; absence of
// access is an ordinary answer here.
func (s *Service) ListVisible(ctx context.Context, viewer id.UserID, limit, offset int) ([]Member, error) {
	if viewer.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	visible, err := s.access.AccessibleUnitIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}

	switch {
	case visible.All():
		members, err := s.store.ListAll(ctx, limit, offset)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
		}
		return members, nil
	case visible.Empty():
		return []Member{}, nil
	default:
		members, err := s.store.ListByUnits(ctx, visible.IDs(), limit, offset)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
		}
		return members, nil
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
