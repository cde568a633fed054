// README: Quota service guards concierge usage per user per month.
package quota

import (
	"context"

	"lifti/internal/types"
)

// Store handles concierge_quota persistence. The production implementation
// is the pgx-backed PGStore in this package.
type Store interface {
	Consume(ctx context.Context, userID types.ID) error
	EnsureUser(ctx context.Context, userID types.ID) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Consume deducts one concierge request from the user's monthly allowance.
// A user absent from the table is initialised and charged immediately.
// Returns ErrQuotaExhausted when the allowance for the current month is used up.
func (s *Service) Consume(ctx context.Context, userID types.ID) error {
	err := s.store.Consume(ctx, userID)
	if err != ErrQuotaExhausted {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, userID); initErr != nil {
		return initErr
	}
	return s.store.Consume(ctx, userID)
}
