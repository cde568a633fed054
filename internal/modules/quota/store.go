// README: Postgres store for concierge quota with lazy monthly reset.
package quota

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lifti/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Consume atomically checks the monthly allowance and deducts one request.
// It resets the counter to MonthlyAllowance when last_reset_month is behind
// the current month. Returns ErrQuotaExhausted when 0 rows are updated
// (allowance exhausted or user absent).
func (s *PGStore) Consume(ctx context.Context, userID types.ID) error {
	now := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE concierge_quota SET
			requests_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE requests_remaining - 1 END,
			last_reset_month = $1
		WHERE user_id = $3 AND (last_reset_month < $1 OR requests_remaining > 0)
	`, now, MonthlyAllowance, string(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureUser inserts a quota row for userID with the default allowance.
// An existing row is silently kept (ON CONFLICT DO NOTHING).
func (s *PGStore) EnsureUser(ctx context.Context, userID types.ID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO concierge_quota (user_id, requests_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, string(userID), MonthlyAllowance, time.Now().Format("2006-01"))
	return err
}
