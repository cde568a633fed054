// README: Postgres store for corporate accounts and ledger entries.
package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifti/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) GetAccount(ctx context.Context, id types.ID) (*Account, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, credit_limit, low_balance_ratio, currency, created_at
		FROM corporate_accounts
		WHERE id = $1
	`, string(id))

	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.CreditLimit, &a.LowBalanceRatio, &a.Currency, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) ListEntries(ctx context.Context, accountID types.ID) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, entry_type, amount, booking_id, note, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at
	`, string(accountID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var bookingID sql.NullString
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Type, &e.Amount, &bookingID, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := types.ID(bookingID.String)
			e.BookingID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PGStore) AppendEntry(ctx context.Context, e *Entry) error {
	var bookingID *string
	if e.BookingID != nil {
		v := string(*e.BookingID)
		bookingID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount, booking_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, string(e.ID), string(e.AccountID), string(e.Type), e.Amount, bookingID, e.Note, e.CreatedAt)
	return err
}

// AppendDebit inserts a debit entry inside a transaction that holds a row
// lock on the account, so the credit check and the insert are atomic with
// respect to other debits against the same account.
func (s *PGStore) AppendDebit(ctx context.Context, e *Entry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var creditLimit int64
	err = tx.QueryRow(ctx, `
		SELECT credit_limit
		FROM corporate_accounts
		WHERE id = $1
		FOR UPDATE
	`, string(e.AccountID)).Scan(&creditLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	var spent int64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN entry_type = 'debit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, string(e.AccountID)).Scan(&spent)
	if err != nil {
		return err
	}
	if e.Amount > creditLimit-spent {
		return ErrInsufficientCredit
	}

	var bookingID *string
	if e.BookingID != nil {
		v := string(*e.BookingID)
		bookingID = &v
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount, booking_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, string(e.ID), string(e.AccountID), string(e.Type), e.Amount, bookingID, e.Note, e.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
