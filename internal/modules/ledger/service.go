// README: Ledger service guards debits against available credit and records entries.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"

	"lifti/internal/types"
)

// Store is the persistence surface. The production implementation is the
// pgx-backed PGStore in this package.
type Store interface {
	GetAccount(ctx context.Context, id types.ID) (*Account, error)
	ListEntries(ctx context.Context, accountID types.ID) ([]Entry, error)
	AppendEntry(ctx context.Context, e *Entry) error
	// AppendDebit checks available credit and appends atomically, so two
	// concurrent debits cannot both pass the limit check.
	AppendDebit(ctx context.Context, e *Entry) error
}

type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// RecordDebit charges a booking against the account. The debit is rejected
// when it would push the account past its credit limit.
func (s *Service) RecordDebit(ctx context.Context, accountID types.ID, amount types.Money, bookingID types.ID) error {
	if amount.Amount <= 0 {
		return ErrBadRequest
	}
	entry := &Entry{
		ID:        newID(),
		AccountID: accountID,
		Type:      EntryDebit,
		Amount:    amount.Amount,
		BookingID: &bookingID,
		CreatedAt: time.Now(),
	}
	if err := s.store.AppendDebit(ctx, entry); err != nil {
		return err
	}
	// Re-read for the low-balance warning that Balance emits.
	if s.log != nil {
		_, _ = s.Balance(ctx, accountID)
	}
	return nil
}

// RecordCredit registers a top-up or refund.
func (s *Service) RecordCredit(ctx context.Context, accountID types.ID, amount types.Money, note string) error {
	if amount.Amount <= 0 {
		return ErrBadRequest
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}
	return s.store.AppendEntry(ctx, &Entry{
		ID:        newID(),
		AccountID: accountID,
		Type:      EntryCredit,
		Amount:    amount.Amount,
		Note:      note,
		CreatedAt: time.Now(),
	})
}

// Balance loads the account and its entries and summarizes them.
func (s *Service) Balance(ctx context.Context, accountID types.ID) (Summary, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}
	entries, err := s.store.ListEntries(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}
	summary := Summarize(*account, entries)
	if summary.LowBalance && s.log != nil {
		s.log.WithFields(logrus.Fields{
			"account_id": accountID,
			"available":  summary.Available,
			"limit":      summary.CreditLimit,
		}).Warn("corporate account balance low")
	}
	return summary, nil
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
