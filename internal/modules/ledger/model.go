// README: Corporate credit ledger: accounts, entries, and the balance summary.
package ledger

import (
	"errors"
	"time"

	"lifti/internal/types"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientCredit = errors.New("insufficient credit")
)

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// Account is a corporate account with a fixed credit limit. LowBalanceRatio
// is the fraction of the limit below which the account is flagged, e.g. 0.2.
type Account struct {
	ID              types.ID
	Name            string
	CreditLimit     int64 // cents
	LowBalanceRatio float64
	Currency        string
	CreatedAt       time.Time
}

// Entry is one append-only ledger line. Debits are booking charges,
// credits are top-ups and refunds.
type Entry struct {
	ID        types.ID
	AccountID types.ID
	Type      EntryType
	Amount    int64 // cents, always positive
	BookingID *types.ID
	Note      string
	CreatedAt time.Time
}

// Summary is the computed balance state of an account.
type Summary struct {
	AccountID   types.ID
	CreditLimit int64
	Spent       int64
	Available   int64
	LowBalance  bool
}

// Summarize is the single authoritative balance calculation. Spent is the
// signed sum of debits minus credits and may go negative when an account
// was topped up beyond its charges; Available then exceeds the limit.
func Summarize(account Account, entries []Entry) Summary {
	var spent int64
	for _, e := range entries {
		switch e.Type {
		case EntryDebit:
			spent += e.Amount
		case EntryCredit:
			spent -= e.Amount
		}
	}
	available := account.CreditLimit - spent
	threshold := int64(float64(account.CreditLimit) * account.LowBalanceRatio)
	return Summary{
		AccountID:   account.ID,
		CreditLimit: account.CreditLimit,
		Spent:       spent,
		Available:   available,
		LowBalance:  available < threshold,
	}
}
