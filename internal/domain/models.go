package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction status values as reported by the remote ledger.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Account is the client's view of a remote account. Balance is a cache of
// the remote value and may be stale until the next directory refresh.
type Account struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountDraft is the payload for creating or updating an account.
// Balance is only honored on create; it is never patched directly afterwards.
type AccountDraft struct {
	Number  string          `json:"number"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Transaction is an immutable ledger record. From and To may be nil when the
// counterpart account is no longer visible to the session.
type Transaction struct {
	ID              string          `json:"id"`
	From            *Account        `json:"from"`
	To              *Account        `json:"to"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transactionDate"`
	Status          string          `json:"status"`
}

// TransferRequest captures a proposed funds movement. It lives only for the
// duration of one validation/submission round trip.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
}
