// Package dashboard computes read-only projections over the account
// directory and per-account transaction feeds: totals, merged recent
// activity, and per-transaction direction/formatting.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

// Transaction directions from a viewpoint account's perspective.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// UnknownCounterpart is rendered when neither side of a transaction matches
// a known account.
const UnknownCounterpart = "Unknown Account"

// Client is the slice of the API client the view needs.
type Client interface {
	Get(ctx context.Context, path string, out any) error
}

// Directory supplies the current account snapshot.
type Directory interface {
	Accounts() []domain.Account
}

// Classification describes one transaction from a viewpoint account.
type Classification struct {
	Direction   string
	Counterpart domain.Account
}

// Summary is the dashboard projection.
type Summary struct {
	TotalBalance decimal.Decimal
	AccountCount int
	Recent       []domain.Transaction
}

// View composes the directory and transaction feeds into dashboard and
// history projections.
type View struct {
	client Client
	dir    Directory
	logger *slog.Logger
}

func New(client Client, dir Directory, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{client: client, dir: dir, logger: logger}
}

// TotalBalance sums the cached balances of the current snapshot. An empty
// directory sums to zero; zero-valued balances contribute nothing.
func (v *View) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, account := range v.dir.Accounts() {
		total = total.Add(account.Balance)
	}
	return total
}

// History fetches one account's transaction feed, newest first.
func (v *View) History(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	var feed []domain.Transaction
	if err := v.client.Get(ctx, "/transactions/account/"+accountID, &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// RecentActivity merges every account's feed into one list ordered by
// transaction date descending, truncated to n. A single feed's failure
// degrades that account's contribution to nothing instead of aborting the
// aggregation; ties on the timestamp keep directory/feed order.
func (v *View) RecentActivity(ctx context.Context, n int) []domain.Transaction {
	accounts := v.dir.Accounts()
	feeds := make([][]domain.Transaction, len(accounts))

	var wg sync.WaitGroup
	for i, account := range accounts {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			feed, err := v.History(ctx, id)
			if err != nil {
				v.logger.Warn("transaction feed unavailable", "account", id, "error", err)
				return
			}
			feeds[i] = feed
		}(i, account.ID)
	}
	wg.Wait()

	var merged []domain.Transaction
	for _, feed := range feeds {
		merged = append(merged, feed...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TransactionDate.After(merged[j].TransactionDate)
	})

	if n >= 0 && len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// Summarize builds the dashboard projection with the n most recent
// transactions.
func (v *View) Summarize(ctx context.Context, n int) Summary {
	return Summary{
		TotalBalance: v.TotalBalance(),
		AccountCount: len(v.dir.Accounts()),
		Recent:       v.RecentActivity(ctx, n),
	}
}

// Classify reports a transaction's direction and counterpart as seen from
// viewpointID. A transaction whose counterpart is not visible renders with
// the unknown-counterpart placeholder rather than failing.
func Classify(tx domain.Transaction, viewpointID string) Classification {
	outgoing := tx.From != nil && tx.From.ID == viewpointID

	var counterpart *domain.Account
	if outgoing {
		counterpart = tx.To
	} else {
		counterpart = tx.From
	}

	cls := Classification{Direction: DirectionIncoming}
	if outgoing {
		cls.Direction = DirectionOutgoing
	}
	if counterpart != nil {
		cls.Counterpart = *counterpart
	} else {
		cls.Counterpart = domain.Account{Name: UnknownCounterpart}
	}
	return cls
}

// FormatSigned renders the amount signed from viewpointID's perspective:
// outgoing negative, incoming positive. Pure display derivation.
func FormatSigned(tx domain.Transaction, viewpointID string) string {
	sign := "+"
	if tx.From != nil && tx.From.ID == viewpointID {
		sign = "-"
	}
	return sign + tx.Amount.StringFixed(2)
}
