// Package transfer validates and executes funds movements, including the
// compound drain-then-delete workflow for closing an account that still
// holds a balance.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

var (
	ErrNoSourceAccount      = errors.New("no source account selected")
	ErrNoDestinationAccount = errors.New("no destination account selected")
	ErrSameAccount          = errors.New("source and destination accounts cannot be the same")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrInsufficientFunds    = errors.New("insufficient balance in source account")
	ErrUnknownAccount       = errors.New("account not found in directory")
	ErrTransferInFlight     = errors.New("a transfer is already in progress")
)

// Client is the slice of the API client the orchestrator needs.
type Client interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Directory supplies cached balances and the post-mutation refresh.
type Directory interface {
	Lookup(id string) (domain.Account, bool)
	Refresh(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// Orchestrator submits at most one transfer at a time. The in-flight guard
// reproduces the UI discipline of disabling the submit affordance while a
// call is pending; it is not a server-side idempotency guarantee.
type Orchestrator struct {
	client Client
	dir    Directory
	logger *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

func New(client Client, dir Directory, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, dir: dir, logger: logger}
}

// Validate checks a request against the cached directory snapshot. These are
// advisory client-side checks; the remote service remains authoritative and
// may still reject for reasons invisible to the cache.
func (o *Orchestrator) Validate(req domain.TransferRequest) error {
	if req.FromAccountID == "" {
		return ErrNoSourceAccount
	}
	if req.ToAccountID == "" {
		return ErrNoDestinationAccount
	}
	if req.FromAccountID == req.ToAccountID {
		return ErrSameAccount
	}
	if !req.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	source, ok := o.dir.Lookup(req.FromAccountID)
	if !ok {
		return ErrUnknownAccount
	}
	if req.Amount.GreaterThan(source.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// Submit validates req and, if it passes, issues exactly one remote call.
// On success the directory is refreshed before returning, so subsequent
// validations read post-transfer balances. A remote rejection after local
// validation passed is a normal failure outcome, not a bug.
func (o *Orchestrator) Submit(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	if err := o.Validate(req); err != nil {
		return domain.Transaction{}, err
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return domain.Transaction{}, ErrTransferInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	var tx domain.Transaction
	if err := o.client.Post(ctx, "/transactions/transfer", req, &tx); err != nil {
		return domain.Transaction{}, err
	}

	o.logger.Info("transfer submitted",
		"from", req.FromAccountID, "to", req.ToAccountID, "amount", req.Amount.String())

	if err := o.dir.Refresh(ctx); err != nil {
		// The transfer itself succeeded; the stale cache heals on the
		// next refresh.
		o.logger.Warn("directory refresh after transfer failed", "error", err)
	}
	return tx, nil
}
