package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("operation not valid in current state")
	ErrAccountHasBalance = errors.New("account still has a balance")
)

// State of the account-closure workflow.
type State int

const (
	// StateIdle means no closure is in progress.
	StateIdle State = iota
	// StateDeleteRequested means a zero-balance account awaits the user's
	// delete confirmation.
	StateDeleteRequested
	// StateAwaitingTransfer means the account holds a balance that must be
	// drained to another account before deletion can proceed.
	StateAwaitingTransfer
	// StateAskDeleteAgain means the drain succeeded and deletion needs an
	// explicit, separate re-confirmation.
	StateAskDeleteAgain
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeleteRequested:
		return "delete-requested"
	case StateAwaitingTransfer:
		return "awaiting-transfer"
	case StateAskDeleteAgain:
		return "ask-delete-again"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Closure drives the delete-with-balance workflow. An account is never
// deleted while its cached balance is non-zero, and deletion after a drain
// is a separately confirmed action, never silently chained.
type Closure struct {
	orch *Orchestrator

	state   State
	account domain.Account
}

// NewClosure returns a workflow in StateIdle. A Closure is driven by a single
// user interaction and is not safe for concurrent use.
func NewClosure(orch *Orchestrator) *Closure {
	return &Closure{orch: orch}
}

// State returns the current workflow state.
func (c *Closure) State() State {
	return c.state
}

// Account returns the account under closure; zero value when idle.
func (c *Closure) Account() domain.Account {
	return c.account
}

// RequestDelete starts the workflow for accountID. A zero-balance account
// moves straight to awaiting the delete confirmation; one with a balance
// must be drained first.
func (c *Closure) RequestDelete(accountID string) (State, error) {
	if c.state != StateIdle {
		return c.state, ErrInvalidTransition
	}

	account, ok := c.orch.dir.Lookup(accountID)
	if !ok {
		return c.state, ErrUnknownAccount
	}

	c.account = account
	if account.Balance.IsPositive() {
		c.state = StateAwaitingTransfer
	} else {
		c.state = StateDeleteRequested
	}
	return c.state, nil
}

// ConfirmDelete deletes a zero-balance account after the user confirmed.
// Whatever the outcome, the workflow returns to idle; a failed delete leaves
// the account retained and is reported to the caller.
func (c *Closure) ConfirmDelete(ctx context.Context) error {
	if c.state != StateDeleteRequested {
		return ErrInvalidTransition
	}
	return c.deleteAndReset(ctx)
}

// SubmitDrain transfers the account's full cached balance to toAccountID.
// Success asks for a fresh delete confirmation; failure abandons the closure
// with no partial state.
func (c *Closure) SubmitDrain(ctx context.Context, toAccountID string) (domain.Transaction, error) {
	if c.state != StateAwaitingTransfer {
		return domain.Transaction{}, ErrInvalidTransition
	}

	// Re-read the cached balance at submission time rather than trusting
	// the value captured at RequestDelete.
	account, ok := c.orch.dir.Lookup(c.account.ID)
	if !ok {
		c.reset()
		return domain.Transaction{}, ErrUnknownAccount
	}

	tx, err := c.orch.Submit(ctx, domain.TransferRequest{
		FromAccountID: account.ID,
		ToAccountID:   toAccountID,
		Amount:        account.Balance,
	})
	if err != nil {
		c.reset()
		return domain.Transaction{}, err
	}

	c.state = StateAskDeleteAgain
	return tx, nil
}

// ConfirmDeleteAfterDrain deletes the drained account after the user's
// explicit re-confirmation. The refreshed snapshot must show a zero balance;
// anything else (a racing deposit, a partially applied drain) aborts.
func (c *Closure) ConfirmDeleteAfterDrain(ctx context.Context) error {
	if c.state != StateAskDeleteAgain {
		return ErrInvalidTransition
	}

	account, ok := c.orch.dir.Lookup(c.account.ID)
	if ok && account.Balance.IsPositive() {
		c.reset()
		return ErrAccountHasBalance
	}
	return c.deleteAndReset(ctx)
}

// Decline keeps the account (now with zero balance, if a drain ran) and
// returns to idle.
func (c *Closure) Decline() error {
	if c.state != StateDeleteRequested && c.state != StateAskDeleteAgain {
		return ErrInvalidTransition
	}
	c.reset()
	return nil
}

// Cancel abandons the workflow from any state.
func (c *Closure) Cancel() {
	c.reset()
}

func (c *Closure) deleteAndReset(ctx context.Context) error {
	id := c.account.ID
	c.reset()
	return c.orch.dir.Delete(ctx, id)
}

func (c *Closure) reset() {
	c.state = StateIdle
	c.account = domain.Account{}
}
