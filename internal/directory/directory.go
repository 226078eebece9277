// Package directory maintains the cached set of accounts visible to the
// session. Every mutation is followed by a re-fetch: no component ever
// applies optimistic balance arithmetic to the snapshot.
package directory

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

// Client is the slice of the API client the directory needs.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Filter narrows a search. Matching semantics (substring, case folding) are
// the remote service's; empty criteria are omitted from the query.
type Filter struct {
	Name   string
	Number string
}

func (f Filter) query() string {
	params := url.Values{}
	if f.Name != "" {
		params.Set("name", f.Name)
	}
	if f.Number != "" {
		params.Set("number", f.Number)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// Directory caches the account list and serves lookups to the transfer
// orchestrator and the dashboard.
type Directory struct {
	client Client
	logger *slog.Logger

	mu       sync.RWMutex
	accounts []domain.Account
}

func New(client Client, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{client: client, logger: logger}
}

// Search fetches accounts matching filter and replaces the cached snapshot.
func (d *Directory) Search(ctx context.Context, filter Filter) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := d.client.Post(ctx, "/accounts/search"+filter.query(), nil, &accounts); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.accounts = accounts
	d.mu.Unlock()
	return d.Accounts(), nil
}

// Refresh re-fetches the full directory. Callers invoke it after every
// mutating operation before trusting balances again.
func (d *Directory) Refresh(ctx context.Context) error {
	_, err := d.Search(ctx, Filter{})
	return err
}

// Create registers a new account and refreshes the snapshot.
func (d *Directory) Create(ctx context.Context, draft domain.AccountDraft) (domain.Account, error) {
	var created domain.Account
	if err := d.client.Post(ctx, "/accounts", draft, &created); err != nil {
		return domain.Account{}, err
	}
	d.refreshAfterMutation(ctx)
	return created, nil
}

// Update patches an existing account and refreshes the snapshot.
func (d *Directory) Update(ctx context.Context, id string, draft domain.AccountDraft) (domain.Account, error) {
	var updated domain.Account
	if err := d.client.Put(ctx, "/accounts/"+id, draft, &updated); err != nil {
		return domain.Account{}, err
	}
	d.refreshAfterMutation(ctx)
	return updated, nil
}

// Delete removes an account and refreshes the snapshot. The remote service
// rejects deletion of an account that still has a balance.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.client.Delete(ctx, "/accounts/"+id); err != nil {
		return err
	}
	d.refreshAfterMutation(ctx)
	return nil
}

// Get fetches one account's authoritative current state, bypassing the cache.
func (d *Directory) Get(ctx context.Context, id string) (domain.Account, error) {
	var account domain.Account
	if err := d.client.Get(ctx, "/accounts/"+id, &account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Accounts returns a copy of the current snapshot.
func (d *Directory) Accounts() []domain.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Account, len(d.accounts))
	copy(out, d.accounts)
	return out
}

// Lookup finds an account in the snapshot by id.
func (d *Directory) Lookup(id string) (domain.Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, acc := range d.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return domain.Account{}, false
}

func (d *Directory) refreshAfterMutation(ctx context.Context) {
	// The mutation itself succeeded; a failed re-fetch only leaves the
	// cache stale, which the next successful refresh repairs.
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("directory refresh after mutation failed", "error", err)
	}
}
