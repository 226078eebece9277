package fakebank

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/bankfront/internal/domain"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSourceNotFound     = errors.New("source account not found")
	ErrDestNotFound       = errors.New("destination account not found")
	ErrSameAccount        = errors.New("cannot transfer to the same account")
	ErrNonPositiveAmount  = errors.New("transfer amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("insufficient funds in source account")
	ErrAccountHasBalance  = errors.New("account has balance, transfer it first")
)

type user struct {
	username string
	email    string
	password string
}

// Store is the in-memory state behind the stand-in server. One lock covers
// everything; transfers mutate both balances under it, so the fake keeps the
// real service's atomicity guarantee.
type Store struct {
	mu           sync.Mutex
	users        map[string]user
	tokens       map[string]string
	accounts     map[string]*domain.Account
	owners       map[string]string
	order        []string
	transactions []domain.Transaction

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		accounts: make(map[string]*domain.Account),
		owners:   make(map[string]string),
		now:      time.Now,
	}
}

// RegisterUser creates a user and returns a fresh session token, matching
// the real service's register response.
func (s *Store) RegisterUser(username, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return "", ErrUserExists
	}
	s.users[username] = user{username: username, email: email, password: password}

	token := uuid.NewString()
	s.tokens[token] = username
	return token, nil
}

// Authenticate verifies credentials and issues a bearer token.
func (s *Store) Authenticate(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok || u.password != password {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.tokens[token] = username
	return token, nil
}

// UserForToken resolves a bearer token to its username.
func (s *Store) UserForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[token]
	return username, ok
}

// CreateAccount adds an account owned by username.
func (s *Store) CreateAccount(username string, draft domain.AccountDraft) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	account := &domain.Account{
		ID:        uuid.NewString(),
		Number:    draft.Number,
		Name:      draft.Name,
		Balance:   draft.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[account.ID] = account
	s.owners[account.ID] = username
	s.order = append(s.order, account.ID)
	return *account
}

// UpdateAccount patches name and number of an owned account.
func (s *Store) UpdateAccount(username, id string, draft domain.AccountDraft) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.ownedLocked(username, id)
	if err != nil {
		return domain.Account{}, err
	}
	account.Name = draft.Name
	account.Number = draft.Number
	account.UpdatedAt = s.now()
	return *account, nil
}

// DeleteAccount removes an owned account; a non-zero balance blocks it.
func (s *Store) DeleteAccount(username, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.ownedLocked(username, id)
	if err != nil {
		return err
	}
	if account.Balance.IsPositive() {
		return ErrAccountHasBalance
	}

	delete(s.accounts, id)
	delete(s.owners, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetAccount returns an owned account by id.
func (s *Store) GetAccount(username, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.ownedLocked(username, id)
	if err != nil {
		return domain.Account{}, err
	}
	return *account, nil
}

// SearchAccounts returns the user's accounts matching the criteria by
// case-insensitive substring, in creation order. Empty criteria match all.
func (s *Store) SearchAccounts(username, name, number string) []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []domain.Account{}
	for _, id := range s.order {
		account := s.accounts[id]
		if s.owners[id] != username {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(account.Name), strings.ToLower(name)) {
			continue
		}
		if number != "" && !strings.Contains(strings.ToLower(account.Number), strings.ToLower(number)) {
			continue
		}
		matches = append(matches, *account)
	}
	return matches
}

// Transfer moves funds between two accounts and records a SUCCESS
// transaction visible from both feeds.
func (s *Store) Transfer(req domain.TransferRequest) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !req.Amount.IsPositive() {
		return domain.Transaction{}, ErrNonPositiveAmount
	}
	from, ok := s.accounts[req.FromAccountID]
	if !ok {
		return domain.Transaction{}, ErrSourceNotFound
	}
	to, ok := s.accounts[req.ToAccountID]
	if !ok {
		return domain.Transaction{}, ErrDestNotFound
	}
	if from.ID == to.ID {
		return domain.Transaction{}, ErrSameAccount
	}
	if from.Balance.LessThan(req.Amount) {
		return domain.Transaction{}, ErrInsufficientFunds
	}

	now := s.now()
	from.Balance = from.Balance.Sub(req.Amount)
	to.Balance = to.Balance.Add(req.Amount)
	from.UpdatedAt = now
	to.UpdatedAt = now

	fromCopy := *from
	toCopy := *to
	tx := domain.Transaction{
		ID:              uuid.NewString(),
		From:            &fromCopy,
		To:              &toCopy,
		Amount:          req.Amount,
		TransactionDate: now,
		Status:          domain.StatusSuccess,
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// History returns the transactions touching an owned account, newest first.
func (s *Store) History(username, accountID string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLocked(username, accountID); err != nil {
		return nil, err
	}

	feed := []domain.Transaction{}
	for _, tx := range s.transactions {
		if (tx.From != nil && tx.From.ID == accountID) || (tx.To != nil && tx.To.ID == accountID) {
			feed = append(feed, tx)
		}
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].TransactionDate.After(feed[j].TransactionDate)
	})
	return feed, nil
}

// Seed provisions a demo user with two funded accounts for local runs.
func (s *Store) Seed() {
	if _, err := s.RegisterUser("demo", "demo@example.com", "password"); err != nil {
		return
	}
	s.CreateAccount("demo", domain.AccountDraft{
		Name: "Checking", Number: "1001", Balance: decimal.NewFromInt(500),
	})
	s.CreateAccount("demo", domain.AccountDraft{
		Name: "Savings", Number: "1002", Balance: decimal.NewFromInt(250),
	})
}

func (s *Store) ownedLocked(username, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok || s.owners[id] != username {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
