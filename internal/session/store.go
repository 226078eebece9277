// Package session owns the authenticated identity: establishing it,
// persisting the bearer token across restarts, and tearing it down. It is
// the only writer of the API client's token.
package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/punchamoorthee/bankfront/internal/apiclient"
)

// Status of the session lifecycle.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusFailed         Status = "failed"
)

// MinPasswordLength is enforced locally before a register call is submitted.
const MinPasswordLength = 6

// placeholderIdentity is shown when the service does not echo a profile.
const placeholderIdentity = "User"

// Credentials is the login input.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Profile is the registration input.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome is the typed result of login/register. Failures are reported here,
// never as errors across the component boundary.
type Outcome struct {
	Success bool
	Error   string
}

func failure(msg string) Outcome { return Outcome{Error: msg} }

type authResponse struct {
	Token string `json:"token"`
	User  *struct {
		Username string `json:"username"`
	} `json:"user"`
}

// Store holds the current identity and token. All remote components read the
// token indirectly through the API client; none of them may write it.
type Store struct {
	client    *apiclient.Client
	tokenPath string
	logger    *slog.Logger

	mu       sync.Mutex
	status   Status
	identity string
	token    string
}

func New(client *apiclient.Client, tokenPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client:    client,
		tokenPath: tokenPath,
		logger:    logger,
		status:    StatusAnonymous,
	}
	client.SetAuthErrorHook(s.Invalidate)
	return s
}

// Restore loads a previously persisted token, if any. A stored token is
// trusted optimistically without revalidation; a missing or unreadable one
// degrades silently to anonymous.
func (s *Store) Restore() Status {
	raw, err := os.ReadFile(s.tokenPath)
	if err != nil {
		s.setAnonymous()
		return StatusAnonymous
	}

	token := strings.TrimSpace(string(raw))
	if token == "" || !printable(token) {
		// Corrupt token file: clear it and fall back to anonymous.
		if err := os.Remove(s.tokenPath); err != nil {
			s.logger.Warn("cannot remove corrupt token file", "path", s.tokenPath, "error", err)
		}
		s.setAnonymous()
		return StatusAnonymous
	}

	s.client.SetToken(token)
	s.mu.Lock()
	s.status = StatusAuthenticated
	s.identity = placeholderIdentity
	s.token = token
	s.mu.Unlock()
	return StatusAuthenticated
}

// Login authenticates and, on success, persists the token for later restores.
func (s *Store) Login(ctx context.Context, creds Credentials) Outcome {
	if creds.Username == "" {
		return s.fail("username is required")
	}
	if creds.Password == "" {
		return s.fail("password is required")
	}

	s.setStatus(StatusAuthenticating)

	var resp authResponse
	if err := s.client.Post(ctx, "/users/login", creds, &resp); err != nil {
		return s.fail(remoteMessage(err, "login failed"))
	}
	if resp.Token == "" {
		return s.fail("invalid token received from service")
	}

	identity := creds.Username
	if resp.User != nil && resp.User.Username != "" {
		identity = resp.User.Username
	}

	s.client.SetToken(resp.Token)
	s.persistToken(resp.Token)

	s.mu.Lock()
	s.status = StatusAuthenticated
	s.identity = identity
	s.token = resp.Token
	s.mu.Unlock()
	return Outcome{Success: true}
}

// Register creates a new user. The service echoes a token, but it is
// deliberately not stored: the caller routes back to Login so that account
// creation always goes through an audited re-authentication.
func (s *Store) Register(ctx context.Context, profile Profile) Outcome {
	if profile.Username == "" {
		return failure("username is required")
	}
	if profile.Email == "" {
		return failure("email is required")
	}
	if len(profile.Password) < MinPasswordLength {
		return failure("password must be at least 6 characters")
	}

	s.setStatus(StatusAuthenticating)

	var resp authResponse
	if err := s.client.Post(ctx, "/users/register", profile, &resp); err != nil {
		return s.fail(remoteMessage(err, "registration failed"))
	}

	s.setStatus(StatusAnonymous)
	return Outcome{Success: true}
}

// Logout clears the persisted token and returns to anonymous. It never fails
// and makes no remote call.
func (s *Store) Logout() {
	s.Invalidate()
}

// Invalidate forces the session to anonymous. It is wired as the client's
// auth-error hook so a rejected token cannot linger.
func (s *Store) Invalidate() {
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("cannot remove token file", "path", s.tokenPath, "error", err)
	}
	s.client.ClearToken()
	s.setAnonymous()
}

// Status returns the current lifecycle state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Identity returns the display name, best-effort.
func (s *Store) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Authenticated reports whether remote operations may proceed.
func (s *Store) Authenticated() bool {
	return s.Status() == StatusAuthenticated
}

func (s *Store) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Store) setAnonymous() {
	s.mu.Lock()
	s.status = StatusAnonymous
	s.identity = ""
	s.token = ""
	s.mu.Unlock()
}

func (s *Store) fail(msg string) Outcome {
	s.mu.Lock()
	s.status = StatusFailed
	s.identity = ""
	s.token = ""
	s.mu.Unlock()
	return failure(msg)
}

func (s *Store) persistToken(token string) {
	if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0o700); err != nil {
		s.logger.Warn("cannot create token directory", "path", s.tokenPath, "error", err)
		return
	}
	if err := os.WriteFile(s.tokenPath, []byte(token), 0o600); err != nil {
		s.logger.Warn("cannot persist token", "path", s.tokenPath, "error", err)
	}
}

func remoteMessage(err error, fallback string) string {
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}

func printable(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
