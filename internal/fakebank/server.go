// Package fakebank is an in-memory stand-in for the remote account/ledger
// service, speaking its exact REST contract. It backs the test suites and
// the local development server; the real service stays an external
// collaborator.
package fakebank

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/punchamoorthee/bankfront/internal/domain"
	"github.com/punchamoorthee/bankfront/internal/session"
)

type contextKey int

const userKey contextKey = 0

// Server exposes the bank contract over HTTP.
type Server struct {
	store  *Store
	logger *slog.Logger
	router *mux.Router
}

func NewServer(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/register", s.handleRegister).Methods("POST")
	api.HandleFunc("/users/login", s.handleLogin).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authenticate)
	protected.HandleFunc("/accounts/search", s.handleSearch).Methods("POST")
	protected.HandleFunc("/accounts", s.handleCreate).Methods("POST")
	protected.HandleFunc("/accounts/{id}", s.handleGet).Methods("GET")
	protected.HandleFunc("/accounts/{id}", s.handleUpdate).Methods("PUT")
	protected.HandleFunc("/accounts/{id}", s.handleDelete).Methods("DELETE")
	protected.HandleFunc("/transactions/transfer", s.handleTransfer).Methods("POST")
	protected.HandleFunc("/transactions/account/{id}", s.handleHistory).Methods("GET")

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router so cmd/fakebank can mount /metrics.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		username, ok := s.store.UserForToken(token)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := contextWithUser(r.Context(), username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var profile session.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if profile.Username == "" || profile.Email == "" {
		respondError(w, http.StatusBadRequest, "username and email are required")
		return
	}
	if len(profile.Password) < session.MinPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	token, err := s.store.RegisterUser(profile.Username, profile.Email, profile.Password)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  map[string]string{"username": profile.Username, "email": profile.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	token, err := s.store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]string{"username": creds.Username},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r)
	query := r.URL.Query()
	accounts := s.store.SearchAccounts(username, query.Get("name"), query.Get("number"))
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft domain.AccountDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if draft.Name == "" || draft.Number == "" {
		respondError(w, http.StatusBadRequest, "name and number are required")
		return
	}
	if draft.Balance.IsNegative() {
		respondError(w, http.StatusBadRequest, "balance cannot be negative")
		return
	}

	account := s.store.CreateAccount(userFrom(r), draft)
	respondJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var draft domain.AccountDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	account, err := s.store.UpdateAccount(userFrom(r), mux.Vars(r)["id"], draft)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteAccount(userFrom(r), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, ErrAccountHasBalance):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAccountNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tx, err := s.store.Transfer(req)
	switch {
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrDestNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSameAccount), errors.Is(err, ErrNonPositiveAmount), errors.Is(err, ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Info("transfer applied",
			"from", req.FromAccountID, "to", req.ToAccountID, "amount", req.Amount.String())
		respondJSON(w, http.StatusCreated, tx)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	feed, err := s.store.History(userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

// Helpers

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"message": msg})
}

func contextWithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey, username)
}

func userFrom(r *http.Request) string {
	username, _ := r.Context().Value(userKey).(string)
	return username
}
