// Package api exposes the HTTP REST/JSON interface of the application.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/billbuddy/billbuddy/internal/auth"
	"github.com/billbuddy/billbuddy/internal/middleware"
	"github.com/billbuddy/billbuddy/internal/service"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// API wires the service layer to HTTP routes.
type API struct {
	auth   *service.AuthService
	groups *service.GroupService
	ledger *service.LedgerService
	jwt    *auth.JWTManager
}

// New creates the API over the given services.
func New(authSvc *service.AuthService, groups *service.GroupService, ledger *service.LedgerService, jwt *auth.JWTManager) *API {
	return &API{auth: authSvc, groups: groups, ledger: ledger, jwt: jwt}
}

// Routes registers every endpoint on the mux. Everything under /api except
// auth and metadata requires a bearer token.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/meta/currencies", a.handleCurrencies)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(a.jwt, h))
	}

	authed("GET /api/accounts/me", a.handleMe)

	authed("POST /api/groups", a.handleCreateGroup)
	authed("GET /api/groups", a.handleListGroups)
	authed("GET /api/groups/{groupID}", a.handleGetGroup)
	authed("PATCH /api/groups/{groupID}", a.handleUpdateGroup)
	authed("POST /api/groups/{groupID}/archive", a.handleArchiveGroup)

	authed("GET /api/groups/{groupID}/members", a.handleListMembers)
	authed("POST /api/groups/{groupID}/members", a.handleInviteMembers)
	authed("POST /api/groups/{groupID}/members/remove", a.handleRemoveMembers)
	authed("POST /api/invites/accept", a.handleAcceptInvite)

	authed("POST /api/groups/{groupID}/expenses", a.handleCreateExpense)
	authed("GET /api/groups/{groupID}/expenses", a.handleListExpenses)
	authed("POST /api/expenses/{expenseID}/shares", a.handleCreateShares)
	authed("GET /api/expenses/{expenseID}/shares", a.handleGetShares)

	authed("POST /api/groups/{groupID}/payments", a.handleRecordPayment)
	authed("GET /api/groups/{groupID}/payments", a.handleListPayments)

	authed("GET /api/groups/{groupID}/balances", a.handleGetBalances)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON marshals data into a response with content-type application/json.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	default:
		slog.Error("Request handling failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	writeJSON(w, status, errorResponse{err.Error()})
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return service.ErrValidation
	}
	return nil
}
