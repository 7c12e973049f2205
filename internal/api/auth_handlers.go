package api

import (
	"net/http"

	"github.com/billbuddy/billbuddy/internal/middleware"
	"github.com/billbuddy/billbuddy/internal/models"
)

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type sessionResponse struct {
	Account accountResponse `json:"account"`
	Token   string          `json:"token"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := a.auth.Register(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Account: toAccountResponse(session.Account),
		Token:   session.Token,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Account: toAccountResponse(session.Account),
		Token:   session.Token,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := a.auth.GetAccount(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (a *API) handleCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"currencies": models.AllowedCurrencies,
		"default":    models.DefaultCurrency,
	})
}
