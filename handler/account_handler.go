package handler

import (
	"encoding/json"
	"net/http"

	"simple-banking/model"

	"go.uber.org/zap"
)

// AccountHandler holds dependencies for card and session handlers.
type AccountHandler struct {
	bank     Bank
	sessions *Sessions
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(b Bank, sessions *Sessions, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{bank: b, sessions: sessions, logger: logger}
}

// CreateAccountHandler issues a new card. The response is the only place the
// PIN is ever returned.
//
// Method: POST
// Path: /accounts
// Success: 201 Created
// Error: 503 Service Unavailable (store unreachable)
func (h *AccountHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	acc, err := h.bank.Create(r.Context())
	if err != nil {
		writeBankError(w, h.logger, "create account", err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, model.CreateAccountResponse{
		CardNumber: acc.CardNumber,
		PIN:        acc.PIN,
	})
}

// LoginHandler exchanges a card number and PIN for a session token.
// Every credential failure gets the same 401 body.
//
// Method: POST
// Path: /sessions
// Success: 200 OK
// Error: 400 Bad Request (for invalid JSON)
// Error: 401 Unauthorized (wrong card number or PIN)
func (h *AccountHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.bank.Authenticate(r.Context(), req.CardNumber, req.PIN)
	if err != nil {
		writeBankError(w, h.logger, "login", err)
		return
	}

	token, err := h.sessions.Issue(acc.CardNumber)
	if err != nil {
		h.logger.Error("could not issue session token", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, model.LoginResponse{
		Token:     token,
		ExpiresIn: int64(h.sessions.TTL().Seconds()),
	})
}

// GetBalanceHandler reports the session card's balance as stored right now.
//
// Method: GET
// Path: /accounts/me/balance
// Success: 200 OK
func (h *AccountHandler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	acc, ok := accountFrom(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return
	}
	balance, err := h.bank.Balance(r.Context(), acc)
	if err != nil {
		writeBankError(w, h.logger, "get balance", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, model.BalanceResponse{CardNumber: acc.CardNumber, Balance: balance})
}

// AddIncomeHandler deposits funds onto the session's card.
//
// Method: POST
// Path: /accounts/me/income
// Success: 200 OK
// Error: 400 Bad Request (invalid JSON or non-positive amount)
func (h *AccountHandler) AddIncomeHandler(w http.ResponseWriter, r *http.Request) {
	acc, ok := accountFrom(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return
	}
	var req model.IncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := req.Amount.MinorUnits()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	balance, err := h.bank.AddIncome(r.Context(), acc, amount)
	if err != nil {
		writeBankError(w, h.logger, "add income", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, model.BalanceResponse{CardNumber: acc.CardNumber, Balance: balance})
}

// CloseAccountHandler deletes the session's card. The token stops working
// immediately because the card no longer resolves.
//
// Method: DELETE
// Path: /accounts/me
// Success: 204 No Content
func (h *AccountHandler) CloseAccountHandler(w http.ResponseWriter, r *http.Request) {
	acc, ok := accountFrom(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return
	}
	if err := h.bank.Close(r.Context(), acc); err != nil {
		writeBankError(w, h.logger, "close account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error writing JSON response", zap.Error(err))
	}
}
