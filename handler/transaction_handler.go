package handler

import (
	"encoding/json"
	"net/http"

	"simple-banking/model"

	"go.uber.org/zap"
)

// TransactionHandler holds dependencies for transfer handlers.
type TransactionHandler struct {
	bank   Bank
	logger *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(b Bank, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{bank: b, logger: logger}
}

// CreateTransactionHandler transfers funds from the session's card to another card.
// Both balances change together or not at all.
//
// Method: POST
// Path: /transactions
// Success: 200 OK
// Error: 400 Bad Request (invalid JSON, amount, same card or card number failing the checksum)
// Error: 404 Not Found (destination card does not exist)
// Error: 422 Unprocessable Entity (insufficient funds)
// Error: 503 Service Unavailable (store unreachable)
func (h *TransactionHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	acc, ok := accountFrom(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return
	}

	var req model.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := req.Amount.MinorUnits()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.bank.Transfer(r.Context(), acc, req.DestinationCardNumber, amount); err != nil {
		writeBankError(w, h.logger, "transfer", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
