package handler

import (
	"context"
	"errors"
	"net/http"

	"simple-banking/bank"
	"simple-banking/model"

	"go.uber.org/zap"
)

// Bank is the subset of bank.Service the handlers call.
type Bank interface {
	Create(ctx context.Context) (*model.Account, error)
	Authenticate(ctx context.Context, cardNumber, pin string) (*model.Account, error)
	Resume(ctx context.Context, cardNumber string) (*model.Account, error)
	Balance(ctx context.Context, acc *model.Account) (int64, error)
	AddIncome(ctx context.Context, acc *model.Account, amount int64) (int64, error)
	Transfer(ctx context.Context, from *model.Account, toCardNumber string, amount int64) error
	Close(ctx context.Context, acc *model.Account) error
}

var _ Bank = (*bank.Service)(nil)

// writeBankError maps a bank error to an HTTP status.
func writeBankError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, bank.ErrAuthFailed):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, bank.ErrBadAmount),
		errors.Is(err, bank.ErrInvalidCardNumber),
		errors.Is(err, bank.ErrSameAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, bank.ErrRecipientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, bank.ErrNotFound):
		// The session's own card is gone.
		http.Error(w, "Session is no longer valid", http.StatusUnauthorized)
	case errors.Is(err, bank.ErrInsufficientFunds),
		errors.Is(err, bank.ErrBalanceOverflow):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, bank.ErrStoreUnavailable):
		logger.Error(op+" failed", zap.Error(err))
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		logger.Error(op+" failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
