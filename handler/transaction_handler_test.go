package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"simple-banking/bank"
	"simple-banking/model"

	"github.com/stretchr/testify/assert"
)

const destCard = "4000009876543213"

func TestCreateTransactionHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockBank := &MockBank{
			TransferFunc: func(ctx context.Context, from *model.Account, toCardNumber string, amount int64) error {
				assert.Equal(t, testCard, from.CardNumber)
				assert.Equal(t, destCard, toCardNumber)
				assert.Equal(t, int64(100), amount)
				return nil
			},
		}
		router, sessions := newTestRouter(mockBank)
		body := fmt.Sprintf(`{"destination_card_number": %q, "amount": "100"}`, destCard)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, authed(t, sessions, "POST", "/transactions", body))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	errorCases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"insufficient funds", bank.ErrInsufficientFunds, http.StatusUnprocessableEntity, "not enough money"},
		{"recipient balance overflow", bank.ErrBalanceOverflow, http.StatusUnprocessableEntity, "exceed the maximum"},
		{"recipient not found", bank.ErrRecipientNotFound, http.StatusNotFound, "such a card does not exist"},
		{"same account", bank.ErrSameAccount, http.StatusBadRequest, "same account"},
		{"invalid card number", bank.ErrInvalidCardNumber, http.StatusBadRequest, "invalid card number"},
		{"store unavailable", fmt.Errorf("transfer: %w", bank.ErrStoreUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBank := &MockBank{
				TransferFunc: func(ctx context.Context, from *model.Account, toCardNumber string, amount int64) error {
					return tc.err
				},
			}
			router, sessions := newTestRouter(mockBank)
			body := fmt.Sprintf(`{"destination_card_number": %q, "amount": 10}`, destCard)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, authed(t, sessions, "POST", "/transactions", body))

			assert.Equal(t, tc.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.wantBody)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		router, sessions := newTestRouter(&MockBank{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authed(t, sessions, "POST", "/transactions", `{"amount": `))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("fractional amount", func(t *testing.T) {
		router, sessions := newTestRouter(&MockBank{})
		body := fmt.Sprintf(`{"destination_card_number": %q, "amount": "0.5"}`, destCard)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authed(t, sessions, "POST", "/transactions", body))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires session", func(t *testing.T) {
		router, _ := newTestRouter(&MockBank{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/transactions", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
