package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Package model defines the records persisted by the store and the JSON bodies
// exchanged with API callers.

// Balances and amounts are whole numbers of the smallest currency unit held in int64.
// Amounts arriving over JSON are decoded through decimal.Decimal so that a value such
// as "10.5" is rejected exactly instead of being silently rounded by a float64.

// Account is the persisted card record. The card number is the unique key; the
// 9-digit account number is never stored (see cardnum.DeriveAccountNumber).
type Account struct {
	CardNumber string `json:"card_number"`
	PIN        string `json:"-"`
	Balance    int64  `json:"balance"`
}

// ErrInvalidAmount is returned when an amount is not a whole number of minor units
// or does not fit into an int64.
var ErrInvalidAmount = errors.New("amount must be a whole number of minor units")

var (
	minAmount = decimal.NewFromInt(-1 << 63)
	maxAmount = decimal.NewFromInt(1<<63 - 1)
)

// Amount is a money amount in minor units as sent by a client.
// It accepts JSON numbers and strings ("1500" or 1500).
type Amount struct {
	decimal.Decimal
}

// MinorUnits converts the amount to int64 minor units.
func (a Amount) MinorUnits() (int64, error) {
	if !a.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, a.String())
	}
	if a.LessThan(minAmount) || a.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, a.String())
	}
	return a.IntPart(), nil
}

// CreateAccountResponse is returned once, when a card is issued. It is the only
// time the PIN leaves the service.
type CreateAccountResponse struct {
	CardNumber string `json:"card_number"`
	PIN        string `json:"pin"`
}

// LoginRequest defines the expected JSON body for opening a session.
type LoginRequest struct {
	CardNumber string `json:"card_number"`
	PIN        string `json:"pin"`
}

// LoginResponse carries the bearer token for an authenticated session.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// BalanceResponse reports the current balance of the session's card.
type BalanceResponse struct {
	CardNumber string `json:"card_number"`
	Balance    int64  `json:"balance"`
}

// IncomeRequest defines the expected JSON body for depositing funds.
type IncomeRequest struct {
	Amount Amount `json:"amount"`
}

// TransactionRequest defines the expected JSON body for submitting a transfer.
// The source is always the card of the authenticated session.
type TransactionRequest struct {
	DestinationCardNumber string `json:"destination_card_number"`
	Amount                Amount `json:"amount"`
}
