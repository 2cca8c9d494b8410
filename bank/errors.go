package bank

import (
	"errors"
	"fmt"
)

// Domain errors. Callers match them with errors.Is.
var (
	ErrInvalidCardNumber = errors.New("invalid card number")
	ErrNotFound          = errors.New("card not found")
	ErrRecipientNotFound = errors.New("such a card does not exist")
	ErrWrongPin          = errors.New("wrong PIN")
	ErrSameAccount       = errors.New("you can't transfer money to the same account")
	ErrInsufficientFunds = errors.New("not enough money")
	ErrBadAmount         = errors.New("amount must be positive")
	ErrBalanceOverflow   = errors.New("balance would exceed the maximum")
	ErrStoreUnavailable  = errors.New("account store unavailable")
	ErrAuthFailed        = errors.New("wrong card number or PIN")
)

// AuthError is returned by Authenticate. Its message is the same whichever
// check failed, so a caller cannot tell an unknown card from a wrong PIN.
// Kind exposes the failed check for server-side logging only.
type AuthError struct {
	kind error
}

func (e *AuthError) Error() string {
	return ErrAuthFailed.Error()
}

// Is makes errors.Is(err, ErrAuthFailed) hold. The kind is deliberately not
// unwrapped.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailed
}

// Kind returns ErrInvalidCardNumber, ErrNotFound or ErrWrongPin.
func (e *AuthError) Kind() error {
	return e.kind
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
