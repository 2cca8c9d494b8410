// Package cardnum issues card numbers and PINs.
//
// A card number is the 6-digit issuer identification number, a 9-digit account
// number and a Luhn check digit. Only the card number is stored; the account
// number is always derived from it.
package cardnum

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"simple-banking/luhn"
	"simple-banking/model"
	"simple-banking/storage"
)

const (
	IIN                 = "400000"
	AccountNumberLength = 9
	CardNumberLength    = len(IIN) + AccountNumberLength + 1
	PINLength           = 4

	// DefaultMaxAttempts bounds account number draws. With a 10^9 space the
	// chance of 32 consecutive collisions is negligible for any realistic bank.
	DefaultMaxAttempts = 32
)

// ErrExhausted is returned when every draw collided with an existing card.
var ErrExhausted = errors.New("no free account number found")

// DeriveCardNumber builds the full card number for an account number.
func DeriveCardNumber(accountNumber string) string {
	prefix := IIN + accountNumber
	return prefix + strconv.Itoa(luhn.CheckDigit(prefix))
}

// DeriveAccountNumber strips the issuer prefix and the check digit.
// cardNumber must be a 16-digit number; check it with Valid first.
func DeriveAccountNumber(cardNumber string) string {
	return cardNumber[len(IIN) : CardNumberLength-1]
}

// Valid reports whether cardNumber has the right length and passes the Luhn check.
func Valid(cardNumber string) bool {
	return len(cardNumber) == CardNumberLength && luhn.Valid(cardNumber)
}

// Lookup is the part of the store the generator probes for collisions.
type Lookup interface {
	Get(ctx context.Context, cardNumber string) (*model.Account, error)
}

// Generator draws account numbers and PINs.
type Generator struct {
	lookup      Lookup
	random      io.Reader
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithRandom replaces crypto/rand as the source of randomness.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithMaxAttempts sets how many draws NewAccountNumber makes before giving up.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator returns a Generator that checks candidates against lookup.
func NewGenerator(lookup Lookup, opts ...Option) *Generator {
	g := &Generator{lookup: lookup, random: rand.Reader, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts reports the draw budget of NewAccountNumber.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// NewAccountNumber draws a uniform 9-digit account number whose card number is
// not in use at the time of the call. Store errors are returned as is.
func (g *Generator) NewAccountNumber(ctx context.Context) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		candidate, err := g.digits(AccountNumberLength)
		if err != nil {
			return "", err
		}
		_, err = g.lookup.Get(ctx, DeriveCardNumber(candidate))
		if errors.Is(err, storage.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, g.maxAttempts)
}

// NewPIN draws a uniform 4-digit PIN.
func (g *Generator) NewPIN() (string, error) {
	return g.digits(PINLength)
}

// digits returns a uniform random number below 10^n, zero padded to n digits.
func (g *Generator) digits(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(g.random, limit)
	if err != nil {
		return "", fmt.Errorf("could not read random digits: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
