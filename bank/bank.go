// Package bank implements card issuing, PIN authentication and the balance
// operations of an authenticated holder on top of a storage.Store.
//
// The bank never caches balances: every read goes to the store and every
// write goes through Store.Mutate, so concurrent sessions observe each other's
// transfers and deposits.
package bank

import (
	"context"
	"crypto/subtle"
	"errors"
	"math"
	"strings"

	"simple-banking/cardnum"
	"simple-banking/model"
	"simple-banking/storage"

	"go.uber.org/zap"
)

// Service is the entry point for every account operation.
type Service struct {
	store  storage.Store
	gen    *cardnum.Generator
	logger *zap.Logger
}

// New creates a Service bound to store. Cards are drawn by gen.
func New(store storage.Store, gen *cardnum.Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, gen: gen, logger: logger}
}

// Create issues a new card with a fresh PIN and a zero balance.
// The returned account carries the only copy of the PIN handed out.
func (s *Service) Create(ctx context.Context) (*model.Account, error) {
	for attempt := 0; attempt < s.gen.MaxAttempts(); attempt++ {
		accountNumber, err := s.gen.NewAccountNumber(ctx)
		if errors.Is(err, cardnum.ErrExhausted) {
			return nil, err
		}
		if err != nil {
			return nil, unavailable("create", err)
		}
		pin, err := s.gen.NewPIN()
		if err != nil {
			return nil, err
		}

		acc := model.Account{CardNumber: cardnum.DeriveCardNumber(accountNumber), PIN: pin}
		err = s.store.Insert(ctx, acc)
		if errors.Is(err, storage.ErrDuplicate) {
			// Another session took the same number between probe and insert.
			s.logger.Debug("card number collision on insert", zap.String("card", mask(acc.CardNumber)))
			continue
		}
		if err != nil {
			return nil, unavailable("create", err)
		}

		s.logger.Info("card issued", zap.String("card", mask(acc.CardNumber)))
		return &acc, nil
	}
	return nil, cardnum.ErrExhausted
}

// Authenticate checks a card number and PIN. A card number failing the Luhn
// check is rejected before the store is consulted. Every rejection is an
// *AuthError with the same message.
func (s *Service) Authenticate(ctx context.Context, cardNumber, pin string) (*model.Account, error) {
	if !cardnum.Valid(cardNumber) {
		return nil, s.authFailed(cardNumber, ErrInvalidCardNumber)
	}
	acc, err := s.store.Get(ctx, cardNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, s.authFailed(cardNumber, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("authenticate", err)
	}
	if subtle.ConstantTimeCompare([]byte(acc.PIN), []byte(pin)) != 1 {
		return nil, s.authFailed(cardNumber, ErrWrongPin)
	}
	return acc, nil
}

func (s *Service) authFailed(cardNumber string, kind error) error {
	s.logger.Info("authentication rejected",
		zap.String("card", mask(cardNumber)),
		zap.NamedError("reason", kind))
	return &AuthError{kind: kind}
}

// Resume returns the account behind an already authenticated session.
// It fails with ErrNotFound once the card has been closed.
func (s *Service) Resume(ctx context.Context, cardNumber string) (*model.Account, error) {
	if !cardnum.Valid(cardNumber) {
		return nil, ErrInvalidCardNumber
	}
	acc, err := s.store.Get(ctx, cardNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("resume", err)
	}
	return acc, nil
}

// Balance re-reads the balance from the store; the Balance field of acc is
// not trusted because another session may have credited the card since.
func (s *Service) Balance(ctx context.Context, acc *model.Account) (int64, error) {
	fresh, err := s.store.Get(ctx, acc.CardNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, unavailable("balance", err)
	}
	return fresh.Balance, nil
}

// AddIncome deposits amount onto the card and returns the new balance.
func (s *Service) AddIncome(ctx context.Context, acc *model.Account, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrBadAmount
	}
	var balance int64
	err := s.store.Mutate(ctx, []string{acc.CardNumber}, func(accs map[string]*model.Account) error {
		locked, ok := accs[acc.CardNumber]
		if !ok {
			return ErrNotFound
		}
		if locked.Balance > math.MaxInt64-amount {
			return ErrBalanceOverflow
		}
		locked.Balance += amount
		balance = locked.Balance
		return nil
	})
	if err != nil {
		return 0, s.classify("add income", err)
	}
	s.logger.Info("income added", zap.String("card", mask(acc.CardNumber)), zap.Int64("amount", amount))
	return balance, nil
}

// Transfer moves amount from the session's card to toCardNumber.
//
// Checks run cheapest first: same card, Luhn, recipient lookup, funds. The
// funds and existence checks are repeated under the store lock right before
// both balances are written, so a concurrent mutation cannot overdraw the card.
func (s *Service) Transfer(ctx context.Context, from *model.Account, toCardNumber string, amount int64) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	if toCardNumber == from.CardNumber {
		return ErrSameAccount
	}
	if !cardnum.Valid(toCardNumber) {
		return ErrInvalidCardNumber
	}
	if _, err := s.store.Get(ctx, toCardNumber); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrRecipientNotFound
		}
		return unavailable("transfer", err)
	}
	balance, err := s.Balance(ctx, from)
	if err != nil {
		return err
	}
	if amount > balance {
		return ErrInsufficientFunds
	}

	err = s.store.Mutate(ctx, []string{from.CardNumber, toCardNumber}, func(accs map[string]*model.Account) error {
		src, ok := accs[from.CardNumber]
		if !ok {
			return ErrNotFound
		}
		dst, ok := accs[toCardNumber]
		if !ok {
			return ErrRecipientNotFound
		}
		if amount > src.Balance {
			return ErrInsufficientFunds
		}
		if dst.Balance > math.MaxInt64-amount {
			return ErrBalanceOverflow
		}
		src.Balance -= amount
		dst.Balance += amount
		return nil
	})
	if err != nil {
		return s.classify("transfer", err)
	}

	s.logger.Info("transfer completed",
		zap.String("from", mask(from.CardNumber)),
		zap.String("to", mask(toCardNumber)),
		zap.Int64("amount", amount))
	return nil
}

// Close deletes the card. Any remaining balance is discarded.
func (s *Service) Close(ctx context.Context, acc *model.Account) error {
	if err := s.store.Delete(ctx, acc.CardNumber); err != nil {
		return unavailable("close", err)
	}
	s.logger.Info("card closed", zap.String("card", mask(acc.CardNumber)))
	return nil
}

// classify passes domain errors raised inside a mutation through and marks
// everything else as a store fault.
func (s *Service) classify(op string, err error) error {
	for _, domain := range []error{ErrNotFound, ErrRecipientNotFound, ErrInsufficientFunds, ErrBalanceOverflow} {
		if errors.Is(err, domain) {
			return err
		}
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return unavailable(op, err)
}

// mask hides all but the last four digits of a card number in logs.
func mask(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return strings.Repeat("*", len(cardNumber)-4) + cardNumber[len(cardNumber)-4:]
}
