package storage

import (
	"context"
	"sync"

	"simple-banking/model"
)

// MemoryStore keeps accounts in a map guarded by a single mutex.
// Every operation, including a whole Mutate callback, runs under that mutex,
// so multi-record writes are trivially atomic.
type MemoryStore struct {
	mu    sync.Mutex
	cards map[string]model.Account
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cards: make(map[string]model.Account)}
}

func (s *MemoryStore) Get(ctx context.Context, cardNumber string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.cards[cardNumber]
	if !ok {
		return nil, ErrNotFound
	}
	return &acc, nil
}

func (s *MemoryStore) Insert(ctx context.Context, acc model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[acc.CardNumber]; ok {
		return ErrDuplicate
	}
	s.cards[acc.CardNumber] = acc
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, acc model.Account) error {
	return s.PutAll(ctx, acc)
}

func (s *MemoryStore) Delete(ctx context.Context, cardNumber string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, cardNumber)
	return nil
}

func (s *MemoryStore) PutAll(ctx context.Context, accs ...model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range accs {
		s.cards[acc.CardNumber] = acc
	}
	return nil
}

func (s *MemoryStore) Mutate(ctx context.Context, cardNumbers []string, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	locked := make(map[string]*model.Account, len(cardNumbers))
	for _, number := range cardNumbers {
		if acc, ok := s.cards[number]; ok {
			locked[number] = &acc
		}
	}
	if err := fn(locked); err != nil {
		return err
	}
	for number, acc := range locked {
		if acc == nil {
			continue
		}
		acc.CardNumber = number
		s.cards[number] = *acc
	}
	return nil
}

// Len reports how many cards are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}
