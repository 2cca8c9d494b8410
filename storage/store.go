package storage

import (
	"context"
	"errors"

	"simple-banking/model"
)

// Custom errors for the storage layer.
var (
	ErrNotFound  = errors.New("card not found")
	ErrDuplicate = errors.New("card already exists")
)

// MutateFunc edits the locked records in place. Cards that do not exist are absent
// from the map. Returning an error aborts the mutation without writing anything.
type MutateFunc func(accounts map[string]*model.Account) error

// Store defines the keyed account storage the bank depends on.
// Reads are read-committed: Get always reflects the latest committed write.
type Store interface {
	// Get returns the record for cardNumber or ErrNotFound.
	Get(ctx context.Context, cardNumber string) (*model.Account, error)
	// Insert creates a record and fails with ErrDuplicate if the card already exists.
	Insert(ctx context.Context, acc model.Account) error
	// Put inserts or overwrites a record. It is idempotent.
	Put(ctx context.Context, acc model.Account) error
	// Delete removes a record. Deleting a missing card is not an error.
	Delete(ctx context.Context, cardNumber string) error
	// PutAll writes every record or none of them.
	PutAll(ctx context.Context, accs ...model.Account) error
	// Mutate locks the given cards against every other mutation, hands their
	// current records to fn and, if fn succeeds, writes the map back with the
	// same all-or-nothing semantics as PutAll.
	Mutate(ctx context.Context, cardNumbers []string, fn MutateFunc) error
}
