// storage/postgres.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simple-banking/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a duplicate primary key.
const uniqueViolation = "23505"

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore, connects to the database, and initializes the schema.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database for a few seconds
	for i := 0; i < 5; i++ {
		pool, err = pgxpool.New(ctx, connString)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database after retries: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// initSchema creates the card table if it doesn't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS card (
        number CHAR(16) PRIMARY KEY,
        pin CHAR(4) NOT NULL,
        balance BIGINT NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`
	_, err := s.db.Exec(ctx, query)
	return err
}

// Get retrieves a single card by its number.
func (s *PostgresStore) Get(ctx context.Context, cardNumber string) (*model.Account, error) {
	acc := &model.Account{CardNumber: cardNumber}
	query := "SELECT pin, balance FROM card WHERE number = $1"
	err := s.db.QueryRow(ctx, query, cardNumber).Scan(&acc.PIN, &acc.Balance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return acc, nil
}

// Insert creates a new card. Unlike Put it never overwrites: an existing
// number is reported as ErrDuplicate so the caller can draw another one.
func (s *PostgresStore) Insert(ctx context.Context, acc model.Account) error {
	query := "INSERT INTO card (number, pin, balance) VALUES ($1, $2, $3)"
	_, err := s.db.Exec(ctx, query, acc.CardNumber, acc.PIN, acc.Balance)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

const upsertQuery = `
	INSERT INTO card (number, pin, balance)
	VALUES ($1, $2, $3)
	ON CONFLICT (number) DO UPDATE SET pin = EXCLUDED.pin, balance = EXCLUDED.balance`

// Put inserts the card or overwrites its pin and balance.
func (s *PostgresStore) Put(ctx context.Context, acc model.Account) error {
	_, err := s.db.Exec(ctx, upsertQuery, acc.CardNumber, acc.PIN, acc.Balance)
	return err
}

// Delete removes a card. It is a no-op if the card does not exist.
func (s *PostgresStore) Delete(ctx context.Context, cardNumber string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM card WHERE number = $1", cardNumber)
	return err
}

// PutAll upserts all cards within a single database transaction.
func (s *PostgresStore) PutAll(ctx context.Context, accs ...model.Account) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction has been committed.

	if err := upsertAll(ctx, tx, accs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Mutate runs fn against the given cards within a database transaction.
// It locks the rows to prevent race conditions with concurrent transfers and deposits.
func (s *PostgresStore) Mutate(ctx context.Context, cardNumbers []string, fn MutateFunc) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock cards in a consistent order (by number) to prevent deadlocks.
	query := `
        SELECT number, pin, balance FROM card
        WHERE number = ANY($1)
        ORDER BY number FOR UPDATE`

	rows, err := tx.Query(ctx, query, cardNumbers)
	if err != nil {
		return fmt.Errorf("could not query cards for update: %w", err)
	}
	locked := make(map[string]*model.Account, len(cardNumbers))
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.CardNumber, &acc.PIN, &acc.Balance); err != nil {
			rows.Close()
			return fmt.Errorf("could not scan card row: %w", err)
		}
		locked[acc.CardNumber] = &acc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("could not read cards for update: %w", err)
	}

	if err := fn(locked); err != nil {
		return err
	}

	accs := make([]model.Account, 0, len(locked))
	for number, acc := range locked {
		if acc == nil {
			continue
		}
		acc.CardNumber = number
		accs = append(accs, *acc)
	}
	if err := upsertAll(ctx, tx, accs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertAll(ctx context.Context, tx pgx.Tx, accs []model.Account) error {
	for _, acc := range accs {
		if _, err := tx.Exec(ctx, upsertQuery, acc.CardNumber, acc.PIN, acc.Balance); err != nil {
			return fmt.Errorf("could not write card %s: %w", acc.CardNumber, err)
		}
	}
	return nil
}
