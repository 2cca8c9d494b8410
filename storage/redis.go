package storage

import (
	"context"
	"errors"
	"fmt"

	"simple-banking/model"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "card:"

	// DefaultMaxRetries bounds optimistic retries of a watched transaction.
	DefaultMaxRetries = 16
)

// ErrConflict is returned when a watched transaction keeps losing races
// to concurrent writers.
var ErrConflict = errors.New("too many concurrent updates")

// cardHash is the layout of one card hash.
type cardHash struct {
	PIN     string `redis:"pin"`
	Balance int64  `redis:"balance"`
}

// RedisStore keeps one hash per card. Multi-card writes use MULTI/EXEC and
// read-modify-write cycles are guarded with WATCH, retried on conflict.
type RedisStore struct {
	rdb        *redis.Client
	maxRetries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithMaxRetries sets how many times a conflicting watched transaction is retried.
func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewRedisStore wraps a connected client and checks it responds.
func NewRedisStore(ctx context.Context, rdb *redis.Client, opts ...RedisOption) (*RedisStore, error) {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not reach redis: %w", err)
	}
	s := &RedisStore{rdb: rdb, maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func cardKey(cardNumber string) string {
	return keyPrefix + cardNumber
}

func (s *RedisStore) Get(ctx context.Context, cardNumber string) (*model.Account, error) {
	return load(ctx, s.rdb, cardNumber)
}

func (s *RedisStore) Insert(ctx context.Context, acc model.Account) error {
	key := cardKey(acc.CardNumber)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(ctx, pipe, acc)
			return nil
		})
		return err
	}, key)
	// Someone else touched the key between EXISTS and EXEC: it was created concurrently.
	if errors.Is(err, redis.TxFailedErr) {
		return ErrDuplicate
	}
	return err
}

func (s *RedisStore) Put(ctx context.Context, acc model.Account) error {
	return s.PutAll(ctx, acc)
}

func (s *RedisStore) Delete(ctx context.Context, cardNumber string) error {
	return s.rdb.Del(ctx, cardKey(cardNumber)).Err()
}

func (s *RedisStore) PutAll(ctx context.Context, accs ...model.Account) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, acc := range accs {
			write(ctx, pipe, acc)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Mutate(ctx context.Context, cardNumbers []string, fn MutateFunc) error {
	keys := make([]string, len(cardNumbers))
	for i, number := range cardNumbers {
		keys[i] = cardKey(number)
	}

	txf := func(tx *redis.Tx) error {
		locked := make(map[string]*model.Account, len(cardNumbers))
		for _, number := range cardNumbers {
			acc, err := load(ctx, tx, number)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			locked[number] = acc
		}

		if err := fn(locked); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for number, acc := range locked {
				if acc == nil {
					continue
				}
				acc.CardNumber = number
				write(ctx, pipe, *acc)
			}
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("mutate %v: %w", cardNumbers, ErrConflict)
}

// hashReader is satisfied by both *redis.Client and a watched *redis.Tx.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func load(ctx context.Context, c hashReader, cardNumber string) (*model.Account, error) {
	cmd := c.HGetAll(ctx, cardKey(cardNumber))
	fields, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	var h cardHash
	if err := cmd.Scan(&h); err != nil {
		return nil, fmt.Errorf("could not decode card %s: %w", cardNumber, err)
	}
	return &model.Account{CardNumber: cardNumber, PIN: h.PIN, Balance: h.Balance}, nil
}

func write(ctx context.Context, pipe redis.Pipeliner, acc model.Account) {
	pipe.HSet(ctx, cardKey(acc.CardNumber), "pin", acc.PIN, "balance", acc.Balance)
}
