package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"simple-banking/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

// testStoreContract runs the behaviour every Store implementation must share.
// newStore must return an empty store.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		s := newStore(t)
		acc := model.Account{CardNumber: "4000001111111114", PIN: "0042", Balance: 0}
		require.NoError(t, s.Insert(ctx, acc))

		got, err := s.Get(ctx, acc.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, acc, *got)
	})

	t.Run("get missing card", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "4000009999999999")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("insert rejects duplicate without overwriting", func(t *testing.T) {
		s := newStore(t)
		acc := model.Account{CardNumber: "4000002222222222", PIN: "1111", Balance: 10}
		require.NoError(t, s.Insert(ctx, acc))

		err := s.Insert(ctx, model.Account{CardNumber: acc.CardNumber, PIN: "2222"})
		assert.ErrorIs(t, err, ErrDuplicate)

		got, err := s.Get(ctx, acc.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, "1111", got.PIN)
		assert.Equal(t, int64(10), got.Balance)
	})

	t.Run("put is idempotent upsert", func(t *testing.T) {
		s := newStore(t)
		acc := model.Account{CardNumber: "4000003333333330", PIN: "3333", Balance: 5}
		require.NoError(t, s.Put(ctx, acc))
		require.NoError(t, s.Put(ctx, acc))

		acc.Balance = 7
		require.NoError(t, s.Put(ctx, acc))

		got, err := s.Get(ctx, acc.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.Balance)
	})

	t.Run("delete is unconditional", func(t *testing.T) {
		s := newStore(t)
		acc := model.Account{CardNumber: "4000004444444446", PIN: "4444", Balance: 99}
		require.NoError(t, s.Insert(ctx, acc))

		require.NoError(t, s.Delete(ctx, acc.CardNumber))
		_, err := s.Get(ctx, acc.CardNumber)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Delete(ctx, acc.CardNumber))
	})

	t.Run("put all writes every record", func(t *testing.T) {
		s := newStore(t)
		a := model.Account{CardNumber: "4000005555555553", PIN: "5555", Balance: 1}
		b := model.Account{CardNumber: "4000006666666669", PIN: "6666", Balance: 2}
		require.NoError(t, s.PutAll(ctx, a, b))

		for _, want := range []model.Account{a, b} {
			got, err := s.Get(ctx, want.CardNumber)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		}
	})

	t.Run("mutate writes changes and omits missing cards", func(t *testing.T) {
		s := newStore(t)
		a := model.Account{CardNumber: "4000007777777775", PIN: "7777", Balance: 100}
		require.NoError(t, s.Insert(ctx, a))

		missing := "4000008888888882"
		err := s.Mutate(ctx, []string{a.CardNumber, missing}, func(accs map[string]*model.Account) error {
			assert.Len(t, accs, 1)
			assert.NotContains(t, accs, missing)
			accs[a.CardNumber].Balance -= 40
			return nil
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, a.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, int64(60), got.Balance)
		_, err = s.Get(ctx, missing)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mutate error writes nothing", func(t *testing.T) {
		s := newStore(t)
		a := model.Account{CardNumber: "4000001212121218", PIN: "1212", Balance: 100}
		b := model.Account{CardNumber: "4000003434343434", PIN: "3434", Balance: 0}
		require.NoError(t, s.PutAll(ctx, a, b))

		err := s.Mutate(ctx, []string{a.CardNumber, b.CardNumber}, func(accs map[string]*model.Account) error {
			accs[a.CardNumber].Balance -= 50
			accs[b.CardNumber].Balance += 50
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		gotA, err := s.Get(ctx, a.CardNumber)
		require.NoError(t, err)
		gotB, err := s.Get(ctx, b.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, int64(100), gotA.Balance)
		assert.Equal(t, int64(0), gotB.Balance)
	})

	t.Run("concurrent mutations do not lose updates", func(t *testing.T) {
		s := newStore(t)
		a := model.Account{CardNumber: "4000005656565652", PIN: "5656", Balance: 1000}
		b := model.Account{CardNumber: "4000007878787870", PIN: "7878", Balance: 1000}
		require.NoError(t, s.PutAll(ctx, a, b))

		move := func(from, to string) error {
			return s.Mutate(ctx, []string{from, to}, func(accs map[string]*model.Account) error {
				if accs[from].Balance < 1 {
					return fmt.Errorf("%s drained", from)
				}
				accs[from].Balance--
				accs[to].Balance++
				return nil
			})
		}

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := move(a.CardNumber, b.CardNumber); err != nil {
					errs <- err
				}
			}()
			go func() {
				defer wg.Done()
				if err := move(b.CardNumber, a.CardNumber); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		var errorList []error
		for err := range errs {
			errorList = append(errorList, err)
		}
		require.Empty(t, errorList, "concurrent mutations should not fail: %v", errorList)

		gotA, err := s.Get(ctx, a.CardNumber)
		require.NoError(t, err)
		gotB, err := s.Get(ctx, b.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), gotA.Balance)
		assert.Equal(t, int64(1000), gotB.Balance)
	})
}
