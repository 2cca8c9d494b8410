package luhn

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"known visa test number", "4111111111111111", true},
		{"known number with odd length", "79927398713", true},
		{"single zero", "0", true},
		{"transposed digits", "4111111111111121", false},
		{"wrong check digit", "79927398710", false},
		{"empty", "", false},
		{"letters", "4000a00000000017", false},
		{"spaces", "4000 0000 0000 0017", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.number))
		})
	}
}

func TestCheckDigit(t *testing.T) {
	t.Run("known prefixes", func(t *testing.T) {
		assert.Equal(t, 3, CheckDigit("7992739871"))
		assert.Equal(t, 1, CheckDigit("411111111111111"))
		assert.Equal(t, 0, CheckDigit("0"))
	})

	t.Run("every 15 digit prefix becomes valid", func(t *testing.T) {
		r := rand.New(rand.NewPCG(1, 2))
		for i := 0; i < 2000; i++ {
			prefix := fmt.Sprintf("%015d", r.Int64N(1_000_000_000_000_000))
			full := prefix + strconv.Itoa(CheckDigit(prefix))
			assert.True(t, Valid(full), "prefix %s produced invalid %s", prefix, full)
		}
	})

	t.Run("exactly one check digit is valid", func(t *testing.T) {
		prefix := "400000000000001"
		valid := 0
		for d := 0; d <= 9; d++ {
			if Valid(prefix + strconv.Itoa(d)) {
				valid++
				assert.Equal(t, d, CheckDigit(prefix))
			}
		}
		assert.Equal(t, 1, valid)
	})

	t.Run("non-digit input panics", func(t *testing.T) {
		assert.Panics(t, func() { CheckDigit("40000x") })
	})
}
