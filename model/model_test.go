package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccountJSON checks the PIN never leaks into serialized accounts.
func TestAccountJSON(t *testing.T) {
	acc := Account{CardNumber: "4000001234567899", PIN: "0420", Balance: 1500}

	jsonData, err := json.Marshal(acc)
	require.NoError(t, err)

	assert.JSONEq(t, `{"card_number":"4000001234567899","balance":1500}`, string(jsonData))
	assert.NotContains(t, string(jsonData), "0420")
}

func TestAmountMinorUnits(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int64
		wantErr bool
	}{
		{name: "json number", body: `{"amount":1500}`, want: 1500},
		{name: "json string", body: `{"amount":"250"}`, want: 250},
		{name: "trailing zero fraction", body: `{"amount":"250.00"}`, want: 250},
		{name: "negative stays negative", body: `{"amount":-10}`, want: -10},
		{name: "missing amount is zero", body: `{}`, want: 0},
		{name: "fraction rejected", body: `{"amount":"10.5"}`, wantErr: true},
		{name: "overflow rejected", body: `{"amount":"9223372036854775808"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req IncomeRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			got, err := req.Amount.MinorUnits()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unmarshal with invalid amount type", func(t *testing.T) {
		var req TransactionRequest
		err := json.Unmarshal([]byte(`{"destination_card_number":"4000001234567899","amount":true}`), &req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't convert true to decimal")
	})
}
