package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUSD(t *testing.T, s string) Money {
	t.Helper()
	m, err := NewMoneyFromString(s, USD)
	require.NoError(t, err)
	return m
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("parses exact decimals", func(t *testing.T) {
		m := mustUSD(t, "100.00")
		assert.True(t, m.Amount.Equal(decimal.RequireFromString("100")))
		assert.Equal(t, USD, m.Currency)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := NewMoneyFromString("one hundred", USD)
		require.Error(t, err)
	})

	t.Run("rounds to four decimal places", func(t *testing.T) {
		m := mustUSD(t, "0.12345")
		assert.Equal(t, "0.1235", m.Amount.String())
	})
}

func TestMoney_Add(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		sum, err := mustUSD(t, "60.00").Add(mustUSD(t, "40.00"))
		require.NoError(t, err)
		assert.True(t, sum.Equal(mustUSD(t, "100.00")))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur, err := NewMoneyFromString("40.00", EUR)
		require.NoError(t, err)
		_, err = mustUSD(t, "60.00").Add(eur)
		require.Error(t, err)
		assert.Equal(t, ErrCodeCurrencyMismatch, CodeOf(err))
	})

	t.Run("no precision loss", func(t *testing.T) {
		// 0.1 + 0.2 is exactly 0.3 in decimal, unlike binary floats.
		sum, err := mustUSD(t, "0.1").Add(mustUSD(t, "0.2"))
		require.NoError(t, err)
		assert.True(t, sum.Equal(mustUSD(t, "0.3")))
	})
}

func TestMoney_Sub(t *testing.T) {
	diff, err := mustUSD(t, "100.00").Sub(mustUSD(t, "140.00"))
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.True(t, diff.Equal(mustUSD(t, "-40.00")))

	eur, err := NewMoneyFromString("1", EUR)
	require.NoError(t, err)
	_, err = mustUSD(t, "1").Sub(eur)
	assert.Equal(t, ErrCodeCurrencyMismatch, CodeOf(err))
}

func TestMoney_Neg(t *testing.T) {
	m := mustUSD(t, "500.00")
	neg := m.Neg()
	assert.True(t, neg.Equal(mustUSD(t, "-500.00")))
	assert.True(t, neg.Neg().Equal(m))
	assert.True(t, Zero(USD).Neg().IsZero())
}

func TestMoney_Equal(t *testing.T) {
	assert.True(t, mustUSD(t, "100").Equal(mustUSD(t, "100.00")))
	assert.False(t, mustUSD(t, "100").Equal(mustUSD(t, "100.01")))

	eur, err := NewMoneyFromString("100", EUR)
	require.NoError(t, err)
	assert.False(t, mustUSD(t, "100").Equal(eur))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "100.00 USD", mustUSD(t, "100").String())
	assert.Equal(t, "-42.50 USD", mustUSD(t, "-42.5").String())
}
