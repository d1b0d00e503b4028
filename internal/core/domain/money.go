package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	TZS Currency = "TZS"
)

// MoneyScale is the fixed internal precision of amounts. Intermediate math
// keeps four decimal places; rounding to two happens only when a value is
// formatted for display.
const MoneyScale = 4

// Money is an exact decimal amount tagged with a currency. It is an
// immutable value: every operation returns a new Money.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney creates a Money, rounding the amount to the internal scale.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{
		Amount:   amount.Round(MoneyScale),
		Currency: currency,
	}
}

// NewMoneyFromString parses a decimal string such as "100.00" or "-42.5".
func NewMoneyFromString(s string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d, currency), nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add adds two Money values safely.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, NewLedgerError(ErrCodeCurrencyMismatch,
			fmt.Sprintf("cannot add %s to %s", other.Currency, m.Currency))
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub subtracts other from m safely.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, NewLedgerError(ErrCodeCurrencyMismatch,
			fmt.Sprintf("cannot subtract %s from %s", other.Currency, m.Currency))
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Neg returns the sign-negated amount in the same currency.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Equal reports whether both currency and amount match exactly.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String formats the amount at display precision, e.g. "100.00 USD".
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + string(m.Currency)
}
