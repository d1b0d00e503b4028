package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType decides whether an account may carry a negative derived
// balance. Deposit accounts may not go below zero; debt accounts may.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountSavings  AccountType = "SAVINGS"
	AccountCredit   AccountType = "CREDIT"
	AccountLoan     AccountType = "LOAN"
)

// AllowsNegative reports whether a derived balance below zero is legal for
// this account type.
func (t AccountType) AllowsNegative() bool {
	switch t {
	case AccountCredit, AccountLoan:
		return true
	default:
		return false
	}
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountLoan:
		return true
	}
	return false
}

// Account is an external collaborator of the ledger core: the core only
// reads its opening balance and type. Balances are never stored on it.
type Account struct {
	ID             uuid.UUID
	OwnerName      string
	AccountType    AccountType
	OpeningBalance Money
	CreatedAt      time.Time
}

// Currency is the account's currency, fixed by its opening balance.
func (a *Account) Currency() Currency {
	return a.OpeningBalance.Currency
}

// Category is a referenced-by-id collaborator used by categorized splits.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
