package domain

import "github.com/google/uuid"

// SplitTarget says where one allocation of a transaction's total goes:
// either a spending/income category or a counter-account transfer leg.
// The sealed interface makes "both set" unrepresentable; "neither set"
// is a nil Target and is rejected by validation.
type SplitTarget interface {
	isSplitTarget()
}

// CategoryTarget allocates a split to a spending or income category.
type CategoryTarget struct {
	CategoryID uuid.UUID
}

// TransferTarget allocates a split as one leg of a transfer into another
// account.
type TransferTarget struct {
	AccountID uuid.UUID
}

func (CategoryTarget) isSplitTarget() {}
func (TransferTarget) isSplitTarget() {}

// SplitLine is one allocation within a transaction. It only exists nested
// inside a Transaction.
type SplitLine struct {
	Amount Money
	Target SplitTarget
	Memo   string
}

// CategoryID returns the category reference when this split is a
// categorized allocation.
func (s SplitLine) CategoryID() (uuid.UUID, bool) {
	if t, ok := s.Target.(CategoryTarget); ok {
		return t.CategoryID, true
	}
	return uuid.Nil, false
}

// TransferAccountID returns the counter-account reference when this split
// is a transfer leg.
func (s SplitLine) TransferAccountID() (uuid.UUID, bool) {
	if t, ok := s.Target.(TransferTarget); ok {
		return t.AccountID, true
	}
	return uuid.Nil, false
}
