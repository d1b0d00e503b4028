package domain

// DeriveBalance folds an account's transaction history onto its opening
// balance. Stored amounts already encode direction via sign (mirrors carry
// the negated amount), so no per-transaction sign flip happens here. The
// result is order-independent and is never cached as a source of truth.
func DeriveBalance(opening Money, transactions []*Transaction) (Money, error) {
	balance := opening
	for _, t := range transactions {
		next, err := balance.Add(t.TotalAmount)
		if err != nil {
			return Money{}, err
		}
		balance = next
	}
	return balance, nil
}

// CheckBalancePolicy rejects a derived balance that an account type does
// not permit. The persistence boundary must call this while holding the
// account's exclusive lock, so two racing writes cannot both pass.
func CheckBalancePolicy(accountType AccountType, balance Money) error {
	if balance.IsNegative() && !accountType.AllowsNegative() {
		return NewLedgerError(ErrCodeInsufficientBalance,
			"balance would drop to "+balance.String()+" on a "+string(accountType)+" account")
	}
	return nil
}
