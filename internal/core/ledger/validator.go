package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/galexy/splitledger/internal/core/domain"
)

// ValidateSplits verifies that a candidate split set is well-formed and
// reconciles exactly to the transaction total. Pure: no I/O, no side
// effects. Runs before any persistence attempt on create or full-replace
// edit.
func ValidateSplits(accountID uuid.UUID, total domain.Money, splits []domain.SplitLine) error {
	if len(splits) == 0 {
		return domain.NewLedgerError(domain.ErrCodeEmptySplits, "transaction has no splits")
	}

	sum := decimal.Zero
	for i, split := range splits {
		if split.Target == nil {
			return domain.NewLedgerError(domain.ErrCodeMixedSplitTarget,
				fmt.Sprintf("split %d has neither a category nor a transfer target", i))
		}
		if !split.Amount.SameCurrency(total) {
			return domain.NewLedgerError(domain.ErrCodeCurrencyMismatch,
				fmt.Sprintf("split %d is %s but the transaction total is %s",
					i, split.Amount.Currency, total.Currency))
		}
		if target, ok := split.TransferAccountID(); ok && target == accountID {
			return domain.NewLedgerError(domain.ErrCodeSelfTransfer,
				fmt.Sprintf("split %d transfers to the transaction's own account", i))
		}
		sum = sum.Add(split.Amount.Amount)
	}

	// Exact reconciliation, no rounding tolerance.
	if !sum.Equal(total.Amount) {
		return domain.NewLedgerError(domain.ErrCodeSplitSumMismatch,
			fmt.Sprintf("splits sum to %s but the total is %s", sum.String(), total.Amount.String()))
	}
	return nil
}
