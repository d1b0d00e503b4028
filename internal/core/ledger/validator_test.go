package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galexy/splitledger/internal/core/domain"
)

func usd(t *testing.T, s string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(s, domain.USD)
	require.NoError(t, err)
	return m
}

func categorySplit(t *testing.T, amount string) domain.SplitLine {
	t.Helper()
	return domain.SplitLine{
		Amount: usd(t, amount),
		Target: domain.CategoryTarget{CategoryID: uuid.New()},
	}
}

func TestValidateSplits(t *testing.T) {
	accountID := uuid.New()

	t.Run("valid categorized splits", func(t *testing.T) {
		err := ValidateSplits(accountID, usd(t, "-100.00"),
			[]domain.SplitLine{categorySplit(t, "-60.00"), categorySplit(t, "-40.00")})
		assert.NoError(t, err)
	})

	t.Run("valid transfer split", func(t *testing.T) {
		err := ValidateSplits(accountID, usd(t, "-500.00"), []domain.SplitLine{{
			Amount: usd(t, "-500.00"),
			Target: domain.TransferTarget{AccountID: uuid.New()},
		}})
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		total    domain.Money
		splits   []domain.SplitLine
		wantCode domain.ErrorCode
	}{
		{
			name:     "empty splits",
			total:    usd(t, "-100.00"),
			splits:   nil,
			wantCode: domain.ErrCodeEmptySplits,
		},
		{
			name:  "split with no target",
			total: usd(t, "-100.00"),
			splits: []domain.SplitLine{
				{Amount: usd(t, "-100.00")},
			},
			wantCode: domain.ErrCodeMixedSplitTarget,
		},
		{
			name:  "currency mismatch",
			total: usd(t, "-100.00"),
			splits: []domain.SplitLine{{
				Amount: domain.Money{Amount: usd(t, "-100.00").Amount, Currency: domain.EUR},
				Target: domain.CategoryTarget{CategoryID: uuid.New()},
			}},
			wantCode: domain.ErrCodeCurrencyMismatch,
		},
		{
			name:     "sum mismatch",
			total:    usd(t, "-100.00"),
			splits:   []domain.SplitLine{categorySplit(t, "-50.00")},
			wantCode: domain.ErrCodeSplitSumMismatch,
		},
		{
			name:  "no rounding tolerance on sum",
			total: usd(t, "-100.00"),
			splits: []domain.SplitLine{
				categorySplit(t, "-60.00"), categorySplit(t, "-40.0001"),
			},
			wantCode: domain.ErrCodeSplitSumMismatch,
		},
		{
			name:  "self transfer",
			total: usd(t, "-100.00"),
			splits: []domain.SplitLine{{
				Amount: usd(t, "-100.00"),
				Target: domain.TransferTarget{AccountID: accountID},
			}},
			wantCode: domain.ErrCodeSelfTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(accountID, tt.total, tt.splits)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.CodeOf(err))
		})
	}
}

func TestValidateSplits_ExactSumOverManySplits(t *testing.T) {
	// Three-way split of $0.01 steps must reconcile without tolerance.
	splits := []domain.SplitLine{
		categorySplit(t, "-33.33"),
		categorySplit(t, "-33.33"),
		categorySplit(t, "-33.34"),
	}
	assert.NoError(t, ValidateSplits(uuid.New(), usd(t, "-100.00"), splits))
}
