package ledger_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galexy/splitledger/internal/adapter/storage"
	"github.com/galexy/splitledger/internal/core/domain"
	"github.com/galexy/splitledger/internal/core/ledger"
)

// The memory store must satisfy every port the service consumes.
var (
	_ ledger.TransactionRepository = (*storage.MemoryStore)(nil)
	_ ledger.AccountRepository     = (*storage.MemoryStore)(nil)
	_ ledger.CategoryRepository    = (*storage.MemoryStore)(nil)
)

type fixture struct {
	service *ledger.Service
	store   *storage.MemoryStore
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	return &fixture{
		service: ledger.NewService(store, store, store),
		store:   store,
		ctx:     context.Background(),
	}
}

func (f *fixture) money(t *testing.T, s string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(s, domain.USD)
	require.NoError(t, err)
	return m
}

func (f *fixture) account(t *testing.T, accountType domain.AccountType, opening string) uuid.UUID {
	t.Helper()
	acc := &domain.Account{
		ID:             uuid.New(),
		OwnerName:      "tester",
		AccountType:    accountType,
		OpeningBalance: f.money(t, opening),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateAccount(f.ctx, acc))
	return acc.ID
}

func (f *fixture) category(t *testing.T, name string) uuid.UUID {
	t.Helper()
	cat := &domain.Category{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.CreateCategory(f.ctx, cat))
	return cat.ID
}

func (f *fixture) balance(t *testing.T, accountID uuid.UUID) domain.Money {
	t.Helper()
	balance, err := f.service.GetBalance(f.ctx, accountID)
	require.NoError(t, err)
	return balance
}

var testDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func categorized(amount domain.Money, categoryID uuid.UUID) domain.SplitLine {
	return domain.SplitLine{Amount: amount, Target: domain.CategoryTarget{CategoryID: categoryID}}
}

func transfer(amount domain.Money, accountID uuid.UUID) domain.SplitLine {
	return domain.SplitLine{Amount: amount, Target: domain.TransferTarget{AccountID: accountID}}
}

func TestCreateTransaction_SplitExpense(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	groceries := f.category(t, "Groceries")
	household := f.category(t, "Household")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-100.00"),
		Splits: []domain.SplitLine{
			categorized(f.money(t, "-60.00"), groceries),
			categorized(f.money(t, "-40.00"), household),
		},
		PayeeName: "Corner Store",
	})
	require.NoError(t, err)

	stored, err := f.store.GetTransaction(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Splits, 2)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.False(t, stored.IsMirror)
	assert.Empty(t, stored.MirrorIDs)

	assert.True(t, f.balance(t, checking).Equal(f.money(t, "900.00")))
}

func TestCreateTransaction_TransferCreatesMirror(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)
	require.Len(t, tx.MirrorIDs, 1)

	mirror, err := f.store.GetTransaction(f.ctx, tx.MirrorIDs[0])
	require.NoError(t, err)

	// Mirror linkage round-trips by id, and the two sides are exactly
	// equal-and-opposite.
	assert.True(t, mirror.IsMirror)
	assert.Equal(t, tx.ID, mirror.MirrorOf)
	assert.Equal(t, savings, mirror.AccountID)
	assert.True(t, mirror.TotalAmount.Equal(f.money(t, "500.00")))
	assert.Equal(t, domain.StatusPending, mirror.Status)

	// The mirror's single split points back at the source account.
	require.Len(t, mirror.Splits, 1)
	back, ok := mirror.Splits[0].TransferAccountID()
	require.True(t, ok)
	assert.Equal(t, checking, back)
	assert.True(t, mirror.Splits[0].Amount.Equal(mirror.TotalAmount))

	assert.True(t, f.balance(t, checking).Equal(f.money(t, "500.00")))
	assert.True(t, f.balance(t, savings).Equal(f.money(t, "500.00")))

	savingsHistory, err := f.service.ListTransactions(f.ctx, savings)
	require.NoError(t, err)
	require.Len(t, savingsHistory, 1)
	assert.Equal(t, mirror.ID, savingsHistory[0].ID)
}

func TestCreateTransaction_MultiWayTransfer(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")
	vacation := f.account(t, domain.AccountSavings, "0.00")
	fees := f.category(t, "Fees")

	// One transaction fans out into two transfers plus a categorized fee;
	// each transfer split gets its own mirror carrying that split's amount.
	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-305.00"),
		Splits: []domain.SplitLine{
			transfer(f.money(t, "-200.00"), savings),
			transfer(f.money(t, "-100.00"), vacation),
			categorized(f.money(t, "-5.00"), fees),
		},
	})
	require.NoError(t, err)
	require.Len(t, tx.MirrorIDs, 2)

	totals := map[uuid.UUID]string{savings: "200.00", vacation: "100.00"}
	for _, mirrorID := range tx.MirrorIDs {
		mirror, err := f.store.GetTransaction(f.ctx, mirrorID)
		require.NoError(t, err)
		want, ok := totals[mirror.AccountID]
		require.True(t, ok, "unexpected mirror account %s", mirror.AccountID)
		assert.True(t, mirror.TotalAmount.Equal(f.money(t, want)))
		assert.Equal(t, tx.ID, mirror.MirrorOf)
		delete(totals, mirror.AccountID)
	}
	assert.Empty(t, totals)

	assert.True(t, f.balance(t, checking).Equal(f.money(t, "695.00")))
	assert.True(t, f.balance(t, savings).Equal(f.money(t, "200.00")))
	assert.True(t, f.balance(t, vacation).Equal(f.money(t, "100.00")))
}

func TestCreateTransaction_SumMismatchPersistsNothing(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	cat := f.category(t, "Misc")

	_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-100.00"),
		Splits:        []domain.SplitLine{categorized(f.money(t, "-50.00"), cat)},
	})
	assert.Equal(t, domain.ErrCodeSplitSumMismatch, domain.CodeOf(err))

	history, err := f.service.ListTransactions(f.ctx, checking)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateTransaction_ReferentialChecks(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")

	t.Run("account not found", func(t *testing.T) {
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     uuid.New(),
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-10.00"),
			Splits:        []domain.SplitLine{categorized(f.money(t, "-10.00"), uuid.New())},
		})
		assert.Equal(t, domain.ErrCodeAccountNotFound, domain.CodeOf(err))
	})

	t.Run("category not found", func(t *testing.T) {
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-10.00"),
			Splits:        []domain.SplitLine{categorized(f.money(t, "-10.00"), uuid.New())},
		})
		assert.Equal(t, domain.ErrCodeCategoryNotFound, domain.CodeOf(err))
	})

	t.Run("transfer account not found", func(t *testing.T) {
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-10.00"),
			Splits:        []domain.SplitLine{transfer(f.money(t, "-10.00"), uuid.New())},
		})
		assert.Equal(t, domain.ErrCodeTransferAccountNotFound, domain.CodeOf(err))
	})

	t.Run("account currency mismatch", func(t *testing.T) {
		eur, err := domain.NewMoneyFromString("-10.00", domain.EUR)
		require.NoError(t, err)
		_, err = f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate,
			TotalAmount:   eur,
			Splits:        []domain.SplitLine{categorized(eur, uuid.New())},
		})
		assert.Equal(t, domain.ErrCodeCurrencyMismatch, domain.CodeOf(err))
	})
}

func TestCreateTransaction_NegativeBalancePolicy(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Rent")

	t.Run("checking rejects overdraft", func(t *testing.T) {
		checking := f.account(t, domain.AccountChecking, "1000.00")
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-2000.00"),
			Splits:        []domain.SplitLine{categorized(f.money(t, "-2000.00"), cat)},
		})
		assert.Equal(t, domain.ErrCodeInsufficientBalance, domain.CodeOf(err))

		history, err := f.service.ListTransactions(f.ctx, checking)
		require.NoError(t, err)
		assert.Empty(t, history)
		assert.True(t, f.balance(t, checking).Equal(f.money(t, "1000.00")))
	})

	t.Run("credit allows negative balance", func(t *testing.T) {
		card := f.account(t, domain.AccountCredit, "1000.00")
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     card,
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-2000.00"),
			Splits:        []domain.SplitLine{categorized(f.money(t, "-2000.00"), cat)},
		})
		require.NoError(t, err)
		assert.True(t, f.balance(t, card).Equal(f.money(t, "-1000.00")))
	})

	t.Run("rejected transfer leaves no half-written pair", func(t *testing.T) {
		checking := f.account(t, domain.AccountChecking, "100.00")
		savings := f.account(t, domain.AccountSavings, "0.00")
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate,
			TotalAmount:   f.money(t, "-500.00"),
			Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
		})
		assert.Equal(t, domain.ErrCodeInsufficientBalance, domain.CodeOf(err))

		savingsHistory, err := f.service.ListTransactions(f.ctx, savings)
		require.NoError(t, err)
		assert.Empty(t, savingsHistory)
		assert.True(t, f.balance(t, savings).IsZero())
	})
}

func TestDeleteTransaction_CascadesToMirror(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)
	mirrorID := tx.MirrorIDs[0]

	require.NoError(t, f.service.DeleteTransaction(f.ctx, tx.ID))

	_, err = f.store.GetTransaction(f.ctx, tx.ID)
	assert.Equal(t, domain.ErrCodeTransactionNotFound, domain.CodeOf(err))
	_, err = f.store.GetTransaction(f.ctx, mirrorID)
	assert.Equal(t, domain.ErrCodeTransactionNotFound, domain.CodeOf(err))

	assert.True(t, f.balance(t, checking).Equal(f.money(t, "1000.00")))
	assert.True(t, f.balance(t, savings).IsZero())
}

func TestDeleteMirror_Refused(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)
	mirrorID := tx.MirrorIDs[0]

	err = f.service.DeleteTransaction(f.ctx, mirrorID)
	assert.Equal(t, domain.ErrCodeCannotDeleteMirror, domain.CodeOf(err))

	// Both sides are untouched.
	source, err := f.store.GetTransaction(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mirrorID}, source.MirrorIDs)
	mirror, err := f.store.GetTransaction(f.ctx, mirrorID)
	require.NoError(t, err)
	assert.True(t, mirror.TotalAmount.Equal(f.money(t, "500.00")))
}

func TestReplaceTransaction_RecreatesMirrorPair(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")
	vacation := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)
	oldMirrorID := tx.MirrorIDs[0]

	// Redirect the transfer to another account with a different amount.
	replaced, err := f.service.ReplaceTransaction(f.ctx, tx.ID, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate.AddDate(0, 0, 1),
		TotalAmount:   f.money(t, "-300.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-300.00"), vacation)},
	})
	require.NoError(t, err)
	require.Len(t, replaced.MirrorIDs, 1)
	assert.NotEqual(t, oldMirrorID, replaced.MirrorIDs[0])

	// The old mirror is gone, not patched.
	_, err = f.store.GetTransaction(f.ctx, oldMirrorID)
	assert.Equal(t, domain.ErrCodeTransactionNotFound, domain.CodeOf(err))

	assert.True(t, f.balance(t, checking).Equal(f.money(t, "700.00")))
	assert.True(t, f.balance(t, savings).IsZero())
	assert.True(t, f.balance(t, vacation).Equal(f.money(t, "300.00")))
}

func TestReplaceMirror_Refused(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)

	_, err = f.service.ReplaceTransaction(f.ctx, tx.MirrorIDs[0], ledger.TransactionInput{
		AccountID:     savings,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "1.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "1.00"), checking)},
	})
	assert.Equal(t, domain.ErrCodeCannotDeleteMirror, domain.CodeOf(err))
}

func TestMarkCleared(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "1000.00")
	savings := f.account(t, domain.AccountSavings, "0.00")

	tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
		AccountID:     checking,
		EffectiveDate: testDate,
		TotalAmount:   f.money(t, "-500.00"),
		Splits:        []domain.SplitLine{transfer(f.money(t, "-500.00"), savings)},
	})
	require.NoError(t, err)

	cleared, err := f.service.MarkCleared(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCleared, cleared.Status)

	// Irreversible: clearing twice is an illegal transition.
	_, err = f.service.MarkCleared(f.ctx, tx.ID)
	assert.Equal(t, domain.ErrCodeAlreadyCleared, domain.CodeOf(err))

	// Each side reconciles independently; the mirror clears on its own.
	_, err = f.service.MarkCleared(f.ctx, tx.MirrorIDs[0])
	require.NoError(t, err)

	_, err = f.service.MarkCleared(f.ctx, uuid.New())
	assert.Equal(t, domain.ErrCodeTransactionNotFound, domain.CodeOf(err))
}

func TestCreateTransaction_RandomizedSplitSets(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "0.00")
	cat := f.category(t, "Income")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		n := 1 + rng.Intn(6)
		splits := make([]domain.SplitLine, 0, n)
		total := decimal.Zero
		for j := 0; j < n; j++ {
			cents := 1 + rng.Intn(100000)
			amount := domain.NewMoney(decimal.New(int64(cents), -2), domain.USD)
			total = total.Add(amount.Amount)
			splits = append(splits, categorized(amount, cat))
		}

		tx, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate.AddDate(0, 0, i),
			TotalAmount:   domain.Money{Amount: total, Currency: domain.USD},
			Splits:        splits,
			Memo:          fmt.Sprintf("random set %d", i),
		})
		require.NoError(t, err)

		// Persisted splits still reconcile exactly to the stored total.
		stored, err := f.store.GetTransaction(f.ctx, tx.ID)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, s := range stored.Splits {
			sum = sum.Add(s.Amount.Amount)
		}
		assert.True(t, sum.Equal(stored.TotalAmount.Amount))
	}
}

func TestGetBalance_MatchesFullScan(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, domain.AccountChecking, "250.00")
	cat := f.category(t, "Misc")

	amounts := []string{"100.00", "-30.00", "12.34", "-0.01", "55.55", "-137.88"}
	for i, a := range amounts {
		_, err := f.service.CreateTransaction(f.ctx, ledger.TransactionInput{
			AccountID:     checking,
			EffectiveDate: testDate.AddDate(0, 0, -i), // deliberately out of order
			TotalAmount:   f.money(t, a),
			Splits:        []domain.SplitLine{categorized(f.money(t, a), cat)},
		})
		require.NoError(t, err)
	}

	history, err := f.service.ListTransactions(f.ctx, checking)
	require.NoError(t, err)
	want, err := domain.DeriveBalance(f.money(t, "250.00"), history)
	require.NoError(t, err)

	assert.True(t, f.balance(t, checking).Equal(want))
	assert.True(t, want.Equal(f.money(t, "250.00")))
}
