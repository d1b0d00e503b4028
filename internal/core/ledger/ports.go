package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/core/domain"
)

// TransactionRepository is the persistence port the ledger core writes
// through. Implementations must make SaveTransactionPair and
// DeleteTransactionCascade atomic, and must run the negative-balance
// policy check while holding an exclusive per-account lock spanning the
// check and the write.
type TransactionRepository interface {
	// SaveTransactionPair upserts a source transaction together with its
	// mirrors as one all-or-nothing unit. Any mirrors previously produced
	// by the same source are removed in the same unit, which is how a
	// full-replace edit swaps the mirror set instead of patching it.
	SaveTransactionPair(ctx context.Context, source *domain.Transaction, mirrors []*domain.Transaction) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// DeleteTransactionCascade removes a transaction and its mirrors
	// atomically.
	DeleteTransactionCascade(ctx context.Context, id uuid.UUID) error

	// FindTransactionsForAccount returns every transaction posted to the
	// account, mirrors included, newest first.
	FindTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error
}

// AccountRepository resolves account references for validation and balance
// derivation.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// CategoryRepository resolves category references on categorized splits.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}
