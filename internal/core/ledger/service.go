package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/core/domain"
)

// Service is the application-facing surface of the ledger core. All
// mutations flow through it: splits are validated, mirrors are synthesized,
// and the repository persists each source+mirror set atomically.
type Service struct {
	transactions TransactionRepository
	accounts     AccountRepository
	categories   CategoryRepository
}

func NewService(transactions TransactionRepository, accounts AccountRepository, categories CategoryRepository) *Service {
	return &Service{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
	}
}

// TransactionInput carries the caller-supplied fields of a create or
// full-replace request.
type TransactionInput struct {
	AccountID     uuid.UUID
	EffectiveDate time.Time
	TotalAmount   domain.Money
	Splits        []domain.SplitLine
	PayeeName     string
	Memo          string
}

// CreateTransaction validates the input, synthesizes mirrors for any
// transfer splits, and persists the whole set in one atomic unit.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (*domain.Transaction, error) {
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:            uuid.New(),
		AccountID:     in.AccountID,
		EffectiveDate: in.EffectiveDate,
		TotalAmount:   in.TotalAmount,
		Splits:        in.Splits,
		PayeeName:     in.PayeeName,
		Memo:          in.Memo,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	mirrors := buildMirrors(tx)

	if err := s.transactions.SaveTransactionPair(ctx, tx, mirrors); err != nil {
		return nil, err
	}
	return tx, nil
}

// ReplaceTransaction applies a whole-transaction edit. There are no
// partial in-place split edits: the replacement is revalidated from
// scratch and the previous mirror set is swapped for a freshly built one
// within the same atomic write.
func (s *Service) ReplaceTransaction(ctx context.Context, id uuid.UUID, in TransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsMirror {
		return nil, domain.NewLedgerError(domain.ErrCodeCannotDeleteMirror,
			"mirror transactions cannot be edited directly; edit the source transaction "+existing.MirrorOf.String())
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	replacement := &domain.Transaction{
		ID:            existing.ID,
		AccountID:     in.AccountID,
		EffectiveDate: in.EffectiveDate,
		TotalAmount:   in.TotalAmount,
		Splits:        in.Splits,
		PayeeName:     in.PayeeName,
		Memo:          in.Memo,
		Status:        existing.Status,
		CreatedAt:     existing.CreatedAt,
	}
	mirrors := buildMirrors(replacement)

	if err := s.transactions.SaveTransactionPair(ctx, replacement, mirrors); err != nil {
		return nil, err
	}
	return replacement, nil
}

// DeleteTransaction removes a source transaction and cascades to its
// mirrors. Deleting a mirror directly is refused; the caller must delete
// the source.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	existing, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsMirror {
		return domain.NewLedgerError(domain.ErrCodeCannotDeleteMirror,
			"mirror transactions cannot be deleted directly; delete the source transaction "+existing.MirrorOf.String())
	}
	return s.transactions.DeleteTransactionCascade(ctx, id)
}

// MarkCleared advances reconciliation pending -> cleared. Mirrors may be
// cleared too: each side reconciles against its own account's statement.
func (s *Service) MarkCleared(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Clear(); err != nil {
		return nil, err
	}
	if err := s.transactions.UpdateStatus(ctx, id, domain.StatusCleared); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetBalance derives the account's current balance from its opening
// balance plus full transaction history. Nothing is cached.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (domain.Money, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}
	history, err := s.transactions.FindTransactionsForAccount(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.DeriveBalance(account.OpeningBalance, history)
}

// ListTransactions returns the account's history, mirrors included.
func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.transactions.FindTransactionsForAccount(ctx, accountID)
}

// checkReferences runs split validation plus the referential re-checks the
// core performs even when the application layer has already resolved them:
// the owning account, every category reference, and every transfer target
// (which must also share the transaction's currency).
func (s *Service) checkReferences(ctx context.Context, in TransactionInput) error {
	account, err := s.accounts.GetAccount(ctx, in.AccountID)
	if err != nil {
		return err
	}
	if !in.TotalAmount.SameCurrency(account.OpeningBalance) {
		return domain.NewLedgerError(domain.ErrCodeCurrencyMismatch,
			"transaction currency "+string(in.TotalAmount.Currency)+" does not match account currency "+string(account.Currency()))
	}

	if err := ValidateSplits(in.AccountID, in.TotalAmount, in.Splits); err != nil {
		return err
	}

	for _, split := range in.Splits {
		if categoryID, ok := split.CategoryID(); ok {
			exists, err := s.categories.CategoryExists(ctx, categoryID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.NewLedgerError(domain.ErrCodeCategoryNotFound,
					"category "+categoryID.String()+" does not exist")
			}
		}
		if targetID, ok := split.TransferAccountID(); ok {
			target, err := s.accounts.GetAccount(ctx, targetID)
			if err != nil {
				if domain.CodeOf(err) == domain.ErrCodeAccountNotFound {
					return domain.NewLedgerError(domain.ErrCodeTransferAccountNotFound,
						"transfer target account "+targetID.String()+" does not exist")
				}
				return err
			}
			if target.Currency() != in.TotalAmount.Currency {
				return domain.NewLedgerError(domain.ErrCodeCurrencyMismatch,
					"transfer target account "+targetID.String()+" holds "+string(target.Currency()))
			}
		}
	}
	return nil
}
