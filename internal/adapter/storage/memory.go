package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/core/domain"
)

// MemoryStore is an in-memory implementation of the ledger's repository
// ports, safe for concurrent use. The atomicity and per-account
// serialization the ports demand come from a single mutex spanning the
// balance check and the write. Data is lost on restart; it backs the test
// suites.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*domain.Account
	categories   map[uuid.UUID]*domain.Category
	transactions map[uuid.UUID]*domain.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[uuid.UUID]*domain.Account),
		categories:   make(map[uuid.UUID]*domain.Category),
		transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.NewLedgerError(domain.ErrCodeAccountNotFound,
			"account "+id.String()+" does not exist")
	}
	cp := *acc
	return &cp, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[id]
	return ok, nil
}

// SaveTransactionPair stages the whole write, runs the balance policy
// against the staged state, and only then swaps it in. Nothing is
// observable until every check has passed.
func (s *MemoryStore) SaveTransactionPair(ctx context.Context, source *domain.Transaction, mirrors []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected := []*domain.Transaction{source}
	affected = append(affected, mirrors...)
	for _, t := range affected {
		if _, ok := s.accounts[t.AccountID]; !ok {
			return domain.NewLedgerError(domain.ErrCodeAccountNotFound,
				"account "+t.AccountID.String()+" does not exist")
		}
	}

	checked := map[uuid.UUID]bool{}
	for _, t := range affected {
		checked[t.AccountID] = true
	}

	staged := make(map[uuid.UUID]*domain.Transaction, len(s.transactions)+len(mirrors)+1)
	for id, t := range s.transactions {
		if t.MirrorOf == source.ID {
			// Previous mirrors of this source are replaced; their accounts
			// still get a policy check below.
			checked[t.AccountID] = true
			continue
		}
		staged[id] = t
	}
	staged[source.ID] = source.Clone()
	for _, m := range mirrors {
		staged[m.ID] = m.Clone()
	}

	for accountID := range checked {
		account, ok := s.accounts[accountID]
		if !ok || account.AccountType.AllowsNegative() {
			continue
		}
		balance, err := domain.DeriveBalance(account.OpeningBalance, transactionsFor(staged, accountID))
		if err != nil {
			return err
		}
		if err := domain.CheckBalancePolicy(account.AccountType, balance); err != nil {
			return err
		}
	}

	s.transactions = staged
	return nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	return t.Clone(), nil
}

func (s *MemoryStore) DeleteTransactionCascade(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	delete(s.transactions, id)
	for mid, t := range s.transactions {
		if t.MirrorOf == id {
			delete(s.transactions, mid)
		}
	}
	return nil
}

func (s *MemoryStore) FindTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := transactionsFor(s.transactions, accountID)
	for i, t := range result {
		result[i] = t.Clone()
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EffectiveDate.Equal(result[j].EffectiveDate) {
			return result[i].EffectiveDate.After(result[j].EffectiveDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	t.Status = status
	return nil
}

func transactionsFor(txns map[uuid.UUID]*domain.Transaction, accountID uuid.UUID) []*domain.Transaction {
	var result []*domain.Transaction
	for _, t := range txns {
		if t.AccountID == accountID {
			result = append(result, t)
		}
	}
	return result
}
