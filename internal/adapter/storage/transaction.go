package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/galexy/splitledger/internal/core/domain"
)

// TransactionRepository persists transactions and their splits in
// Postgres. Source+mirror sets are written in one database transaction,
// with the affected account rows locked FOR UPDATE so the balance policy
// check and the write are serialized per account.
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, account_id, effective_date, amount, currency, payee_name, memo, status, is_mirror, mirror_of_transaction_id, created_at`

// SaveTransactionPair upserts the source together with its mirrors as one
// all-or-nothing unit. Mirrors previously produced by the same source are
// dropped inside the same unit, which is what makes a full-replace edit a
// delete-and-recreate of the pair rather than an in-place patch.
func (r *TransactionRepository) SaveTransactionPair(ctx context.Context, source *domain.Transaction, mirrors []*domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Accounts holding previous mirrors of this source lose a posting too,
	// so they get locked along with the accounts being written.
	oldMirrorAccounts, err := mirrorAccountIDs(ctx, tx, source.ID)
	if err != nil {
		return err
	}
	locked, err := lockAccounts(ctx, tx, source, mirrors, oldMirrorAccounts)
	if err != nil {
		return err
	}

	// Replace path: previous mirrors of this source go away first.
	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE mirror_of_transaction_id = $1`, source.ID); err != nil {
		return err
	}

	if err := upsertTransaction(ctx, tx, source); err != nil {
		return err
	}
	for _, mirror := range mirrors {
		if err := upsertTransaction(ctx, tx, mirror); err != nil {
			return err
		}
	}

	// Balance policy, checked while the account locks are still held.
	for _, acc := range locked {
		if acc.accountType.AllowsNegative() {
			continue
		}
		var sum decimal.Decimal
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1`,
			acc.id).Scan(&sum)
		if err != nil {
			return err
		}
		balance := domain.Money{Amount: acc.opening.Add(sum), Currency: acc.currency}
		if err := domain.CheckBalancePolicy(acc.accountType, balance); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

type lockedAccount struct {
	id          uuid.UUID
	accountType domain.AccountType
	opening     decimal.Decimal
	currency    domain.Currency
}

// mirrorAccountIDs returns the accounts currently holding mirrors of the
// given source transaction.
func mirrorAccountIDs(ctx context.Context, tx pgx.Tx, sourceID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT account_id FROM transactions WHERE mirror_of_transaction_id = $1`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// lockAccounts takes FOR UPDATE row locks on every account the write
// touches, in sorted id order so concurrent writers cannot deadlock.
func lockAccounts(ctx context.Context, tx pgx.Tx, source *domain.Transaction, mirrors []*domain.Transaction, extra []uuid.UUID) ([]lockedAccount, error) {
	seen := map[uuid.UUID]bool{source.AccountID: true}
	ids := []uuid.UUID{source.AccountID}
	for _, m := range mirrors {
		if !seen[m.AccountID] {
			seen[m.AccountID] = true
			ids = append(ids, m.AccountID)
		}
	}
	for _, id := range extra {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	locked := make([]lockedAccount, 0, len(ids))
	for _, id := range ids {
		var acc lockedAccount
		var accountType, currency string
		acc.id = id
		err := tx.QueryRow(ctx,
			`SELECT account_type, opening_balance, currency FROM accounts WHERE id = $1 FOR UPDATE`,
			id).Scan(&accountType, &acc.opening, &currency)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewLedgerError(domain.ErrCodeAccountNotFound,
				"account "+id.String()+" does not exist")
		}
		if err != nil {
			return nil, err
		}
		acc.accountType = domain.AccountType(accountType)
		acc.currency = domain.Currency(currency)
		locked = append(locked, acc)
	}
	return locked, nil
}

func upsertTransaction(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mirrorOf := uuid.NullUUID{UUID: t.MirrorOf, Valid: t.IsMirror}

	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, account_id, effective_date, amount, currency, payee_name, memo, status, is_mirror, mirror_of_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			effective_date = EXCLUDED.effective_date,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			payee_name = EXCLUDED.payee_name,
			memo = EXCLUDED.memo,
			status = EXCLUDED.status`,
		t.ID, t.AccountID, t.EffectiveDate, t.TotalAmount.Amount, string(t.TotalAmount.Currency),
		t.PayeeName, t.Memo, string(t.Status), t.IsMirror, mirrorOf, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM split_lines WHERE transaction_id = $1`, t.ID); err != nil {
		return err
	}
	for i, split := range t.Splits {
		var categoryID, transferID uuid.NullUUID
		if id, ok := split.CategoryID(); ok {
			categoryID = uuid.NullUUID{UUID: id, Valid: true}
		}
		if id, ok := split.TransferAccountID(); ok {
			transferID = uuid.NullUUID{UUID: id, Valid: true}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO split_lines (transaction_id, position, amount, category_id, transfer_account_id, memo)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, i, split.Amount.Amount, categoryID, transferID, split.Memo)
		if err != nil {
			return fmt.Errorf("insert split line: %w", err)
		}
	}
	return nil
}

// GetTransaction loads one transaction with its splits and mirror ids.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, []*domain.Transaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTransactionCascade removes a transaction; the mirror-of foreign
// key cascades to its mirrors and split lines in the same statement.
func (r *TransactionRepository) DeleteTransactionCascade(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	return nil
}

// FindTransactionsForAccount returns the account's history, mirrors
// included, newest first.
func (r *TransactionRepository) FindTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = $1 ORDER BY effective_date DESC, created_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus persists a reconciliation transition.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewLedgerError(domain.ErrCodeTransactionNotFound,
			"transaction "+id.String()+" does not exist")
	}
	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount decimal.Decimal
	var currency string
	var status string
	var mirrorOf uuid.NullUUID

	err := row.Scan(&t.ID, &t.AccountID, &t.EffectiveDate, &amount, &currency,
		&t.PayeeName, &t.Memo, &status, &t.IsMirror, &mirrorOf, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.TotalAmount = domain.Money{Amount: amount, Currency: domain.Currency(currency)}
	t.Status = domain.TransactionStatus(status)
	if mirrorOf.Valid {
		t.MirrorOf = mirrorOf.UUID
	}
	return &t, nil
}

// attachDetails loads split lines and mirror ids for a batch of
// transactions.
func (r *TransactionRepository) attachDetails(ctx context.Context, txns []*domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Transaction, len(txns))
	ids := make([]string, 0, len(txns))
	for _, t := range txns {
		byID[t.ID] = t
		ids = append(ids, t.ID.String())
	}

	rows, err := r.db.Query(ctx, `
		SELECT transaction_id, amount, category_id, transfer_account_id, memo
		FROM split_lines
		WHERE transaction_id = ANY($1::uuid[])
		ORDER BY transaction_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var txID uuid.UUID
		var amount decimal.Decimal
		var categoryID, transferID uuid.NullUUID
		var memo string
		if err := rows.Scan(&txID, &amount, &categoryID, &transferID, &memo); err != nil {
			return err
		}
		t := byID[txID]
		if t == nil {
			continue
		}
		split := domain.SplitLine{
			Amount: domain.Money{Amount: amount, Currency: t.TotalAmount.Currency},
			Memo:   memo,
		}
		switch {
		case categoryID.Valid:
			split.Target = domain.CategoryTarget{CategoryID: categoryID.UUID}
		case transferID.Valid:
			split.Target = domain.TransferTarget{AccountID: transferID.UUID}
		}
		t.Splits = append(t.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mirrorRows, err := r.db.Query(ctx, `
		SELECT id, mirror_of_transaction_id
		FROM transactions
		WHERE mirror_of_transaction_id = ANY($1::uuid[])
		ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer mirrorRows.Close()
	for mirrorRows.Next() {
		var mirrorID, sourceID uuid.UUID
		if err := mirrorRows.Scan(&mirrorID, &sourceID); err != nil {
			return err
		}
		if t := byID[sourceID]; t != nil {
			t.MirrorIDs = append(t.MirrorIDs, mirrorID)
		}
	}
	return mirrorRows.Err()
}
