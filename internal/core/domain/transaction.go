package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusCleared TransactionStatus = "CLEARED"
)

// Transaction is the ledger aggregate: a dated movement of money on one
// account, broken down into balanced split lines. A transfer is stored as
// a source transaction plus one mirror transaction per transfer-targeted
// split; the two sides reference each other by id only, never by pointer.
type Transaction struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	EffectiveDate time.Time
	TotalAmount   Money
	Splits        []SplitLine
	PayeeName     string
	Memo          string
	Status        TransactionStatus

	// Mirror linkage. A mirror carries MirrorOf pointing at its source;
	// a source carries the ids of the mirrors it produced.
	IsMirror  bool
	MirrorOf  uuid.UUID // uuid.Nil unless IsMirror
	MirrorIDs []uuid.UUID

	CreatedAt time.Time
}

// HasMirrors reports whether this transaction produced mirror entries.
func (t *Transaction) HasMirrors() bool {
	return len(t.MirrorIDs) > 0
}

// Clear advances the reconciliation status pending -> cleared. The
// transition is irreversible; clearing an already-cleared transaction
// fails with ALREADY_CLEARED.
func (t *Transaction) Clear() error {
	if t.Status == StatusCleared {
		return NewLedgerError(ErrCodeAlreadyCleared, "transaction is already cleared")
	}
	t.Status = StatusCleared
	return nil
}

// Clone returns a deep copy so stored aggregates cannot be mutated through
// returned references.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.Splits = make([]SplitLine, len(t.Splits))
	copy(cp.Splits, t.Splits)
	cp.MirrorIDs = make([]uuid.UUID, len(t.MirrorIDs))
	copy(cp.MirrorIDs, t.MirrorIDs)
	return &cp
}
