package ledger

import (
	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/core/domain"
)

// buildMirrors synthesizes one mirror transaction per transfer-targeted
// split of a validated source and records the linkage on the source. Ids
// are assigned up front so both sides can reference each other before
// either is written.
//
// Each mirror carries that split's amount negated (not the whole
// transaction total), posted to the split's target account, with a single
// split pointing back at the source account. Mirror payees are
// deterministic: the source payee when present, otherwise
// "Transfer from <source account id>".
func buildMirrors(source *domain.Transaction) []*domain.Transaction {
	var mirrors []*domain.Transaction
	source.MirrorIDs = nil

	for _, split := range source.Splits {
		targetAccountID, ok := split.TransferAccountID()
		if !ok {
			continue
		}

		payee := source.PayeeName
		if payee == "" {
			payee = "Transfer from " + source.AccountID.String()
		}

		mirror := &domain.Transaction{
			ID:            uuid.New(),
			AccountID:     targetAccountID,
			EffectiveDate: source.EffectiveDate,
			TotalAmount:   split.Amount.Neg(),
			Splits: []domain.SplitLine{{
				Amount: split.Amount.Neg(),
				Target: domain.TransferTarget{AccountID: source.AccountID},
				Memo:   split.Memo,
			}},
			PayeeName: payee,
			Memo:      source.Memo,
			Status:    domain.StatusPending,
			IsMirror:  true,
			MirrorOf:  source.ID,
			CreatedAt: source.CreatedAt,
		}

		source.MirrorIDs = append(source.MirrorIDs, mirror.ID)
		mirrors = append(mirrors, mirror)
	}
	return mirrors
}
