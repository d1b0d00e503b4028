package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/adapter/storage"
	"github.com/galexy/splitledger/internal/core/domain"
	"github.com/galexy/splitledger/internal/core/ledger"
)

type TransactionHandler struct {
	Service    *ledger.Service
	Events     *storage.WebhookQueue // optional
	WebhookURL string
}

// Request models
type SplitRequest struct {
	Amount            string `json:"amount"`
	CategoryID        string `json:"category_id"`
	TransferAccountID string `json:"transfer_account_id"`
	Memo              string `json:"memo"`
}

type TransactionRequest struct {
	AccountID     string         `json:"account_id"`
	EffectiveDate string         `json:"effective_date"` // YYYY-MM-DD
	TotalAmount   string         `json:"total_amount"`
	Currency      string         `json:"currency"`
	Splits        []SplitRequest `json:"splits"`
	PayeeName     string         `json:"payee_name"`
	Memo          string         `json:"memo"`
}

type SplitResponse struct {
	Amount            string `json:"amount"`
	CategoryID        string `json:"category_id,omitempty"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
	Memo              string `json:"memo,omitempty"`
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	EffectiveDate string          `json:"effective_date"`
	TotalAmount   string          `json:"total_amount"`
	Currency      string          `json:"currency"`
	Splits        []SplitResponse `json:"splits"`
	PayeeName     string          `json:"payee_name,omitempty"`
	Memo          string          `json:"memo,omitempty"`
	Status        string          `json:"status"`
	IsMirror      bool            `json:"is_mirror"`
	MirrorOf      string          `json:"mirror_of,omitempty"`
	MirrorIDs     []string        `json:"mirror_ids,omitempty"`
}

// CreateTransaction API
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	input, err := toInput(req)
	if err != nil {
		if domain.CodeOf(err) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return writeError(c, err)
	}

	tx, err := h.Service.CreateTransaction(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("Transaction created", "id", tx.ID, "account_id", tx.AccountID, "mirrors", len(tx.MirrorIDs))
	h.notify(c.Context(), "transaction.created", map[string]interface{}{
		"transaction_id": tx.ID, "account_id": tx.AccountID,
	})
	return c.Status(fiber.StatusCreated).JSON(toResponse(tx))
}

// ReplaceTransaction API: a whole-transaction edit, never a partial patch.
func (h *TransactionHandler) ReplaceTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	input, err := toInput(req)
	if err != nil {
		if domain.CodeOf(err) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return writeError(c, err)
	}

	tx, err := h.Service.ReplaceTransaction(c.Context(), id, input)
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("Transaction replaced", "id", tx.ID, "account_id", tx.AccountID)
	return c.JSON(toResponse(tx))
}

// DeleteTransaction API: cascades to mirrors; refuses direct mirror deletes.
func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	if err := h.Service.DeleteTransaction(c.Context(), id); err != nil {
		return writeError(c, err)
	}

	slog.Info("Transaction deleted", "id", id)
	h.notify(c.Context(), "transaction.deleted", map[string]interface{}{
		"transaction_id": id,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkCleared API
func (h *TransactionHandler) MarkCleared(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.Service.MarkCleared(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("Transaction cleared", "id", tx.ID)
	h.notify(c.Context(), "transaction.cleared", map[string]interface{}{
		"transaction_id": tx.ID, "account_id": tx.AccountID,
	})
	return c.JSON(toResponse(tx))
}

// GetHistory lists an account's transactions, mirrors included.
func (h *TransactionHandler) GetHistory(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	history, err := h.Service.ListTransactions(c.Context(), accountID)
	if err != nil {
		return writeError(c, err)
	}

	responses := make([]TransactionResponse, 0, len(history))
	for _, tx := range history {
		responses = append(responses, toResponse(tx))
	}
	return c.JSON(fiber.Map{"transactions": responses})
}

func (h *TransactionHandler) notify(ctx context.Context, event string, data map[string]interface{}) {
	if h.Events == nil || h.WebhookURL == "" {
		return
	}
	data["timestamp"] = time.Now().UTC()
	payload := map[string]interface{}{
		"event": event,
		"data":  data,
	}
	if err := h.Events.Enqueue(ctx, h.WebhookURL, payload); err != nil {
		slog.Error("Failed to enqueue webhook", "error", err, "event", event)
	}
}

// toInput converts a request body into a core input. Malformed fields are
// plain 400s; only the mixed-target case is a typed domain error, since the
// sum type cannot represent it.
func toInput(req TransactionRequest) (ledger.TransactionInput, error) {
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return ledger.TransactionInput{}, fmt.Errorf("invalid account_id %q", req.AccountID)
	}
	effectiveDate, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		return ledger.TransactionInput{}, fmt.Errorf("invalid effective_date %q, want YYYY-MM-DD", req.EffectiveDate)
	}
	currency := domain.Currency(req.Currency)
	total, err := domain.NewMoneyFromString(req.TotalAmount, currency)
	if err != nil {
		return ledger.TransactionInput{}, fmt.Errorf("invalid total_amount %q", req.TotalAmount)
	}

	splits := make([]domain.SplitLine, 0, len(req.Splits))
	for _, s := range req.Splits {
		amount, err := domain.NewMoneyFromString(s.Amount, currency)
		if err != nil {
			return ledger.TransactionInput{}, fmt.Errorf("invalid split amount %q", s.Amount)
		}
		split := domain.SplitLine{Amount: amount, Memo: s.Memo}
		if s.CategoryID != "" && s.TransferAccountID != "" {
			return ledger.TransactionInput{}, domain.NewLedgerError(domain.ErrCodeMixedSplitTarget,
				"a split cannot carry both a category and a transfer target")
		}
		if s.CategoryID != "" {
			categoryID, err := uuid.Parse(s.CategoryID)
			if err != nil {
				return ledger.TransactionInput{}, fmt.Errorf("invalid category_id %q", s.CategoryID)
			}
			split.Target = domain.CategoryTarget{CategoryID: categoryID}
		}
		if s.TransferAccountID != "" {
			transferID, err := uuid.Parse(s.TransferAccountID)
			if err != nil {
				return ledger.TransactionInput{}, fmt.Errorf("invalid transfer_account_id %q", s.TransferAccountID)
			}
			split.Target = domain.TransferTarget{AccountID: transferID}
		}
		splits = append(splits, split)
	}

	return ledger.TransactionInput{
		AccountID:     accountID,
		EffectiveDate: effectiveDate,
		TotalAmount:   total,
		Splits:        splits,
		PayeeName:     req.PayeeName,
		Memo:          req.Memo,
	}, nil
}

func toResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            tx.ID.String(),
		AccountID:     tx.AccountID.String(),
		EffectiveDate: tx.EffectiveDate.Format("2006-01-02"),
		TotalAmount:   tx.TotalAmount.Amount.StringFixed(2),
		Currency:      string(tx.TotalAmount.Currency),
		PayeeName:     tx.PayeeName,
		Memo:          tx.Memo,
		Status:        string(tx.Status),
		IsMirror:      tx.IsMirror,
	}
	if tx.IsMirror {
		resp.MirrorOf = tx.MirrorOf.String()
	}
	for _, id := range tx.MirrorIDs {
		resp.MirrorIDs = append(resp.MirrorIDs, id.String())
	}
	for _, s := range tx.Splits {
		sr := SplitResponse{Amount: s.Amount.Amount.StringFixed(2), Memo: s.Memo}
		if id, ok := s.CategoryID(); ok {
			sr.CategoryID = id.String()
		}
		if id, ok := s.TransferAccountID(); ok {
			sr.TransferAccountID = id.String()
		}
		resp.Splits = append(resp.Splits, sr)
	}
	return resp
}
