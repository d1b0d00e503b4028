package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/adapter/storage"
	"github.com/galexy/splitledger/internal/core/domain"
	"github.com/galexy/splitledger/internal/core/ledger"
	"github.com/galexy/splitledger/internal/core/security"
)

type AccountHandler struct {
	Repo    *storage.AccountRepository
	Service *ledger.Service
}

// CreateAccountRequest defines what the caller sends us
type CreateAccountRequest struct {
	OwnerName      string `json:"owner_name"`
	Currency       string `json:"currency"`
	AccountType    string `json:"account_type"`
	OpeningBalance string `json:"opening_balance"`
}

type AccountResponse struct {
	ID             string `json:"id"`
	OwnerName      string `json:"owner_name"`
	AccountType    string `json:"account_type"`
	Currency       string `json:"currency"`
	OpeningBalance string `json:"opening_balance"`
	CreatedAt      string `json:"created_at"`
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("Invalid account body", "error", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.OwnerName == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Owner name is required"})
	}
	accountType := domain.AccountType(req.AccountType)
	if !accountType.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account_type. Use CHECKING, SAVINGS, CREDIT or LOAN"})
	}
	if len(req.Currency) != 3 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid currency code"})
	}
	if req.OpeningBalance == "" {
		req.OpeningBalance = "0"
	}
	opening, err := domain.NewMoneyFromString(req.OpeningBalance, domain.Currency(req.Currency))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid opening_balance"})
	}

	account := &domain.Account{
		ID:             uuid.New(),
		OwnerName:      req.OwnerName,
		AccountType:    accountType,
		OpeningBalance: opening,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Repo.CreateAccount(c.Context(), account); err != nil {
		slog.Error("Failed to create account", "error", err, "owner", req.OwnerName)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create account"})
	}

	slog.Info("Account created", "id", account.ID, "owner", req.OwnerName, "type", accountType)
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	account, err := h.Repo.GetAccount(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAccountResponse(account))
}

// GetBalance derives the account balance on demand; nothing is cached.
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	balance, err := h.Service.GetBalance(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"account_id": id,
		"balance":    balance.Amount.StringFixed(2),
		"currency":   balance.Currency,
	})
}

func (h *AccountHandler) GenerateKey(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	realKey, keyHash, err := security.GenerateAPIKey()
	if err != nil {
		slog.Error("Crypto error generating key", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Crypto error"})
	}

	if err := h.Repo.SaveAPIKey(c.Context(), accountID, keyHash, security.KeyPrefix); err != nil {
		slog.Error("Failed to save API key", "error", err, "account_id", accountID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save key"})
	}

	slog.Info("API key generated", "account_id", accountID)
	return c.JSON(fiber.Map{
		"api_key": realKey,
		"warning": "Save this now! We won't show it again.",
	})
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID.String(),
		OwnerName:      a.OwnerName,
		AccountType:    string(a.AccountType),
		Currency:       string(a.Currency()),
		OpeningBalance: a.OpeningBalance.Amount.StringFixed(2),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}
