package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/galexy/splitledger/internal/core/domain"
)

// writeError maps a typed ledger error onto an HTTP status. Anything
// without a code is an unexpected failure and stays opaque to the caller.
func writeError(c *fiber.Ctx, err error) error {
	code := domain.CodeOf(err)
	if code == "" {
		slog.Error("Unexpected error", "error", err, "path", c.Path())
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(statusForCode(code)).JSON(fiber.Map{
		"code":  string(code),
		"error": err.Error(),
	})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeAccountNotFound,
		domain.ErrCodeTransferAccountNotFound,
		domain.ErrCodeCategoryNotFound,
		domain.ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case domain.ErrCodeCannotDeleteMirror, domain.ErrCodeAlreadyCleared:
		return http.StatusConflict
	case domain.ErrCodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
