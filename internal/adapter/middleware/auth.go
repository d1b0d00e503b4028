package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galexy/splitledger/internal/core/security"
)

// Protected authenticates requests with a bearer API key. Only the key's
// hash is ever compared or stored.
func Protected(db *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization") // "Bearer sl_live_..."
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing API key"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid header format"})
		}
		hashedKey := security.HashKey(parts[1])

		var accountID string
		if err := db.QueryRow(c.Context(),
			"SELECT account_id FROM api_keys WHERE key_hash = $1", hashedKey).Scan(&accountID); err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
		}

		// Handlers can read the caller's account from locals.
		c.Locals("account_id", accountID)
		return c.Next()
	}
}
