package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/galexy/splitledger/internal/adapter/storage"
	"github.com/galexy/splitledger/internal/core/domain"
)

type CategoryHandler struct {
	Repo *storage.CategoryRepository
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Repo.CreateCategory(c.Context(), category); err != nil {
		slog.Error("Failed to create category", "error", err, "name", req.Name)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create category"})
	}

	slog.Info("Category created", "id", category.ID, "name", category.Name)
	return c.Status(http.StatusCreated).JSON(category)
}

func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.Repo.ListCategories(c.Context())
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list categories"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}
