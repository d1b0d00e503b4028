package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/galexy/splitledger/internal/adapter/handler"
	"github.com/galexy/splitledger/internal/adapter/middleware"
	"github.com/galexy/splitledger/internal/adapter/storage"
	"github.com/galexy/splitledger/internal/core/config"
	"github.com/galexy/splitledger/internal/core/ledger"
	"github.com/galexy/splitledger/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := storage.Migrate(context.Background(), dbPool); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}

	// Repos, core service, handlers
	accountRepo := storage.NewAccountRepository(dbPool)
	categoryRepo := storage.NewCategoryRepository(dbPool)
	transactionRepo := storage.NewTransactionRepository(dbPool)
	events := storage.NewWebhookQueue(dbPool)

	service := ledger.NewService(transactionRepo, accountRepo, categoryRepo)

	accountHandler := &handler.AccountHandler{Repo: accountRepo, Service: service}
	categoryHandler := &handler.CategoryHandler{Repo: categoryRepo}
	transactionHandler := &handler.TransactionHandler{
		Service:    service,
		Events:     events,
		WebhookURL: cfg.WebhookURL,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/v1")

	// Public
	api.Post("/accounts", accountHandler.CreateAccount)
	api.Post("/accounts/:id/keys", accountHandler.GenerateKey)

	// Protected
	private := api.Use(middleware.Protected(dbPool))
	private.Get("/accounts/:id", accountHandler.GetAccount)
	private.Get("/accounts/:id/balance", accountHandler.GetBalance)
	private.Get("/accounts/:id/transactions", transactionHandler.GetHistory)
	private.Post("/categories", categoryHandler.CreateCategory)
	private.Get("/categories", categoryHandler.ListCategories)
	private.Post("/transactions", middleware.Idempotency(dbPool), transactionHandler.CreateTransaction)
	private.Put("/transactions/:id", transactionHandler.ReplaceTransaction)
	private.Delete("/transactions/:id", transactionHandler.DeleteTransaction)
	private.Post("/transactions/:id/clear", transactionHandler.MarkCleared)

	worker.StartWebhookWorker(dbPool, cfg.WebhookSecret)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutting down server")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	dbPool.Close()
	slog.Info("Server exited")
}
