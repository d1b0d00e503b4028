package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookQueue enqueues ledger events for the webhook worker. Jobs go into
// the same database the worker polls, so an enqueued event survives a
// restart.
type WebhookQueue struct {
	db *pgxpool.Pool
}

func NewWebhookQueue(db *pgxpool.Pool) *WebhookQueue {
	return &WebhookQueue{db: db}
}

func (q *WebhookQueue) Enqueue(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO webhook_jobs (id, url, payload, status)
		VALUES ($1, $2, $3, 'PENDING')`,
		uuid.New(), url, body)
	if err != nil {
		return fmt.Errorf("enqueue webhook job: %w", err)
	}
	return nil
}
