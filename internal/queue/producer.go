// Package queue moves approval decisions from the callback server to
// the daemon over a Redis stream, so a button click survives a daemon
// restart instead of vanishing with an in-process channel.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"threadwatch.app/scout/internal/model"
)

// ActionMessage is one human decision on a pending approval.
type ActionMessage struct {
	ApprovalID string
	Action     model.Action
	UserID     string
	EditedText string
	Attempt    int
}

type Producer interface {
	Enqueue(ctx context.Context, msg ActionMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg ActionMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"approval_id": msg.ApprovalID,
		"action":      string(msg.Action),
		"user_id":     msg.UserID,
		"attempt":     attempt,
	}
	if msg.EditedText != "" {
		fields["edited_text"] = msg.EditedText
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue action: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued approval action", "approval_id", msg.ApprovalID, "action", msg.Action, "user_id", msg.UserID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
