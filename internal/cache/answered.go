// Package cache persists which threads already got an answer, so a
// restarted daemon does not re-answer them. Backed by a single Redis
// hash keyed by message ID.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"threadwatch.app/scout/internal/monitor"
)

const answeredKey = "scout:answered"

type AnsweredCache interface {
	// MarkAnswered records that the thread behind messageID was answered.
	MarkAnswered(ctx context.Context, messageID string) error

	// Load returns all answered message IDs still inside the retention
	// window, pruning expired entries as a side effect.
	Load(ctx context.Context) (monitor.AnsweredSet, error)
}

type answeredCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnsweredCache(client *redis.Client, answerTTLDays int) AnsweredCache {
	return &answeredCache{
		client: client,
		ttl:    time.Duration(answerTTLDays) * 24 * time.Hour,
	}
}

func (c *answeredCache) MarkAnswered(ctx context.Context, messageID string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.client.HSet(ctx, answeredKey, messageID, now).Err(); err != nil {
		return fmt.Errorf("marking %s answered: %w", messageID, err)
	}
	return nil
}

func (c *answeredCache) Load(ctx context.Context) (monitor.AnsweredSet, error) {
	entries, err := c.client.HGetAll(ctx, answeredKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading answered set: %w", err)
	}

	cutoff := time.Now().Add(-c.ttl).Unix()
	answered := monitor.NewAnsweredSet()
	var expired []string

	for messageID, raw := range entries {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts < cutoff {
			expired = append(expired, messageID)
			continue
		}
		answered.Add(messageID)
	}

	if len(expired) > 0 {
		if err := c.client.HDel(ctx, answeredKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("pruning %d expired entries: %w", len(expired), err)
		}
	}

	return answered, nil
}

// MemoryAnsweredCache is an in-process AnsweredCache for tests and for
// running without Redis.
type MemoryAnsweredCache struct {
	answered monitor.AnsweredSet
}

func NewMemoryAnsweredCache() *MemoryAnsweredCache {
	return &MemoryAnsweredCache{answered: monitor.NewAnsweredSet()}
}

func (c *MemoryAnsweredCache) MarkAnswered(_ context.Context, messageID string) error {
	c.answered.Add(messageID)
	return nil
}

func (c *MemoryAnsweredCache) Load(_ context.Context) (monitor.AnsweredSet, error) {
	out := monitor.NewAnsweredSet()
	out.Merge(c.answered)
	return out, nil
}
