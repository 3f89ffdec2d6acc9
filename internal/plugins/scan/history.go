package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recentKeyPrefix = "scans:recent:"
	recentLimit     = 10
	recentTTL       = 7 * 24 * time.Hour
)

// History stores each user's most recent scan summaries, newest first.
type History interface {
	Push(ctx context.Context, userID string, s Summary) error
	List(ctx context.Context, userID string) ([]Summary, error)
}

// redisHistory keeps one capped list per user.
type redisHistory struct {
	rdb *redis.Client
}

// NewRedisHistory creates a History backed by Redis lists.
func NewRedisHistory(rdb *redis.Client) History {
	return &redisHistory{rdb: rdb}
}

func recentKey(userID string) string {
	return recentKeyPrefix + userID
}

// Push prepends s, trims the list and refreshes its expiry in one
// transaction.
func (h *redisHistory) Push(ctx context.Context, userID string, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling scan summary: %w", err)
	}

	key := recentKey(userID)
	pipe := h.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, recentLimit-1)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing scan summary: %w", err)
	}
	return nil
}

// List returns the stored summaries. Entries that no longer decode are
// skipped.
func (h *redisHistory) List(ctx context.Context, userID string) ([]Summary, error) {
	raw, err := h.rdb.LRange(ctx, recentKey(userID), 0, recentLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading scan history: %w", err)
	}

	out := make([]Summary, 0, len(raw))
	for _, item := range raw {
		var s Summary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			slog.Debug("skipping unreadable scan summary", slog.Any("error", err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// nopHistory is used when Redis is not configured.
type nopHistory struct{}

// NewNopHistory returns a History that stores nothing.
func NewNopHistory() History { return nopHistory{} }

func (nopHistory) Push(context.Context, string, Summary) error    { return nil }
func (nopHistory) List(context.Context, string) ([]Summary, error) { return nil, nil }
