package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"review-framework-api/internal/models"
)

// HistoryKey is the Redis list holding recent reviews, newest first.
const HistoryKey = "reviews:recent"

// ReviewHistory keeps a capped list of generated reviews in Redis.
type ReviewHistory struct {
	redis *RedisClient
	size  int64
	ttl   time.Duration
}

// NewReviewHistory caps the list at size entries (at least 1). A zero ttl keeps the list forever.
func NewReviewHistory(client *RedisClient, size int, ttl time.Duration) *ReviewHistory {
	if size < 1 {
		size = 1
	}
	return &ReviewHistory{redis: client, size: int64(size), ttl: ttl}
}

// Record pushes rec to the head of the list and trims the tail.
func (h *ReviewHistory) Record(ctx context.Context, rec models.ReviewRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal review record: %w", err)
	}

	pipe := h.redis.Client.TxPipeline()
	pipe.LPush(ctx, HistoryKey, data)
	pipe.LTrim(ctx, HistoryKey, 0, h.size-1)
	if h.ttl > 0 {
		pipe.Expire(ctx, HistoryKey, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first. n <= 0 or above the cap returns the whole list.
func (h *ReviewHistory) Recent(ctx context.Context, n int) ([]models.ReviewRecord, error) {
	stop := int64(n) - 1
	if n <= 0 || int64(n) > h.size {
		stop = h.size - 1
	}

	raw, err := h.redis.Client.LRange(ctx, HistoryKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read review history: %w", err)
	}

	records := make([]models.ReviewRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.ReviewRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (h *ReviewHistory) Ping(ctx context.Context) error {
	return h.redis.Ping(ctx)
}
