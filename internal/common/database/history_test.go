package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-framework-api/internal/common/config"
	"review-framework-api/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHistory(t *testing.T, size int, ttl time.Duration) (*ReviewHistory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewReviewHistory(client, size, ttl), mr
}

func createRecord(i int) models.ReviewRecord {
	return models.ReviewRecord{
		RequestID:       fmt.Sprintf("req-%d", i),
		ProductName:     fmt.Sprintf("Widget %d", i),
		ProductCategory: "Tools",
		ComponentsUsed:  []string{"framework-config.json"},
		Review:          "Works great",
		Generated:       true,
		CreatedAt:       time.Date(2024, 3, 1, 12, 0, i, 0, time.UTC),
	}
}

// ==========================
// Record / Recent
// ==========================

func TestReviewHistory_NewestFirstAndTrimmed(t *testing.T) {
	history, mr := createTestHistory(t, 3, 0)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, history.Record(ctx, createRecord(i)))
	}

	records, err := history.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "req-5", records[0].RequestID)
	assert.Equal(t, "req-4", records[1].RequestID)
	assert.Equal(t, "req-3", records[2].RequestID)

	list, err := mr.List(HistoryKey)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, time.Duration(0), mr.TTL(HistoryKey))
}

func TestReviewHistory_RecentLimit(t *testing.T) {
	history, _ := createTestHistory(t, 10, 0)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, history.Record(ctx, createRecord(i)))
	}

	tests := []struct {
		limit    int
		expected int
	}{
		{limit: 1, expected: 1},
		{limit: 2, expected: 2},
		{limit: 0, expected: 4},
		{limit: -1, expected: 4},
		{limit: 50, expected: 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			records, err := history.Recent(ctx, tt.limit)
			require.NoError(t, err)
			assert.Len(t, records, tt.expected)
			assert.Equal(t, "req-4", records[0].RequestID)
		})
	}
}

func TestReviewHistory_TTL(t *testing.T) {
	history, mr := createTestHistory(t, 5, time.Hour)

	require.NoError(t, history.Record(context.Background(), createRecord(1)))

	assert.Equal(t, time.Hour, mr.TTL(HistoryKey))
}

func TestReviewHistory_RoundTripsRecord(t *testing.T) {
	history, _ := createTestHistory(t, 5, 0)
	ctx := context.Background()
	rec := createRecord(7)

	require.NoError(t, history.Record(ctx, rec))

	records, err := history.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}

func TestReviewHistory_SkipsCorruptEntries(t *testing.T) {
	history, mr := createTestHistory(t, 5, 0)
	ctx := context.Background()

	require.NoError(t, history.Record(ctx, createRecord(1)))
	_, err := mr.Lpush(HistoryKey, "not json")
	require.NoError(t, err)

	records, err := history.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "req-1", records[0].RequestID)
}

func TestReviewHistory_RedisDown(t *testing.T) {
	history, mr := createTestHistory(t, 5, 0)
	mr.Close()

	err := history.Record(context.Background(), createRecord(1))
	assert.Error(t, err)

	_, err = history.Recent(context.Background(), 1)
	assert.Error(t, err)

	assert.Error(t, history.Ping(context.Background()))
}

// ==========================
// redismock
// ==========================

func TestReviewHistory_Recent_Mock(t *testing.T) {
	t.Run("reads the capped range", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		history := NewReviewHistory(NewRedisFromCmdable(redisClient), 20, 0)

		data, _ := json.Marshal(createRecord(2))
		redisMock.ExpectLRange(HistoryKey, 0, 4).SetVal([]string{string(data)})

		records, err := history.Recent(context.Background(), 5)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Widget 2", records[0].ProductName)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("propagates redis errors", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		history := NewReviewHistory(NewRedisFromCmdable(redisClient), 20, 0)

		redisMock.ExpectLRange(HistoryKey, 0, 19).SetErr(errors.New("connection reset"))

		_, err := history.Recent(context.Background(), 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("ping", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		client := NewRedisFromCmdable(redisClient)

		redisMock.ExpectPing().SetVal("PONG")

		assert.NoError(t, client.Ping(context.Background()))
		assert.NoError(t, client.Close())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}
