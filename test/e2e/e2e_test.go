// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-framework-api/internal/api"
	"review-framework-api/internal/common/anthropic"
	"review-framework-api/internal/common/config"
	"review-framework-api/internal/common/database"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/framework"
	"review-framework-api/internal/models"
	"review-framework-api/internal/review"
)

// Runs the full HTTP stack against a real Redis (REDIS_ADDRESS, default
// localhost:6379) and a stand-in Messages API. Skipped when Redis is unreachable.

func redisAddress() string {
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

type stack struct {
	server   *httptest.Server
	upstream *httptest.Server
	history  *database.ReviewHistory
	calls    *int32
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	// --- Redis ---
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 7860},
		Redis:  config.RedisConfig{Address: redisAddress(), HistorySize: 5, HistoryTTL: 60},
		Anthropic: config.AnthropicConfig{
			APIKey:       "sk-e2e",
			APIVersion:   config.DefaultAnthropicAPIVer,
			Model:        config.DefaultModel,
			MaxTokens:    config.DefaultMaxTokens,
			Temperature:  config.DefaultTemperature,
			SystemPrompt: config.DefaultSystemPrompt,
			Timeout:      5000,
			MaxRetries:   2,
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}

	rdb, err := database.NewRedis(cfg.Redis)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx); err != nil {
		rdb.Close()
		t.Skipf("Redis not reachable at %s: %v", cfg.Redis.Address, err)
	}
	t.Cleanup(func() {
		rdb.Client.Del(context.Background(), database.HistoryKey)
		rdb.Close()
	})
	require.NoError(t, rdb.Client.Del(ctx, database.HistoryKey).Err())

	// --- Messages API stand-in: first call 529, then success ---
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		var req anthropic.MessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropic.MessageResponse{
			ID:      "msg_e2e",
			Type:    "message",
			Role:    "assistant",
			Model:   req.Model,
			Content: []anthropic.ContentBlock{{Type: "text", Text: "Solid product. " + req.Messages[0].Content[:20]}},
		})
	}))
	t.Cleanup(upstream.Close)
	cfg.Anthropic.BaseURL = upstream.URL

	// --- Framework directory ---
	root := t.TempDir()
	dir := filepath.Join(root, "NEW-SYSTEM")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for name, content := range map[string]string{
		"framework-config.json":  `{"name": "Amazon Review Framework"}`,
		"review-strategy.json":   `{"approach": "experience first"}`,
		"content-structure.json": `{"sections": ["headline", "body"]}`,
		"persona-guide.json":     `{"personas": ["expert", "casual"]}`,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg.Framework = config.FrameworkConfig{
		Directory:         dir,
		Extension:         config.DefaultExtension,
		DefaultComponents: config.DefaultComponents,
	}

	log := logger.NewTestLogger(t)
	history := database.NewReviewHistory(rdb, cfg.Redis.HistorySize, time.Duration(cfg.Redis.HistoryTTL)*time.Second)
	store := framework.NewStore(cfg.Framework, log, framework.WithRoot(root))
	selector := framework.NewSelector(store, cfg.Framework, log)
	generator := review.NewGenerator(review.NewGeneratorConfig(cfg.Anthropic), log, nil)

	srv, err := api.NewServer(api.Deps{
		Config:   cfg,
		Store:    store,
		Selector: selector,
		Service:  review.NewService(selector, generator, history, log),
		History:  history,
		Logger:   log,
	})
	require.NoError(t, err)

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	return &stack{server: server, upstream: upstream, history: history, calls: &calls}
}

func (s *stack) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *stack) post(t *testing.T, path string, payload interface{}) (int, []byte) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestFullE2E(t *testing.T) {
	s := setupStack(t)

	t.Log("🚀 Starting FULL E2E Test with real Redis...")

	// 1. Framework surface
	status, body := s.get(t, "/files")
	require.Equal(t, http.StatusOK, status)
	var listing models.FileListing
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 4, listing.Count)
	assert.Equal(t, []string{"NEW-SYSTEM"}, listing.RootDirectories)
	t.Log("✅ /files")

	status, body = s.get(t, "/files/persona-guide")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"personas": ["expert", "casual"]}`, string(body))
	t.Log("✅ /files/{filename}")

	status, _ = s.get(t, "/framework")
	require.Equal(t, http.StatusOK, status)
	t.Log("✅ /framework")

	// 2. Generation with a retried upstream failure
	status, body = s.post(t, "/generate-review", models.ReviewRequest{
		ProductName:       "Widget",
		ProductCategory:   "Tools",
		UserExperience:    "Works great",
		IncludeComponents: []string{"persona-guide"},
	})
	require.Equal(t, http.StatusOK, status)
	var resp models.ReviewResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, strings.HasPrefix(resp.Review, "Solid product. "), resp.Review)
	assert.Equal(t, []string{"persona-guide.json"}, resp.ComponentsUsed)
	assert.Equal(t, int32(2), atomic.LoadInt32(s.calls))
	t.Log("✅ /generate-review")

	// 3. History round trip through Redis
	status, body = s.get(t, "/reviews/recent?limit=1")
	require.Equal(t, http.StatusOK, status)
	var recent struct {
		Reviews []models.ReviewRecord `json:"reviews"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &recent))
	require.Equal(t, 1, recent.Count)
	assert.Equal(t, "Widget", recent.Reviews[0].ProductName)
	assert.True(t, recent.Reviews[0].Generated)
	t.Log("✅ /reviews/recent")

	status, _ = s.get(t, "/ready")
	assert.Equal(t, http.StatusOK, status)

	t.Log("✅ ALL TESTS PASSED: full E2E workflow successful")
}

func TestHistoryTrimmedToSize(t *testing.T) {
	s := setupStack(t)
	atomic.StoreInt32(s.calls, 1)

	for i := 0; i < 7; i++ {
		status, _ := s.post(t, "/generate-review", models.ReviewRequest{
			ProductName:     "Widget",
			ProductCategory: "Tools",
			UserExperience:  "Works great",
		})
		require.Equal(t, http.StatusOK, status)
	}

	records, err := s.history.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}
