// Package anthropic is a minimal client for the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	commonhttp "review-framework-api/internal/common/http"
	"review-framework-api/internal/common/logger"
)

const (
	messagesPath = "/v1/messages"
	userAgent    = "review-framework-api"
)

// Config configures a Client. Zero Timeout leaves the http.Client default,
// zero MaxRetries means a single attempt and zero RateLimit disables limiting.
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64
}

// Client sends requests to the Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient commonhttp.Doer
	maxRetries int
	limiter    *rate.Limiter
	logger     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-06-01"
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiVersion: apiVersion,
		httpClient: commonhttp.NewClient(cfg.Timeout, userAgent),
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
		logger:     log,
	}
}

// WithHTTPClient replaces the underlying transport client. Used by tests.
func (c *Client) WithHTTPClient(hc commonhttp.Doer) *Client {
	c.httpClient = hc
	return c
}

// CreateMessage posts req and decodes the reply. Non-2xx replies come back as *APIError.
func (c *Client) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	var result *MessageResponse
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		resp, err := c.send(ctx, body)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = resp
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Anthropic request failed, retrying", map[string]interface{}{
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, body []byte) (*MessageResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("Anthropic API response", map[string]interface{}{
		"status":         resp.StatusCode,
		"content_length": len(respBody),
		"duration_ms":    time.Since(start).Milliseconds(),
	})

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return nil, apiErr
	}

	var out MessageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}
