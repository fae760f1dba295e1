package review

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"review-framework-api/internal/common/anthropic"
	"review-framework-api/internal/common/config"
	apperrors "review-framework-api/internal/common/errors"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/common/metrics"
	"review-framework-api/internal/common/observability"
)

const (
	// DisabledMessage is returned in place of a review when no API key is configured.
	DisabledMessage = "Anthropic API key not set. Please configure the ANTHROPIC_API_KEY environment variable to use review generation."
	// ErrorPrefix starts every review text produced by a failed generation.
	ErrorPrefix = "Error generating review: "
)

var errEmptyContent = errors.New("response contained no content blocks")

// MessageCreator is the upstream call the enabled generator makes.
type MessageCreator interface {
	CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error)
}

// Generator turns a prompt into review text. Failures are reported in the text,
// never as an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
	Enabled() bool
}

// GeneratorConfig carries everything a generator needs. An empty APIKey
// selects the disabled variant. Client overrides the Anthropic client built
// from Anthropic and is mainly for tests.
type GeneratorConfig struct {
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Anthropic    anthropic.Config
	Client       MessageCreator
}

// NewGeneratorConfig maps the application config onto a GeneratorConfig.
func NewGeneratorConfig(cfg config.AnthropicConfig) GeneratorConfig {
	return GeneratorConfig{
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		SystemPrompt: cfg.SystemPrompt,
		Anthropic: anthropic.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
			Timeout:    config.GetDuration(cfg.Timeout),
			MaxRetries: cfg.MaxRetries,
			RateLimit:  cfg.RateLimit,
		},
	}
}

func NewGenerator(cfg GeneratorConfig, log logger.Logger, obs *observability.Observability) Generator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.With(map[string]interface{}{"component": "review-generator"})

	if cfg.APIKey == "" {
		disabled := apperrors.NewGenerationDisabledError()
		log.Warn("ANTHROPIC_API_KEY not set. Review generation will be disabled.", map[string]interface{}{
			"errorCode": string(disabled.Code),
		})
		return &disabledGenerator{obs: obs}
	}

	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = config.DefaultTemperature
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt
	}
	if cfg.Anthropic.BaseURL == "" {
		cfg.Anthropic.BaseURL = config.DefaultAnthropicURL
	}

	client := cfg.Client
	if client == nil {
		cfg.Anthropic.APIKey = cfg.APIKey
		client = anthropic.NewClient(cfg.Anthropic, log)
	}

	log.Info("Anthropic client initialized", map[string]interface{}{"model": cfg.Model})
	return &enabledGenerator{
		client: client,
		cfg:    cfg,
		logger: log,
		obs:    obs,
		tracer: obs.Tracer(),
	}
}

type disabledGenerator struct {
	obs *observability.Observability
}

func (g *disabledGenerator) Generate(ctx context.Context, _ string) string {
	metrics.ReviewsGenerated.WithLabelValues(metrics.OutcomeDisabled).Inc()
	g.obs.RecordGeneration(ctx, metrics.OutcomeDisabled)
	return DisabledMessage
}

func (g *disabledGenerator) Enabled() bool { return false }

type enabledGenerator struct {
	client MessageCreator
	cfg    GeneratorConfig
	logger logger.Logger
	obs    *observability.Observability
	tracer trace.Tracer
}

func (g *enabledGenerator) Enabled() bool { return true }

func (g *enabledGenerator) Generate(ctx context.Context, prompt string) string {
	ctx, span := g.tracer.Start(ctx, "review.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", g.cfg.Model),
			attribute.Int("llm.max_tokens", g.cfg.MaxTokens),
			attribute.Int("prompt.length", len(prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := g.call(ctx, prompt)
	duration := time.Since(start)
	metrics.ReviewGenerationDuration.Observe(duration.Seconds())

	log := logger.FromContext(ctx, g.logger)
	if err != nil {
		metrics.ReviewsGenerated.WithLabelValues(metrics.OutcomeFailed).Inc()
		g.obs.RecordGeneration(ctx, metrics.OutcomeFailed)
		g.obs.RecordGenerationDuration(ctx, duration, metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		stdErr := classify(err)
		log.Error("Error generating review with Claude", map[string]interface{}{
			"error":         err.Error(),
			"errorCode":     string(stdErr.Code),
			"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
			"retryable":     apperrors.IsRetryableErrorCode(stdErr.Code),
			"duration_ms":   duration.Milliseconds(),
		})
		return fmt.Sprintf("%s%s", ErrorPrefix, err.Error())
	}

	metrics.ReviewsGenerated.WithLabelValues(metrics.OutcomeSuccess).Inc()
	g.obs.RecordGeneration(ctx, metrics.OutcomeSuccess)
	g.obs.RecordGenerationDuration(ctx, duration, metrics.OutcomeSuccess)
	span.SetAttributes(attribute.Int("review.length", len(text)))

	log.Info("Review generated", map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
		"length":      len(text),
	})
	return text
}

func classify(err error) *apperrors.StandardError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewUpstreamTimeoutError("anthropic", err)
	}
	return apperrors.NewGenerationFailedError(err)
}

func (g *enabledGenerator) call(ctx context.Context, prompt string) (string, error) {
	temperature := g.cfg.Temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.cfg.Model,
		System:      g.cfg.SystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	text, ok := resp.FirstText()
	if !ok {
		return "", errEmptyContent
	}
	return text, nil
}
