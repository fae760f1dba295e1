package review

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/models"
)

// Resolver picks framework components for a request.
type Resolver interface {
	Resolve(requested []string) map[string]interface{}
	ComponentsUsed(requested []string) []string
}

// HistoryRecorder stores generated reviews. Optional.
type HistoryRecorder interface {
	Record(ctx context.Context, rec models.ReviewRecord) error
}

// Service is the single entry point for review generation shared by the JSON
// API, the form UI and the CLI.
type Service struct {
	resolver  Resolver
	generator Generator
	history   HistoryRecorder
	logger    logger.Logger
	now       func() time.Time
}

// NewService wires the selector and generator. history may be nil.
func NewService(resolver Resolver, generator Generator, history HistoryRecorder, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		resolver:  resolver,
		generator: generator,
		history:   history,
		logger:    log.With(map[string]interface{}{"component": "review-service"}),
		now:       time.Now,
	}
}

func (s *Service) GenerationEnabled() bool {
	return s.generator.Enabled()
}

// Generate builds the prompt for req and returns the generator's text together
// with the components reported as used. Generation failures are carried in the
// review text; the only error is a context that was already cancelled.
func (s *Service) Generate(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, s.logger)

	var review string
	if s.generator.Enabled() {
		components := s.resolver.Resolve(req.IncludeComponents)
		log.Info("Generating review", map[string]interface{}{
			"product":    req.ProductName,
			"category":   req.ProductCategory,
			"components": len(components),
		})
		prompt := BuildPrompt(req.ProductName, req.ProductCategory, req.UserExperience, components)
		review = s.generator.Generate(ctx, prompt)
	} else {
		review = s.generator.Generate(ctx, "")
	}

	resp := &models.ReviewResponse{
		Review:         review,
		ComponentsUsed: s.resolver.ComponentsUsed(req.IncludeComponents),
	}

	s.record(ctx, req, resp)
	return resp, nil
}

func (s *Service) record(ctx context.Context, req models.ReviewRequest, resp *models.ReviewResponse) {
	if s.history == nil {
		return
	}

	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	rec := models.ReviewRecord{
		RequestID:       requestID,
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		ComponentsUsed:  resp.ComponentsUsed,
		Review:          resp.Review,
		Generated:       s.generator.Enabled() && !strings.HasPrefix(resp.Review, ErrorPrefix),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.history.Record(ctx, rec); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to record review history", map[string]interface{}{
			"error":     err.Error(),
			"requestId": requestID,
		})
	}
}
