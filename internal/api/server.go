// Package api exposes the review framework over HTTP: the JSON API, the
// status page and the form UI.
package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"review-framework-api/internal/common/config"
	apperrors "review-framework-api/internal/common/errors"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/common/validation"
	"review-framework-api/internal/framework"
	"review-framework-api/internal/models"
	"review-framework-api/internal/review"
)

//go:embed templates/*.html
var templatesFS embed.FS

// HistoryReader is the read side of the review history.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]models.ReviewRecord, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server adapts to HTTP. History may be nil.
type Deps struct {
	Config   *config.Config
	Store    *framework.Store
	Selector *framework.Selector
	Service  *review.Service
	History  HistoryReader
	Logger   logger.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg        *config.Config
	store      *framework.Store
	selector   *framework.Selector
	service    *review.Service
	history    HistoryReader
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	validator  *validation.Validator
	tmpl       *template.Template
	httpServer *http.Server
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Store == nil || deps.Selector == nil || deps.Service == nil {
		return nil, fmt.Errorf("api: config, store, selector and service are required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"contains": containsString,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	validator, err := validation.NewValidator(validation.ReviewRequestSchema())
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        deps.Config,
		store:      deps.Store,
		selector:   deps.Selector,
		service:    deps.Service,
		history:    deps.History,
		logger:     log.With(map[string]interface{}{"component": "http"}),
		errHandler: apperrors.NewErrorHandler(log),
		validator:  validator,
		tmpl:       tmpl,
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /files", s.handleListFiles)
	mux.HandleFunc("GET /files/{filename}", s.handleGetFile)
	mux.HandleFunc("GET /framework", s.handleFramework)
	mux.HandleFunc("POST /generate-review", s.handleGenerateReview)
	mux.HandleFunc("GET /reviews/recent", s.handleRecentReviews)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("GET /ui", s.handleUI)
	mux.HandleFunc("POST /ui/generate", s.handleUIGenerate)
	mux.HandleFunc("GET /ui/explorer", s.handleUIExplorer)
	mux.HandleFunc("GET /ui/viewer", s.handleUIViewer)

	if s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, promhttp.Handler())
	}

	if dir := s.cfg.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		} else {
			s.logger.Warn("Static directory not found", map[string]interface{}{"directory": dir})
		}
	}

	var h http.Handler = mux
	h = metricsMiddleware(h)
	h = loggingMiddleware(s.logger)(h)
	h = requestIDMiddleware(s.logger)(h)
	h = recoverMiddleware(s.errHandler)(h)
	h = corsMiddleware(h)
	return h
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// returned after Shutdown.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(s.cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.Server.WriteTimeout),
	}
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Template error", map[string]interface{}{"template": name, "error": err.Error()})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) indexFile() string {
	if s.cfg.Server.StaticDir == "" {
		return ""
	}
	path := filepath.Join(s.cfg.Server.StaticDir, "index.html")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
