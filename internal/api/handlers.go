package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "review-framework-api/internal/common/errors"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/framework"
	"review-framework-api/internal/models"
)

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 10
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files := s.store.LoadAll()
	names := framework.Names(files)

	apperrors.WriteJSON(w, http.StatusOK, models.FileListing{
		Files:           names,
		Count:           len(names),
		Directory:       s.store.Directory(),
		DirectoryExists: s.store.DirectoryExists(),
		RootDirectories: s.store.RootDirectories(),
	})
}

// handleGetFile looks the file up among the loaded documents first and then
// tries a direct read, so files skipped by the extension filter still resolve.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := framework.NormalizeName(r.PathValue("filename"), s.store.Extension())

	if doc, ok := s.store.LoadAll()[name]; ok {
		apperrors.WriteJSON(w, http.StatusOK, doc)
		return
	}

	doc, err := s.store.ReadFile(name)
	if err != nil {
		if stdErr := apperrors.AsStandardError(err); stdErr.Code == apperrors.ErrCodeFrameworkFileInvalid {
			logger.FromContext(r.Context(), s.logger).Error("Error loading file directly", map[string]interface{}{
				"file":  name,
				"error": stdErr.Details,
			})
		}
		s.errHandler.HandleHTTPError(w, r, apperrors.NewFrameworkFileNotFoundError(name, s.store.Directory()))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleFramework(w http.ResponseWriter, r *http.Request) {
	files := s.store.LoadAll()
	if len(files) == 0 {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewFrameworkEmptyError(
			s.store.Directory(), s.store.DirectoryExists(), s.store.RootDirectories()))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, files)
}

func (s *Server) handleGenerateReview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	if result := s.validator.ValidateJSON(body); !result.Valid {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError(result.Summary()))
		return
	}

	var req models.ReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	resp, err := s.service.Generate(r.Context(), req)
	if err != nil {
		if isClientGone(err) {
			logger.FromContext(r.Context(), s.logger).Warn("Client went away before generation", nil)
			return
		}
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInternalError(err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecentReviews(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		apperrors.WriteJSON(w, http.StatusNotFound, apperrors.ErrorBody{Detail: "Review history is not enabled"})
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewHistoryUnavailableError(err.Error()))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": records,
		"count":   len(records),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"framework_directory": strconv.FormatBool(s.store.DirectoryExists()),
		"generation_enabled":  strconv.FormatBool(s.service.GenerationEnabled()),
	}

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			checks["history"] = err.Error()
			apperrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"checks": checks,
			})
			return
		}
		checks["history"] = "ok"
	}

	apperrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}
