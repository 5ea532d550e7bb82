package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/domain"
)

const defaultListLimit = 50

// ReplyLogHandler serves the dispatcher's reply-log query API: lookups of
// persisted dispatch outcomes by entry ID or by sender.
type ReplyLogHandler struct {
	repo   domain.ReplyLogRepository
	logger *slog.Logger
}

func NewReplyLogHandler(repo domain.ReplyLogRepository, logger *slog.Logger) *ReplyLogHandler {
	return &ReplyLogHandler{
		repo:   repo,
		logger: logger.With("handler", "reply_log"),
	}
}

// RegisterRoutes mounts the query endpoints on r.
func (h *ReplyLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reply-logs", h.HandleList)
	r.Get("/reply-logs/{logID}", h.HandleGetByID)
}

func (h *ReplyLogHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	logID, err := uuid.Parse(chi.URLParam(r, "logID"))
	if err != nil {
		respondQueryError(w, http.StatusBadRequest, "invalid reply log ID format")
		return
	}

	entry, err := h.repo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, domain.ErrReplyLogNotFound) {
			respondQueryError(w, http.StatusNotFound, "reply log entry not found")
			return
		}
		logger.ErrorContext(ctx, "Failed to get reply log entry", "log_id", logID, "error", err)
		respondQueryError(w, http.StatusInternalServerError, "failed to get reply log entry")
		return
	}

	respondQueryJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entry,
	})
}

func (h *ReplyLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	from := r.URL.Query().Get("from")
	if from == "" {
		respondQueryError(w, http.StatusBadRequest, "query parameter 'from' is required")
		return
	}

	limit := defaultListLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			respondQueryError(w, http.StatusBadRequest, "query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.repo.ListByFrom(ctx, from, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list reply log entries", "from", from, "error", err)
		respondQueryError(w, http.StatusInternalServerError, "failed to list reply log entries")
		return
	}
	if entries == nil {
		entries = []*domain.ReplyLog{}
	}

	respondQueryJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}

func respondQueryJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondQueryError(w http.ResponseWriter, code int, message string) {
	respondQueryJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
