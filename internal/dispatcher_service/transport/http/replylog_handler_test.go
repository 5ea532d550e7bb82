package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/domain"
)

// fakeReplyLogRepo serves canned entries keyed by ID and sender.
type fakeReplyLogRepo struct {
	byID      map[uuid.UUID]*domain.ReplyLog
	byFrom    map[string][]*domain.ReplyLog
	lastLimit int
	failWith  error
}

func (r *fakeReplyLogRepo) Create(ctx context.Context, entry *domain.ReplyLog) error {
	return nil
}

func (r *fakeReplyLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReplyLog, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	entry, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReplyLogNotFound
	}
	return entry, nil
}

func (r *fakeReplyLogRepo) ListByFrom(ctx context.Context, from string, limit int) ([]*domain.ReplyLog, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.lastLimit = limit
	return r.byFrom[from], nil
}

func setupReplyLogHandlerTest(repo domain.ReplyLogRepository) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewReplyLogHandler(repo, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func getJSON(t *testing.T, router *chi.Mux, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestReplyLogHandler_GetByID(t *testing.T) {
	entry := domain.NewReplyLog("wamid.1", "15551234567", "text")
	entry.MatchedRule = "greeting"
	repo := &fakeReplyLogRepo{byID: map[uuid.UUID]*domain.ReplyLog{entry.ID: entry}}
	router := setupReplyLogHandlerTest(repo)

	t.Run("found", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs/"+entry.ID.String())

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "wamid.1", data["provider_message_id"])
		assert.Equal(t, "greeting", data["matched_rule"])
	})

	t.Run("not found", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs/"+uuid.NewString())

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("malformed id", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs/not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, false, body["success"])
	})
}

func TestReplyLogHandler_List(t *testing.T) {
	entries := []*domain.ReplyLog{
		domain.NewReplyLog("wamid.1", "15551234567", "text"),
		domain.NewReplyLog("wamid.2", "15551234567", "image"),
	}
	repo := &fakeReplyLogRepo{byFrom: map[string][]*domain.ReplyLog{"15551234567": entries}}
	router := setupReplyLogHandlerTest(repo)

	t.Run("list by sender", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs?from=15551234567")

		assert.Equal(t, http.StatusOK, rr.Code)
		data := body["data"].([]interface{})
		assert.Len(t, data, 2)
		assert.Equal(t, defaultListLimit, repo.lastLimit)
	})

	t.Run("custom limit", func(t *testing.T) {
		rr, _ := getJSON(t, router, "/reply-logs?from=15551234567&limit=5")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 5, repo.lastLimit)
	})

	t.Run("missing from", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		rr, _ := getJSON(t, router, "/reply-logs?from=15551234567&limit=zero")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no entries yields empty list", func(t *testing.T) {
		rr, body := getJSON(t, router, "/reply-logs?from=15550000000")

		assert.Equal(t, http.StatusOK, rr.Code)
		data := body["data"].([]interface{})
		assert.Empty(t, data)
	})
}

func TestReplyLogHandler_RepositoryFailureIs500(t *testing.T) {
	repo := &fakeReplyLogRepo{failWith: assert.AnError}
	router := setupReplyLogHandlerTest(repo)

	rr, body := getJSON(t, router, "/reply-logs/"+uuid.NewString())
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, false, body["success"])

	rr, _ = getJSON(t, router, "/reply-logs?from=15551234567")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
