package memory

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

func newTestRouter(store *Store) http.Handler {
	h := NewHandler(store)
	r := chi.NewRouter()
	r.Get("/stats", h.Stats)
	r.Delete("/sessions/{sessionID}", h.ClearSession)
	return r
}

func TestHandler_ClearSession(t *testing.T) {
	store := NewStore(DefaultConfig(), profile.Default(), slog.Default())
	store.AddInteraction("abc-123", "hi", "hello")
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/abc-123", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.ActiveSessions())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/abc-123", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Stats(t *testing.T) {
	store := NewStore(DefaultConfig(), profile.Default(), slog.Default())
	store.AddInteraction("abc-123", "what projects", "OCR")
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.ActiveSessions)
	assert.Equal(t, 2, body.Data.TotalTurns)
	assert.Equal(t, 1, body.Data.PopularTopics["projects"])
}
