package memory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AdilSaeed0347/InsightFolio/internal/api"
)

// Handler exposes session management over HTTP.
type Handler struct {
	store *Store
}

// NewHandler creates a new memory handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Stats returns aggregate memory statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.store.Stats())
}

// ClearSession drops the conversation history of one session.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if id == "" {
		api.HandleError(w, api.NewBadRequestError("session id is required"))
		return
	}

	if !h.store.Clear(id) {
		api.HandleError(w, api.NewNotFoundError("session not found"))
		return
	}

	api.JSONMessage(w, http.StatusOK, "session cleared")
}
