package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AdilSaeed0347/InsightFolio/internal/api"
	"github.com/AdilSaeed0347/InsightFolio/internal/format"
	"github.com/AdilSaeed0347/InsightFolio/internal/memory"
	"github.com/AdilSaeed0347/InsightFolio/internal/pipeline"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Assistant is the chat pipeline as seen by the HTTP layer.
type Assistant interface {
	Handle(ctx context.Context, query, lang, sessionID string) format.Response
	Seed(sessionID string, history []memory.Turn) bool
	ActiveSessions() int
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Query               string        `json:"query" validate:"required,max=4000"`
	Language            string        `json:"language" validate:"omitempty,oneof=en ur"`
	SessionID           string        `json:"session_id" validate:"omitempty,max=128"`
	ConversationHistory []memory.Turn `json:"conversation_history" validate:"omitempty,max=50,dive"`
}

// ChatResponse is a formatted answer plus the session it was recorded under.
type ChatResponse struct {
	format.Response
	SessionID string `json:"session_id"`
}

// HealthResponse describes the chat service.
type HealthResponse struct {
	Status         string    `json:"status"`
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	ActiveSessions int       `json:"active_sessions"`
	Timestamp      time.Time `json:"timestamp"`
}

type Handler struct {
	assistant Assistant
	validate  *validator.Validate
}

func NewHandler(assistant Assistant) *Handler {
	return &Handler{
		assistant: assistant,
		validate:  validator.New(),
	}
}

// Chat answers one query. Rejected queries are answered with 400 and the
// same response body so clients can show the reason and suggestion.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if h.assistant.Seed(req.SessionID, req.ConversationHistory) {
		slog.Debug("seeded session from client history", "session_id", req.SessionID, "turns", len(req.ConversationHistory))
	}

	resp := h.assistant.Handle(r.Context(), req.Query, req.Language, req.SessionID)

	status := http.StatusOK
	if resp.QueryType == pipeline.TypeRejected {
		status = http.StatusBadRequest
	}
	api.JSON(w, status, ChatResponse{Response: resp, SessionID: req.SessionID})
}

// Health reports liveness of the chat service itself.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Service:        "InsightFolio Portfolio Assistant",
		Version:        Version,
		ActiveSessions: h.assistant.ActiveSessions(),
		Timestamp:      time.Now().UTC(),
	})
}
