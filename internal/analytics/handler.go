package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AdilSaeed0347/InsightFolio/internal/api"
)

const (
	defaultWindow = 24 * time.Hour
	maxWindow     = 30 * 24 * time.Hour
)

// Summarizer reads aggregated telemetry.
type Summarizer interface {
	Summary(ctx context.Context, since time.Time) (*Summary, error)
}

type Handler struct {
	repo Summarizer
	now  func() time.Time
}

func NewHandler(repo Summarizer) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// Summary reports recorded traffic for the last ?hours= hours (default 24).
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	window := defaultWindow
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 {
			api.HandleError(w, api.NewBadRequestError("hours must be a positive integer"))
			return
		}
		window = min(time.Duration(hours)*time.Hour, maxWindow)
	}

	summary, err := h.repo.Summary(r.Context(), h.now().UTC().Add(-window))
	if err != nil {
		slog.Error("summarizing analytics", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, summary)
}
