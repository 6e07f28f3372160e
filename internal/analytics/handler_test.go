package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummarizer struct {
	since time.Time
	err   error
}

func (f *fakeSummarizer) Summary(_ context.Context, since time.Time) (*Summary, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return &Summary{
		Since:       since,
		Requests:    3,
		ByQueryType: map[string]int{"contact": 2, "projects": 1},
	}, nil
}

func TestHandler_Summary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantSince time.Time
	}{
		{"default window", "", http.StatusOK, now.Add(-24 * time.Hour)},
		{"custom window", "?hours=2", http.StatusOK, now.Add(-2 * time.Hour)},
		{"capped window", "?hours=100000", http.StatusOK, now.Add(-maxWindow)},
		{"invalid", "?hours=abc", http.StatusBadRequest, time.Time{}},
		{"zero", "?hours=0", http.StatusBadRequest, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSummarizer{}
			h := NewHandler(repo)
			h.now = func() time.Time { return now }

			rec := httptest.NewRecorder()
			h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat/analytics"+tt.query, nil))
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}

			assert.Equal(t, tt.wantSince, repo.since)
			var body struct {
				Data Summary `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, int64(3), body.Data.Requests)
			assert.Equal(t, 2, body.Data.ByQueryType["contact"])
		})
	}
}

func TestHandler_SummaryError(t *testing.T) {
	h := NewHandler(&fakeSummarizer{err: errors.New("db down")})
	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat/analytics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
