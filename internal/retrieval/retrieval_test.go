package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]Document
	errs    map[string]error
	delay   map[string]time.Duration
	calls   map[string]int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string][]Document{},
		errs:    map[string]error{},
		delay:   map[string]time.Duration{},
		calls:   map[string]int{},
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	f.mu.Lock()
	f.calls[query] = topK
	d, err, docs := f.delay[query], f.errs[query], f.results[query]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

var testHints = map[string][]string{
	"contact": {"email contact", "github linkedin"},
	"general": {"background"},
}

func newTestOrchestrator(s Searcher) *Orchestrator {
	return NewOrchestrator(s, DefaultConfig(), testHints, slog.Default())
}

func TestRetrieve_DedupKeepsFirstOccurrence(t *testing.T) {
	s := newFakeSearcher()
	s.results["how to reach him"] = []Document{{ID: "a", Content: "email", Score: 0.9}, {ID: "b", Score: 0.5}}
	s.results["email contact"] = []Document{{ID: "a", Score: 0.3}, {ID: "c", Score: 0.7}}
	s.results["github linkedin"] = []Document{{ID: "b", Score: 0.95}}

	docs, err := newTestOrchestrator(s).Retrieve(context.Background(), "how to reach him", intent.Analysis{Primary: intent.TopicContact})
	require.NoError(t, err)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
	assert.Equal(t, 0.9, docs[0].Score)
	assert.Equal(t, 0.5, docs[2].Score)
}

func TestRetrieve_TopKPerSearch(t *testing.T) {
	s := newFakeSearcher()
	_, err := newTestOrchestrator(s).Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicContact})
	require.NoError(t, err)

	assert.Equal(t, 4, s.calls["q"])
	assert.Equal(t, 2, s.calls["email contact"])
	assert.Equal(t, 2, s.calls["github linkedin"])
}

func TestRetrieve_UnknownTopicUsesGeneralHints(t *testing.T) {
	s := newFakeSearcher()
	_, err := newTestOrchestrator(s).Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicSkills})
	require.NoError(t, err)
	assert.Contains(t, s.calls, "background")
}

func TestRetrieve_PrimaryFailure(t *testing.T) {
	s := newFakeSearcher()
	s.errs["q"] = errors.New("connection refused")

	docs, err := newTestOrchestrator(s).Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicContact})
	require.Error(t, err)
	assert.Nil(t, docs)

	st, ok := stage.Of(err)
	require.True(t, ok)
	assert.Equal(t, stage.Retriever, st)
}

func TestRetrieve_AuxiliaryFailureSkipped(t *testing.T) {
	s := newFakeSearcher()
	s.results["q"] = []Document{{ID: "a", Score: 0.8}}
	s.errs["email contact"] = errors.New("boom")
	s.results["github linkedin"] = []Document{{ID: "g", Score: 0.6}}

	docs, err := newTestOrchestrator(s).Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicContact})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestRetrieve_Timeout(t *testing.T) {
	s := newFakeSearcher()
	s.delay["q"] = time.Second

	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	o := NewOrchestrator(s, cfg, testHints, slog.Default())

	_, err := o.Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicContact})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetrieve_NothingRelevant(t *testing.T) {
	s := newFakeSearcher()
	s.results["q"] = []Document{{ID: "a", Score: 0.1}}

	docs, err := newTestOrchestrator(s).Retrieve(context.Background(), "q", intent.Analysis{Primary: intent.TopicGeneral})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMerge_ScoreBoundary(t *testing.T) {
	docs := Merge([][]Document{{
		{ID: "below", Score: 0.19},
		{ID: "boundary", Score: 0.2},
		{ID: "above", Score: 0.21},
	}}, 0.2, 8)

	require.Len(t, docs, 1)
	assert.Equal(t, "above", docs[0].ID)
}

func TestMerge_FilterBeforeDedup(t *testing.T) {
	tests := []struct {
		name      string
		sets      [][]Document
		wantScore float64
	}{
		{
			name:      "low primary score does not hide a relevant auxiliary hit",
			sets:      [][]Document{{{ID: "a", Score: 0.1}}, {{ID: "a", Score: 0.9}}},
			wantScore: 0.9,
		},
		{
			name:      "first relevant occurrence wins",
			sets:      [][]Document{{{ID: "a", Score: 0.4}}, {{ID: "a", Score: 0.9}}},
			wantScore: 0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := Merge(tt.sets, 0.2, 8)
			require.Len(t, docs, 1)
			assert.Equal(t, "a", docs[0].ID)
			assert.Equal(t, tt.wantScore, docs[0].Score)
		})
	}
}

func TestMerge_SortAndCap(t *testing.T) {
	var set []Document
	for i, score := range []float64{0.3, 0.9, 0.5, 0.5, 0.8, 0.4, 0.7, 0.6, 0.35, 0.95} {
		set = append(set, Document{ID: string(rune('a' + i)), Score: score})
	}

	docs := Merge([][]Document{set}, 0.2, 8)
	require.Len(t, docs, 8)
	assert.Equal(t, "j", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	// Equal scores keep merge order.
	assert.Equal(t, "c", docs[5].ID)
	assert.Equal(t, "d", docs[6].ID)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score, docs[i].Score)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-0.3))
	assert.Equal(t, 1.0, clamp(1.0000001))
	assert.Equal(t, 0.42, clamp(0.42))
}
