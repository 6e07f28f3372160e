package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
)

// Document is one retrieved chunk. ID is unique within a retrieval call.
type Document struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Searcher is the similarity search service.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Document, error)
}

// Config tunes multi-strategy retrieval.
type Config struct {
	PrimaryTopK int
	AuxTopK     int
	// MinScore is exclusive: a document must score strictly above it.
	MinScore   float64
	MaxResults int
	// Timeout bounds each individual search call.
	Timeout time.Duration
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		PrimaryTopK: 4,
		AuxTopK:     2,
		MinScore:    0.2,
		MaxResults:  8,
		Timeout:     5 * time.Second,
	}
}

// Orchestrator runs one primary search plus canned topic-specific auxiliary
// searches and merges them into a single ranked list.
type Orchestrator struct {
	searcher Searcher
	cfg      Config
	hints    map[intent.Topic][]string
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. hints maps topic names to the
// auxiliary search strings issued for that topic; topics without hints fall
// back to the "general" entry.
func NewOrchestrator(searcher Searcher, cfg Config, hints map[string][]string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	byTopic := make(map[intent.Topic][]string, len(hints))
	for topic, queries := range hints {
		byTopic[intent.Topic(topic)] = queries
	}
	return &Orchestrator{searcher: searcher, cfg: cfg, hints: byTopic, logger: logger}
}

// AuxiliaryQueries returns the canned searches issued for a topic.
func (o *Orchestrator) AuxiliaryQueries(topic intent.Topic) []string {
	if q, ok := o.hints[topic]; ok {
		return q
	}
	return o.hints[intent.TopicGeneral]
}

// Retrieve returns the filtered, deduplicated and ranked documents for query.
// A primary search failure is returned as a retriever-stage error; auxiliary
// failures are logged and skipped. An empty result with a nil error means
// nothing relevant was found.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, analysis intent.Analysis) ([]Document, error) {
	aux := o.AuxiliaryQueries(analysis.Primary)
	results := make([][]Document, 1+len(aux))

	var g errgroup.Group
	g.Go(func() error {
		docs, err := o.search(ctx, query, o.cfg.PrimaryTopK)
		if err != nil {
			return fmt.Errorf("primary search: %w", err)
		}
		results[0] = docs
		return nil
	})
	for i, q := range aux {
		i, q := i, q
		g.Go(func() error {
			docs, err := o.search(ctx, q, o.cfg.AuxTopK)
			if err != nil {
				o.logger.Warn("auxiliary search failed", "stage", stage.Retriever, "query", q, "error", err)
				return nil
			}
			results[i+1] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stage.Wrap(stage.Retriever, err)
	}

	return Merge(results, o.cfg.MinScore, o.cfg.MaxResults), nil
}

func (o *Orchestrator) search(ctx context.Context, query string, topK int) ([]Document, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	return o.searcher.Search(ctx, query, topK)
}

// Merge flattens result sets in order, drops documents scoring at or below
// minScore, keeps the first remaining occurrence of each ID, sorts by score
// descending (stable, so equal scores keep merge order) and truncates to
// maxResults.
func Merge(sets [][]Document, minScore float64, maxResults int) []Document {
	relevant := lo.Filter(lo.Flatten(sets), func(d Document, _ int) bool { return d.Score > minScore })
	kept := lo.UniqBy(relevant, func(d Document) string { return d.ID })
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if maxResults > 0 && len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}
