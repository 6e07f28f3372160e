package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/AdilSaeed0347/InsightFolio/internal/events"
	"github.com/AdilSaeed0347/InsightFolio/internal/format"
	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/memory"
	"github.com/AdilSaeed0347/InsightFolio/internal/metrics"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	"github.com/AdilSaeed0347/InsightFolio/internal/retrieval"
	"github.com/AdilSaeed0347/InsightFolio/internal/safety"
	"github.com/AdilSaeed0347/InsightFolio/internal/splitter"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
	"github.com/AdilSaeed0347/InsightFolio/internal/synth"
	"github.com/AdilSaeed0347/InsightFolio/internal/textproc"
)

// Query types set by the pipeline itself.
const (
	TypeRejected = "rejected"
	TypeCompound = "compound"
)

// DefaultRequestTimeout bounds one Handle call end to end.
const DefaultRequestTimeout = 30 * time.Second

const (
	errorAnswer    = "I'm experiencing technical difficulties. Please try again."
	publishTimeout = 2 * time.Second
)

// Retriever finds documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, analysis intent.Analysis) ([]retrieval.Document, error)
}

// Deps are the collaborators of an Assistant, constructed once in main.
type Deps struct {
	Profile    *profile.Profile
	Safety     *safety.Filter
	Normalizer *textproc.Normalizer
	Classifier *intent.Classifier
	Splitter   *splitter.Splitter
	Memory     *memory.Store
	Retriever  Retriever
	Synth      *synth.Synthesizer
	Formatter  *format.Formatter
	Events     events.Publisher
	Logger     *slog.Logger

	RequestTimeout time.Duration
}

// Assistant answers chat queries about the portfolio subject.
type Assistant struct {
	profile    *profile.Profile
	safety     *safety.Filter
	normalizer *textproc.Normalizer
	classifier *intent.Classifier
	splitter   *splitter.Splitter
	memory     *memory.Store
	retriever  Retriever
	synth      *synth.Synthesizer
	formatter  *format.Formatter
	events     events.Publisher
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates an Assistant. Events and Logger are optional.
func New(d Deps) *Assistant {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = DefaultRequestTimeout
	}
	return &Assistant{
		profile:    d.Profile,
		safety:     d.Safety,
		normalizer: d.Normalizer,
		classifier: d.Classifier,
		splitter:   d.Splitter,
		memory:     d.Memory,
		retriever:  d.Retriever,
		synth:      d.Synth,
		formatter:  d.Formatter,
		events:     d.Events,
		logger:     d.Logger,
		timeout:    d.RequestTimeout,
	}
}

// failure is a degraded stage observed while answering.
type failure struct {
	stage stage.Stage
	err   error
}

// leg is the answer to one sub-query.
type leg struct {
	answer   synth.Answer
	text     string
	length   format.Length
	failures []failure
}

// Handle answers one chat query. It never fails: rejected input, service
// outages and internal errors all resolve to a Response.
func (a *Assistant) Handle(ctx context.Context, query, lang, sessionID string) (resp format.Response) {
	start := time.Now()
	subQueries := 0
	var failures []failure

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("chat handling panicked", "stage", stage.Pipeline, "panic", r, "session_id", sessionID)
			failures = append(failures, failure{stage.Pipeline, fmt.Errorf("panic: %v", r)})
			resp = a.errorResponse(query, lang)
		}
		resp.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
		a.record(ctx, resp, lang, sessionID, subQueries, failures, time.Since(start))
	}()

	verdict := a.safety.Check(query)
	if !verdict.Safe {
		metrics.SafetyRejectionsTotal.Inc()
		a.logger.Info("query rejected", "stage", stage.Safety, "reason", verdict.Reason, "session_id", sessionID)
		return rejected(verdict)
	}

	clean := safety.Sanitize(query)
	if !textproc.ValidLanguage(lang) {
		lang = textproc.DetectLanguage(clean)
	}
	normalized := a.normalizer.Normalize(clean)

	var mctx memory.Context
	if sessionID != "" {
		mctx = a.memory.Context(sessionID)
	}

	subs := a.splitter.Split(normalized)
	subQueries = len(subs)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	legs := make([]leg, len(subs))
	var g errgroup.Group
	for i, sq := range subs {
		i, sq := i, sq
		g.Go(func() error {
			legs[i] = a.runLeg(ctx, sq, query, lang, mctx)
			return nil
		})
	}
	_ = g.Wait()

	for _, l := range legs {
		failures = append(failures, l.failures...)
	}

	resp = a.aggregate(legs, query, lang)

	// Memory is written only once the whole answer exists.
	if sessionID != "" {
		a.memory.AddInteraction(sessionID, clean, resp.Answer)
	}
	return resp
}

// runLeg answers a single sub-query. Panics are contained to the leg.
func (a *Assistant) runLeg(ctx context.Context, sq splitter.SubQuery, original, lang string, mctx memory.Context) (l leg) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("sub-query panicked", "stage", stage.Pipeline, "panic", r, "sub_query", sq.Text)
			l = leg{
				answer:   synth.Answer{Text: errorAnswer, QueryType: synth.TypeError},
				text:     errorAnswer,
				length:   format.LengthFor(original),
				failures: []failure{{stage.Pipeline, fmt.Errorf("panic: %v", r)}},
			}
		}
	}()

	l.answer = a.answer(ctx, sq, mctx, &l.failures)

	polished := a.formatter.Polish(l.answer.Text, original)
	if polished.Failed() {
		a.logger.Warn("polishing failed", "stage", stage.Formatter, "error", polished.Err)
		l.failures = append(l.failures, failure{stage.Formatter, polished.Err})
		l.text = format.Apology(lang)
		l.length = format.LengthFor(original)
		return l
	}
	l.text = polished.Value.Text
	l.length = polished.Value.Length
	return l
}

func (a *Assistant) answer(ctx context.Context, sq splitter.SubQuery, mctx memory.Context, failures *[]failure) synth.Answer {
	if sq.Intent == intent.ThirdParty || (sq.Person != "" && sq.Person != a.profile.Key) {
		return a.synth.ThirdParty(sq.Person)
	}

	switch a.classifier.Route(sq.Text) {
	case intent.RouteSelf:
		return a.degraded(a.synth.SelfReply(ctx, sq.Text), failures)
	case intent.RouteGeneral:
		return a.degraded(a.synth.GeneralReply(ctx, sq.Text), failures)
	}

	resolved := a.memory.ResolveCoreferences(sq.Text, mctx)
	analysis := a.classifier.Analyze(resolved)
	a.logger.Debug("answering portfolio query",
		"stage", stage.Classifier,
		"intent", sq.Intent,
		"topic", analysis.Primary,
		"resolved", resolved,
	)

	docs, err := a.retriever.Retrieve(ctx, resolved, analysis)
	if err != nil {
		a.logger.Warn("retrieval failed, using fallback", "stage", stage.Retriever, "error", err)
		*failures = append(*failures, failure{stage.Retriever, err})
		return synth.Fallback(analysis)
	}
	if len(docs) == 0 {
		return a.synth.NoInfo(resolved)
	}
	return a.degraded(a.synth.Synthesize(ctx, resolved, docs, analysis), failures)
}

func (a *Assistant) degraded(ans synth.Answer, failures *[]failure) synth.Answer {
	if ans.Degraded {
		*failures = append(*failures, failure{stage.Synthesizer, errors.New("generation unavailable")})
	}
	return ans
}

// aggregate joins leg answers in splitter order and finalizes them once.
func (a *Assistant) aggregate(legs []leg, query, lang string) format.Response {
	if len(legs) == 0 {
		return a.formatter.Format(format.Data{Query: query}, lang)
	}

	first := legs[0]
	data := format.Data{
		Answer:     first.text,
		Sources:    first.answer.Sources,
		QueryType:  first.answer.QueryType,
		Confidence: first.answer.Confidence,
		Query:      query,
	}

	if len(legs) > 1 {
		texts := lo.Map(legs, func(l leg, _ int) string { return l.text })
		data.Answer = strings.Join(texts, "\n\n")
		data.Sources = lo.Uniq(lo.FlatMap(legs, func(l leg, _ int) []string { return l.answer.Sources }))
		data.Confidence = lo.MinBy(legs, func(x, y leg) bool { return x.answer.Confidence < y.answer.Confidence }).answer.Confidence

		types := lo.Uniq(lo.Map(legs, func(l leg, _ int) string { return l.answer.QueryType }))
		if len(types) > 1 {
			data.QueryType = TypeCompound
		}
	}

	return a.formatter.Finalize(data, first.length, lang)
}

func rejected(v safety.Verdict) format.Response {
	return format.Response{
		Answer:         v.Reason,
		Suggestion:     v.Suggestion,
		Sources:        []string{},
		QueryType:      TypeRejected,
		Confidence:     v.Confidence,
		Images:         []format.Image{},
		ResponseLength: format.LengthShort,
	}
}

func (a *Assistant) errorResponse(query, lang string) format.Response {
	return a.formatter.Format(format.Data{
		Answer:    errorAnswer,
		Sources:   []string{},
		QueryType: synth.TypeError,
		Query:     query,
	}, lang)
}

// record updates metrics and publishes telemetry without blocking the caller.
func (a *Assistant) record(ctx context.Context, resp format.Response, lang, sessionID string, subQueries int, failures []failure, elapsed time.Duration) {
	metrics.ChatRequestsTotal.WithLabelValues(resp.QueryType).Inc()
	metrics.ChatDuration.Observe(elapsed.Seconds())
	if subQueries > 0 {
		metrics.SubQueriesPerRequest.Observe(float64(subQueries))
	}
	for _, f := range failures {
		metrics.StageFailuresTotal.WithLabelValues(string(f.stage)).Inc()
	}

	event := events.NewChatEvent(sessionID, resp.QueryType, lang, resp.Confidence, subQueries)
	event.ProcessingTimeMs = resp.ProcessingTimeMs
	event.FailedStages = lo.Uniq(lo.Map(failures, func(f failure, _ int) string { return string(f.stage) }))

	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		if err := a.events.PublishChat(ctx, event); err != nil {
			a.logger.Warn("publishing chat event", "error", err)
		}
		for _, f := range failures {
			err := a.events.PublishStageFailure(ctx, events.StageFailureEvent{
				RequestID: event.ID,
				SessionID: sessionID,
				Stage:     string(f.stage),
				Error:     f.err.Error(),
				Timestamp: event.Timestamp,
			})
			if err != nil {
				a.logger.Warn("publishing stage failure event", "error", err)
			}
		}
	}()
}

// ActiveSessions returns the number of live conversation sessions.
func (a *Assistant) ActiveSessions() int {
	return a.memory.ActiveSessions()
}

// MemoryStats returns aggregate conversation memory statistics.
func (a *Assistant) MemoryStats() memory.Stats {
	return a.memory.Stats()
}

// Seed installs client-supplied history for a session that does not exist yet.
func (a *Assistant) Seed(sessionID string, history []memory.Turn) bool {
	if sessionID == "" || len(history) == 0 {
		return false
	}
	return a.memory.Seed(sessionID, history)
}
