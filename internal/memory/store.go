package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/AdilSaeed0347/InsightFolio/internal/metrics"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

type session struct {
	mu        sync.Mutex
	turns     []Turn
	lastQuery string
	created   time.Time
	updated   time.Time
	// removed is set under mu when the sweeper or Clear drops the session,
	// so a writer holding a stale pointer knows to start over.
	removed bool
}

// Store keeps bounded per-session conversation history in process memory.
// The table lock only guards lookup, insert and removal; each session has
// its own mutex, so traffic on different sessions never contends.
type Store struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*session
	entities *entityMatcher
	profile  *profile.Profile
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(cfg Config, p *profile.Profile, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*session),
		entities: newEntityMatcher(p),
		profile:  p,
		now:      time.Now,
		logger:   logger,
	}
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.cfg
}

func (s *Store) lookup(id string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Store) getOrCreate(id string) *session {
	if sess := s.lookup(id); sess != nil {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	now := s.now()
	sess := &session{created: now, updated: now}
	s.sessions[id] = sess
	return sess
}

// Context returns a snapshot of the session's recent state. Unknown or empty
// session ids yield a context with HasContext false.
func (s *Store) Context(sessionID string) Context {
	empty := Context{RecentTopics: []string{}}
	if sessionID == "" {
		return empty
	}
	sess := s.lookup(sessionID)
	if sess == nil {
		return empty
	}

	sess.mu.Lock()
	if sess.removed {
		sess.mu.Unlock()
		return empty
	}
	users := userContents(lastN(sess.turns, s.cfg.MaxTurns))
	lastQuery := sess.lastQuery
	sess.mu.Unlock()

	return Context{
		HasContext:   true,
		LastEntity:   s.entities.lastEntity(users),
		RecentTopics: s.entities.recentTopics(users),
		TurnCount:    len(users),
		LastQuery:    lastQuery,
	}
}

// AddInteraction appends one user/assistant exchange and trims the session to
// 2×MaxTurns entries, dropping the oldest first. Writes to the same session
// are serialized.
func (s *Store) AddInteraction(sessionID, userText, assistantText string) {
	if sessionID == "" {
		return
	}
	for {
		sess := s.getOrCreate(sessionID)
		sess.mu.Lock()
		if sess.removed {
			sess.mu.Unlock()
			continue
		}
		now := s.now()
		sess.turns = append(sess.turns,
			Turn{Role: RoleUser, Content: userText, Timestamp: now},
			Turn{Role: RoleAssistant, Content: assistantText, Timestamp: now},
		)
		if limit := 2 * s.cfg.MaxTurns; len(sess.turns) > limit {
			sess.turns = append([]Turn(nil), sess.turns[len(sess.turns)-limit:]...)
		}
		sess.lastQuery = userText
		sess.updated = now
		sess.mu.Unlock()
		return
	}
}

// Seed creates a session from client-supplied history. It only applies when
// the session does not exist yet, so server-side turns are never rewritten.
func (s *Store) Seed(sessionID string, history []Turn) bool {
	if sessionID == "" || len(history) == 0 {
		return false
	}
	history = lastN(history, 2*s.cfg.MaxTurns)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		return false
	}
	now := s.now()
	sess := &session{
		turns:   append([]Turn(nil), history...),
		created: now,
		updated: now,
	}
	if users := userContents(history); len(users) > 0 {
		sess.lastQuery = users[len(users)-1]
	}
	s.sessions[sessionID] = sess
	return true
}

// Turns returns a copy of the stored turns for a session.
func (s *Store) Turns(sessionID string) []Turn {
	sess := s.lookup(sessionID)
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return nil
	}
	return append([]Turn(nil), sess.turns...)
}

// Sweep removes sessions idle for longer than maxIdle and reports how many
// were removed. Sessions busy with a write are active by definition and are
// skipped rather than waited on.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.updated.Before(cutoff) {
			sess.removed = true
			delete(s.sessions, id)
			removed++
		}
		sess.mu.Unlock()
	}
	return removed
}

// RunSweeper sweeps idle sessions every interval until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				metrics.SessionsSweptTotal.Add(float64(n))
				s.logger.Info("swept idle sessions", "removed", n, "active", s.ActiveSessions())
			}
		}
	}
}

// ActiveSessions returns the number of live sessions.
func (s *Store) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats aggregates turn counts and topic popularity over all sessions.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	all := lo.Values(s.sessions)
	s.mu.RUnlock()

	var total int
	var topics []string
	for _, sess := range all {
		sess.mu.Lock()
		if !sess.removed {
			total += len(sess.turns)
			topics = append(topics, s.entities.recentTopics(userContents(sess.turns))...)
		}
		sess.mu.Unlock()
	}

	return Stats{
		ActiveSessions: len(all),
		TotalTurns:     total,
		MaxTurns:       s.cfg.MaxTurns,
		PopularTopics:  lo.CountValues(topics),
	}
}

// Clear removes one session and reports whether it existed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		sess.removed = true
		sess.mu.Unlock()
	}
	return ok
}

// ClearAll removes every session and returns how many there were.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	old := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range old {
		sess.mu.Lock()
		sess.removed = true
		sess.mu.Unlock()
	}
	return len(old)
}

func lastN(turns []Turn, n int) []Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func userContents(turns []Turn) []string {
	return lo.FilterMap(turns, func(t Turn, _ int) (string, bool) {
		return t.Content, t.Role == RoleUser
	})
}
