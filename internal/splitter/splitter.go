package splitter

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
)

// MinSplitLength is the shortest query (in characters) considered for splitting.
const MinSplitLength = 10

// minPartLength is the shortest fragment kept after a topic split.
const minPartLength = 6

// Priority orders sub-queries; higher runs first in the aggregated answer.
type Priority int

const (
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// SubQuery is one independently answerable unit of a user query.
type SubQuery struct {
	Text     string        `json:"text"`
	Intent   intent.Intent `json:"intent"`
	Person   string        `json:"person,omitempty"`
	Priority Priority      `json:"priority"`
}

type personMatcher struct {
	key     string
	name    string
	subject bool
	aliases []string
	strict  []*regexp.Regexp
}

// Ordered most-specific-first: compound connectors must win over bare "and".
var splitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\band\s+who\s+is\b`),
	regexp.MustCompile(`(?i)\bwho\s+is\b.*?\band\b`),
	regexp.MustCompile(`(?i)\band\s+tell\s+me\b`),
	regexp.MustCompile(`(?i)\band\s+what\s+about\b`),
	regexp.MustCompile(`(?i)\band\s+what\s+is\b`),
	regexp.MustCompile(`(?i)\band\b`),
	regexp.MustCompile(`(?i)\balso\b`),
	regexp.MustCompile(`[,;]`),
}

var (
	topicKeywords = []string{
		"project", "skill", "education", "contact", "experience",
		"qualification", "work", "development", "programming",
	}
	connectorRe    = regexp.MustCompile(`(?i)\b(?:and|also|plus|additionally|furthermore|what\s+about|tell\s+me\s+about|along\s+with)\b`)
	questionOpener = []string{"what", "who", "tell", "show", "how", "where", "when", "which", "does", "is", "can"}
)

// Splitter decomposes compound queries. It is stateless after construction.
type Splitter struct {
	profile    *profile.Profile
	classifier *intent.Classifier
	people     []personMatcher
	logger     *slog.Logger
}

// New builds a Splitter. The subject is matched liberally by any alias;
// other people need a whole-word alias match.
func New(p *profile.Profile, c *intent.Classifier, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Splitter{profile: p, classifier: c, logger: logger}

	subject := personMatcher{key: p.Key, name: p.Name, subject: true}
	for _, a := range append([]string{p.Key}, p.Aliases...) {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			subject.aliases = append(subject.aliases, a)
		}
	}
	s.people = append(s.people, subject)

	for _, person := range p.People {
		m := personMatcher{key: person.Key, name: person.Name}
		for _, a := range append([]string{person.Key}, person.Aliases...) {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				m.strict = append(m.strict, regexp.MustCompile(`\b`+regexp.QuoteMeta(a)+`\b`))
			}
		}
		s.people = append(s.people, m)
	}
	return s
}

// Split returns the sub-queries for query in answer order. It never fails:
// any internal problem yields the query unsplit with intent General.
func (s *Splitter) Split(query string) (out []SubQuery) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("query splitting failed", "stage", stage.Splitter, "panic", r)
			out = []SubQuery{{Text: query, Intent: intent.General, Priority: PriorityHigh}}
		}
	}()

	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinSplitLength {
		return []SubQuery{{Text: query, Intent: s.classifier.ClassifyIntent(query), Priority: PriorityHigh}}
	}

	people := s.detectPeople(query)
	if len(people) > 1 {
		return s.splitByPeople(query, people)
	}

	if s.shouldSplitTopics(query) {
		if parts := s.splitByTopics(query); len(parts) > 1 {
			return parts
		}
	}

	sq := SubQuery{Text: query, Intent: s.classifier.ClassifyIntent(query), Priority: PriorityHigh}
	if len(people) == 1 {
		sq.Person = people[0].key
		if !people[0].subject {
			sq.Priority = PriorityMedium
		}
	}
	return []SubQuery{sq}
}

// People returns the keys of everyone the query mentions, subject first.
func (s *Splitter) People(query string) []string {
	people := s.detectPeople(query)
	keys := make([]string, len(people))
	for i, p := range people {
		keys[i] = p.key
	}
	return keys
}

func (s *Splitter) detectPeople(query string) []personMatcher {
	lower := strings.ToLower(query)
	var found []personMatcher
	for _, p := range s.people {
		if p.matches(lower) {
			found = append(found, p)
		}
	}
	return found
}

func (p personMatcher) matches(lower string) bool {
	if p.subject {
		for _, a := range p.aliases {
			if strings.Contains(lower, a) {
				return true
			}
		}
		return false
	}
	for _, re := range p.strict {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func (s *Splitter) splitByPeople(query string, people []personMatcher) []SubQuery {
	main := s.classifier.ClassifyIntent(query)

	out := make([]SubQuery, 0, len(people))
	for _, p := range people {
		if p.subject {
			out = append(out, SubQuery{
				Text:     s.subjectQuestion(query),
				Intent:   main,
				Person:   p.key,
				Priority: PriorityHigh,
			})
			continue
		}
		out = append(out, SubQuery{
			Text:     fmt.Sprintf("Who is %s?", p.name),
			Intent:   intent.ThirdParty,
			Person:   p.key,
			Priority: PriorityMedium,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })

	s.logger.Debug("split by people", "stage", stage.Splitter, "parts", len(out))
	return out
}

// subjectQuestion rewrites a multi-person query into a canonical question
// about the subject, keyed on whichever topic keyword the query carries.
func (s *Splitter) subjectQuestion(query string) string {
	lower := strings.ToLower(query)
	name := s.profile.Name
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("who is"):
		switch {
		case has("qualification", "education"):
			return fmt.Sprintf("Who is %s and what is his educational background?", name)
		case has("project"):
			return fmt.Sprintf("Who is %s and what are his projects?", name)
		case has("skill"):
			return fmt.Sprintf("Who is %s and what are his skills?", name)
		}
		return fmt.Sprintf("Who is %s?", name)
	case has("about"):
		return fmt.Sprintf("Tell me about %s", name)
	case has("education", "qualification"):
		return fmt.Sprintf("What is %s's educational background?", name)
	case has("project"):
		return fmt.Sprintf("What are %s's projects?", name)
	case has("skill"):
		return fmt.Sprintf("What are %s's technical skills?", name)
	case has("contact"):
		return fmt.Sprintf("How to contact %s?", name)
	}
	return fmt.Sprintf("Who is %s?", name)
}

func (s *Splitter) shouldSplitTopics(query string) bool {
	lower := strings.ToLower(query)
	var topics int
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw) {
			topics++
		}
	}
	return topics > 1 && connectorRe.MatchString(lower)
}

func (s *Splitter) splitByTopics(query string) []SubQuery {
	for _, re := range splitPatterns {
		if !re.MatchString(query) {
			continue
		}
		var parts []SubQuery
		for _, raw := range re.Split(query, -1) {
			part := strings.TrimSpace(raw)
			if utf8.RuneCountInString(part) < minPartLength {
				continue
			}
			if !readsAsQuestion(part) {
				part = s.completeQuestion(part)
			}
			parts = append(parts, SubQuery{
				Text:     part,
				Intent:   s.classifier.ClassifyIntent(part),
				Person:   s.profile.Key,
				Priority: PriorityHigh,
			})
		}
		if len(parts) > 1 {
			s.logger.Debug("split by topics", "stage", stage.Splitter, "parts", len(parts))
			return parts
		}
	}
	return nil
}

func readsAsQuestion(part string) bool {
	lower := strings.ToLower(part)
	for _, w := range questionOpener {
		if strings.HasPrefix(lower, w+" ") {
			return true
		}
	}
	return false
}

// completeQuestion turns a bare fragment ("his skills?") into a question
// about the subject using the fragment's topic keyword.
func (s *Splitter) completeQuestion(part string) string {
	lower := strings.ToLower(part)
	poss := s.profile.Possessive()
	switch {
	case strings.Contains(lower, "qualification") || strings.Contains(lower, "education"):
		return fmt.Sprintf("What is %s educational background?", poss)
	case strings.Contains(lower, "project"):
		return fmt.Sprintf("What are %s projects?", poss)
	case strings.Contains(lower, "skill"):
		return fmt.Sprintf("What are %s skills?", poss)
	}
	fragment := strings.TrimRight(part, "?.! ")
	fragment = strings.TrimPrefix(strings.TrimPrefix(fragment, "his "), "His ")
	return fmt.Sprintf("Tell me about %s %s", poss, fragment)
}
