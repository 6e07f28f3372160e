package memory

import (
	"regexp"
	"strings"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

type entityRule struct {
	entity   string
	patterns []*regexp.Regexp
}

// entityMatcher tags user turns with the entity they mention. Rule order is
// the tie-break when a turn mentions several entities.
type entityMatcher struct {
	subject string
	rules   []entityRule
}

func newEntityMatcher(p *profile.Profile) *entityMatcher {
	words := func(ws ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(ws))
		for _, w := range ws {
			out = append(out, regexp.MustCompile(`\b`+w+`\b`))
		}
		return out
	}

	subjectWords := []string{regexp.QuoteMeta(p.Key), `you`, `your`, `creator`}
	if short := strings.ToLower(p.ShortName); short != "" && short != p.Key {
		subjectWords = append(subjectWords, regexp.QuoteMeta(short))
	}
	friendWords := []string{`friends?`}
	for _, person := range p.People {
		friendWords = append(friendWords, regexp.QuoteMeta(strings.ToLower(person.Key)))
	}

	return &entityMatcher{
		subject: p.Key,
		rules: []entityRule{
			{p.Key, words(subjectWords...)},
			{EntityProjects, words(`projects?`, `apps?`, `work`, `develop\w*`)},
			{EntitySkills, words(`skills?`, `programming`, `technolog(?:y|ies)`)},
			{EntityFriends, words(friendWords...)},
			{EntityEducation, words(`education`, `university`, `study`)},
			{EntityContact, words(`contact`, `email`, `phone`, `hire`)},
		},
	}
}

func (m *entityMatcher) matches(rule entityRule, lower string) bool {
	for _, re := range rule.patterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// lastEntity scans user turns newest first and returns the first entity
// mentioned, defaulting to the subject.
func (m *entityMatcher) lastEntity(userTurns []string) string {
	for i := len(userTurns) - 1; i >= 0; i-- {
		lower := strings.ToLower(userTurns[i])
		for _, rule := range m.rules {
			if m.matches(rule, lower) {
				return rule.entity
			}
		}
	}
	return m.subject
}

// recentTopics collects entities from the last three user turns in
// first-seen order without duplicates.
func (m *entityMatcher) recentTopics(userTurns []string) []string {
	if len(userTurns) > 3 {
		userTurns = userTurns[len(userTurns)-3:]
	}
	topics := []string{}
	seen := make(map[string]bool)
	for _, turn := range userTurns {
		lower := strings.ToLower(turn)
		for _, rule := range m.rules {
			if !seen[rule.entity] && m.matches(rule, lower) {
				seen[rule.entity] = true
				topics = append(topics, rule.entity)
			}
		}
	}
	return topics
}

var (
	pronounRe   = regexp.MustCompile(`(?i)\b(?:he|his|him|that|this|it)\b`)
	heRe        = regexp.MustCompile(`(?i)\bhe\b`)
	hisRe       = regexp.MustCompile(`(?i)\bhis\b`)
	himRe       = regexp.MustCompile(`(?i)\bhim\b`)
	demonstrRe  = regexp.MustCompile(`(?i)\b(?:that|this|it)\b`)
	topicTarget = map[string]bool{EntityProjects: true, EntitySkills: true, EntityEducation: true}
)

// ResolveCoreferences rewrites pronouns using the session context: he/his/him
// become the subject when the subject was the last entity, and it/this/that
// become the subject's most recent topic. Without context or pronouns the
// query is returned unchanged.
func (s *Store) ResolveCoreferences(query string, c Context) string {
	if !c.HasContext || !pronounRe.MatchString(query) {
		return query
	}

	resolved := query
	if c.LastEntity == s.profile.Key {
		resolved = heRe.ReplaceAllLiteralString(resolved, s.profile.ShortName)
		resolved = hisRe.ReplaceAllLiteralString(resolved, s.profile.Possessive())
		resolved = himRe.ReplaceAllLiteralString(resolved, s.profile.ShortName)
	}

	if len(c.RecentTopics) > 0 && topicTarget[c.RecentTopics[0]] {
		resolved = demonstrRe.ReplaceAllLiteralString(resolved, s.profile.Possessive()+" "+c.RecentTopics[0])
	}

	if resolved != query {
		s.logger.Debug("resolved coreferences", "query", query, "resolved", resolved, "entity", c.LastEntity)
	}
	return resolved
}
