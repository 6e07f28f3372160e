package intent

import (
	"regexp"
	"strings"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

// Intent is the coarse question category used by the splitter and memory.
type Intent string

const (
	Introduction Intent = "introduction"
	Education    Intent = "education"
	Projects     Intent = "projects"
	Skills       Intent = "skills"
	Contact      Intent = "contact"
	Experience   Intent = "experience"
	General      Intent = "general"
	ThirdParty   Intent = "third_party"
)

// Route is where the pipeline sends a (sub-)query.
type Route string

const (
	RouteSelf      Route = "self"
	RouteGeneral   Route = "general_knowledge"
	RoutePortfolio Route = "portfolio"
)

type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// Priority order matters: the first intent with a matching pattern wins.
var intentRules = []intentRule{
	{Introduction, compile(
		`\bwho\s+is\b`, `\babout\b`, `\bintroduce\b`, `\btell\s+me\s+about\b`, `\bknow\s+about\b`,
	)},
	{Education, compile(
		`\beducation(?:al)?\b`, `\bdegrees?\b`, `\buniversit(?:y|ies)\b`, `\bstud(?:y|ies|ied|ying)\b`,
		`\bqualifications?\b`, `\bacademic\b`, `\blearning\b`, `\bbootcamps?\b`,
	)},
	{Projects, compile(
		`\bprojects?\b`, `\bdevelop(?:s|ed|ing)?\b`, `\bbuil(?:d|ds|t)\b`, `\bocr\b`,
		`\bchatbots?\b`, `\bapps?\b`, `\bapplications?\b`, `\bwork(?:ed)?\s+on\b`,
	)},
	{Skills, compile(
		`\bskills?\b`, `\bpython\b`, `\bjavascript\b`, `\bprogramming\b`,
		`\btechnolog(?:y|ies)\b`, `\bexpertise\b`, `\bknowledge\b`, `\btools?\b`,
	)},
	{Contact, compile(
		`\bcontact\b`, `\bemail\b`, `\bphone\b`, `\breach\b`, `\bhire\b`, `\bconnect\b`, `\bget\s+in\s+touch\b`,
	)},
	{Experience, compile(
		`\bexperiences?\b`, `\binternships?\b`, `\bwork\b`, `\bjobs?\b`, `\bcareer\b`,
		`\bprofessional\b`, `\bbackground\b`,
	)},
}

var (
	whoAboutRe = regexp.MustCompile(`\b(?:who|about)\b`)

	arithmeticRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*[-+*/]\s*\d+(?:\.\d+)?`)
	triviaRes    = compile(
		`\bcapital\s+of\b`, `\bweather\b`, `\btemperature\b`, `\bpresident\b`, `\bprime\s+minister\b`,
		`\bhow\s+to\s+make\b`, `\brecipes?\b`, `\bcurrency\s+of\b`, `\bpopulation\s+of\b`,
	)

	selfQueryRes = compile(
		`\bwhat(?:'s|\s+is)\s+your\s+name\b`,
		`\bwho\s+are\s+you\b`,
		`\bhow\s+old\s+are\s+you\b`,
		`\bwho\s+(?:created|made|built)\s+you\b`,
		`\btell\s+me\s+about\s+yourself\b`,
		`\bare\s+you\s+(?:a\s+|an\s+)?(?:bot|robot|human|ai|real|chatbot)\b`,
		`\bwhat\s+are\s+you\b`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// termPattern matches a vocabulary term as whole words, tolerating a plural s.
func termPattern(term string) *regexp.Regexp {
	stem := strings.ToLower(strings.TrimSpace(term))
	if len(stem) > 3 {
		stem = strings.TrimSuffix(stem, "s")
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(stem) + `s?\b`)
}

// Classifier holds the subject-specific vocabulary. All methods expect the
// normalized query and are safe for concurrent use.
type Classifier struct {
	scopeTerms   []*regexp.Regexp
	subjectTerms []*regexp.Regexp
	topics       []topicRule
}

// New builds a Classifier for the given profile.
func New(p *profile.Profile) *Classifier {
	c := &Classifier{topics: buildTopicRules(p)}
	for _, term := range p.PortfolioTerms {
		c.scopeTerms = append(c.scopeTerms, termPattern(term))
	}
	// Pronoun aliases such as "your" stay out: they mark the subject only in
	// splitting, not when deciding whether a query is trivia.
	for _, term := range append([]string{p.Key, "portfolio", "his", "him"}, strings.Fields(p.Name)...) {
		c.subjectTerms = append(c.subjectTerms, termPattern(term))
	}
	return c
}

// ClassifyIntent returns the first intent whose patterns match, falling back
// to Introduction for who/about phrasing and General otherwise.
func (c *Classifier) ClassifyIntent(query string) Intent {
	lower := strings.ToLower(query)
	if strings.TrimSpace(lower) == "" {
		return General
	}
	for _, rule := range intentRules {
		if matchAny(rule.patterns, lower) {
			return rule.intent
		}
	}
	if whoAboutRe.MatchString(lower) {
		return Introduction
	}
	return General
}

// IsInScope reports whether the query mentions any portfolio vocabulary.
func (c *Classifier) IsInScope(query string) bool {
	return matchAny(c.scopeTerms, strings.ToLower(query))
}

// IsGeneralKnowledge detects arithmetic and common trivia. Queries that also
// refer to the subject are never treated as general knowledge.
func (c *Classifier) IsGeneralKnowledge(query string) bool {
	lower := strings.ToLower(query)
	if matchAny(c.subjectTerms, lower) {
		return false
	}
	return arithmeticRe.MatchString(lower) || matchAny(triviaRes, lower)
}

// IsAssistantSelfQuery detects questions aimed at the assistant itself.
func (c *Classifier) IsAssistantSelfQuery(query string) bool {
	return matchAny(selfQueryRes, strings.ToLower(query))
}

// Route decides which answering path handles the query.
func (c *Classifier) Route(query string) Route {
	switch {
	case c.IsAssistantSelfQuery(query):
		return RouteSelf
	case c.IsGeneralKnowledge(query) && !c.IsInScope(query):
		return RouteGeneral
	default:
		return RoutePortfolio
	}
}

// Arithmetic returns the first arithmetic expression in the query, if any.
func Arithmetic(query string) (string, bool) {
	m := arithmeticRe.FindString(query)
	return m, m != ""
}
