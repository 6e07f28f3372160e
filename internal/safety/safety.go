package safety

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultMaxLength is the longest query accepted, in characters.
const DefaultMaxLength = 500

const matchTimeout = 50 * time.Millisecond

// Verdict is the outcome of checking a raw query. It gates everything downstream.
type Verdict struct {
	Safe       bool    `json:"safe"`
	Reason     string  `json:"reason,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Harmful vocabulary. The lookaheads keep technical phrases such as
// "kill process" and "attack vector" out of the filter.
var harmfulPatterns = []string{
	`\bkill\b(?!\s*process)`,
	`\bmurder\b`, `\bviolence\b`, `\battack\b(?!\s*vector)`,
	`\bharm\b`, `\bdestroy\b`,
	`\bsex\b`, `\bporn\b`, `\bnude\b`, `\bexplicit\b`, `\badult\b`,
	`\bhate\b`, `\bracis[mt]\b`, `\bterroris[mt]\b`, `\bbomb\b`, `\bweapon\b`,
	`\bsuicide\b`, `\bself-harm\b`, `\bdrug\b`, `\billegal\b`,
}

var spamPatterns = []string{
	`(.)\1{8,}`,
	`\b(free|buy|sell|click|visit|urgent|now)\b.*\b(link|website|discount)\b`,
}

var injectionPatterns = []string{
	`<script|javascript:|eval\(`,
	`union\s+select|drop\s+table`,
	`insert\s+into|delete\s+from`,
}

// Filter validates raw queries against length, spam, harmful-content and
// injection rules. It is safe for concurrent use.
type Filter struct {
	maxLength  int
	possessive string

	harmful   []*regexp2.Regexp
	spam      []*regexp2.Regexp
	injection []*regexp2.Regexp
}

// NewFilter builds a Filter. subjectPossessive is used in user-facing wording
// ("Adil's"). A non-positive maxLength selects DefaultMaxLength.
func NewFilter(maxLength int, subjectPossessive string) *Filter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Filter{
		maxLength:  maxLength,
		possessive: subjectPossessive,
		harmful:    compileAll(harmfulPatterns),
		spam:       compileAll(spamPatterns),
		injection:  compileAll(injectionPatterns),
	}
}

func compileAll(patterns []string) []*regexp2.Regexp {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re := regexp2.MustCompile(p, regexp2.IgnoreCase)
		re.MatchTimeout = matchTimeout
		out = append(out, re)
	}
	return out
}

// Check runs the rules in order; the first failing rule decides the verdict.
func (f *Filter) Check(query string) Verdict {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < 2 {
		return Verdict{
			Reason:     "Please ask a specific question about " + f.possessive + " portfolio.",
			Suggestion: "Try asking about his projects, skills, or contact information.",
			Confidence: 1.0,
		}
	}

	if utf8.RuneCountInString(query) > f.maxLength {
		return Verdict{
			Reason:     "Please keep your question under " + strconv.Itoa(f.maxLength) + " characters.",
			Suggestion: "Try breaking your question into smaller parts.",
			Confidence: 1.0,
		}
	}

	lower := strings.ToLower(trimmed)

	if matchAny(f.spam, lower) {
		return Verdict{
			Reason:     "Please ask a genuine question about " + f.possessive + " portfolio.",
			Suggestion: "Ask about his projects, skills, education, or contact details.",
			Confidence: 0.9,
		}
	}

	if matchAny(f.harmful, lower) {
		return Verdict{
			Reason:     "I can only assist with professional questions about " + f.possessive + " portfolio.",
			Suggestion: "Ask about his projects, technical skills, education, or contact information.",
			Confidence: 0.95,
		}
	}

	if matchAny(f.injection, query) {
		return Verdict{
			Reason:     "Invalid input detected. Please ask a normal question.",
			Suggestion: "Ask about " + f.possessive + " work, skills, or how to contact him.",
			Confidence: 1.0,
		}
	}

	return Verdict{Safe: true, Confidence: 1.0}
}

// matchAny fails closed: a pattern that errors (match timeout) counts as a match.
func matchAny(patterns []*regexp2.Regexp, s string) bool {
	for _, re := range patterns {
		ok, err := re.MatchString(s)
		if err != nil || ok {
			return true
		}
	}
	return false
}

var (
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	controlRe = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

// Sanitize strips HTML tags and control characters and collapses whitespace.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	text = tagRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = controlRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
