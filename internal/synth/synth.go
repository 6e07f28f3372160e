package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/llm"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	"github.com/AdilSaeed0347/InsightFolio/internal/retrieval"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
)

// Query types produced outside the topic set.
const (
	TypeChatbot  = "chatbot"
	TypeMath     = "math"
	TypeGeneral  = "general"
	TypeRedirect = "redirect"
	TypeNoInfo   = "no_info"
	TypeError    = "error"
	TypePerson   = "third_party"
)

const (
	maxContextDocs   = 6
	simpleMaxTokens  = 300
	complexMaxTokens = 400
	shortMaxTokens   = 50
)

var emojis = map[intent.Topic]string{
	intent.TopicSocialMedia: "🔗",
	intent.TopicContact:     "📧",
	intent.TopicSkills:      "🛠️",
	intent.TopicProjects:    "💻",
	intent.TopicEducation:   "🎓",
	intent.TopicExperience:  "💼",
	intent.TopicPersonal:    "👨‍💻",
	intent.TopicGeneral:     "📋",
}

// Emoji returns the heading emoji for a topic.
func Emoji(t intent.Topic) string {
	if e, ok := emojis[t]; ok {
		return e
	}
	return emojis[intent.TopicGeneral]
}

var (
	firstPersonRe = regexp.MustCompile(`\bI am\b`)
	myRe          = regexp.MustCompile(`(?i)\bmy\b`)
	expressionRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([-+*/])\s*(\d+(?:\.\d+)?)`)
)

// Answer is the synthesized (not yet formatted) reply to one sub-query.
type Answer struct {
	Text       string
	Sources    []string
	QueryType  string
	Confidence float64
	Degraded   bool
}

// Synthesizer turns retrieved documents into a grounded answer.
type Synthesizer struct {
	gen       llm.Generator
	profile   *profile.Profile
	logger    *slog.Logger
	leadingRe *regexp.Regexp
}

// New creates a synthesizer.
func New(gen llm.Generator, p *profile.Profile, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		gen:       gen,
		profile:   p,
		logger:    logger,
		leadingRe: regexp.MustCompile(`^` + regexp.QuoteMeta(p.Name) + `\s+is\s*`),
	}
}

func (s *Synthesizer) generate(ctx context.Context, req llm.Request) stage.Result[string] {
	if s.gen == nil {
		return stage.Fail[string](stage.Synthesizer, errors.New("no generator configured"))
	}
	text, err := s.gen.Complete(ctx, req)
	if err != nil {
		return stage.Fail[string](stage.Synthesizer, err)
	}
	return stage.OK(text)
}

func (s *Synthesizer) systemPrompt(a intent.Analysis) string {
	short := s.profile.ShortName
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s portfolio assistant. Write a natural, well-structured answer.\n\n", s.profile.Possessive())
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "1. Never open with \"%s is\".\n", s.profile.Name)
	fmt.Fprintf(&b, "2. Start with %s and a short relevant heading.\n", Emoji(a.Primary))
	b.WriteString("3. Use only information from the provided context.\n")
	b.WriteString("4. GitHub, LinkedIn and Facebook count as social media platforms.\n")
	b.WriteString("5. Use bullet points and clear structure.\n")
	fmt.Fprintf(&b, "6. Write in the third person (%s, his, he).\n", short)
	b.WriteString("7. If the context has relevant information, present it completely.\n\n")
	fmt.Fprintf(&b, "Query topic: %s\n", a.Primary)
	b.WriteString("Style: professional but conversational")
	return b.String()
}

func buildContext(docs []retrieval.Document) string {
	if len(docs) > maxContextDocs {
		docs = docs[:maxContextDocs]
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Synthesize answers query from docs. Generation failures never escape: they
// produce a fallback naming the topic with confidence 0.5.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, docs []retrieval.Document, a intent.Analysis) Answer {
	maxTokens := simpleMaxTokens
	if a.Complex {
		maxTokens = complexMaxTokens
	}

	res := s.generate(ctx, llm.Request{
		System:      s.systemPrompt(a),
		User:        fmt.Sprintf("Query: '%s'\n\nContext:\n%s\n\nWrite a complete, well-formatted answer to what the user is asking.", query, buildContext(docs)),
		Temperature: 0.1,
		MaxTokens:   maxTokens,
	})
	if res.Failed() {
		s.logger.Warn("generation failed, using fallback", "stage", stage.Synthesizer, "topic", a.Primary, "error", res.Err)
		return Fallback(a)
	}

	return Answer{
		Text:       s.postProcess(res.Value),
		Sources:    []string{s.profile.SourceLabel},
		QueryType:  string(a.Primary),
		Confidence: 0.9,
	}
}

// Fallback is the deterministic answer used when retrieval or generation for
// a portfolio query is unavailable.
func Fallback(a intent.Analysis) Answer {
	return Answer{
		Text:       fmt.Sprintf("Technical issue occurred while processing query about %s.", a.Primary.Label()),
		QueryType:  string(a.Primary),
		Confidence: 0.5,
		Degraded:   true,
	}
}

// postProcess strips a leading "{Name} is" and turns first-person slips into
// the third person.
func (s *Synthesizer) postProcess(text string) string {
	text = s.leadingRe.ReplaceAllLiteralString(text, "")
	text = firstPersonRe.ReplaceAllLiteralString(text, s.profile.ShortName+" is")
	text = myRe.ReplaceAllLiteralString(text, s.profile.Possessive())
	return strings.TrimSpace(text)
}

// SelfReply answers questions about the assistant itself.
func (s *Synthesizer) SelfReply(ctx context.Context, query string) Answer {
	res := s.generate(ctx, llm.Request{
		System:      fmt.Sprintf("You are %s portfolio assistant. Answer personal questions about yourself in one sentence and point back to %s portfolio.", s.profile.Possessive(), s.profile.Possessive()),
		User:        query,
		Temperature: 0.2,
		MaxTokens:   shortMaxTokens,
	})
	if res.Failed() {
		s.logger.Warn("self reply failed", "stage", stage.Synthesizer, "error", res.Err)
		return Answer{
			Text:       fmt.Sprintf("I'm %s portfolio assistant. Ask me about his projects or experience!", s.profile.Possessive()),
			QueryType:  TypeChatbot,
			Confidence: 0.9,
			Degraded:   true,
		}
	}
	return Answer{Text: res.Value, QueryType: TypeChatbot, Confidence: 0.95}
}

// GeneralReply answers out-of-portfolio questions without attributing them to
// the subject. Arithmetic is computed locally.
func (s *Synthesizer) GeneralReply(ctx context.Context, query string) Answer {
	if expr, ok := intent.Arithmetic(query); ok {
		if result, ok := Evaluate(expr); ok {
			return Answer{
				Text:       fmt.Sprintf("🔢 The result is **%s**.", result),
				QueryType:  TypeMath,
				Confidence: 0.95,
			}
		}
	}

	res := s.generate(ctx, llm.Request{
		System:      "Answer general knowledge questions briefly and accurately. One sentence only.",
		User:        query,
		Temperature: 0.1,
		MaxTokens:   shortMaxTokens,
	})
	if res.Failed() {
		s.logger.Warn("general reply failed", "stage", stage.Synthesizer, "error", res.Err)
		return Answer{
			Text:       fmt.Sprintf("📋 I specialize in %s portfolio information. Ask about his projects, skills, or experience!", s.profile.Possessive()),
			QueryType:  TypeRedirect,
			Confidence: 0.7,
			Degraded:   true,
		}
	}
	return Answer{Text: "🌍 " + res.Value, QueryType: TypeGeneral, Confidence: 0.8}
}

// NoInfo is the reply when retrieval found nothing relevant.
func (s *Synthesizer) NoInfo(query string) Answer {
	return Answer{
		Text: fmt.Sprintf("📋 I don't have specific information about '%s' in %s portfolio. "+
			"You can ask about his projects, education, skills, experience, or contact information.",
			query, s.profile.Possessive()),
		QueryType:  TypeNoInfo,
		Confidence: 0.6,
	}
}

// ThirdParty answers questions about people other than the subject from the
// profile's canned descriptions.
func (s *Synthesizer) ThirdParty(personKey string) Answer {
	name := personKey
	if person, ok := s.profile.Person(personKey); ok {
		name = person.Name
	}
	return Answer{
		Text:       fmt.Sprintf("**About %s**\n\n%s", name, s.profile.AboutPerson(personKey)),
		Sources:    []string{s.profile.SourceLabel},
		QueryType:  TypePerson,
		Confidence: 0.8,
	}
}

// Evaluate computes a single binary arithmetic expression such as "12 * 3".
func Evaluate(expr string) (string, bool) {
	m := expressionRe.FindStringSubmatch(expr)
	if m == nil {
		return "", false
	}
	a, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", false
	}
	b, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return "", false
	}

	var r float64
	switch m[2] {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return "", false
		}
		r = a / b
	}
	return strconv.FormatFloat(r, 'f', -1, 64), true
}
