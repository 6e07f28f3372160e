package format

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	"github.com/AdilSaeed0347/InsightFolio/internal/stage"
)

// Length is the target answer length derived from the user's query.
type Length string

const (
	LengthShort    Length = "short"
	LengthMedium   Length = "medium"
	LengthDetailed Length = "detailed"
)

// ImageDelayMs is how long the client waits before revealing attached images.
const ImageDelayMs = 2500

const maxImages = 2

var (
	detailedKeywords = []string{
		"explain", "describe", "tell me about", "elaborate", "detailed", "comprehensive",
		"thoroughly", "in depth", "how does", "why", "process", "methodology", "all about",
	}
	shortKeywords = []string{
		"briefly", "quick", "short", "just tell", "simply", "who is", "what is", "when",
		"where", "which", "yes or no", "name of", "how many", "how much",
	}
	imageKeywords = []string{
		"show me", "picture", "photo", "image", "pic", "screenshot", "look like",
		"appearance", "face", "portrait", "visual",
	}

	redundantIntroRe = regexp.MustCompile(`(?i)^(?:(?:based on the context|according to the information|from the provided context|looking at the information)[,.]?|the context shows that)\s*`)

	// Leftover anchor markup from generated contact blocks, cut up to the next
	// paragraph or heading.
	brokenAnchorRe = regexp2.MustCompile(`\*\*[^*]*\*\*[^\[]*target="_blank"[^>]*>.*?(?=\n\n|\*\*|$)`, regexp2.Singleline)

	cleanups = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`target="_blank"[^>]*>`), ""},
		{regexp.MustCompile(`rel="[^"]*"[^>]*>`), ""},
		{regexp.MustCompile(`class="[^"]*"[^>]*>`), ""},
		{regexp.MustCompile(`<[^>]+>`), ""},
		{regexp.MustCompile(`https?://\S+`), ""},
		{regexp.MustCompile(`www\.\S+`), ""},
		{regexp.MustCompile(`\n{3,}`), "\n\n"},
		{regexp.MustCompile(`[ \t]{3,}`), " "},
	}

	sentenceEndRe = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
)

// Data is the unformatted answer handed to the formatter.
type Data struct {
	Answer     string
	Sources    []string
	QueryType  string
	Confidence float64
	// Query is the original user query; length and image decisions use it.
	Query string
}

// Response is the final, client-ready answer.
type Response struct {
	Answer            string   `json:"answer"`
	Sources           []string `json:"sources"`
	QueryType         string   `json:"query_type"`
	Confidence        float64  `json:"confidence"`
	Images            []Image  `json:"images"`
	ShowImagesAfterMs int      `json:"show_images_after_ms"`
	ResponseLength    Length   `json:"response_length"`
	ProcessingTimeMs  float64  `json:"processing_time_ms"`
	// Suggestion is set only on rejected queries.
	Suggestion        string   `json:"suggestion,omitempty"`
}

// Polished is an answer after cleanup, reordering and length control.
type Polished struct {
	Text   string
	Length Length
}

type duplicate struct {
	re   *regexp.Regexp
	repl string
}

type highlight struct {
	topic string
	re    *regexp.Regexp
}

type link struct {
	label string
	re    *regexp.Regexp
}

// Formatter shapes synthesized answers for display.
type Formatter struct {
	profile    *profile.Profile
	images     []Image
	logger     *slog.Logger
	duplicates []duplicate
	highlights []highlight
	links      []link
}

// highlightOrder is the precedence used when a query mentions several topics.
var highlightOrder = []string{"contact", "education", "skills", "projects", "experience"}

// New creates a formatter for the given profile and image catalog.
func New(p *profile.Profile, images []Image, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Formatter{profile: p, images: images, logger: logger}

	name := regexp.QuoteMeta(p.Name)
	short := regexp.QuoteMeta(p.ShortName)
	f.duplicates = []duplicate{
		{regexp.MustCompile(`(?i)\b` + name + `\s+is\s+` + name + `\s+is\b`), p.Name + " is"},
		{regexp.MustCompile(`(?i)\b` + short + `\s+is\s+` + short + `\s+is\b`), p.ShortName + " is"},
		{regexp.MustCompile(`\b` + name + `\s+` + name + `\b`), p.Name},
	}

	for _, topic := range highlightOrder {
		if re := alternation(p.Highlights[topic]); re != nil {
			f.highlights = append(f.highlights, highlight{topic: topic, re: re})
		}
	}

	emailTerms := []string{"email"}
	if p.Email != "" {
		emailTerms = append([]string{p.Email}, emailTerms...)
	}
	f.links = []link{
		{"[Email]", alternation(emailTerms)},
		{"[LinkedIn]", alternation([]string{"linkedin"})},
		{"[GitHub]", alternation([]string{"github"})},
	}
	return f
}

func alternation(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Signature is appended to every answer.
func (f *Formatter) Signature() string {
	return "\n" + f.profile.SourceLabel
}

// Format runs every formatting step. It never fails: a panic or step error
// yields the apology response.
func (f *Formatter) Format(data Data, lang string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("formatter panic", "stage", stage.Formatter, "panic", r)
			resp = f.Fallback(data, lang)
		}
	}()

	if strings.TrimSpace(data.Answer) == "" {
		return f.defaultResponse(data)
	}

	res := f.Polish(data.Answer, data.Query)
	if res.Failed() {
		f.logger.Error("polishing answer", "stage", stage.Formatter, "error", res.Err)
		return f.Fallback(data, lang)
	}
	data.Answer = res.Value.Text
	return f.Finalize(data, res.Value.Length, lang)
}

// Polish applies duplicate-phrase removal, key-sentence reordering, length
// control and markup cleanup to a single answer.
func (f *Formatter) Polish(answer, query string) (res stage.Result[Polished]) {
	defer func() {
		if r := recover(); r != nil {
			res = stage.Fail[Polished](stage.Formatter, fmt.Errorf("panic: %v", r))
		}
	}()

	length := LengthFor(query)
	text := f.dedupePhrases(answer)
	text = f.prioritize(text, query)
	text = applyLength(text, length)
	text, err := clean(text)
	if err != nil {
		return stage.Fail[Polished](stage.Formatter, err)
	}
	return stage.OK(Polished{Text: text, Length: length})
}

// Finalize adds link placeholders, the signature and any requested images.
// It runs once per response, after all parts have been polished and joined.
func (f *Formatter) Finalize(data Data, length Length, lang string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("formatter panic", "stage", stage.Formatter, "panic", r)
			resp = f.Fallback(data, lang)
		}
	}()

	answer := f.addLinks(data.Answer) + f.Signature()

	var images []Image
	if WantsImages(data.Query) {
		images = f.MatchImages(data.Query)
		switch len(images) {
		case 0:
		case 1:
			answer += "\n\nHere's a relevant image for you:"
		default:
			answer += fmt.Sprintf("\n\nHere are %d relevant images:", len(images))
		}
	}

	resp = Response{
		Answer:         answer,
		Sources:        nonNil(data.Sources),
		QueryType:      data.QueryType,
		Confidence:     data.Confidence,
		Images:         nonNilImages(images),
		ResponseLength: length,
	}
	if len(images) > 0 {
		resp.ShowImagesAfterMs = ImageDelayMs
	}
	return resp
}

// Fallback is the fully formatted apology used when formatting fails. A blank
// line separates the apology from the signature.
func (f *Formatter) Fallback(data Data, lang string) Response {
	return Response{
		Answer:         Apology(lang) + "\n" + f.Signature(),
		Sources:        []string{},
		QueryType:      data.QueryType,
		Confidence:     data.Confidence,
		Images:         []Image{},
		ResponseLength: LengthMedium,
	}
}

// Apology is the fixed technical-issue text in the requested language.
func Apology(lang string) string {
	if lang == "ur" {
		return "تکنیکی مسئلہ پیش آیا۔ برائے کرم دوبارہ کوشش کریں۔"
	}
	return "Technical issue occurred. Please try again."
}

func (f *Formatter) defaultResponse(data Data) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "You can ask about %s:\n", f.profile.Name)
	b.WriteString("- Projects and development work\n")
	b.WriteString("- Technical skills and expertise\n")
	b.WriteString("- Contact information\n")
	b.WriteString(f.Signature())

	return Response{
		Answer:         b.String(),
		Sources:        nonNil(data.Sources),
		QueryType:      data.QueryType,
		Confidence:     data.Confidence,
		Images:         []Image{},
		ResponseLength: LengthFor(data.Query),
	}
}

// LengthFor picks the target length from the user's query. Detail keywords
// win over brevity keywords.
func LengthFor(query string) Length {
	if strings.TrimSpace(query) == "" {
		return LengthMedium
	}
	lower := strings.ToLower(query)
	if containsAny(lower, detailedKeywords) {
		return LengthDetailed
	}
	if containsAny(lower, shortKeywords) {
		return LengthShort
	}

	switch words := len(strings.Fields(query)); {
	case words > 10:
		return LengthDetailed
	case words < 4:
		return LengthShort
	}
	return LengthMedium
}

// WantsImages reports whether the query asks to see something.
func WantsImages(query string) bool {
	return containsAny(strings.ToLower(query), imageKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func (f *Formatter) dedupePhrases(answer string) string {
	for _, d := range f.duplicates {
		answer = d.re.ReplaceAllLiteralString(answer, d.repl)
	}
	answer = redundantIntroRe.ReplaceAllLiteralString(strings.TrimSpace(answer), "")
	return strings.TrimSpace(answer)
}

// prioritize moves sentences mentioning the query's topic to the front,
// keeping relative order inside both groups.
func (f *Formatter) prioritize(answer, query string) string {
	if query == "" {
		return answer
	}
	var re *regexp.Regexp
	for _, h := range f.highlights {
		if h.re.MatchString(query) {
			re = h.re
			break
		}
	}
	if re == nil {
		return answer
	}

	sentences := SplitSentences(answer)
	var key, rest []string
	for _, s := range sentences {
		if re.MatchString(s) {
			key = append(key, s)
		} else {
			rest = append(rest, s)
		}
	}
	if len(key) == 0 || len(rest) == 0 || inOrder(sentences, key) {
		return answer
	}
	return strings.Join(append(key, rest...), " ")
}

// inOrder reports whether key already forms the prefix of sentences.
func inOrder(sentences, key []string) bool {
	for i := range key {
		if sentences[i] != key[i] {
			return false
		}
	}
	return true
}

func applyLength(answer string, length Length) string {
	limit := 0
	switch length {
	case LengthShort:
		limit = 2
	case LengthMedium:
		limit = 4
	default:
		return answer
	}

	sentences := SplitSentences(answer)
	if len(sentences) <= limit {
		return answer
	}
	return strings.Join(sentences[:limit], " ")
}

// SplitSentences cuts text after every run of '.', '!' or '?' that is
// followed by whitespace or the end of the text. Sentences keep their
// terminal punctuation.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func clean(answer string) (string, error) {
	out, err := brokenAnchorRe.Replace(answer, "", -1, -1)
	if err != nil {
		return "", fmt.Errorf("stripping anchors: %w", err)
	}
	for _, c := range cleanups {
		out = c.re.ReplaceAllLiteralString(out, c.repl)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("answer is empty after cleanup")
	}
	return out, nil
}

// addLinks swaps the first mention of each contact channel for a bracketed
// label. Labels already present are left alone.
func (f *Formatter) addLinks(answer string) string {
	for _, l := range f.links {
		if strings.Contains(answer, l.label) {
			continue
		}
		loc := l.re.FindStringIndex(answer)
		if loc == nil {
			continue
		}
		answer = answer[:loc[0]] + l.label + answer[loc[1]:]
	}
	return answer
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilImages(s []Image) []Image {
	if s == nil {
		return []Image{}
	}
	return s
}
