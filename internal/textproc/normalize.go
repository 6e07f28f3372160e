package textproc

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// domainTypos maps canonical terms to the misspellings seen in real queries.
var domainTypos = []struct {
	canonical string
	variants  []string
}{
	{"programming", []string{"programing", "programeing"}},
	{"development", []string{"developement", "devlopment"}},
	{"technology", []string{"tecnoogy", "tecnology"}},
	{"artificial", []string{"artifical", "artificail"}},
	{"machine", []string{"machien", "mashine"}},
	{"projects", []string{"projets", "projet", "porjects"}},
	{"skills", []string{"skils", "skiils"}},
	{"education", []string{"eduction", "educaton"}},
	{"experience", []string{"experiance", "expirience"}},
	{"linkedin", []string{"linkdin", "linkedn"}},
	{"contact", []string{"contect", "contac", "contct"}},
	{"email", []string{"emai", "emial"}},
	{"github", []string{"githab", "guthub"}},
	{"mobile", []string{"mobil"}},
	{"phone", []string{"phon"}},
	{"social", []string{"socila"}},
	{"media", []string{"mdeia"}},
	{"accounts", []string{"acounts"}},
	{"which", []string{"wich", "whch"}},
	{"where", []string{"wher", "whre"}},
	{"about", []string{"aout", "abou"}},
}

// conceptMap folds synonyms into the vocabulary the classifier and retriever
// key on. Words that change meaning when folded (work, history, learning)
// are left out.
var conceptMap = []struct {
	canonical string
	synonyms  []string
}{
	{"programming", []string{"coding", "development", "dev"}},
	{"skills", []string{"abilities", "expertise"}},
	{"contact", []string{"reach", "connect", "hire"}},
	{"projects", []string{"apps"}},
	{"education", []string{"study"}},
	{"experience", []string{"career"}},
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	bangRe     = regexp.MustCompile(`!{2,}`)
	questionRe = regexp.MustCompile(`\?{2,}`)
	ellipsisRe = regexp.MustCompile(`\.{3,}`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"…", "...",
	)
)

// Normalizer cleans up a query before it is split and classified. The rewrite
// tables are built once and shared; Normalize is safe for concurrent use.
type Normalizer struct {
	corrections []rewrite
	concepts    []rewrite
}

// NewNormalizer builds a Normalizer whose name corrections come from the
// profile's misspellings table.
func NewNormalizer(p *profile.Profile) *Normalizer {
	n := &Normalizer{}

	names := make([]string, 0, len(p.Misspellings))
	for canonical := range p.Misspellings {
		names = append(names, canonical)
	}
	sort.Strings(names)
	for _, canonical := range names {
		if r, ok := wordRewrite(p.Misspellings[canonical], canonical); ok {
			n.corrections = append(n.corrections, r)
		}
	}

	for _, t := range domainTypos {
		if r, ok := wordRewrite(t.variants, t.canonical); ok {
			n.corrections = append(n.corrections, r)
		}
	}
	for _, c := range conceptMap {
		if r, ok := wordRewrite(c.synonyms, c.canonical); ok {
			n.concepts = append(n.concepts, r)
		}
	}
	return n
}

func wordRewrite(words []string, repl string) (rewrite, bool) {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return rewrite{}, false
	}
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return rewrite{re: re, repl: repl}, true
}

// Normalize collapses whitespace, fixes quotes and repeated punctuation,
// corrects known typos, then folds synonyms into canonical terms.
func (n *Normalizer) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = spaceRe.ReplaceAllString(text, " ")
	text = quoteReplacer.Replace(text)
	text = bangRe.ReplaceAllString(text, "!")
	text = questionRe.ReplaceAllString(text, "?")
	text = ellipsisRe.ReplaceAllString(text, "...")

	for _, r := range n.corrections {
		text = r.re.ReplaceAllLiteralString(text, r.repl)
	}
	for _, r := range n.concepts {
		text = r.re.ReplaceAllLiteralString(text, r.repl)
	}
	return strings.TrimSpace(text)
}
