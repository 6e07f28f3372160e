package textproc

import (
	"strings"
	"unicode"
)

const (
	English = "en"
	Urdu    = "ur"
)

const (
	scriptShareThreshold = 0.3
	wordShareThreshold   = 0.2
)

var urduWords = map[string]struct{}{
	"aap": {}, "kya": {}, "hai": {}, "ke": {}, "mein": {}, "se": {},
}

// DetectLanguage returns Urdu when Arabic-script characters make up more than
// 30% of the non-space characters, or romanized Urdu function words more than
// 20% of the tokens. Everything else is English. Short or mixed input is
// easily misread; callers that know the language should pass it explicitly.
func DetectLanguage(text string) string {
	var arabic, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0x0600 && r <= 0x06FF {
			arabic++
		}
	}
	if total > 0 && float64(arabic)/float64(total) > scriptShareThreshold {
		return Urdu
	}

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return English
	}
	var hits int
	for _, tok := range tokens {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
		if _, ok := urduWords[tok]; ok {
			hits++
		}
	}
	if float64(hits)/float64(len(tokens)) > wordShareThreshold {
		return Urdu
	}
	return English
}

// ValidLanguage reports whether lang is one of the supported codes.
func ValidLanguage(lang string) bool {
	return lang == English || lang == Urdu
}
