package vectorize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinTokenLength is the shortest token kept by default.
const DefaultMinTokenLength = 3

// StopSet reports whether a token is a stop-word.
type StopSet interface {
	IsStop(token string) bool
}

type noStops struct{}

func (noStops) IsStop(string) bool { return false }

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stops          StopSet
	minLength      int
	alphabeticOnly bool
}

// NewTokenizer creates a tokenizer. A nil stop set keeps every token and a
// minLength below 1 falls back to DefaultMinTokenLength.
func NewTokenizer(stops StopSet, minLength int, alphabeticOnly bool) *Tokenizer {
	if stops == nil {
		stops = noStops{}
	}
	if minLength < 1 {
		minLength = DefaultMinTokenLength
	}
	return &Tokenizer{stops: stops, minLength: minLength, alphabeticOnly: alphabeticOnly}
}

// Tokenize splits text into lowercased tokens. Letters and hyphens (and
// digits unless the tokenizer is alphabetic-only) form tokens; short tokens
// and stop-words are removed.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if t.isTokenRune(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

func (t *Tokenizer) isTokenRune(r rune) bool {
	if unicode.IsLetter(r) || r == '-' {
		return true
	}
	return !t.alphabeticOnly && unicode.IsDigit(r)
}

// processToken applies cleaning, the length rule and stopword filtering.
func (t *Tokenizer) processToken(token string) string {
	word := cleanToken(token)
	if utf8.RuneCountInString(word) < t.minLength {
		return ""
	}
	if t.stops.IsStop(word) {
		return ""
	}
	return word
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}
