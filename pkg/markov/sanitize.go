package markov

import (
	"regexp"
	"strings"
)

const (
	// KeySeparator joins the tokens of a dictionary key. Sanitize removes it
	// from all input, so it never occurs inside a token.
	KeySeparator = `"`
	// StopToken is appended to every training sentence to mark its end. Its
	// angle brackets are stripped by Sanitize, so no real word can equal it.
	StopToken = "<stop>"
	// MinWords is the shortest input, in whitespace separated words, that is
	// trained on or replied to, and the shortest sentence a walk may return.
	MinWords = 5
)

// disallowedRegex matches every run of characters that are not letters,
// digits or whitespace.
var disallowedRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Sanitize lower-cases text and strips everything but letters, digits and
// whitespace. It never fails, but may return an empty string.
func Sanitize(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, KeySeparator, "")
	return disallowedRegex.ReplaceAllString(text, "")
}

// Tokenize sanitizes text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(Sanitize(text))
}

// tooShort reports whether text has fewer than MinWords whitespace
// separated units. It is applied to raw input, before sanitizing.
func tooShort(text string) bool {
	return len(strings.Fields(text)) < MinWords
}
