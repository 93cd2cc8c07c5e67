package markov

import "strings"

// EncodeKey joins tokens into a single dictionary key, preserving order.
func EncodeKey(tokens []string) string {
	return strings.Join(tokens, KeySeparator)
}

// DecodeKey splits a dictionary key back into its tokens. For any non-empty
// slice of tokens without KeySeparator, DecodeKey(EncodeKey(t)) equals t.
func DecodeKey(key string) []string {
	return strings.Split(key, KeySeparator)
}
