package markov

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
)

func TestSanitize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Lowercases", input: "Hello World", expected: "hello world"},
		{name: "Strips punctuation", input: "Hi, there! How's it going?", expected: "hi there hows it going"},
		{name: "Strips quotes", input: `he said "yes"`, expected: "he said yes"},
		{name: "Keeps digits", input: "route 66 is 2448 miles", expected: "route 66 is 2448 miles"},
		{name: "Keeps unicode letters", input: "Ça va très bien", expected: "ça va très bien"},
		{name: "Strips stop token markers", input: "a <stop> b", expected: "a stop b"},
		{name: "Empty", input: "", expected: ""},
		{name: "Only symbols", input: "!?.,;:'\"<>", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.input); got != tc.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  The cat,   SAT on\tthe \"mat\".\n")
	want := []string{"the", "cat", "sat", "on", "the", "mat"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeExcludesReservedSymbols(t *testing.T) {
	property := func(input string) bool {
		clean := Sanitize(input)
		if strings.Contains(clean, KeySeparator) {
			return false
		}
		for _, token := range strings.Fields(clean) {
			if token == StopToken || strings.ContainsAny(token, "<>") {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}

	// Some inputs built specifically around the reserved symbols.
	for _, input := range []string{StopToken, KeySeparator + StopToken + KeySeparator, `"<stop>"<stop>`} {
		if !property(input) {
			t.Errorf("Sanitize(%q) = %q leaks a reserved symbol", input, Sanitize(input))
		}
	}
}
