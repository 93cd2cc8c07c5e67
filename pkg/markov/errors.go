package markov

import "errors"

var (
	// ErrInputTooShort is returned by Reply when the input has fewer than
	// MinWords words.
	ErrInputTooShort = errors.New("markov: input too short")
	// ErrTooShort is returned by Generate when a walk ended with fewer than
	// MinWords tokens.
	ErrTooShort = errors.New("markov: generated sentence too short")
	// ErrWalkExhausted is returned when a walk used its whole step budget
	// without reaching the end of a sentence.
	ErrWalkExhausted = errors.New("markov: walk exhausted its step budget")
	// ErrNoReply is returned by Reply when no candidate was long enough.
	ErrNoReply = errors.New("markov: no reply available")
)

// IsSoftFailure reports whether err only means that a single generation
// attempt produced nothing usable. Such errors are expected and never
// indicate a storage problem.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrTooShort) || errors.Is(err, ErrWalkExhausted)
}
