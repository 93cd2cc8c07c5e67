package markov

// Slides returns every window of n+1 consecutive tokens, advancing one token
// at a time. A sequence of length L yields max(0, L-n) slides; each slide is
// a fresh copy and can be modified freely.
func Slides(tokens []string, n int) [][]string {
	width := n + 1
	if n < 1 || len(tokens) < width {
		return nil
	}

	slides := make([][]string, 0, len(tokens)-n)
	for start := 0; start+width <= len(tokens); start++ {
		slide := make([]string, width)
		copy(slide, tokens[start:start+width])
		slides = append(slides, slide)
	}
	return slides
}
