package session

import "strings"

// Counts is the outcome of analyzing a transcript.
type Counts struct {
	WordCount       int
	UniqueWordCount int
}

// Analyze splits transcript on single spaces and counts tokens and distinct
// lowercased tokens. Runs of spaces produce empty tokens, and those count.
func Analyze(transcript string) Counts {
	if transcript == "" {
		return Counts{}
	}

	tokens := strings.Split(transcript, " ")
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[strings.ToLower(tok)] = struct{}{}
	}
	return Counts{
		WordCount:       len(tokens),
		UniqueWordCount: len(seen),
	}
}
