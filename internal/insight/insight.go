package insight

import (
	"context"
	"errors"
)

// Hints carries the document's current metadata, passed to the analysis
// service and returned by it as a refinement.
type Hints struct {
	Title       string
	Authors     string
	PublishedAt string
}

// Input is the analysis request: raw document text plus metadata hints.
type Input struct {
	Text  string
	Hints Hints
}

// Result is a completed analysis. Insights is ordered; Refined fields are
// empty when the service offered nothing better than the hints.
type Result struct {
	Summary  string
	Insights []string
	Refined  Hints
}

// Client abstracts the external analysis provider.
type Client interface {
	Analyze(ctx context.Context, input Input) (Result, error)
}

var (
	// ErrServiceUnavailable reports the provider could not be reached or
	// answered with a transient failure.
	ErrServiceUnavailable = errors.New("insight: analysis service unavailable")
	// ErrInvalidResponse reports the provider answered with a payload that
	// does not match the expected summary/insights shape.
	ErrInvalidResponse = errors.New("insight: invalid analysis response")
)

// MaxInputRunes bounds the text sent to the provider. Longer documents are
// truncated silently.
const MaxInputRunes = 60_000

// SummaryPlaceholder substitutes for an absent summary in an otherwise
// well-formed response.
const SummaryPlaceholder = "Summary unavailable."

// TruncateText bounds s to MaxInputRunes without splitting a rune.
func TruncateText(s string) string {
	if len(s) <= MaxInputRunes {
		return s
	}
	runes := []rune(s)
	if len(runes) <= MaxInputRunes {
		return s
	}
	return string(runes[:MaxInputRunes])
}
