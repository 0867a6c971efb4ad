package insight

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Placeholder is a deterministic Client used when no provider is configured.
// It lets the full pipeline run in dev mode without external calls.
type Placeholder struct{}

func (Placeholder) Analyze(ctx context.Context, input Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	trimmed := strings.TrimSpace(input.Text)
	summary := SummaryPlaceholder
	if trimmed != "" {
		summary = firstSentence(trimmed)
	}

	insights := []string{
		fmt.Sprintf("Document contains %d characters of extracted text.", utf8.RuneCountInString(trimmed)),
	}
	if input.Hints.Title != "" {
		insights = append(insights, "Detected title: "+input.Hints.Title)
	}
	if input.Hints.Authors != "" {
		insights = append(insights, "Detected authors: "+input.Hints.Authors)
	}

	return Result{
		Summary:  summary,
		Insights: insights,
		Refined:  input.Hints,
	}, nil
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 && idx < 280 {
		return text[:idx+1]
	}
	runes := []rune(text)
	if len(runes) > 280 {
		return string(runes[:280]) + "..."
	}
	return text
}

var _ Client = Placeholder{}
