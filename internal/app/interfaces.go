package app

import (
	"context"

	"codecoach/internal/analysis"
	"codecoach/internal/suggest"
)

// CodeAnalyzer runs the rule table over a snippet. Satisfied by
// *analysis.Analyzer; tests substitute slower or failing engines.
type CodeAnalyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Report, error)
	Rules() []analysis.Rule
}

// DebugSuggester filters the suggestion catalog for a problem description.
// Satisfied by *suggest.Suggester.
type DebugSuggester interface {
	Match(ctx context.Context, req suggest.Request) ([]suggest.Suggestion, bool, error)
	Catalog() []suggest.Suggestion
}
