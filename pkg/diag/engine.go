package diag

import (
	"context"
	"fmt"
	"sort"
)

// Engine serves suggestion queries over a problem catalog. Stateless: every
// call is one catalog read plus pure computation, so concurrent requests are
// fully independent.
type Engine struct {
	catalog CatalogReader
}

// NewEngine creates an engine backed by the given catalog.
func NewEngine(catalog CatalogReader) *Engine {
	return &Engine{catalog: catalog}
}

// Suggest ranks catalog problems by relevance to the reported symptoms,
// optionally restricted to one category.
//
// An empty symptom list returns an empty slice without touching the catalog.
// Zero-score candidates are dropped, never returned. Ties in score keep the
// catalog order (severity descending, name ascending), so a higher-severity
// problem sorts first among equals.
func (e *Engine) Suggest(ctx context.Context, symptoms []string, category *Category) ([]Suggestion, error) {
	if len(symptoms) == 0 {
		return []Suggestion{}, nil
	}

	problems, err := e.catalog.FindActiveProblems(ctx, Filter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("read problem catalog: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(problems))
	for _, p := range problems {
		score := Score(symptoms, p)
		if score == 0 {
			continue
		}
		suggestions = append(suggestions, suggestionFrom(p, score))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].MatchScore > suggestions[j].MatchScore
	})
	return suggestions, nil
}

// ProblemsByCategory returns every active problem of one category as a
// suggestion with the maximal score: category membership alone counts as a
// full match on this read path, no symptom scoring happens.
func (e *Engine) ProblemsByCategory(ctx context.Context, category Category) ([]Suggestion, error) {
	problems, err := e.catalog.FindActiveProblems(ctx, Filter{Category: &category})
	if err != nil {
		return nil, fmt.Errorf("read problem catalog: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(problems))
	for _, p := range problems {
		suggestions = append(suggestions, suggestionFrom(p, 100))
	}
	return suggestions, nil
}
