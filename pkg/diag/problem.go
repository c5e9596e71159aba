// Package diag implements the diagnostic suggestion engine: given free-text
// symptoms reported by a customer, it ranks likely mechanical problems from a
// read-only catalog.
package diag

import (
	"context"
	"fmt"
	"sort"
)

// Category classifies a problem by vehicle subsystem. Closed enumeration.
type Category string

const (
	CategoryEngine          Category = "engine"
	CategorySuspension      Category = "suspension"
	CategoryElectrical      Category = "electrical"
	CategoryCooling         Category = "cooling"
	CategoryBrakes          Category = "brakes"
	CategoryTransmission    Category = "transmission"
	CategoryTires           Category = "tires"
	CategoryAirConditioning Category = "air_conditioning"
	CategoryFuel            Category = "fuel"
	CategoryExhaust         Category = "exhaust"
	CategoryLighting        Category = "lighting"
	CategoryBattery         Category = "battery"
	CategoryRadiator        Category = "radiator"
	CategorySteering        Category = "steering"
	CategoryOther           Category = "other"
)

var allCategories = []Category{
	CategoryEngine, CategorySuspension, CategoryElectrical, CategoryCooling,
	CategoryBrakes, CategoryTransmission, CategoryTires, CategoryAirConditioning,
	CategoryFuel, CategoryExhaust, CategoryLighting, CategoryBattery,
	CategoryRadiator, CategorySteering, CategoryOther,
}

// Categories returns every valid category in declaration order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory validates a raw string against the closed enumeration.
func ParseCategory(s string) (Category, error) {
	for _, c := range allCategories {
		if Category(s) == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Severity orders how serious a problem is. Higher rank sorts first in the
// catalog, independently of the match score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric ordering used by the catalog's severity sort
// (low=1 .. critical=4). Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// ParseSeverity validates a raw string against the closed enumeration.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// Problem is one diagnosable mechanical issue from the catalog. The engine
// only reads problems; the catalog store owns their lifecycle.
type Problem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Severity      Severity `json:"severity"`
	Symptoms      []string `json:"symptoms"`
	Description   string   `json:"description,omitempty"`
	Solutions     []string `json:"solutions"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	Active        bool     `json:"is_active"`
}

// Suggestion is one ranked result. Built fresh per request, never persisted.
type Suggestion struct {
	ProblemID     string   `json:"problem_id"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Severity      Severity `json:"severity"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	Description   string   `json:"description,omitempty"`
	Solutions     []string `json:"solutions"`
	MatchScore    int      `json:"match_score"`
}

// suggestionFrom copies the problem fields into a Suggestion with the given score.
func suggestionFrom(p Problem, score int) Suggestion {
	return Suggestion{
		ProblemID:     p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Severity:      p.Severity,
		EstimatedCost: p.EstimatedCost,
		Description:   p.Description,
		Solutions:     p.Solutions,
		MatchScore:    score,
	}
}

// Filter narrows a catalog read.
type Filter struct {
	Category *Category
}

// CatalogReader is the outbound boundary to the problem catalog. Returned
// problems contain only active records, ordered by severity descending then
// name ascending.
type CatalogReader interface {
	FindActiveProblems(ctx context.Context, f Filter) ([]Problem, error)
}

// SortCatalogOrder sorts problems the way the catalog contract promises:
// severity descending, then name ascending. In-memory CatalogReader
// implementations (fixtures, caches) can use it to honor the contract.
func SortCatalogOrder(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Severity.Rank() != problems[j].Severity.Rank() {
			return problems[i].Severity.Rank() > problems[j].Severity.Rank()
		}
		return problems[i].Name < problems[j].Name
	})
}
