package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oficina-cloud/diagnose/pkg/diag"
)

// SeedPack is a YAML file describing a batch of catalog problems.
type SeedPack struct {
	Version  string        `yaml:"version"`
	Source   string        `yaml:"source"`
	Problems []SeedProblem `yaml:"problems"`
}

// SeedProblem is one problem definition inside a seed pack.
type SeedProblem struct {
	Name          string   `yaml:"name"`
	Category      string   `yaml:"category"`
	Severity      string   `yaml:"severity"`
	Symptoms      []string `yaml:"symptoms"`
	Description   string   `yaml:"description"`
	Solutions     []string `yaml:"solutions"`
	EstimatedCost *float64 `yaml:"estimated_cost"`
}

// LoadSeedPack reads and validates a seed pack file.
func LoadSeedPack(path string) (*SeedPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed pack %s: %w", path, err)
	}
	var pack SeedPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse seed pack %s: %w", path, err)
	}
	if len(pack.Problems) == 0 {
		return nil, fmt.Errorf("seed pack %s: no problems defined", path)
	}
	for i, sp := range pack.Problems {
		if _, err := sp.toProblem(); err != nil {
			return nil, fmt.Errorf("seed pack %s: problem %d: %w", path, i, err)
		}
	}
	return &pack, nil
}

func (sp SeedProblem) toProblem() (diag.Problem, error) {
	if sp.Name == "" {
		return diag.Problem{}, fmt.Errorf("missing name")
	}
	category, err := diag.ParseCategory(sp.Category)
	if err != nil {
		return diag.Problem{}, err
	}
	severity, err := diag.ParseSeverity(sp.Severity)
	if err != nil {
		return diag.Problem{}, err
	}
	if sp.EstimatedCost != nil && *sp.EstimatedCost < 0 {
		return diag.Problem{}, fmt.Errorf("estimated cost must be non-negative")
	}
	return diag.Problem{
		Name:          sp.Name,
		Category:      category,
		Severity:      severity,
		Symptoms:      sp.Symptoms,
		Description:   sp.Description,
		Solutions:     sp.Solutions,
		EstimatedCost: sp.EstimatedCost,
		Active:        true,
	}, nil
}

// Seed inserts every problem of the pack that is not already present.
// Existing rows (same name and category) are left untouched so manual edits
// survive re-seeding. Returns the number of rows inserted.
func (s *Store) Seed(ctx context.Context, pack *SeedPack) (int, error) {
	inserted := 0
	for _, sp := range pack.Problems {
		p, err := sp.toProblem()
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", sp.Name, err)
		}

		var exists int
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM problems WHERE name = ? AND category = ?`,
			p.Name, string(p.Category)).Scan(&exists)
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", sp.Name, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.Create(ctx, p); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
