// Package catalog owns problem records: a SQLite-backed store with the CRUD
// lifecycle, exposing the read-only view the diagnostic engine consumes.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/oficina-cloud/diagnose/pkg/diag"
)

// ErrNotFound is returned when a problem ID does not exist.
var ErrNotFound = errors.New("problem not found")

// Store manages the problems table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and ensures the
// problems table exists. Severity is stored as its numeric rank so the
// severity-descending catalog order is a plain ORDER BY.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS problems (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		category       TEXT NOT NULL,
		severity       INTEGER NOT NULL,
		symptoms       TEXT NOT NULL DEFAULT '[]',
		description    TEXT NOT NULL DEFAULT '',
		solutions      TEXT NOT NULL DEFAULT '[]',
		estimated_cost REAL,
		is_active      INTEGER NOT NULL DEFAULT 1,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL,
		UNIQUE (name, category)
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create problems table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the SQLite connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func validate(p diag.Problem) error {
	if p.Name == "" {
		return fmt.Errorf("problem name is required")
	}
	if _, err := diag.ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if _, err := diag.ParseSeverity(string(p.Severity)); err != nil {
		return err
	}
	if p.EstimatedCost != nil && *p.EstimatedCost < 0 {
		return fmt.Errorf("estimated cost must be non-negative, got %v", *p.EstimatedCost)
	}
	return nil
}

// Create inserts a new active problem and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, p diag.Problem) (diag.Problem, error) {
	if err := validate(p); err != nil {
		return diag.Problem{}, fmt.Errorf("create problem: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Active = true

	symptoms, solutions, err := encodeLists(p)
	if err != nil {
		return diag.Problem{}, fmt.Errorf("create problem: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO problems (id, name, category, severity, symptoms, description,
			solutions, estimated_cost, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		p.ID, p.Name, string(p.Category), p.Severity.Rank(), symptoms,
		p.Description, solutions, p.EstimatedCost, now, now,
	)
	if err != nil {
		return diag.Problem{}, fmt.Errorf("create problem %s: %w", p.Name, err)
	}
	return p, nil
}

// Update rewrites an existing problem's fields (active flag untouched).
func (s *Store) Update(ctx context.Context, p diag.Problem) error {
	if err := validate(p); err != nil {
		return fmt.Errorf("update problem: %w", err)
	}
	symptoms, solutions, err := encodeLists(p)
	if err != nil {
		return fmt.Errorf("update problem: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE problems SET name = ?, category = ?, severity = ?, symptoms = ?,
			description = ?, solutions = ?, estimated_cost = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(p.Category), p.Severity.Rank(), symptoms,
		p.Description, solutions, p.EstimatedCost, time.Now().Unix(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update problem %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update problem %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// Deactivate hides a problem from the engine without deleting the record.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE problems SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate problem %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deactivate problem %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns one problem by ID, active or not.
func (s *Store) Get(ctx context.Context, id string) (diag.Problem, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM problems WHERE id = ?`, id)
	p, err := scanProblem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return diag.Problem{}, fmt.Errorf("get problem %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return diag.Problem{}, fmt.Errorf("get problem %s: %w", id, err)
	}
	return p, nil
}

// List returns every problem, active and inactive, in catalog order.
func (s *Store) List(ctx context.Context) ([]diag.Problem, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM problems ORDER BY severity DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return collectProblems(rows)
}

// FindActiveProblems implements diag.CatalogReader: active records only,
// severity descending then name ascending, optionally one category.
func (s *Store) FindActiveProblems(ctx context.Context, f diag.Filter) ([]diag.Problem, error) {
	q := selectColumns + ` FROM problems WHERE is_active = 1`
	args := []any{}
	if f.Category != nil {
		q += ` AND category = ?`
		args = append(args, string(*f.Category))
	}
	q += ` ORDER BY severity DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find active problems: %w", err)
	}
	return collectProblems(rows)
}

// Count returns (total, active) problem counts, for health reporting.
func (s *Store) Count(ctx context.Context) (total, active int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM problems`).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("count problems: %w", err)
	}
	return total, active, nil
}

const selectColumns = `SELECT id, name, category, severity, symptoms,
	description, solutions, estimated_cost, is_active`

func encodeLists(p diag.Problem) (symptoms, solutions string, err error) {
	sy, err := json.Marshal(orEmpty(p.Symptoms))
	if err != nil {
		return "", "", fmt.Errorf("encode symptoms: %w", err)
	}
	so, err := json.Marshal(orEmpty(p.Solutions))
	if err != nil {
		return "", "", fmt.Errorf("encode solutions: %w", err)
	}
	return string(sy), string(so), nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProblem(row scannable) (diag.Problem, error) {
	var (
		p                   diag.Problem
		category            string
		rank                int
		symptoms, solutions string
		active              int
	)
	err := row.Scan(&p.ID, &p.Name, &category, &rank, &symptoms,
		&p.Description, &solutions, &p.EstimatedCost, &active)
	if err != nil {
		return diag.Problem{}, err
	}

	p.Category = diag.Category(category)
	p.Severity = severityFromRank(rank)
	p.Active = active != 0
	if err := json.Unmarshal([]byte(symptoms), &p.Symptoms); err != nil {
		return diag.Problem{}, fmt.Errorf("decode symptoms for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(solutions), &p.Solutions); err != nil {
		return diag.Problem{}, fmt.Errorf("decode solutions for %s: %w", p.ID, err)
	}
	return p, nil
}

func collectProblems(rows *sql.Rows) ([]diag.Problem, error) {
	defer rows.Close()
	var problems []diag.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func severityFromRank(rank int) diag.Severity {
	switch rank {
	case 1:
		return diag.SeverityLow
	case 2:
		return diag.SeverityMedium
	case 3:
		return diag.SeverityHigh
	case 4:
		return diag.SeverityCritical
	}
	return diag.SeverityLow
}
