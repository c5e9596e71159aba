package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oficina-cloud/diagnose/pkg/diag"
)

type fakeCatalog struct {
	problems []diag.Problem
	calls    int
}

func (f *fakeCatalog) FindActiveProblems(_ context.Context, fl diag.Filter) ([]diag.Problem, error) {
	f.calls++
	var out []diag.Problem
	for _, p := range f.problems {
		if fl.Category == nil || p.Category == *fl.Category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Count(context.Context) (int, int, error) {
	return len(f.problems), len(f.problems), nil
}

func testRouter(problems ...diag.Problem) (http.Handler, *fakeCatalog) {
	fake := &fakeCatalog{problems: problems}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(diag.NewEngine(fake), fake, logger), fake
}

func brakeProblem() diag.Problem {
	return diag.Problem{
		ID:       "p1",
		Name:     "Pastilha de freio gasta",
		Category: diag.CategoryBrakes,
		Severity: diag.SeverityHigh,
		Symptoms: []string{"freio", "chiado ao frear"},
		Active:   true,
	}
}

func TestHandleSuggest(t *testing.T) {
	router, _ := testRouter(brakeProblem())

	body := `{"symptoms": ["barulho no freio"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/suggest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Suggestions []diag.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(resp.Suggestions))
	}
	if resp.Suggestions[0].MatchScore <= 0 {
		t.Errorf("match score = %d, want > 0", resp.Suggestions[0].MatchScore)
	}
}

func TestHandleSuggest_UnknownCategoryRejectedBeforeEngine(t *testing.T) {
	router, fake := testRouter(brakeProblem())

	body := `{"symptoms": ["freio"], "category": "warp_drive"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/suggest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if fake.calls != 0 {
		t.Errorf("catalog calls = %d, want 0", fake.calls)
	}
}

func TestHandleSuggest_TooManySymptomsRejectedBeforeEngine(t *testing.T) {
	router, fake := testRouter(brakeProblem())

	symptoms := make([]string, maxSymptomsPerRequest+1)
	for i := range symptoms {
		symptoms[i] = fmt.Sprintf("sintoma %d", i)
	}
	body, err := json.Marshal(map[string]any{"symptoms": symptoms})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/suggest", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too many symptoms") {
		t.Errorf("body = %s, want symptom cap error", rec.Body.String())
	}
	if fake.calls != 0 {
		t.Errorf("catalog calls = %d, want 0", fake.calls)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := testRouter(brakeProblem())

	// A caller-supplied id is echoed back.
	req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}

	// Without one, the server assigns an id.
	req = httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID response header missing")
	}
}

func TestHandleSuggest_BadJSON(t *testing.T) {
	router, _ := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/suggest", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleByCategory(t *testing.T) {
	router, _ := testRouter(brakeProblem())

	req := httptest.NewRequest(http.MethodGet, "/v1/problems/brakes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Suggestions []diag.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].MatchScore != 100 {
		t.Errorf("got %+v, want one suggestion scored 100", resp.Suggestions)
	}

	// Unknown category on the path is a 400.
	req = httptest.NewRequest(http.MethodGet, "/v1/problems/nope", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	router, _ := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 15 {
		t.Errorf("categories = %d, want 15", len(resp.Categories))
	}
}

func TestHandleHealth(t *testing.T) {
	router, _ := testRouter(brakeProblem())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
