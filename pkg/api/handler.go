package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oficina-cloud/diagnose/pkg/diag"
	"github.com/oficina-cloud/diagnose/pkg/kit"
)

// StatsReader reports catalog sizes for the health endpoint.
type StatsReader interface {
	Count(ctx context.Context) (total, active int, err error)
}

// NewRouter returns an http.Handler with all diagnose API routes.
// A nil logger falls back to slog.Default().
func NewRouter(engine *diag.Engine, stats StatsReader, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		suggest:    kit.Chain(audit(logger, "suggest"))(suggestEndpoint(engine)),
		byCategory: kit.Chain(audit(logger, "problems_by_category"))(byCategoryEndpoint(engine)),
		categories: kit.Chain(audit(logger, "list_categories"))(listCategoriesEndpoint()),
		stats:      stats,
	}

	mux.HandleFunc("GET /v1/suggest", methodNotAllowed) // suggestions are POST-only
	mux.HandleFunc("POST /v1/suggest", h.handleSuggest)
	mux.HandleFunc("GET /v1/problems/{category}", h.handleByCategory)
	mux.HandleFunc("GET /v1/categories", h.handleCategories)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestContext(mux))
}

type handler struct {
	suggest    kit.Endpoint
	byCategory kit.Endpoint
	categories kit.Endpoint
	stats      StatsReader
}

// --- suggest ---

type httpSuggestRequest struct {
	Symptoms []string `json:"symptoms"`
	Category string   `json:"category,omitempty"`
}

func (h *handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpSuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Symptoms) > maxSymptomsPerRequest {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("too many symptoms (max %d, got %d)", maxSymptomsPerRequest, len(req.Symptoms)))
		return
	}

	// Unknown categories are rejected here; the engine never sees them.
	var category *diag.Category
	if req.Category != "" {
		c, err := diag.ParseCategory(req.Category)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = &c
	}

	resp, err := h.suggest(r.Context(), &suggestReq{
		Symptoms: req.Symptoms,
		Category: category,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- problems by category ---

func (h *handler) handleByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := diag.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.byCategory(r.Context(), &byCategoryReq{Category: category})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- categories ---

func (h *handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := h.categories(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status         string `json:"status"`
	TotalProblems  int    `json:"total_problems"`
	ActiveProblems int    `json:"active_problems"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, active, err := h.stats.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		TotalProblems:  total,
		ActiveProblems: active,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Tenant-ID, X-Workshop, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
