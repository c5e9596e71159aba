package api

import (
	"context"

	"github.com/oficina-cloud/diagnose/pkg/diag"
	"github.com/oficina-cloud/diagnose/pkg/kit"
)

// Shared request/response types used by both HTTP and MCP transports.

// maxSymptomsPerRequest bounds one request. Enforced where requests are
// decoded (HTTP handler, MCP decoder), not inside the endpoints.
const maxSymptomsPerRequest = 50

type suggestReq struct {
	Symptoms []string
	Category *diag.Category
}

type suggestResponse struct {
	Suggestions []diag.Suggestion `json:"suggestions"`
}

type byCategoryReq struct {
	Category diag.Category
}

type categoriesResponse struct {
	Categories []diag.Category `json:"categories"`
}

// Endpoints returns the core kit.Endpoints backed by the engine.

func suggestEndpoint(engine *diag.Engine) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*suggestReq)
		suggestions, err := engine.Suggest(ctx, req.Symptoms, req.Category)
		if err != nil {
			return nil, err
		}
		return suggestResponse{Suggestions: suggestions}, nil
	}
}

func byCategoryEndpoint(engine *diag.Engine) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*byCategoryReq)
		suggestions, err := engine.ProblemsByCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		return suggestResponse{Suggestions: suggestions}, nil
	}
}

func listCategoriesEndpoint() kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return categoriesResponse{Categories: diag.Categories()}, nil
	}
}
