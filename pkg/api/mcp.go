package api

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oficina-cloud/diagnose/pkg/diag"
	"github.com/oficina-cloud/diagnose/pkg/kit"
)

// RegisterMCPTools registers the diagnose MCP tools on the server.
// A nil logger falls back to slog.Default().
func RegisterMCPTools(srv *server.MCPServer, engine *diag.Engine, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	registerSuggest(srv, engine, logger)
	registerByCategory(srv, engine, logger)
	registerListCategories(srv, logger)
}

func registerSuggest(srv *server.MCPServer, engine *diag.Engine, logger *slog.Logger) {
	tool := mcp.NewTool("suggest_problems",
		mcp.WithDescription("Rank likely mechanical problems for a set of customer-reported symptoms (free text, accent/case insensitive)."),
		mcp.WithString("symptoms", mcp.Required(), mcp.Description("Comma-separated symptom phrases (e.g. 'barulho no freio, carro puxando')")),
		mcp.WithString("category", mcp.Description("Optional category filter (e.g. brakes, engine, suspension)")),
	)

	endpoint := kit.Chain(audit(logger, "suggest"))(suggestEndpoint(engine))
	kit.RegisterMCPTool(srv, tool, endpoint, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()

		var symptoms []string
		if raw, _ := args["symptoms"].(string); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					symptoms = append(symptoms, s)
				}
			}
		}
		if len(symptoms) > maxSymptomsPerRequest {
			return nil, fmt.Errorf("too many symptoms (max %d, got %d)", maxSymptomsPerRequest, len(symptoms))
		}

		var category *diag.Category
		if v, _ := args["category"].(string); v != "" {
			c, err := diag.ParseCategory(v)
			if err != nil {
				return nil, err
			}
			category = &c
		}

		return &suggestReq{Symptoms: symptoms, Category: category}, nil
	})
}

func registerByCategory(srv *server.MCPServer, engine *diag.Engine, logger *slog.Logger) {
	tool := mcp.NewTool("problems_by_category",
		mcp.WithDescription("List every active catalog problem of one vehicle subsystem category, severity first."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category (e.g. brakes, engine, cooling)")),
	)

	endpoint := kit.Chain(audit(logger, "problems_by_category"))(byCategoryEndpoint(engine))
	kit.RegisterMCPTool(srv, tool, endpoint, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		raw, _ := args["category"].(string)
		category, err := diag.ParseCategory(raw)
		if err != nil {
			return nil, err
		}
		return &byCategoryReq{Category: category}, nil
	})
}

func registerListCategories(srv *server.MCPServer, logger *slog.Logger) {
	tool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the vehicle subsystem categories problems are classified under."),
	)

	endpoint := kit.Chain(audit(logger, "list_categories"))(listCategoriesEndpoint())
	kit.RegisterMCPTool(srv, tool, endpoint, func(_ mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}
