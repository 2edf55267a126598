package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pension-mcp/internal/config"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/resources"
	"github.com/Epistemic-Technology/pension-mcp/tools"
)

const Version = "v0.1.0"

func CreateServer(cfg *config.Config, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "pension-mcp", Version: Version}, nil)

	env := tools.NewEnv(cfg, log)
	if env.Oracle == nil {
		log.Info("No OpenAI API key configured; llm-text and llm-vision strategies are unavailable")
	}

	mcp.AddTool(server, tools.PensionExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.PensionExtractQuery) (*mcp.CallToolResult, *tools.PensionExtractResponse, error) {
		return tools.PensionExtractToolHandler(ctx, req, query, env)
	})

	mcp.AddTool(server, tools.PensionRepairTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.PensionRepairQuery) (*mcp.CallToolResult, *tools.PensionExtractResponse, error) {
		return tools.PensionRepairToolHandler(ctx, req, query, env)
	})

	mcp.AddTool(server, tools.FindStatementsTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.FindStatementsQuery) (*mcp.CallToolResult, *tools.FindStatementsResponse, error) {
		return tools.FindStatementsToolHandler(ctx, req, query, env)
	})

	reference := resources.NewReferenceHandler(cfg.PipelineOptions().Keywords)
	for _, resource := range reference.ListResources() {
		server.AddResource(resource, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return reference.ReadResource(ctx, req.Params.URI)
		})
	}

	return server
}
