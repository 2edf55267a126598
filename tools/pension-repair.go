package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
)

type PensionRepairQuery struct {
	ModelOutput string `json:"model_output"`     // JSON with keys table_a..table_e
	Format      string `json:"format,omitempty"` // json (default), markdown or html
}

func PensionRepairTool() *mcp.Tool {
	inputschema, err := jsonschema.For[PensionRepairQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "pension-repair",
		Description: "Repair and validate pension statement tables that were already extracted by a language model. model_output is a JSON object with keys table_a to table_e, each {\"rows\": [...]}. Returns the repaired tables and the deposit cross-check verdict.",
		InputSchema: inputschema,
	}
}

func PensionRepairToolHandler(ctx context.Context, req *mcp.CallToolRequest, query PensionRepairQuery, env *Env) (*mcp.CallToolResult, *PensionExtractResponse, error) {
	env.Log.Info("pension-repair tool called")

	report, err := operations.NewPipeline(nil, env.Config.PipelineOptions(), env.Log).RepairRaw(query.ModelOutput)
	if err != nil {
		env.Log.Error("Failed to repair model output: %v", err)
		return nil, nil, err
	}
	return respond(report, query.Format)
}
