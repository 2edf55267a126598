package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pension-mcp/internal/export"
	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

type PensionExtractQuery struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`
	Strategy string `json:"strategy,omitempty"` // coordinate, text, llm-text or llm-vision
	Format   string `json:"format,omitempty"`   // json (default), markdown or html
}

type PensionExtractResponse struct {
	Report   *models.Report `json:"report"`
	Rendered string         `json:"rendered,omitempty"`
}

func PensionExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[PensionExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "pension-extract",
		Description: "Extract the five tables of an Israeli pension fund statement (expected payments, fund movements, management fees, investment tracks, deposit details), repair them, and cross-check the deposits of table B against the deposit summary of table E. Provide exactly one of zotero_id, url, path or raw_data.",
		InputSchema: inputschema,
	}
}

func PensionExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query PensionExtractQuery, env *Env) (*mcp.CallToolResult, *PensionExtractResponse, error) {
	log := env.Log
	log.Info("pension-extract tool called")

	strategyName := query.Strategy
	if strategyName == "" {
		strategyName = env.Config.Strategy
	}
	strategy, err := operations.ParseStrategy(strategyName)
	if err != nil {
		return nil, nil, err
	}
	if strategy.NeedsOracle() && env.Oracle == nil {
		return nil, nil, fmt.Errorf("strategy %s requires OPENAI_API_KEY", strategy)
	}

	source := models.SourceInfo{ZoteroID: query.ZoteroID, URL: query.URL, Path: query.Path}
	doc, err := operations.LoadDocument(ctx, source, query.RawData)
	if err != nil {
		log.Error("Failed to load statement: %v", err)
		return nil, nil, fmt.Errorf("failed to load statement: %w", err)
	}
	if int64(len(doc.Data)) > env.Config.MaxFileSize {
		return nil, nil, fmt.Errorf("statement is %d bytes, above the %d byte limit", len(doc.Data), env.Config.MaxFileSize)
	}

	opts := env.Config.PipelineOptions()
	candidates, err := operations.NewSource(strategy, opts, env.Oracle, log)
	if err != nil {
		return nil, nil, err
	}
	report, err := operations.NewPipeline(candidates, opts, log).Run(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	return respond(report, query.Format)
}

// respond renders the report for the client. JSON stays in the structured
// response only; other formats are also returned as text content.
func respond(report *models.Report, format string) (*mcp.CallToolResult, *PensionExtractResponse, error) {
	response := &PensionExtractResponse{Report: report}

	text := fmt.Sprintf("%s. Rows: A=%d B=%d C=%d D=%d E=%d.",
		report.Verdict.Message(),
		len(report.Tables.TableA.Rows), len(report.Tables.TableB.Rows), len(report.Tables.TableC.Rows),
		len(report.Tables.TableD.Rows), len(report.Tables.TableE.Rows))

	if format != "" && format != export.FormatJSON {
		rendered, err := export.Render(format, report)
		if err != nil {
			return nil, nil, err
		}
		response.Rendered = rendered
		text = rendered
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
	return result, response, nil
}
