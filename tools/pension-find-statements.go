package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
)

type FindStatementsQuery struct {
	Query      string   `json:"query,omitempty"`      // Quick search text (searches title, creator, year)
	Tags       []string `json:"tags,omitempty"`       // Filter by tags
	Collection string   `json:"collection,omitempty"` // Filter by collection key (optional)
	Limit      int      `json:"limit,omitempty"`      // Max items searched (default 25)
}

type FindStatementsResponse struct {
	Statements []operations.StatementAttachment `json:"statements"`
	Count      int                              `json:"count"`
}

func FindStatementsTool() *mcp.Tool {
	inputschema, err := jsonschema.For[FindStatementsQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "pension-find-statements",
		Description: "Search a Zotero library for stored pension statements and list their PDF attachments. Pass an attachment key as zotero_id to pension-extract.",
		InputSchema: inputschema,
	}
}

func FindStatementsToolHandler(ctx context.Context, req *mcp.CallToolRequest, query FindStatementsQuery, env *Env) (*mcp.CallToolResult, *FindStatementsResponse, error) {
	env.Log.Info("pension-find-statements tool called")

	zoteroAPIKey := os.Getenv("ZOTERO_API_KEY")
	if zoteroAPIKey == "" {
		return nil, nil, fmt.Errorf("ZOTERO_API_KEY environment variable not set")
	}
	libraryID := os.Getenv("ZOTERO_LIBRARY_ID")
	if libraryID == "" {
		return nil, nil, fmt.Errorf("ZOTERO_LIBRARY_ID environment variable not set")
	}

	statements, err := operations.FindStatements(ctx, zoteroAPIKey, libraryID, operations.StatementSearchParams{
		Query:      query.Query,
		Tags:       query.Tags,
		Collection: query.Collection,
		Limit:      query.Limit,
	}, env.Log)
	if err != nil {
		return nil, nil, err
	}

	return nil, &FindStatementsResponse{Statements: statements, Count: len(statements)}, nil
}
