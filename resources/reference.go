package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
)

const (
	SchemaURI     = "pension://schema/tables"
	KeywordsURI   = "pension://keywords"
	StrategiesURI = "pension://strategies"
)

// ReferenceHandler serves the static reference material: the table schema
// requested from the model, the section title keywords and the strategies.
type ReferenceHandler struct {
	keywords sections.Keywords
}

func NewReferenceHandler(keywords sections.Keywords) *ReferenceHandler {
	if keywords == nil {
		keywords = sections.DefaultKeywords()
	}
	return &ReferenceHandler{keywords: keywords}
}

// ListResources returns the resources the handler can read.
func (h *ReferenceHandler) ListResources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         SchemaURI,
			Name:        "pension-tables-schema",
			Description: "JSON schema of the five statement tables, as requested from the language model and accepted by pension-repair",
			MIMEType:    "application/json",
		},
		{
			URI:         KeywordsURI,
			Name:        "pension-section-keywords",
			Description: "Title phrasings used to locate each table section",
			MIMEType:    "application/json",
		},
		{
			URI:         StrategiesURI,
			Name:        "pension-strategies",
			Description: "Extraction strategies accepted by pension-extract",
			MIMEType:    "application/json",
		},
	}
}

// ReadResource reads a specific resource by URI
func (h *ReferenceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, "pension://") {
		return nil, fmt.Errorf("invalid URI scheme, expected pension://")
	}

	var value any
	switch uri {
	case SchemaURI:
		value = llm.TablesSchema
	case KeywordsURI:
		keywords := make(map[string][]string, len(h.keywords))
		for section, phrases := range h.keywords {
			keywords["table_"+strings.ToLower(string(section))] = phrases
		}
		value = keywords
	case StrategiesURI:
		value = operations.Strategies
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
