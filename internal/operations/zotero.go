package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/zotero/zotero"
)

// StatementSearchParams narrows a Zotero library search for stored pension
// statements.
type StatementSearchParams struct {
	Query      string   // Quick search text (title, creator, year)
	Tags       []string // Filter by tags
	Collection string   // Filter by collection key (optional)
	Limit      int      // Max parent items (default 25)
}

// StatementAttachment is a PDF stored under a Zotero item. Key is the value
// to pass as zotero_id when extracting.
type StatementAttachment struct {
	Key       string `json:"key"`
	Filename  string `json:"filename"`
	ItemKey   string `json:"item_key"`
	ItemTitle string `json:"item_title"`
	DateAdded string `json:"date_added"`
}

// FindStatements searches a Zotero library and returns the PDF attachments of
// the matching items, in search order.
func FindStatements(ctx context.Context, apiKey, libraryID string, params StatementSearchParams, log logger.Logger) ([]StatementAttachment, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Zotero API key is required")
	}
	if libraryID == "" {
		return nil, fmt.Errorf("Zotero library ID is required")
	}

	client := zotero.NewClient(libraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(apiKey))

	queryParams := &zotero.QueryParams{
		Q:        params.Query,
		QMode:    "titleCreatorYear",
		Tag:      params.Tags,
		ItemType: []string{"-attachment"},
		Limit:    params.Limit,
		Sort:     "dateModified",
	}
	if queryParams.Limit <= 0 {
		queryParams.Limit = 25
	}

	var items []zotero.Item
	var err error
	if params.Collection != "" {
		items, err = client.CollectionItems(ctx, params.Collection, queryParams)
		if err != nil {
			log.Error("Failed to search collection %s: %v", params.Collection, err)
			return nil, fmt.Errorf("failed to search collection %s: %w", params.Collection, err)
		}
	} else {
		items, err = client.Items(ctx, queryParams)
		if err != nil {
			log.Error("Failed to search Zotero library: %v", err)
			return nil, fmt.Errorf("failed to search Zotero library: %w", err)
		}
	}
	log.Info("Found %d items in Zotero library", len(items))

	results := []StatementAttachment{}
	for _, item := range items {
		if item.Data.ItemType == "attachment" {
			continue
		}
		children, err := client.Children(ctx, item.Key, nil)
		if err != nil {
			log.Error("Failed to retrieve children for item %s: %v", item.Key, err)
			continue
		}
		for _, child := range children {
			if !isPDFAttachment(child) {
				continue
			}
			results = append(results, StatementAttachment{
				Key:       child.Key,
				Filename:  child.Data.Filename,
				ItemKey:   item.Key,
				ItemTitle: item.Data.Title,
				DateAdded: item.Data.DateAdded,
			})
		}
	}

	log.Info("Returning %d statement attachments", len(results))
	return results, nil
}

func isPDFAttachment(item zotero.Item) bool {
	if item.Data.ItemType != "attachment" {
		return false
	}
	return item.Data.ContentType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(item.Data.Filename), ".pdf")
}
