package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"unicode/utf8"

	"github.com/Epistemic-Technology/pension-mcp/models"
	"github.com/Epistemic-Technology/zotero/zotero"
)

// ErrNoInput is returned when a SourceInfo names no location.
var ErrNoInput = errors.New("no data provided")

// DetectDocumentType determines the type of a statement from its leading
// bytes: "pdf", "txt" for plain UTF-8 text, otherwise "unknown".
func DetectDocumentType(data []byte) string {
	if len(data) == 0 {
		return "unknown"
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "pdf"
	}
	if isLikelyText(data) {
		return "txt"
	}
	return "unknown"
}

// isLikelyText checks that the sample is UTF-8 with no control bytes other
// than whitespace. Hebrew statements are multi-byte, so a printable-ASCII ratio
// is not used.
func isLikelyText(data []byte) bool {
	sample := data[:min(len(data), 512)]
	// Don't reject a rune cut at the sample boundary.
	for i := 0; i < utf8.UTFMax && !utf8.Valid(sample) && len(sample) > 0; i++ {
		sample = sample[:len(sample)-1]
	}
	if len(sample) == 0 || !utf8.Valid(sample) {
		return false
	}
	for _, b := range sample {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' && b != '\f' {
			return false
		}
	}
	return true
}

// GetData retrieves the statement from a source and detects its type.
// Zotero credentials come from ZOTERO_API_KEY and ZOTERO_LIBRARY_ID.
func GetData(ctx context.Context, sourceInfo models.SourceInfo) (models.DocumentData, error) {
	var data []byte
	var err error

	switch {
	case sourceInfo.ZoteroID != "":
		zoteroAPIKey := os.Getenv("ZOTERO_API_KEY")
		libraryID := os.Getenv("ZOTERO_LIBRARY_ID")
		data, err = GetFromZotero(ctx, sourceInfo.ZoteroID, zoteroAPIKey, libraryID)
	case sourceInfo.URL != "":
		data, err = GetFromURL(ctx, sourceInfo.URL)
	case sourceInfo.Path != "":
		data, err = os.ReadFile(sourceInfo.Path)
	default:
		return models.DocumentData{}, ErrNoInput
	}
	if err != nil {
		return models.DocumentData{}, fmt.Errorf("failed to fetch %s: %w", sourceInfo.Label(), err)
	}
	if len(data) == 0 {
		return models.DocumentData{}, fmt.Errorf("no data retrieved from %s", sourceInfo.Label())
	}

	return models.DocumentData{
		Data: data,
		Type: DetectDocumentType(data),
	}, nil
}

// GetFromURL fetches a statement over HTTP.
func GetFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// GetFromZotero fetches an attachment file from a Zotero library.
func GetFromZotero(ctx context.Context, zoteroID string, apiKey string, libraryID string) ([]byte, error) {
	client := zotero.NewClient(libraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(apiKey))
	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return nil, err
	}
	return data, nil
}
