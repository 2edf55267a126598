package models

type PdfData []byte
type PdfPageData []byte
type PdfPages []PdfPageData

// SourceInfo contains information about where the statement came from
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
}

// Label identifies the source in logs and reports.
func (s SourceInfo) Label() string {
	switch {
	case s.ZoteroID != "":
		return "zotero:" + s.ZoteroID
	case s.URL != "":
		return s.URL
	case s.Path != "":
		return s.Path
	}
	return "raw"
}

// DocumentData is a fetched document with its detected type ("pdf", "txt" or
// "unknown").
type DocumentData struct {
	Data []byte
	Type string
}
