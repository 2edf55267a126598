package layout

import (
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

// LinesFromText turns a page of flat text into lines, one token per non-blank
// text line, with the line index as its vertical position.
func LinesFromText(page int, text string) []models.Line {
	var lines []models.Line
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		y := float64(len(lines))
		lines = append(lines, models.Line{
			Page:   page,
			Tokens: []models.PositionedToken{{Page: page, Y0: y, Y1: y, Text: s}},
		})
	}
	return lines
}

// PagesFromText builds pages from per-page text, numbering pages from 1.
func PagesFromText(texts []string) []models.Page {
	pages := make([]models.Page, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, models.Page{Number: i + 1, Lines: LinesFromText(i+1, text)})
	}
	return pages
}

// Direction returns "rtl" or "ltr" for text.
func Direction(text string) string {
	if models.IsRTL(text) {
		return "rtl"
	}
	return "ltr"
}
