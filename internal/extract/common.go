// Package extract turns the lines of a located section into typed table rows.
// Lines that cannot form a row are skipped.
package extract

import (
	"regexp"
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/layout"
	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// Mode selects how table D continuation lines are attached.
type Mode int

const (
	// Coordinate is used for lines rebuilt from positioned tokens.
	Coordinate Mode = iota
	// RawText is used for lines of flat extracted text.
	RawText
)

func (m Mode) String() string {
	if m == RawText {
		return "raw-text"
	}
	return "coordinate"
}

var (
	pageFooter   = regexp.MustCompile(`(?i)^\s*(?:עמוד|page)\s*\d+(?:\s*(?:מתוך|of|/)\s*\d+)?\s*$`)
	percentValue = regexp.MustCompile(`[-\x{2010}-\x{2015}\x{2212}]?\d+(?:\.\d+)?\s?%`)
	decimalValue = regexp.MustCompile(`[-\x{2010}-\x{2015}\x{2212}]?\d+\.\d+`)
	currency     = strings.NewReplacer("₪", " ", `ש"ח`, " ", "ש״ח", " ", "NIS", " ")
	hasLetter    = regexp.MustCompile(`\p{L}`)
)

func isNoise(text string) bool {
	return strings.TrimSpace(text) == "" || pageFooter.MatchString(text)
}

// isHeader reports whether a line without the numbers a row needs is one of
// the table's column captions.
func isHeader(text string, captions []string) bool {
	return sections.ContainsAny(text, captions)
}

// cleanText collapses whitespace and trims separators left behind after
// numbers are cut out of a line.
func cleanText(text string) string {
	text = currency.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	return strings.Trim(text, " :|-–—−,")
}

// cut removes the byte range [start, end) from text.
func cut(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}

// largest returns the match with the greatest magnitude.
func largest(matches []numeric.Match) (numeric.Match, bool) {
	var best numeric.Match
	found := false
	for _, m := range matches {
		if !found || abs(m.Value) > abs(best.Value) {
			best = m
			found = true
		}
	}
	return best, found
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Document extracts all five tables from grouped pages.
func Document(pages []models.Page, keywords sections.Keywords, mode Mode) models.TableSet {
	lines := layout.Flatten(pages)
	ranges := sections.Ranges(pages, sections.Locate(pages, keywords))
	section := func(s sections.Section) []models.Line {
		r, ok := ranges[s]
		if !ok {
			return nil
		}
		return sections.Lines(lines, r)
	}

	employer := DefaultEmployer(lines)

	var ts models.TableSet
	ts.TableA.Rows = Payments(section(sections.A))
	ts.TableB.Rows = Movements(section(sections.B))
	ts.TableC.Rows = Fees(section(sections.C))
	ts.TableD.Rows = Tracks(section(sections.D), mode)
	ts.TableE.Rows = Deposits(section(sections.E), employer)
	return ts
}
