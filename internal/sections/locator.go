// Package sections finds the five statement tables in a document by their
// title lines and resolves the line range each table owns.
package sections

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

type Section string

const (
	A Section = "A"
	B Section = "B"
	C Section = "C"
	D Section = "D"
	E Section = "E"
)

// Order is the order in which sections claim title lines.
var Order = []Section{A, B, C, D, E}

// Keywords maps each section to the title phrasings that introduce it.
type Keywords map[Section][]string

// DefaultKeywords returns the Hebrew and English titles used by the major
// Israeli pension funds.
func DefaultKeywords() Keywords {
	return Keywords{
		A: {"תשלומים צפויים", "תשלומים הצפויים", "expected payments"},
		B: {"תנועות בקרן", "תנועות בחשבון", "תנועות בקופה", "fund movements", "account movements"},
		C: {"שיעור דמי ניהול", "שיעורי דמי ניהול", "management fee rates"},
		D: {"מסלולי השקעה ותשואות", "מסלולי ההשקעה ותשואות", "תשואות מסלולי השקעה", "investment tracks"},
		E: {"פירוט הפקדות", "פירוט ההפקדות", "deposit details"},
	}
}

// Anchor is the title line of a section.
type Anchor struct {
	Page int
	// Index is the line's position in the flattened document.
	Index int
	// LineIndex is the line's position on its page.
	LineIndex int
	Y         float64
}

// before orders anchors by page, then vertical position.
func (a Anchor) before(b Anchor) bool {
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Index < b.Index
}

// Range is a half-open range of flattened line indices.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Fold normalizes text for keyword comparison.
func Fold(text string) string {
	s := norm.NFKC.String(text)
	s = strings.NewReplacer("״", `"`, "׳", "'").Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ContainsAny reports whether the folded text contains any folded keyword.
func ContainsAny(text string, keywords []string) bool {
	folded := Fold(text)
	for _, kw := range keywords {
		if k := Fold(kw); k != "" && strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// Locate returns the first title line of every section present. A line can
// introduce at most one section.
func Locate(pages []models.Page, keywords Keywords) map[Section]Anchor {
	anchors := make(map[Section]Anchor)
	index := 0
	for _, page := range pages {
		for li, line := range page.Lines {
			text := line.Text()
			for _, s := range Order {
				if _, claimed := anchors[s]; claimed {
					continue
				}
				if ContainsAny(text, keywords[s]) {
					anchors[s] = Anchor{Page: page.Number, Index: index, LineIndex: li, Y: line.Y0()}
					break
				}
			}
			index++
		}
	}
	return anchors
}

// Ranges resolves each located section to the lines between its title and
// the nearest following title of any other section, or the end of the
// document.
func Ranges(pages []models.Page, anchors map[Section]Anchor) map[Section]Range {
	total := 0
	for _, p := range pages {
		total += len(p.Lines)
	}

	ranges := make(map[Section]Range, len(anchors))
	for s, a := range anchors {
		end := total
		var next *Anchor
		for o, b := range anchors {
			if o == s || !a.before(b) {
				continue
			}
			if next == nil || b.before(*next) {
				b := b
				next = &b
			}
		}
		if next != nil {
			end = next.Index
		}
		ranges[s] = Range{Start: a.Index + 1, End: end}
	}
	return ranges
}

// Lines returns the lines of the flattened document covered by r.
func Lines(lines []models.Line, r Range) []models.Line {
	if r.Len() == 0 || r.Start >= len(lines) {
		return nil
	}
	return lines[r.Start:min(r.End, len(lines))]
}
