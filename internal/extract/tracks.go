package extract

import (
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

var trackCaptions = []string{
	"שם המסלול", "שם מסלול", "שיעור תשואה", "תשואה נומינלית",
	"track name", "rate of return", "nominal return",
}

// returnLocation finds the return figure of a table D line: a percentage,
// or failing that a number with a fractional part.
func returnLocation(text string) []int {
	scan := numeric.StripDates(text)
	if loc := percentValue.FindStringIndex(scan); loc != nil {
		return loc
	}
	return decimalValue.FindStringIndex(scan)
}

// Tracks extracts table D. Track names often wrap onto lines that carry no
// return figure; those lines are attached to a neighbouring row according to
// mode.
func Tracks(lines []models.Line, mode Mode) []models.TrackRow {
	var rows []models.TrackRow
	var pending []string
	for _, line := range lines {
		text := line.Text()
		if isNoise(text) {
			continue
		}
		loc := returnLocation(text)
		if loc == nil {
			if isHeader(text, trackCaptions) {
				continue
			}
			name := cleanText(text)
			if name == "" {
				continue
			}
			if mode == Coordinate && len(rows) > 0 {
				last := &rows[len(rows)-1]
				last.TrackName = joinName(last.TrackName, name)
			} else {
				pending = append(pending, name)
			}
			continue
		}

		name := cleanText(decimalOrPercent.ReplaceAllString(text, " "))
		if len(pending) > 0 {
			name = joinName(append(pending, name)...)
			pending = nil
		}
		rows = append(rows, models.TrackRow{
			TrackName:     name,
			ReturnPercent: numeric.ParseAmount(text[loc[0]:loc[1]]),
		})
	}
	if len(pending) > 0 && len(rows) > 0 {
		last := &rows[len(rows)-1]
		last.TrackName = joinName(append([]string{last.TrackName}, pending...)...)
	}
	return rows
}

func joinName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
