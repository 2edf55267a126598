package extract

import (
	"regexp"
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

var (
	depositDate   = regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b`)
	salaryMonth   = regexp.MustCompile(`\b\d{1,2}[/.\-]\d{4}\b`)
	employerField = regexp.MustCompile(`(?i)(?:שם\s+המעסיק|שם\s+מעסיק|employer\s+name|employer)\s*[:：]\s*([^:\d]+)`)
)

var depositCaptions = []string{
	"מועד הפקדה", "מועד ההפקדה", "חודש משכורת", "חודש שכר", "רכיב עובד", "רכיב מעסיק",
	"deposit date", "salary month",
}

// DefaultEmployer returns the employer named in the statement header fields,
// or "" when there is none.
func DefaultEmployer(lines []models.Line) string {
	for _, line := range lines {
		if name := employerFromField(line.Text()); name != "" {
			return name
		}
	}
	return ""
}

func employerFromField(text string) string {
	m := employerField.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanText(m[1])
}

// blank replaces text[start:end] with spaces so later offsets stay valid.
func blank(text string, start, end int) string {
	return text[:start] + strings.Repeat(" ", end-start) + text[end:]
}

// Deposits extracts table E. A line with a deposit date is a deposit; a line
// carrying a total caption is the summary; a line with only a name sets the
// employer for the deposits that follow it.
func Deposits(lines []models.Line, defaultEmployer string) []models.DepositRow {
	var rows []models.DepositRow
	pending := ""
	for _, line := range lines {
		text := line.Text()
		if isNoise(text) {
			continue
		}

		loc := depositDate.FindStringIndex(text)
		if loc == nil {
			switch {
			case models.IsTotalMarker(text):
				row := models.DepositRow{EmployerName: models.SummaryName}
				assignAmounts(&row, numeric.FindNumbers(numeric.StripDates(text)))
				rows = append(rows, row)
			case employerFromField(text) != "":
				pending = employerFromField(text)
			case isHeader(text, depositCaptions), len(numeric.FindNumbers(text)) > 0, !hasLetter.MatchString(text):
			default:
				pending = cleanText(text)
			}
			continue
		}

		row := models.DepositRow{DepositDate: text[loc[0]:loc[1]]}
		rest := blank(text, loc[0], loc[1])
		if months := salaryMonth.FindAllStringIndex(rest, -1); len(months) > 0 {
			m := months[len(months)-1]
			row.SalaryMonth = rest[m[0]:m[1]]
			rest = blank(rest, m[0], m[1])
		}

		if prefix := rest[:loc[0]]; hasLetter.MatchString(prefix) {
			row.EmployerName = cleanText(prefix)
		}
		if row.EmployerName == "" {
			row.EmployerName = pending
		}
		if row.EmployerName == "" {
			row.EmployerName = defaultEmployer
		}

		assignAmounts(&row, numeric.FindNumbers(rest[loc[0]:]))
		rows = append(rows, row)
	}
	return rows
}
