package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// agePattern finds "at age 67" style qualifiers whose number is not an amount.
var agePattern = regexp.MustCompile(`(?i)(?:בגיל|גיל|\bage)\s*(\d{2,3})\b`)

// Payments extracts table A. The amount is the largest number on the line
// once a retirement age qualifier is set aside.
func Payments(lines []models.Line) []models.PaymentRow {
	var rows []models.PaymentRow
	for _, line := range lines {
		text := line.Text()
		if isNoise(text) {
			continue
		}
		scan := numeric.StripDates(text)
		matches := numeric.FindNumbers(scan)
		if loc := agePattern.FindStringSubmatchIndex(scan); loc != nil {
			matches = withoutDigitsAt(matches, loc[2])
		}
		m, ok := largest(matches)
		if !ok {
			continue
		}
		rows = append(rows, models.PaymentRow{
			Description: cleanText(cut(text, m.Start, m.End)),
			Amount:      m.Amount(),
		})
	}
	return rows
}

func withoutDigitsAt(matches []numeric.Match, start int) []numeric.Match {
	out := matches[:0:0]
	for _, m := range matches {
		if m.DigitStart() == start {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Movements extracts table B. The sign of the amount is read from the line
// text around the digits, since a detached minus glyph is not part of the
// number token.
func Movements(lines []models.Line) []models.MovementRow {
	var rows []models.MovementRow
	for _, line := range lines {
		text := line.Text()
		if isNoise(text) {
			continue
		}
		m, ok := largest(numeric.FindNumbers(numeric.StripDates(text)))
		if !ok {
			continue
		}
		value := m.Amount().Decimal().Abs()
		if negativeAt(text, m, line.RTL()) {
			value = value.Neg()
		}
		rows = append(rows, models.MovementRow{
			Description: cleanText(cut(text, m.Start, m.End)),
			Amount:      numeric.NewAmount(value),
		})
	}
	return rows
}

// negativeAt reports whether the digits of m are preceded by a minus glyph,
// allowing whitespace in between. On right-to-left lines a minus that was
// drawn left of the number ends up after it in reading order, as the last
// glyph of the line. A minus with anything after it belongs to another
// number or is a separator.
func negativeAt(text string, m numeric.Match, rtl bool) bool {
	if strings.HasPrefix(m.Raw, "(") && strings.HasSuffix(m.Raw, ")") {
		return true
	}
	before := strings.TrimRight(text[:m.DigitStart()], " \t(")
	if r, _ := utf8.DecodeLastRuneInString(before); isMinus(r) {
		return true
	}
	if rtl {
		after := strings.TrimSpace(text[m.End:])
		r, size := utf8.DecodeRuneInString(after)
		if isMinus(r) && size == len(after) {
			return true
		}
	}
	return false
}

func isMinus(r rune) bool {
	return r != utf8.RuneError && strings.ContainsRune(numeric.MinusGlyphs, r)
}

// Fees extracts table C: the first percentage on the line is the rate.
func Fees(lines []models.Line) []models.FeeRow {
	var rows []models.FeeRow
	for _, line := range lines {
		text := line.Text()
		if isNoise(text) {
			continue
		}
		loc := percentValue.FindStringIndex(numeric.StripDates(text))
		if loc == nil {
			continue
		}
		rows = append(rows, models.FeeRow{
			Description: cleanText(decimalOrPercent.ReplaceAllString(text, " ")),
			Percent:     numeric.ParseAmount(text[loc[0]:loc[1]]),
		})
	}
	return rows
}

var decimalOrPercent = regexp.MustCompile(percentValue.String() + "|" + decimalValue.String())

// assignAmounts fills the deposit columns in reading order. Missing trailing
// columns stay empty.
func assignAmounts(row *models.DepositRow, matches []numeric.Match) {
	fields := []*numeric.Amount{&row.Salary, &row.EmployeeShare, &row.EmployerShare, &row.Severance, &row.Total}
	for i, m := range matches {
		if i == len(fields) {
			break
		}
		*fields[i] = m.Amount()
	}
}
