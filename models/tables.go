package models

import (
	"regexp"
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
)

// SummaryName is the employer name carried by the deposit summary row.
const SummaryName = "Total"

// totalMarker matches the "total" captions used on summary lines.
var totalMarker = regexp.MustCompile(`(?i)סה["״'׳]?כ|סך\s*הכל|סך\s*הכול|\btotal\b`)

// IsTotalMarker reports whether text carries a summary caption.
func IsTotalMarker(text string) bool {
	return totalMarker.MatchString(text)
}

// PaymentRow is a row of table A, expected payments.
type PaymentRow struct {
	Description string         `json:"description"`
	Amount      numeric.Amount `json:"amount"`
}

// MovementRow is a row of table B, fund movements. Amount keeps its sign.
type MovementRow struct {
	Description string         `json:"description"`
	Amount      numeric.Amount `json:"amount"`
}

// FeeRow is a row of table C, management fee rates.
type FeeRow struct {
	Description string         `json:"description"`
	Percent     numeric.Amount `json:"percent"`
}

// TrackRow is a row of table D, investment tracks and returns.
type TrackRow struct {
	TrackName     string         `json:"track_name"`
	ReturnPercent numeric.Amount `json:"return_percent"`
}

// DepositRow is a row of table E, deposit details.
type DepositRow struct {
	EmployerName  string         `json:"employer_name"`
	DepositDate   string         `json:"deposit_date"`
	SalaryMonth   string         `json:"salary_month"`
	Salary        numeric.Amount `json:"salary"`
	EmployeeShare numeric.Amount `json:"employee_share"`
	EmployerShare numeric.Amount `json:"employer_share"`
	Severance     numeric.Amount `json:"severance"`
	Total         numeric.Amount `json:"total"`
}

// IsSummary reports whether the row is a totals row rather than a deposit.
func (r DepositRow) IsSummary() bool {
	name := strings.TrimSpace(r.EmployerName)
	return name == SummaryName || (r.DepositDate == "" && IsTotalMarker(name))
}

type Table[T any] struct {
	Rows []T `json:"rows"`
}

// TableSet holds the five statement tables. Its JSON shape matches the schema
// requested from the language model.
type TableSet struct {
	TableA Table[PaymentRow]  `json:"table_a"`
	TableB Table[MovementRow] `json:"table_b"`
	TableC Table[FeeRow]      `json:"table_c"`
	TableD Table[TrackRow]    `json:"table_d"`
	TableE Table[DepositRow]  `json:"table_e"`
}

// Empty reports whether no table has any rows.
func (ts TableSet) Empty() bool {
	return len(ts.TableA.Rows) == 0 &&
		len(ts.TableB.Rows) == 0 &&
		len(ts.TableC.Rows) == 0 &&
		len(ts.TableD.Rows) == 0 &&
		len(ts.TableE.Rows) == 0
}

// RawRow is a candidate row from the language model with every cell kept as
// the text it was given.
type RawRow map[string]string

// Get returns the first non-empty value among keys.
func (r RawRow) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// RawExtraction is the loosely typed oracle output before typed conversion.
type RawExtraction struct {
	TableA []RawRow
	TableB []RawRow
	TableC []RawRow
	TableD []RawRow
	TableE []RawRow
	// DigitOrderReversed is set when the input is an exported report whose
	// percentages were already repaired.
	DigitOrderReversed bool
}
