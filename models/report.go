package models

import (
	"fmt"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
)

type Status string

const (
	StatusPass          Status = "PASS"
	StatusFail          Status = "FAIL"
	StatusIndeterminate Status = "INDETERMINATE"
)

// Verdict is the outcome of comparing the deposits line of table B with the
// deposit summary of table E.
type Verdict struct {
	Status   Status         `json:"status"`
	DepositB numeric.Amount `json:"deposit_b"`
	DepositE numeric.Amount `json:"deposit_e"`
}

func (v Verdict) Message() string {
	switch v.Status {
	case StatusPass:
		return fmt.Sprintf("PASS: deposits agree (B=%s, E=%s)", v.DepositB, v.DepositE)
	case StatusFail:
		return fmt.Sprintf("FAIL: deposits differ (B=%s, E=%s)", v.DepositB, v.DepositE)
	}
	return "INDETERMINATE: deposit summary missing"
}

// Repairs records the document-wide corrections applied to a report.
type Repairs struct {
	DigitOrderReversed bool `json:"digit_order_reversed"`
	TrackRowsMerged    int  `json:"track_rows_merged"`
	SummaryRebuilt     bool `json:"summary_rebuilt"`
}

// Report is the result of one extraction run.
type Report struct {
	RunID    string   `json:"run_id"`
	Source   string   `json:"source"`
	Strategy string   `json:"strategy"`
	Tables   TableSet `json:"tables"`
	Verdict  Verdict  `json:"verdict"`
	Repairs  Repairs  `json:"repairs"`
}
