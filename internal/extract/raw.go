package extract

import (
	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// FromRaw converts oracle output into typed rows. Cells are parsed with the
// same numeric rules as the heuristic extractors; rows with no content at all
// are dropped.
func FromRaw(raw models.RawExtraction) models.TableSet {
	var ts models.TableSet

	for _, r := range raw.TableA {
		row := models.PaymentRow{
			Description: r.Get("description", "name", "type"),
			Amount:      numeric.ParseAmount(r.Get("amount", "value", "sum")),
		}
		if row.Description != "" || !row.Amount.IsEmpty() {
			ts.TableA.Rows = append(ts.TableA.Rows, row)
		}
	}

	for _, r := range raw.TableB {
		row := models.MovementRow{
			Description: r.Get("description", "name", "type"),
			Amount:      numeric.ParseAmount(r.Get("amount", "value", "sum")),
		}
		if row.Description != "" || !row.Amount.IsEmpty() {
			ts.TableB.Rows = append(ts.TableB.Rows, row)
		}
	}

	for _, r := range raw.TableC {
		row := models.FeeRow{
			Description: r.Get("description", "name", "type"),
			Percent:     numeric.ParseAmount(r.Get("percent", "rate", "value")),
		}
		if row.Description != "" || !row.Percent.IsEmpty() {
			ts.TableC.Rows = append(ts.TableC.Rows, row)
		}
	}

	// Placeholder returns are kept so the repair engine can merge them.
	for _, r := range raw.TableD {
		row := models.TrackRow{
			TrackName:     r.Get("track_name", "track", "name"),
			ReturnPercent: numeric.ParseAmount(r.Get("return_percent", "return", "yield", "percent")),
		}
		if row.TrackName != "" || !row.ReturnPercent.IsEmpty() {
			ts.TableD.Rows = append(ts.TableD.Rows, row)
		}
	}

	for _, r := range raw.TableE {
		row := models.DepositRow{
			EmployerName:  r.Get("employer_name", "name"),
			DepositDate:   r.Get("deposit_date", "date"),
			SalaryMonth:   r.Get("salary_month", "month"),
			Salary:        numeric.ParseAmount(r.Get("salary", "wage")),
			EmployeeShare: numeric.ParseAmount(r.Get("employee_share", "employee")),
			EmployerShare: numeric.ParseAmount(r.Get("employer_share", "employer")),
			Severance:     numeric.ParseAmount(r.Get("severance", "compensation")),
			Total:         numeric.ParseAmount(r.Get("total", "sum")),
		}
		if row.IsSummary() {
			row.EmployerName = models.SummaryName
		}
		ts.TableE.Rows = append(ts.TableE.Rows, row)
	}

	return ts
}
