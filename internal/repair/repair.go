// Package repair corrects the systematic defects of extracted statement rows.
// Every pass is idempotent and works the same on heuristic and model output.
package repair

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// DefaultDigitAnchorThreshold is the savings fee percentage above which the
// fee and return figures are taken to have their fractional digits swapped.
const DefaultDigitAnchorThreshold = 50.0

type Options struct {
	DigitAnchorThreshold float64
	// AnchorKeywords identify the savings management fee row in table C.
	AnchorKeywords []string
}

func DefaultOptions() Options {
	return Options{
		DigitAnchorThreshold: DefaultDigitAnchorThreshold,
		AnchorKeywords:       []string{"מחיסכון", "מצבירה", "מהצבירה", "savings", "accumulation"},
	}
}

// Apply runs every pass over the report's tables in a fixed order and
// records what changed.
func Apply(report *models.Report, opts Options) {
	if opts.DigitAnchorThreshold <= 0 {
		opts.DigitAnchorThreshold = DefaultDigitAnchorThreshold
	}

	tracks, merged := MergeTracks(report.Tables.TableD.Rows)
	report.Tables.TableD.Rows = tracks
	report.Repairs.TrackRowsMerged += merged

	before := len(report.Tables.TableE.Rows)
	report.Tables.TableE.Rows = FixDepositSummary(report.Tables.TableE.Rows)
	if before > 0 {
		report.Repairs.SummaryRebuilt = true
	}

	if !report.Repairs.DigitOrderReversed {
		report.Repairs.DigitOrderReversed = ReverseDigitOrder(&report.Tables, opts)
	}
}

// MergeTracks folds rows whose return is empty or a placeholder into the
// neighbouring track name: the previous row, or the next one when the
// fragment comes first. It returns the merged rows and how many fragments
// were folded.
func MergeTracks(rows []models.TrackRow) ([]models.TrackRow, int) {
	out := make([]models.TrackRow, 0, len(rows))
	var pending []string
	merged := 0
	for _, r := range rows {
		name := strings.TrimSpace(r.TrackName)
		if r.ReturnPercent.IsEmpty() {
			merged++
			if name == "" {
				continue
			}
			if len(out) > 0 {
				last := &out[len(out)-1]
				last.TrackName = join(last.TrackName, name)
			} else {
				pending = append(pending, name)
			}
			continue
		}
		if len(pending) > 0 {
			r.TrackName = join(append(pending, name)...)
			pending = nil
		}
		out = append(out, r)
	}
	return out, merged
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// FixDepositSummary rebuilds the summary row of table E. The source summary's
// columns are frequently shifted, so unless they already match the deposit
// column sums its non-zero figures are ranked and reassigned by size; without
// a source summary the columns are summed. The salary is always the rounded
// sum of the deposit salaries.
func FixDepositSummary(rows []models.DepositRow) []models.DepositRow {
	var data []models.DepositRow
	var source *models.DepositRow
	for _, r := range rows {
		if r.IsSummary() {
			r := r
			source = &r
			continue
		}
		data = append(data, r)
	}
	if len(data) == 0 && source == nil {
		return data
	}

	var salaries []numeric.Amount
	for _, r := range data {
		salaries = append(salaries, r.Salary)
	}
	summary := models.DepositRow{
		EmployerName: models.SummaryName,
		Salary:       numeric.NewAmount(numeric.Sum(salaries...).Decimal().Round(0)),
	}

	var employee, employer, severance, total []numeric.Amount
	for _, r := range data {
		employee = append(employee, r.EmployeeShare)
		employer = append(employer, r.EmployerShare)
		severance = append(severance, r.Severance)
		total = append(total, r.Total)
	}
	sums := models.DepositRow{
		EmployeeShare: numeric.Sum(employee...),
		EmployerShare: numeric.Sum(employer...),
		Severance:     numeric.Sum(severance...),
		Total:         numeric.Sum(total...),
	}

	// A source summary that already agrees with the deposits is kept, even
	// where ranking would swap severance and employer share.
	if source != nil && !sameShares(*source, sums) {
		assignByRank(&summary, source)
	} else {
		summary.EmployeeShare = sums.EmployeeShare
		summary.EmployerShare = sums.EmployerShare
		summary.Severance = sums.Severance
		summary.Total = sums.Total
	}

	return append(data, summary)
}

func sameShares(a, b models.DepositRow) bool {
	return a.EmployeeShare.Decimal().Equal(b.EmployeeShare.Decimal()) &&
		a.EmployerShare.Decimal().Equal(b.EmployerShare.Decimal()) &&
		a.Severance.Decimal().Equal(b.Severance.Decimal()) &&
		a.Total.Decimal().Equal(b.Total.Decimal())
}

func assignByRank(summary *models.DepositRow, source *models.DepositRow) {
	var candidates []decimal.Decimal
	for _, a := range []numeric.Amount{source.EmployeeShare, source.EmployerShare, source.Severance, source.Total} {
		if a.IsEmpty() || a.IsZero() {
			continue
		}
		candidates = append(candidates, a.Decimal())
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].GreaterThan(candidates[j])
	})

	rank := func(i int) numeric.Amount {
		if i < len(candidates) {
			return numeric.NewAmount(candidates[i])
		}
		return numeric.Zero()
	}

	if len(candidates) == 4 {
		summary.Total = rank(0)
		summary.Severance = rank(1)
		summary.EmployerShare = rank(2)
		summary.EmployeeShare = rank(3)
		return
	}
	summary.Severance = numeric.Zero()
	summary.Total = rank(0)
	summary.EmployerShare = rank(1)
	summary.EmployeeShare = rank(2)
}

// ReverseDigitOrder detects statements whose percentages were read with the
// fractional digits reversed. The savings fee in table C is the anchor: a
// value above the threshold is impossible, so every percentage in tables C
// and D is reversed. It reports whether the reversal was applied.
func ReverseDigitOrder(tables *models.TableSet, opts Options) bool {
	anchor, ok := digitAnchor(tables.TableC.Rows, opts.AnchorKeywords)
	if !ok || anchor.Float() <= opts.DigitAnchorThreshold {
		return false
	}
	for i := range tables.TableC.Rows {
		tables.TableC.Rows[i].Percent = tables.TableC.Rows[i].Percent.ReverseFraction()
	}
	for i := range tables.TableD.Rows {
		tables.TableD.Rows[i].ReturnPercent = tables.TableD.Rows[i].ReturnPercent.ReverseFraction()
	}
	return true
}

func digitAnchor(rows []models.FeeRow, keywords []string) (numeric.Amount, bool) {
	for _, r := range rows {
		if !r.Percent.IsEmpty() && sections.ContainsAny(r.Description, keywords) {
			return r.Percent, true
		}
	}
	for _, r := range rows {
		if !r.Percent.IsEmpty() {
			return r.Percent, true
		}
	}
	return numeric.Amount{}, false
}
