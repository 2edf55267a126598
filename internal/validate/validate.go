// Package validate cross-checks the deposits reported in the fund movements
// table against the deposit details summary.
package validate

import (
	"github.com/shopspring/decimal"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

const (
	DefaultTolerance  = 5.0
	DefaultNoiseFloor = 10.0
)

type Options struct {
	// Tolerance is the largest difference, exclusive, at which the two
	// deposit figures still agree.
	Tolerance float64
	// NoiseFloor excludes small numbers such as row indices or years' digits
	// from the table B deposit candidates.
	NoiseFloor float64
	// Keywords identify the deposits row of table B.
	Keywords []string
}

func DefaultOptions() Options {
	return Options{
		Tolerance:  DefaultTolerance,
		NoiseFloor: DefaultNoiseFloor,
		Keywords:   []string{"הפקדות", "הפקדה", "deposits"},
	}
}

// CrossCheck compares the deposits row of table B with the total of the
// table E summary row.
func CrossCheck(movements []models.MovementRow, deposits []models.DepositRow, opts Options) models.Verdict {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Keywords == nil {
		opts.Keywords = DefaultOptions().Keywords
	}

	verdict := models.Verdict{
		DepositB: DepositFromMovements(movements, opts),
		DepositE: DepositFromSummary(deposits),
	}

	e := verdict.DepositE.Decimal()
	if verdict.DepositE.IsEmpty() || !e.IsPositive() {
		verdict.Status = models.StatusIndeterminate
		return verdict
	}

	diff := verdict.DepositB.Decimal().Sub(e).Abs()
	if diff.LessThan(decimal.NewFromFloat(opts.Tolerance)) {
		verdict.Status = models.StatusPass
	} else {
		verdict.Status = models.StatusFail
	}
	return verdict
}

// DepositFromMovements returns the deposit figure of the first table B row
// whose description names deposits: the largest value above the noise floor
// among the numbers in the description and the row amount. It is zero when
// no such row or value exists.
func DepositFromMovements(rows []models.MovementRow, opts Options) numeric.Amount {
	floor := decimal.NewFromFloat(opts.NoiseFloor)
	for _, r := range rows {
		if !sections.ContainsAny(r.Description, opts.Keywords) {
			continue
		}
		candidates := []numeric.Amount{r.Amount}
		for _, m := range numeric.FindNumbers(r.Description) {
			candidates = append(candidates, m.Amount())
		}

		best := numeric.Zero()
		for _, c := range candidates {
			if c.IsEmpty() || !c.Decimal().GreaterThan(floor) {
				continue
			}
			if c.Decimal().GreaterThan(best.Decimal()) {
				best = c
			}
		}
		return best
	}
	return numeric.Zero()
}

// DepositFromSummary returns the total of the last summary row of table E,
// or an empty amount when there is none.
func DepositFromSummary(rows []models.DepositRow) numeric.Amount {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].IsSummary() {
			return rows[i].Total
		}
	}
	return numeric.Amount{}
}
