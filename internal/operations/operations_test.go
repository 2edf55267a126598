package operations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/pension-mcp/internal/export"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/internal/pdf"
	"github.com/Epistemic-Technology/pension-mcp/internal/pdf/pdftest"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// cannedOracle answers every prompt with a fixed output and records the
// prompts it saw.
type cannedOracle struct {
	output string
	err    error

	mu      sync.Mutex
	prompts []llm.Prompt
}

func (o *cannedOracle) Extract(ctx context.Context, prompt llm.Prompt) (string, error) {
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()
	return o.output, o.err
}

// shiftedSummary has a table E summary whose columns slid one place over.
func shiftedSummary(deposits string) string {
	return `{
		"table_a": {"rows": [{"description": "קצבה חודשית בגיל 67", "amount": "4,321"}]},
		"table_b": {"rows": [
			{"description": "הפקדות לקרן", "amount": "` + deposits + `"},
			{"description": "דמי ניהול", "amount": "-120"}
		]},
		"table_c": {"rows": [{"description": "דמי ניהול מחיסכון", "percent": "0.22%"}]},
		"table_d": {"rows": [
			{"track_name": "מסלול כללי", "return_percent": "8.25%"},
			{"track_name": "לבני 50 ומטה", "return_percent": ""}
		]},
		"table_e": {"rows": [
			{"employer_name": "Acme", "deposit_date": "15/01/2024", "salary_month": "01/2024", "salary": "10000", "employee_share": "100", "employer_share": "150", "severance": "50", "total": "300"},
			{"employer_name": "Acme", "deposit_date": "15/02/2024", "salary_month": "02/2024", "salary": "12000.4", "employee_share": "300", "employer_share": "350", "severance": "250", "total": "900"},
			{"employer_name": "סה\"כ", "deposit_date": "", "salary_month": "", "salary": "999", "employee_share": "0", "employer_share": "1200", "severance": "300", "total": "0"}
		]}
	}`
}

func textDocument(t *testing.T, text string) Document {
	t.Helper()
	doc, err := LoadDocument(context.Background(), models.SourceInfo{}, []byte(text))
	require.NoError(t, err)
	require.Equal(t, "txt", doc.Type)
	return doc
}

func TestRawTextLLM_Pass(t *testing.T) {
	oracle := &cannedOracle{output: shiftedSummary("1,200")}
	source, err := NewSource(StrategyLLMText, DefaultOptions(), oracle, nil)
	require.NoError(t, err)

	report, err := NewPipeline(source, DefaultOptions(), logger.NewNoOpLogger()).Run(context.Background(), textDocument(t, "תנועות בקרן\nהפקדות לקרן 1,200"))
	require.NoError(t, err)

	require.Len(t, oracle.prompts, 1)
	assert.Contains(t, oracle.prompts[0].Text, "הפקדות לקרן 1,200")

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "llm-text", report.Strategy)
	assert.Equal(t, "raw", report.Source)

	e := report.Tables.TableE.Rows
	require.Len(t, e, 3)
	summary := e[2]
	assert.Equal(t, models.SummaryName, summary.EmployerName)
	assert.Empty(t, summary.DepositDate)
	assert.Empty(t, summary.SalaryMonth)
	assert.Equal(t, "22000", summary.Salary.String())
	assert.Equal(t, "1200", summary.Total.String())
	assert.Equal(t, "300", summary.EmployerShare.String())
	assert.Equal(t, "0", summary.Severance.String())
	assert.Equal(t, "0", summary.EmployeeShare.String())

	require.Len(t, report.Tables.TableD.Rows, 1)
	assert.Equal(t, "מסלול כללי לבני 50 ומטה", report.Tables.TableD.Rows[0].TrackName)
	assert.Equal(t, 1, report.Repairs.TrackRowsMerged)
	assert.False(t, report.Repairs.DigitOrderReversed)

	assert.Equal(t, models.StatusPass, report.Verdict.Status)
	assert.Equal(t, "1200", report.Verdict.DepositB.String())
	assert.Equal(t, "1200", report.Verdict.DepositE.String())
}

func TestRawTextLLM_Fail(t *testing.T) {
	oracle := &cannedOracle{output: shiftedSummary("1,500")}
	source, err := NewSource(StrategyLLMText, DefaultOptions(), oracle, nil)
	require.NoError(t, err)

	report, err := NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, "statement text"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusFail, report.Verdict.Status)
	assert.Equal(t, "1500", report.Verdict.DepositB.String())
}

func TestRawTextLLM_Errors(t *testing.T) {
	t.Run("oracle failure", func(t *testing.T) {
		callErr := errors.New("503 service unavailable")
		source, err := NewSource(StrategyLLMText, DefaultOptions(), &cannedOracle{err: callErr}, nil)
		require.NoError(t, err)

		_, err = NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, "statement text"))
		assert.ErrorIs(t, err, callErr)
	})

	t.Run("malformed output", func(t *testing.T) {
		source, err := NewSource(StrategyLLMText, DefaultOptions(), &cannedOracle{output: "Sorry, I cannot help."}, nil)
		require.NoError(t, err)

		_, err = NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, "statement text"))
		assert.ErrorIs(t, err, llm.ErrMalformedOutput)
	})

	t.Run("missing tables", func(t *testing.T) {
		source, err := NewSource(StrategyLLMText, DefaultOptions(), &cannedOracle{output: `{"table_b": {"rows": []}}`}, nil)
		require.NoError(t, err)

		report, err := NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, "statement text"))
		require.NoError(t, err)
		assert.True(t, report.Tables.Empty())
		assert.Equal(t, models.StatusIndeterminate, report.Verdict.Status)
	})
}

func TestVisionLLM(t *testing.T) {
	page := `{"table_e": {"rows": [{"employer_name": "Acme", "deposit_date": "15/01/2024", "salary": "10000", "employee_share": "600", "employer_share": "650", "severance": "833", "total": "2083"}]},
		"table_b": {"rows": [{"description": "Deposits", "amount": "2,083"}]}}`
	oracle := &cannedOracle{output: page}
	source, err := NewSource(StrategyLLMVision, DefaultOptions(), oracle, nil)
	require.NoError(t, err)

	doc, err := LoadDocument(context.Background(), models.SourceInfo{}, pdftest.Build([]string{"Page one"}, []string{"Page two"}))
	require.NoError(t, err)

	report, err := NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, oracle.prompts, 2)
	for _, p := range oracle.prompts {
		assert.Len(t, p.Pages, 1)
		assert.Empty(t, p.Text)
	}

	e := report.Tables.TableE.Rows
	require.Len(t, e, 3)
	assert.Equal(t, "4166", e[2].Total.String())
	assert.Equal(t, "20000", e[2].Salary.String())
	assert.Len(t, report.Tables.TableB.Rows, 2)
	assert.Equal(t, models.StatusFail, report.Verdict.Status)
}

func TestVisionLLM_TextDocumentUsesText(t *testing.T) {
	oracle := &cannedOracle{output: shiftedSummary("1,200")}
	source, err := NewSource(StrategyLLMVision, DefaultOptions(), oracle, nil)
	require.NoError(t, err)

	_, err = NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, "statement text"))
	require.NoError(t, err)
	require.Len(t, oracle.prompts, 1)
	assert.Equal(t, "statement text", oracle.prompts[0].Text)
}

var statementLines = []string{
	"Fund movements",
	"Deposits 2,083",
	"Management fees -120",
	"Deposit details",
	"Acme 15/01/2024 01/2024 10,000 600 650 833 2,083",
}

func TestCoordinateHeuristic(t *testing.T) {
	source, err := NewSource(StrategyCoordinate, DefaultOptions(), nil, nil)
	require.NoError(t, err)

	doc, err := LoadDocument(context.Background(), models.SourceInfo{}, pdftest.Build(statementLines))
	require.NoError(t, err)
	require.Equal(t, "pdf", doc.Type)

	report, err := NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), doc)
	require.NoError(t, err)

	b := report.Tables.TableB.Rows
	require.Len(t, b, 2)
	assert.Equal(t, "2083", b[0].Amount.String())
	assert.Equal(t, "-120", b[1].Amount.String())

	e := report.Tables.TableE.Rows
	require.Len(t, e, 2)
	assert.Equal(t, "Acme", e[0].EmployerName)
	assert.Equal(t, "15/01/2024", e[0].DepositDate)
	assert.Equal(t, "2083", e[1].Total.String())
	assert.Equal(t, models.StatusPass, report.Verdict.Status)
}

func TestTextHeuristic(t *testing.T) {
	for _, strategy := range []Strategy{StrategyText, StrategyCoordinate} {
		t.Run(string(strategy), func(t *testing.T) {
			source, err := NewSource(strategy, DefaultOptions(), nil, nil)
			require.NoError(t, err)

			report, err := NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), textDocument(t, strings.Join(statementLines, "\n")))
			require.NoError(t, err)
			assert.Len(t, report.Tables.TableB.Rows, 2)
			assert.Equal(t, models.StatusPass, report.Verdict.Status)
		})
	}
}

func TestRepairRaw(t *testing.T) {
	p := NewPipeline(nil, DefaultOptions(), nil)

	report, err := p.RepairRaw(shiftedSummary("1,200"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPass, report.Verdict.Status)
	assert.Equal(t, "raw-json", report.Strategy)

	_, err = p.RepairRaw("")
	assert.ErrorIs(t, err, pdf.ErrNoInput)

	_, err = p.RepairRaw("not json")
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)
}

func TestRepairRaw_ExportedReportKeepsDigitRepair(t *testing.T) {
	p := NewPipeline(nil, DefaultOptions(), nil)
	output := `{"table_c": {"rows": [{"description": "דמי ניהול מחיסכון", "percent": "52.10"}]},
		"table_d": {"rows": [{"track_name": "מסלול כללי", "return_percent": "12.50"}]}}`

	first, err := p.RepairRaw(output)
	require.NoError(t, err)
	require.True(t, first.Repairs.DigitOrderReversed)
	assert.Equal(t, "12.05", first.Tables.TableD.Rows[0].ReturnPercent.String())

	exported, err := export.JSON(first)
	require.NoError(t, err)

	second, err := p.RepairRaw(string(exported))
	require.NoError(t, err)
	assert.True(t, second.Repairs.DigitOrderReversed)
	assert.Equal(t, "12.05", second.Tables.TableD.Rows[0].ReturnPercent.String())
	assert.Equal(t, "52.01", second.Tables.TableC.Rows[0].Percent.String())
}

func TestLoadDocument(t *testing.T) {
	_, err := LoadDocument(context.Background(), models.SourceInfo{}, []byte{})
	assert.ErrorIs(t, err, pdf.ErrNoInput)

	_, err = LoadDocument(context.Background(), models.SourceInfo{}, nil)
	assert.ErrorIs(t, err, pdf.ErrNoInput)

	doc, err := LoadDocument(context.Background(), models.SourceInfo{}, []byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	source, err := NewSource(StrategyText, DefaultOptions(), nil, nil)
	require.NoError(t, err)
	_, err = NewPipeline(source, DefaultOptions(), nil).Run(context.Background(), doc)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestStrategies(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStrategy("ocr")
	assert.Error(t, err)

	assert.True(t, StrategyLLMVision.NeedsOracle())
	assert.False(t, StrategyCoordinate.NeedsOracle())

	_, err = NewSource(StrategyLLMText, DefaultOptions(), nil, nil)
	assert.Error(t, err)
}
