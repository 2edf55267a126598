// Package export renders a report as JSON, Markdown tables or HTML.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatMarkdown, FormatHTML}

// Validation is the verdict as it appears in exported JSON.
type Validation struct {
	Status   models.Status  `json:"status"`
	DepositB numeric.Amount `json:"deposit_b"`
	DepositE numeric.Amount `json:"deposit_e"`
	Message  string         `json:"message"`
}

// Document is the exported JSON shape: the five tables at the top level, so
// that it matches the model output schema, plus the verdict.
type Document struct {
	models.TableSet
	Validation Validation     `json:"validation"`
	Repairs    models.Repairs `json:"repairs"`
	RunID      string         `json:"run_id,omitempty"`
	Source     string         `json:"source,omitempty"`
	Strategy   string         `json:"strategy,omitempty"`
}

func NewDocument(report *models.Report) Document {
	return Document{
		TableSet: report.Tables,
		Validation: Validation{
			Status:   report.Verdict.Status,
			DepositB: report.Verdict.DepositB,
			DepositE: report.Verdict.DepositE,
			Message:  report.Verdict.Message(),
		},
		Repairs:  report.Repairs,
		RunID:    report.RunID,
		Source:   report.Source,
		Strategy: report.Strategy,
	}
}

func JSON(report *models.Report) ([]byte, error) {
	return json.MarshalIndent(NewDocument(report), "", "  ")
}

type table struct {
	title   string
	headers []string
	rows    [][]string
}

func tables(ts models.TableSet) []table {
	a := table{title: "A. תשלומים צפויים (Expected payments)", headers: []string{"Description", "Amount"}}
	for _, r := range ts.TableA.Rows {
		a.rows = append(a.rows, []string{r.Description, r.Amount.String()})
	}
	b := table{title: "B. תנועות בקרן (Fund movements)", headers: []string{"Description", "Amount"}}
	for _, r := range ts.TableB.Rows {
		b.rows = append(b.rows, []string{r.Description, r.Amount.String()})
	}
	c := table{title: "C. דמי ניהול (Management fee rates)", headers: []string{"Description", "Percent"}}
	for _, r := range ts.TableC.Rows {
		c.rows = append(c.rows, []string{r.Description, percent(r.Percent)})
	}
	d := table{title: "D. מסלולי השקעה ותשואות (Investment tracks)", headers: []string{"Track", "Return"}}
	for _, r := range ts.TableD.Rows {
		d.rows = append(d.rows, []string{r.TrackName, percent(r.ReturnPercent)})
	}
	e := table{
		title:   "E. פירוט הפקדות (Deposit details)",
		headers: []string{"Employer", "Deposit date", "Salary month", "Salary", "Employee", "Employer share", "Severance", "Total"},
	}
	for _, r := range ts.TableE.Rows {
		e.rows = append(e.rows, []string{
			r.EmployerName, r.DepositDate, r.SalaryMonth, r.Salary.String(),
			r.EmployeeShare.String(), r.EmployerShare.String(), r.Severance.String(), r.Total.String(),
		})
	}
	return []table{a, b, c, d, e}
}

func percent(a numeric.Amount) string {
	if a.IsEmpty() {
		return ""
	}
	return a.String() + "%"
}

// Markdown renders the verdict and the five tables as GFM tables with 1-based
// row numbers. Empty tables are noted rather than omitted.
func Markdown(report *models.Report) string {
	var builder strings.Builder

	builder.WriteString("# Pension statement\n\n")
	builder.WriteString(fmt.Sprintf("**Validation:** %s\n\n", report.Verdict.Message()))
	if report.Repairs.DigitOrderReversed {
		builder.WriteString("_Fee and return percentages had their fractional digits reversed._\n\n")
	}

	for _, t := range tables(report.Tables) {
		builder.WriteString("## " + t.title + "\n\n")
		if len(t.rows) == 0 {
			builder.WriteString("_No rows._\n\n")
			continue
		}
		builder.WriteString("| # | " + strings.Join(t.headers, " | ") + " |\n")
		builder.WriteString("|---|" + strings.Repeat("---|", len(t.headers)) + "\n")
		for i, row := range t.rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				cells[j] = escapeCell(cell)
			}
			builder.WriteString(fmt.Sprintf("| %d | %s |\n", i+1, strings.Join(cells, " | ")))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func escapeCell(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders the Markdown report as a right-to-left HTML fragment.
func HTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div dir="rtl" lang="he">` + "\n")
	if err := markdown.Convert([]byte(Markdown(report)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	buf.WriteString("</div>\n")
	return buf.String(), nil
}

// Render produces the report in the named format.
func Render(format string, report *models.Report) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		data, err := JSON(report)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatMarkdown, "md":
		return Markdown(report), nil
	case FormatHTML:
		return HTML(report)
	}
	return "", fmt.Errorf("unsupported format: %s (expected json, markdown or html)", format)
}
