package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var statementText = strings.Join([]string{
	"Fund movements",
	"Deposits 2,083",
	"Management fees -120",
	"Deposit details",
	"Acme 15/01/2024 01/2024 10,000 600 650 833 2,083",
}, "\n")

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtract_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.txt")
	require.NoError(t, os.WriteFile(path, []byte(statementText), 0o600))

	out, err := run(t, "", path, "--strategy", "text", "--log-level", "error")
	require.NoError(t, err)

	doc := gjson.Parse(out)
	assert.Equal(t, "PASS", doc.Get("validation.status").String())
	assert.Equal(t, "2083", doc.Get("table_b.rows.0.amount").String())
	assert.Equal(t, "text", doc.Get("strategy").String())
}

func TestExtract_StdinMarkdownToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.md")

	out, err := run(t, statementText, "-", "--strategy", "text", "--format", "markdown", "-o", target, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Validation:** PASS")
}

func TestExtract_Errors(t *testing.T) {
	_, err := run(t, "", "--strategy", "text", "--log-level", "error")
	assert.Error(t, err, "no input")

	_, err = run(t, "", filepath.Join(t.TempDir(), "missing.pdf"), "--strategy", "text", "--log-level", "error")
	assert.Error(t, err)

	_, err = run(t, statementText, "-", "--strategy", "ocr", "--log-level", "error")
	assert.Error(t, err)
}

func TestRepair(t *testing.T) {
	output := `{"table_b": {"rows": [{"description": "הפקדות לקרן", "amount": "2,083"}]},
		"table_e": {"rows": [
			{"employer_name": "Acme", "deposit_date": "15/01/2024", "salary": "10000", "employee_share": "600", "employer_share": "650", "severance": "833", "total": "2083"}
		]}}`

	out, err := run(t, output, "repair", "-", "--log-level", "error")
	require.NoError(t, err)

	doc := gjson.Parse(out)
	assert.Equal(t, "PASS", doc.Get("validation.status").String())
	assert.Equal(t, "raw-json", doc.Get("strategy").String())
	assert.Equal(t, "2083", doc.Get("table_e.rows.1.total").String())
}
