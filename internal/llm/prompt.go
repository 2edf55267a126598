package llm

import "strings"

func stringProps(names ...string) map[string]any {
	props := make(map[string]any, len(names))
	for _, n := range names {
		props[n] = map[string]any{"type": "string"}
	}
	return props
}

func tableSchema(columns ...string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           stringProps(columns...),
					"required":             columns,
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"rows"},
		"additionalProperties": false,
	}
}

// TablesSchema is the response format requested from the model. Every cell
// is a string so that signs, separators and trailing zeros survive verbatim.
var TablesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"table_a": tableSchema("description", "amount"),
		"table_b": tableSchema("description", "amount"),
		"table_c": tableSchema("description", "percent"),
		"table_d": tableSchema("track_name", "return_percent"),
		"table_e": tableSchema("employer_name", "deposit_date", "salary_month", "salary",
			"employee_share", "employer_share", "severance", "total"),
	},
	"required":             []string{"table_a", "table_b", "table_c", "table_d", "table_e"},
	"additionalProperties": false,
}

const tableRules = `You are analysing an Israeli annual pension fund statement. Organise its data into the five tables of the JSON schema:

table_a - תשלומים צפויים (expected payments): description and amount of every expected payment.
table_b - תנועות בקרן (fund movements): every movement line, including the profit/loss line (הפסדים/רווחים) and every insurance component (disability and death).
table_c - שיעור דמי ניהול (management fee rates): description and percent of every fee.
table_d - מסלולי השקעה ותשואות (investment tracks and returns): track name and return percent.
table_e - פירוט הפקדות (deposit details): every deposit row holds deposit date, salary month, salary, employee share, employer share, severance and total, plus the employer name. Include the summary row (סה"כ) as printed.

Rules:
1. Do not round numbers. Copy every figure exactly as printed.
2. If a number carries a minus sign (-), keep it.
3. Leave a cell as an empty string when the statement has no value for it.
4. Keep Hebrew text as printed; do not translate.`

// TextInstructions builds the prompt for statement text extracted from a PDF.
func TextInstructions(text string) string {
	var b strings.Builder
	b.WriteString(tableRules)
	b.WriteString("\n\nRaw statement text:\n")
	b.WriteString(text)
	return b.String()
}

// VisionInstructions is the prompt sent alongside page images.
func VisionInstructions() string {
	return tableRules + "\n\nThe attached file is one page of the statement. Return only the rows printed on this page."
}
