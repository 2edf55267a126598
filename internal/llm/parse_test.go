package llm

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
)

func TestParseRaw(t *testing.T) {
	output := "```json\n" + `{
		"table_a": {"rows": [{"description": "קצבה חודשית", "amount": "4,321.50"}]},
		"table_b": {"rows": [{"description": "הפקדות", "amount": 12000}, {"description": "דמי ניהול", "amount": null}]},
		"table_d": [{"track": "Equity Abroad", "return": "12.5%"}],
		"table_e": {"rows": ["not a row", {"employer_name": "סה\"כ", "total": "2,083"}]}
	}` + "\n```"

	raw, err := ParseRaw(output)
	require.NoError(t, err)

	require.Len(t, raw.TableA, 1)
	assert.Equal(t, "4,321.50", raw.TableA[0]["amount"])

	require.Len(t, raw.TableB, 2)
	assert.Equal(t, "12000", raw.TableB[0]["amount"])
	assert.Equal(t, "", raw.TableB[1]["amount"])

	assert.Empty(t, raw.TableC)

	require.Len(t, raw.TableD, 1)
	assert.Equal(t, "Equity Abroad", raw.TableD[0].Get("track_name", "track"))

	require.Len(t, raw.TableE, 1)
	assert.Equal(t, "2,083", raw.TableE[0]["total"])
	assert.False(t, raw.DigitOrderReversed)
}

func TestParseRawExportedRepairs(t *testing.T) {
	raw, err := ParseRaw(`{"table_c": {"rows": [{"description": "מחיסכון", "percent": "52.01"}]},
		"repairs": {"digit_order_reversed": true, "track_rows_merged": 0}}`)
	require.NoError(t, err)
	assert.True(t, raw.DigitOrderReversed)
	require.Len(t, raw.TableC, 1)
}

func TestParseRawMalformed(t *testing.T) {
	for _, in := range []string{"", "I could not read the statement.", `["not", "an", "object"]`, `{"table_a": `} {
		_, err := ParseRaw(in)
		assert.ErrorIs(t, err, ErrMalformedOutput, "input %q", in)
	}
}

func TestParseRawEmptyObject(t *testing.T) {
	raw, err := ParseRaw("{}")
	require.NoError(t, err)
	assert.Empty(t, raw.TableA)
	assert.Empty(t, raw.TableE)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}

func TestInstructions(t *testing.T) {
	prompt := TextInstructions("שורה 1")
	assert.True(t, strings.HasSuffix(prompt, "שורה 1"))
	assert.Contains(t, prompt, "Do not round numbers")
	assert.Contains(t, VisionInstructions(), "one page")
}

func TestOpenAIOracle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	oracle := NewOpenAIOracle(apiKey, "", logger.NewNoOpLogger())
	out, err := oracle.Extract(context.Background(), Prompt{Text: "תנועות בקרן\nהפקדות לקרן 12,000\nפירוט הפקדות\nסה\"כ 12,000"})
	require.NoError(t, err)

	raw, err := ParseRaw(out)
	require.NoError(t, err)
	assert.NotEmpty(t, raw.TableB)
}

func TestOpenAIOracle_EmptyPrompt(t *testing.T) {
	oracle := NewOpenAIOracle("test-key", "", logger.NewNoOpLogger())
	_, err := oracle.Extract(context.Background(), Prompt{})
	assert.Error(t, err)
}
