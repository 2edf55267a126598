package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tok(x0 float64, text string) PositionedToken {
	return PositionedToken{Page: 1, X0: x0, Y0: 100, X1: x0 + 20, Y1: 110, Text: text}
}

func TestLineTextLTR(t *testing.T) {
	line := Line{Page: 1, Tokens: []PositionedToken{tok(10, "Equity"), tok(50, "Abroad"), tok(90, "12.5%")}}

	assert.False(t, line.RTL())
	assert.Equal(t, "Equity Abroad 12.5%", line.Text())
}

func TestLineTextRTL(t *testing.T) {
	// Stored left to right as they appear on the page.
	line := Line{Page: 1, Tokens: []PositionedToken{
		tok(10, "4,321.50"),
		tok(60, "חודשית"),
		tok(110, "קצבה"),
	}}

	assert.True(t, line.RTL())
	assert.Equal(t, "קצבה חודשית 4,321.50", line.Text())

	nums := line.Numbers()
	require.Len(t, nums, 1)
	assert.Equal(t, "4,321.50", nums[0].Raw)
	assert.InDelta(t, 10, nums[0].X, 1e-9)
}

func TestLineNumbersCarryTokenX(t *testing.T) {
	line := Line{Page: 1, Tokens: []PositionedToken{tok(10, "Deposits"), tok(80, "12,000"), tok(140, "600")}}

	nums := line.Numbers()
	require.Len(t, nums, 2)
	assert.InDelta(t, 80, nums[0].X, 1e-9)
	assert.InDelta(t, 140, nums[1].X, 1e-9)
	assert.InDelta(t, 12000, nums[0].Value, 1e-9)
}

func TestLineGeometry(t *testing.T) {
	line := Line{Tokens: []PositionedToken{
		{Y0: 10, Y1: 20, Text: "a"},
		{Y0: 12, Y1: 22, Text: "b"},
	}}
	assert.InDelta(t, 16, line.YMid(), 1e-9)
	assert.InDelta(t, 10, line.Y0(), 1e-9)
	assert.Zero(t, Line{}.YMid())
}

func TestDepositRowIsSummary(t *testing.T) {
	assert.True(t, DepositRow{EmployerName: SummaryName}.IsSummary())
	assert.True(t, DepositRow{EmployerName: `סה"כ`}.IsSummary())
	assert.True(t, DepositRow{EmployerName: "סה״כ הפקדות"}.IsSummary())
	assert.False(t, DepositRow{EmployerName: "אקמה בע\"מ", DepositDate: "15/01/2024"}.IsSummary())
}

func TestSourceInfoLabel(t *testing.T) {
	assert.Equal(t, "zotero:ABC123", SourceInfo{ZoteroID: "ABC123"}.Label())
	assert.Equal(t, "statement.pdf", SourceInfo{Path: "statement.pdf"}.Label())
	assert.Equal(t, "raw", SourceInfo{}.Label())
}
