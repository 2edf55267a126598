package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

func token(page int, x0, y0, y1 float64, text string) models.PositionedToken {
	return models.PositionedToken{Page: page, X0: x0, Y0: y0, X1: x0 + 30, Y1: y1, Text: text}
}

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []models.PositionedToken
		opts      Options
		wantPages int
		wantLines [][]string
	}{
		{
			name: "two lines on one page",
			tokens: []models.PositionedToken{
				token(1, 100, 20, 30, "world"),
				token(1, 10, 20, 30, "hello"),
				token(1, 10, 50, 60, "second"),
			},
			opts:      DefaultOptions(),
			wantPages: 1,
			wantLines: [][]string{{"hello world", "second"}},
		},
		{
			name: "token exactly at tolerance joins",
			tokens: []models.PositionedToken{
				token(1, 10, 8, 12, "a"),  // mid 10
				token(1, 50, 11, 15, "b"), // mid 13
			},
			opts:      DefaultOptions(),
			wantPages: 1,
			wantLines: [][]string{{"a b"}},
		},
		{
			name: "token beyond tolerance starts a new line",
			tokens: []models.PositionedToken{
				token(1, 10, 8, 12, "a"),    // mid 10
				token(1, 50, 11.5, 15, "b"), // mid 13.25
			},
			opts:      DefaultOptions(),
			wantPages: 1,
			wantLines: [][]string{{"a", "b"}},
		},
		{
			name: "running mean absorbs gradual drift",
			tokens: []models.PositionedToken{
				token(1, 10, 8, 12, "a"),  // mid 10
				token(1, 40, 10, 14, "b"), // mid 12, mean 11
				token(1, 70, 12, 16, "c"), // mid 14, within 3 of 11
			},
			opts:      DefaultOptions(),
			wantPages: 1,
			wantLines: [][]string{{"a b c"}},
		},
		{
			name: "pages ascending with empty page kept",
			tokens: []models.PositionedToken{
				token(3, 10, 10, 20, "three"),
				token(1, 10, 10, 20, "one"),
			},
			opts:      Options{Tolerance: 3, PageCount: 3},
			wantPages: 3,
			wantLines: [][]string{{"one"}, nil, {"three"}},
		},
		{
			name: "blank tokens ignored",
			tokens: []models.PositionedToken{
				token(1, 10, 10, 20, " "),
				token(1, 40, 10, 20, "x"),
			},
			opts:      DefaultOptions(),
			wantPages: 1,
			wantLines: [][]string{{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := GroupLines(tt.tokens, tt.opts)
			require.Len(t, pages, tt.wantPages)
			for i, page := range pages {
				var got []string
				for _, line := range page.Lines {
					got = append(got, line.Text())
				}
				assert.Equal(t, tt.wantLines[i], got, "page %d", page.Number)
			}
		})
	}
}

func TestGroupLinesParallelMatchesSequential(t *testing.T) {
	var tokens []models.PositionedToken
	for page := 1; page <= 5; page++ {
		for row := 0; row < 10; row++ {
			y := float64(row * 20)
			tokens = append(tokens,
				token(page, 200, y, y+10, "right"),
				token(page, 10, y, y+10, "left"),
			)
		}
	}

	sequential := GroupLines(tokens, DefaultOptions())
	opts := DefaultOptions()
	opts.Parallel = true
	parallel := GroupLines(tokens, opts)

	assert.Equal(t, sequential, parallel)
	require.Len(t, parallel, 5)
	for i, page := range parallel {
		assert.Equal(t, i+1, page.Number)
		assert.Len(t, page.Lines, 10)
	}
}

func TestGroupLinesNoTokens(t *testing.T) {
	assert.Empty(t, GroupLines(nil, DefaultOptions()))
}

func TestLinesFromText(t *testing.T) {
	lines := LinesFromText(2, "first\n\n  second  \r\nthird")
	require.Len(t, lines, 3)
	assert.Equal(t, "second", lines[1].Text())
	assert.Equal(t, 2, lines[1].Page)
	assert.InDelta(t, 1, lines[1].YMid(), 1e-9)

	pages := PagesFromText([]string{"a", "", "b"})
	require.Len(t, pages, 3)
	assert.Empty(t, pages[1].Lines)
	assert.Equal(t, 3, pages[2].Number)
	assert.Len(t, Flatten(pages), 2)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "rtl", Direction("דמי ניהול"))
	assert.Equal(t, "ltr", Direction("Management fees 0.25%"))
}
