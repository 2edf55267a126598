package models

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/bidi"

	"github.com/Epistemic-Technology/pension-mcp/internal/numeric"
)

// PositionedToken is a word on a page with its bounding box. Y grows downward
// from the top of the page.
type PositionedToken struct {
	Page int     `json:"page"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Text string  `json:"text"`
}

func (t PositionedToken) YMid() float64 {
	return (t.Y0 + t.Y1) / 2
}

// Line is a visual row of tokens, stored left to right.
type Line struct {
	Page   int
	Tokens []PositionedToken
}

// Page holds the lines of one page in top-to-bottom order.
type Page struct {
	Number int
	Lines  []Line
}

// NumberAt is a numeric token on a line together with the left edge of the
// token it was read from.
type NumberAt struct {
	numeric.Match
	X float64
}

// IsRTL reports whether text contains a strong right-to-left character.
func IsRTL(text string) bool {
	for i := 0; i < len(text); {
		props, size := bidi.LookupString(text[i:])
		if size == 0 {
			break
		}
		switch props.Class() {
		case bidi.R, bidi.AL:
			return true
		}
		i += size
	}
	return false
}

// RTL reports whether the line reads right to left.
func (l Line) RTL() bool {
	for _, t := range l.Tokens {
		if IsRTL(t.Text) {
			return true
		}
	}
	return false
}

// ordered returns the tokens in reading order.
func (l Line) ordered() []PositionedToken {
	tokens := make([]PositionedToken, len(l.Tokens))
	copy(tokens, l.Tokens)
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].X0 < tokens[j].X0 })
	if l.RTL() {
		for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
			tokens[i], tokens[j] = tokens[j], tokens[i]
		}
	}
	return tokens
}

// Text joins the tokens in logical reading order.
func (l Line) Text() string {
	text, _ := l.textWithSpans()
	return text
}

func (l Line) textWithSpans() (string, []tokenSpan) {
	var b strings.Builder
	var spans []tokenSpan
	for _, t := range l.ordered() {
		s := strings.TrimSpace(t.Text)
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		start := b.Len()
		b.WriteString(s)
		spans = append(spans, tokenSpan{start: start, end: b.Len(), x: t.X0})
	}
	return b.String(), spans
}

type tokenSpan struct {
	start, end int
	x          float64
}

// Numbers returns the numeric tokens of Text() in text order.
func (l Line) Numbers() []NumberAt {
	text, spans := l.textWithSpans()
	matches := numeric.FindNumbers(text)
	out := make([]NumberAt, 0, len(matches))
	for _, m := range matches {
		n := NumberAt{Match: m}
		for _, sp := range spans {
			if m.Start >= sp.start && m.Start < sp.end {
				n.X = sp.x
				break
			}
		}
		out = append(out, n)
	}
	return out
}

func (l Line) YMid() float64 {
	if len(l.Tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range l.Tokens {
		sum += t.YMid()
	}
	return sum / float64(len(l.Tokens))
}

// Y0 is the top edge of the line.
func (l Line) Y0() float64 {
	if len(l.Tokens) == 0 {
		return 0
	}
	y := l.Tokens[0].Y0
	for _, t := range l.Tokens[1:] {
		if t.Y0 < y {
			y = t.Y0
		}
	}
	return y
}
