package pdf

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

// defaultPageHeight is US Letter, used when a page has no readable MediaBox.
const defaultPageHeight = 792.0

func open(data models.PdfData) (r *pdfreader.Reader, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, p)
		}
	}()
	r, err = pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	return r, nil
}

// Tokens reads every word on every page with its bounding box, y measured
// from the top of the page. It also returns the page count.
func Tokens(data models.PdfData) (tokens []models.PositionedToken, pageCount int, err error) {
	r, err := open(data)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if p := recover(); p != nil {
			tokens, err = nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, p)
		}
	}()

	pageCount = r.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		tokens = append(tokens, words(i, pageHeight(page), page.Content().Text)...)
	}
	return tokens, pageCount, nil
}

func pageHeight(page pdfreader.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return defaultPageHeight
}

// words merges glyph runs into word tokens. A glyph extends the current word
// when it sits on the same baseline and touches either edge of it; whitespace
// ends the word.
func words(page int, height float64, glyphs []pdfreader.Text) []models.PositionedToken {
	var out []models.PositionedToken
	var cur *models.PositionedToken
	var curY float64
	var b strings.Builder

	flush := func() {
		if cur != nil && strings.TrimSpace(b.String()) != "" {
			cur.Text = b.String()
			out = append(out, *cur)
		}
		cur = nil
		b.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if strings.IndexFunc(g.S, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
			flush()
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		gap := math.Max(size*0.3, 1)
		x0, x1 := g.X, g.X+g.W
		if cur != nil {
			sameLine := math.Abs(g.Y-curY) <= size*0.2
			touches := (x0 >= cur.X0-gap && x0 <= cur.X1+gap) || (x1 >= cur.X0-gap && x1 <= cur.X1+gap)
			if !sameLine || !touches {
				flush()
			}
		}
		if cur == nil {
			cur = &models.PositionedToken{
				Page: page,
				X0:   x0,
				X1:   x1,
				Y0:   height - (g.Y + size),
				Y1:   height - g.Y,
			}
			curY = g.Y
		} else {
			cur.X0 = math.Min(cur.X0, x0)
			cur.X1 = math.Max(cur.X1, x1)
		}
		b.WriteString(g.S)
	}
	flush()
	return out
}

// PageTexts returns the text of each page, one text row per line.
func PageTexts(data models.PdfData) (texts []string, err error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			texts, err = nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, p)
		}
	}()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadablePDF, i, err)
		}
		var sb strings.Builder
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) == 0 {
				continue
			}
			// Rows come back in x order; right-to-left rows read the other way.
			if models.IsRTL(strings.Join(parts, "")) {
				slices.Reverse(parts)
			}
			sb.WriteString(strings.Join(parts, " "))
			sb.WriteByte('\n')
		}
		texts = append(texts, sb.String())
	}
	return texts, nil
}
