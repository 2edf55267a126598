package layout

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

// DefaultTolerance is the vertical distance, in points, within which a token
// still belongs to the current line.
const DefaultTolerance = 3.0

type Options struct {
	// Tolerance is compared against the distance between a token's vertical
	// midpoint and the running mean of the open line.
	Tolerance float64
	// PageCount, when positive, makes every page from 1 to PageCount appear in
	// the result even if it has no tokens.
	PageCount int
	// Parallel groups pages concurrently.
	Parallel bool
}

func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance}
}

// GroupLines clusters positioned tokens into visual lines, page by page.
// Pages are returned in ascending order and lines top to bottom.
func GroupLines(tokens []models.PositionedToken, opts Options) []models.Page {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	byPage := make(map[int][]models.PositionedToken)
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		byPage[t.Page] = append(byPage[t.Page], t)
	}

	numbers := make([]int, 0, len(byPage))
	for n := range byPage {
		numbers = append(numbers, n)
	}
	for n := 1; n <= opts.PageCount; n++ {
		if _, ok := byPage[n]; !ok {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	pages := make([]models.Page, len(numbers))
	if !opts.Parallel {
		for i, n := range numbers {
			pages[i] = groupPage(n, byPage[n], opts.Tolerance)
		}
		return pages
	}

	var wg sync.WaitGroup
	for i, n := range numbers {
		wg.Add(1)
		go func(i, n int) {
			defer wg.Done()
			pages[i] = groupPage(n, byPage[n], opts.Tolerance)
		}(i, n)
	}
	wg.Wait()
	return pages
}

func groupPage(number int, tokens []models.PositionedToken, tolerance float64) models.Page {
	page := models.Page{Number: number}
	if len(tokens) == 0 {
		return page
	}

	sorted := make([]models.PositionedToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var current []models.PositionedToken
	var mean float64
	for _, t := range sorted {
		mid := t.YMid()
		if len(current) > 0 && math.Abs(mid-mean) <= tolerance {
			current = append(current, t)
			mean += (mid - mean) / float64(len(current))
			continue
		}
		if len(current) > 0 {
			page.Lines = append(page.Lines, closeLine(number, current))
		}
		current = []models.PositionedToken{t}
		mean = mid
	}
	page.Lines = append(page.Lines, closeLine(number, current))

	// A line's top edge can sit above a line that was opened earlier when
	// token heights differ, so restore top-to-bottom order.
	sort.SliceStable(page.Lines, func(i, j int) bool {
		return page.Lines[i].YMid() < page.Lines[j].YMid()
	})
	return page
}

func closeLine(page int, tokens []models.PositionedToken) models.Line {
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].X0 < tokens[j].X0 })
	return models.Line{Page: page, Tokens: tokens}
}

// Flatten returns every line of every page in document order.
func Flatten(pages []models.Page) []models.Line {
	var lines []models.Line
	for _, p := range pages {
		lines = append(lines, p.Lines...)
	}
	return lines
}
