package numeric

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// minusReplacer maps the dash and minus glyphs found in statements to ASCII '-'.
var minusReplacer = strings.NewReplacer(
	"−", "-", // minus sign
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"﹣", "-", // small hyphen-minus
	"－", "-", // fullwidth hyphen-minus
)

// MinusGlyphs lists every rune treated as a minus sign.
const MinusGlyphs = "-−‐‑‒–—―﹣－"

var (
	numberPattern = regexp.MustCompile(`\(?[-\x{2010}-\x{2015}\x{2212}]?\d{1,3}(?:,\d{3})+(?:\.\d+)?(?:\s?%)?\)?|\(?[-\x{2010}-\x{2015}\x{2212}]?\d+(?:\.\d+)?(?:\s?%)?\)?`)
	datePattern   = regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b`)
	fractionPat   = regexp.MustCompile(`(\d+)\.(\d+)`)
)

// Clean reduces a numeric cell to the characters strconv can parse: digits,
// a single dot and a leading minus. It returns "" when nothing numeric is left
// or the text is not a single well-formed number.
func Clean(text string) string {
	s := norm.NFKC.String(text)
	s = minusReplacer.Replace(strings.TrimSpace(s))

	negative := strings.Contains(s, "(") && strings.Contains(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	s = b.String()

	// A trailing minus comes from visual right-to-left ordering.
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasSuffix(s, "-") {
		negative = true
		s = s[:len(s)-1]
	}
	if strings.Contains(s, "-") || strings.Count(s, ".") > 1 {
		return ""
	}
	if s == "" || s == "." {
		return ""
	}
	if negative {
		return "-" + s
	}
	return s
}

// Normalize converts free-form numeric text to a float. Placeholders and
// unparseable text yield 0.
func Normalize(text string) float64 {
	s := Clean(text)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseAmount is Normalize for decimal cells: placeholders produce an empty
// Amount and the source precision is kept.
func ParseAmount(text string) Amount {
	s := Clean(text)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// Match is one numeric token found in a line of text.
type Match struct {
	Raw     string
	Start   int
	End     int
	Value   float64
	Percent bool
}

func (m Match) Amount() Amount {
	return ParseAmount(m.Raw)
}

// DigitStart is the byte offset of the first digit of the match.
func (m Match) DigitStart() int {
	for i, r := range m.Raw {
		if r >= '0' && r <= '9' {
			return m.Start + i
		}
	}
	return m.Start
}

// FindNumbers scans text for numeric tokens in text order. Thousands
// separators, parentheses, a leading minus glyph and a percent sign are kept
// as part of the match.
func FindNumbers(text string) []Match {
	locs := numberPattern.FindAllStringIndex(text, -1)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		raw := text[loc[0]:loc[1]]
		// An opening parenthesis without its partner belongs to the prose.
		if strings.HasPrefix(raw, "(") && !strings.HasSuffix(raw, ")") {
			raw = raw[1:]
			loc[0]++
		} else if strings.HasSuffix(raw, ")") && !strings.HasPrefix(raw, "(") {
			raw = raw[:len(raw)-1]
			loc[1]--
		}
		matches = append(matches, Match{
			Raw:     raw,
			Start:   loc[0],
			End:     loc[1],
			Value:   Normalize(raw),
			Percent: strings.Contains(raw, "%"),
		})
	}
	return matches
}

// StripDates blanks out date spans while keeping byte offsets stable.
func StripDates(text string) string {
	return datePattern.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
}

// ReverseFraction reverses the fractional digits of every decimal in text,
// leaving sign, integer part and any suffix untouched: "12.50%" -> "12.05%".
func ReverseFraction(text string) string {
	return fractionPat.ReplaceAllStringFunc(text, func(s string) string {
		parts := fractionPat.FindStringSubmatch(s)
		frac := []byte(parts[2])
		for i, j := 0, len(frac)-1; i < j; i, j = i+1, j-1 {
			frac[i], frac[j] = frac[j], frac[i]
		}
		return parts[1] + "." + string(frac)
	})
}

// ReverseFraction applies the package-level ReverseFraction to the amount's
// rendered text.
func (a Amount) ReverseFraction() Amount {
	if !a.valid {
		return a
	}
	return ParseAmount(ReverseFraction(a.String()))
}
