package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

// ErrMalformedOutput is returned when the model output is not JSON.
var ErrMalformedOutput = errors.New("model output is not valid JSON")

// ParseRaw reads the model's JSON into loosely typed rows. Missing tables
// become empty lists and numbers are kept as their literal text; only output
// that is not JSON at all is an error. An exported report is accepted too,
// and its repairs.digit_order_reversed flag is carried over.
func ParseRaw(output string) (models.RawExtraction, error) {
	body := stripCodeFence(output)
	if !gjson.Valid(body) {
		return models.RawExtraction{}, fmt.Errorf("%w: %.80q", ErrMalformedOutput, body)
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return models.RawExtraction{}, fmt.Errorf("%w: top level is not an object", ErrMalformedOutput)
	}

	return models.RawExtraction{
		TableA: rows(doc.Get("table_a")),
		TableB: rows(doc.Get("table_b")),
		TableC: rows(doc.Get("table_c")),
		TableD: rows(doc.Get("table_d")),
		TableE: rows(doc.Get("table_e")),

		DigitOrderReversed: doc.Get("repairs.digit_order_reversed").Bool(),
	}, nil
}

// rows accepts either {"rows": [...]} or a bare array.
func rows(table gjson.Result) []models.RawRow {
	list := table
	if !table.IsArray() {
		list = table.Get("rows")
	}
	if !list.IsArray() {
		return nil
	}

	var out []models.RawRow
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		row := models.RawRow{}
		item.ForEach(func(key, value gjson.Result) bool {
			switch value.Type {
			case gjson.Null:
				row[key.String()] = ""
			case gjson.Number:
				row[key.String()] = value.Raw
			default:
				row[key.String()] = value.String()
			}
			return true
		})
		out = append(out, row)
		return true
	})
	return out
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
