// Package coerce turns raw spreadsheet cell values into typed values. None of
// its functions fail: malformed input yields the zero value.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Row is one sheet row: nil, string, float64, int, bool, time.Time or decimal.Decimal per cell.
type Row []any

const DefaultTextLen = 300

var trueWords = map[string]struct{}{
	"yes": {}, "true": {}, "1": {}, "y": {}, "x": {},
}

var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Cell returns row[idx], or nil when idx is out of range or the cell holds an
// unevaluated formula.
func Cell(row Row, idx int) any {
	return CellOr(row, idx, nil)
}

func CellOr(row Row, idx int, def any) any {
	if idx < 0 || idx >= len(row) {
		return def
	}
	v := row[idx]
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
		return def
	}
	return v
}

// String renders v the way it would read in the sheet. nil becomes "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	case decimal.Decimal:
		return x.String()
	default:
		return ""
	}
}

// Trimmed is String(v) without surrounding whitespace.
func Trimmed(v any) string {
	return strings.TrimSpace(String(v))
}

func IsBlank(v any) bool {
	return Trimmed(v) == ""
}

// Currency strips "$", thousands separators and whitespace. Blank, "-" and
// unparseable values are zero.
func Currency(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	}
	s := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, String(v))
	if s == "" || s == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Float parses v as a plain number, zero on failure.
func Float(v any) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	}
	s := strings.TrimSpace(strings.ReplaceAll(String(v), ",", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int truncates toward zero after a float parse.
func Int(v any) int {
	f := Float(v)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

// Text trims v and cuts it to maxLen runes. Blank and "none" become "".
func Text(v any, maxLen int) string {
	s := Trimmed(v)
	if s == "" || strings.EqualFold(s, "none") {
		return ""
	}
	return truncate(s, maxLen)
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

func Bool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	_, ok := trueWords[strings.ToLower(Trimmed(v))]
	return ok
}

// Date accepts time.Time values and strings in one of the known layouts.
// The result is truncated to a UTC calendar date.
func Date(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return nil
		}
		d := dateOnly(t)
		return &d
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := dateOnly(t)
			return &d
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateValue dereferences Date(v), returning the zero time when absent.
func DateValue(v any) time.Time {
	if d := Date(v); d != nil {
		return *d
	}
	return time.Time{}
}
