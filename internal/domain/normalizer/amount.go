package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount is a parsed amount cell.
type Amount struct {
	Text     string  // Raw cell rendered as text
	Value    float64 // Signed value, 0 when unparseable
	Negative bool    // Value < 0 or parenthesized notation
}

// ParseAmount parses a raw amount cell.
//
// Numeric cells are taken as-is. Text keeps only digits, '-', '.', ',',
// parentheses and currency symbols; a parenthesized value is negative;
// thousands separators and currency symbols are dropped before parsing.
// Unparseable text resolves to zero, with Negative reflecting parentheses only.
func ParseAmount(v any) Amount {
	amt := Amount{Text: cellText(v)}

	if f, ok := numericValue(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return amt
		}
		amt.Value = f
		amt.Negative = f < 0
		return amt
	}

	stripped := strings.Map(keepRune, amt.Text)
	// "₦(500)" and "(₦500)" are both parenthesized
	stripped = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, stripped)

	parenthesized := len(stripped) >= 2 && strings.HasPrefix(stripped, "(") && strings.HasSuffix(stripped, ")")
	if parenthesized {
		stripped = stripped[1 : len(stripped)-1]
	}
	stripped = strings.ReplaceAll(stripped, ",", "")

	d, err := decimal.NewFromString(stripped)
	if err != nil {
		amt.Negative = parenthesized
		return amt
	}

	f, _ := d.Float64()
	if parenthesized {
		f = -math.Abs(f)
	}
	if f == 0 {
		f = 0
	}
	amt.Value = f
	amt.Negative = f < 0 || parenthesized
	return amt
}

// keepRune is the allow-list applied to raw amount text.
func keepRune(r rune) rune {
	switch {
	case unicode.IsDigit(r):
		return r
	case r == '-', r == '.', r == ',', r == '(', r == ')':
		return r
	case unicode.Is(unicode.Sc, r):
		return r
	default:
		return -1
	}
}

// numericValue extracts a float from numeric cell types.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	}
	return 0, false
}

// cellText renders an untyped cell value as text.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.DateOnly)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
