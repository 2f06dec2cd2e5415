package format

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	rupeeSymbol  = "₹"
	zeroCurrency = rupeeSymbol + "0"
)

// Currency renders amount as Indian rupees with lakh/crore grouping
// ("₹1,23,456", "₹99.50"). Anything that is not a finite number renders as
// "₹0". It never panics.
func Currency(amount any) string {
	d, ok := toDecimal(amount)
	if !ok {
		return zeroCurrency
	}
	return formatRupees(d)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case decimal.NullDecimal:
		return x.Decimal, x.Valid
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return fromString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		return decimal.NewFromInt(int64(x)), true
	case uint16:
		return decimal.NewFromInt(int64(x)), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint64:
		return fromString(strconv.FormatUint(x, 10))
	case float32:
		return fromFloat32(x)
	case float64:
		return fromFloat(x)
	case *float32:
		if x == nil {
			return decimal.Zero, false
		}
		return fromFloat32(*x)
	case *float64:
		if x == nil {
			return decimal.Zero, false
		}
		return fromFloat(*x)
	case *int:
		if x == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(*x)), true
	case *int64:
		if x == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(*x), true
	case json.Number:
		return fromString(x.String())
	case string:
		return fromString(x)
	case *string:
		if x == nil {
			return decimal.Zero, false
		}
		return fromString(*x)
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// fromFloat32 keeps the shortest float32 representation, so 0.1 stays 0.1.
func fromFloat32(f float32) (decimal.Decimal, bool) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat32(f), true
}

func fromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func formatRupees(d decimal.Decimal) string {
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	var whole, frac string
	if d.Equal(d.Truncate(0)) {
		whole = d.Truncate(0).String()
	} else {
		fixed := d.StringFixed(2)
		whole, frac, _ = strings.Cut(fixed, ".")
	}

	out := sign + rupeeSymbol + groupIndian(whole)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// groupIndian inserts separators the en-IN way: the last three digits form
// one group, every group before them has two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return strings.Join(append(groups, tail), ",")
}
