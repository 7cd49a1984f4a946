// Package format renders backend values for display.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Money renders an amount as Turkish lira, e.g. "₺1.234,50". Negative amounts keep
// their sign in front of the symbol.
func Money(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	fixed := rounded.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "₺" + groupThousands(whole) + "," + frac
}

// MoneyASCII renders an amount for outputs limited to Latin-1, e.g. "1.234,50 TL".
func MoneyASCII(amount decimal.Decimal) string {
	return strings.Replace(Money(amount), "₺", "", 1) + " TL"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseAmount reads an operator-typed amount, accepting either "12.5" or "12,5".
// Blank input parses as zero with ok=false.
func ParseAmount(raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// DateTime renders a timestamp in local time; zero renders as "-".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02.01.2006 15:04")
}

// Date renders a calendar date as used by the report endpoints.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Active renders an active flag.
func Active(active bool) string {
	if active {
		return "Active"
	}
	return "Passive"
}
