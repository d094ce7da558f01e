package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatScientific renders a magnitude for display. Very large and very small
// values use a coefficient with two decimals and a power of ten; the rest are
// printed with thousands separators.
func FormatScientific(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e5 || abs <= 1e-5 {
		exp := int(math.Floor(math.Log10(abs)))
		coef := v / math.Pow(10, float64(exp))
		return fmt.Sprintf("%.2f×10^%d", coef, exp)
	}
	return groupThousands(v)
}

// HabitabilityLabel is the display text for the habitable flag.
func HabitabilityLabel(habitable bool) string {
	if habitable {
		return "habitable"
	}
	return "uninhabitable"
}

func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(frac) > 3 {
		frac = frac[:3]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		frac = strings.TrimRight(frac, "0")
		if frac != "" {
			b.WriteByte('.')
			b.WriteString(frac)
		}
	}
	return sign + b.String()
}
