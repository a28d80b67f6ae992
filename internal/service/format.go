package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

var thousandsFormats = map[int]string{
	2: "#,###.##",
	4: "#,###.####",
	6: "#,###.######",
}

// formatPrice renders four decimals below 1 and two otherwise, with
// thousands separators.
func formatPrice(v float64) string {
	if v < 1 {
		return formatThousands(v, 4)
	}
	return formatThousands(v, 2)
}

func formatThousands(v float64, decimals int) string {
	format, ok := thousandsFormats[decimals]
	if !ok {
		format = thousandsFormats[2]
	}
	return humanize.FormatFloat(format, v)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
