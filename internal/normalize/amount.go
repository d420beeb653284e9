package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary cell value into a signed decimal. Currency
// symbols, currency codes and thousands separators are stripped. A debit is
// denoted by a leading minus, surrounding parentheses, or a trailing "DR".
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		neg = true
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}

	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasSuffix(upper, "DR"):
		neg = true
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-2])
	case strings.HasSuffix(upper, "CR"):
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-2])
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		case r == ',', r == ' ', unicode.IsSymbol(r), unicode.IsLetter(r):
			// thousands separators, currency symbols and codes
		default:
			return decimal.Decimal{}, fmt.Errorf("unexpected character %q in amount %q", r, s)
		}
	}

	cleaned := b.String()
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unrecognized amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// looksNumeric reports whether a cell value parses as an amount. Used by the
// positional column heuristic.
func looksNumeric(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := ParseAmount(s)
	return err == nil
}
