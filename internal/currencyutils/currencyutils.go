// Package currencyutils normalizes amount strings into signed decimals and
// maps currency symbols onto ISO codes.
package currencyutils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned for blank amount cells.
var ErrEmptyAmount = errors.New("empty amount")

// symbol is one entry of the currency symbol table. Multi-character symbols
// come first so that "A$" is not read as "$".
type symbol struct {
	Symbol string
	Code   string
}

var symbols = []symbol{
	{"A$", "AUD"},
	{"C$", "CAD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"₽", "RUB"},
	{"₣", "CHF"},
}

// ParseAmount parses a loosely formatted amount into a signed decimal.
//
// Currency symbols, codes and spaces are ignored. A value wrapped in
// parentheses is negative regardless of any minus sign, as is any value
// carrying a minus. Both "1,234.56" and "1.234,56" are understood.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.Contains(s, "-") {
		negative = true
	}

	standardized := StandardizeAmount(s)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': no digits", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	amount = amount.Abs()
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// StandardizeAmount reduces an amount string to an unsigned form accepted by
// decimal.NewFromString. Everything except digits and separators is dropped.
func StandardizeAmount(amountStr string) string {
	var b strings.Builder
	for _, r := range amountStr {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if !strings.ContainsAny(s, "0123456789") {
		return ""
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// European format (1.234,56)
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		// A single comma followed by one or two digits is a decimal separator (12,50)
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1 && isGrouped(s, "."):
		// Dots as thousands separators (1.234.567)
		s = strings.ReplaceAll(s, ".", "")
	}

	return strings.Trim(s, ".")
}

// DetectCurrency returns the ISO code of a currency symbol found at the start
// or end of value, ignoring a leading sign or parenthesis.
func DetectCurrency(value string) (string, bool) {
	s := strings.TrimSpace(value)
	s = strings.TrimLeft(s, "-+( ")
	s = strings.TrimRight(s, ") ")
	for _, sym := range symbols {
		if strings.HasPrefix(s, sym.Symbol) {
			return sym.Code, true
		}
	}
	for _, sym := range symbols {
		if strings.HasSuffix(s, sym.Symbol) {
			return sym.Code, true
		}
	}
	return "", false
}

// NormalizeCurrency turns a currency cell into an ISO code. Three letter
// codes are upper-cased, known symbols are mapped; anything else yields "".
func NormalizeCurrency(value string) string {
	s := strings.TrimSpace(value)
	if len(s) == 3 && isLetters(s) {
		return strings.ToUpper(s)
	}
	if code, ok := DetectCurrency(s); ok {
		return code
	}
	return ""
}

// SymbolFor returns the display symbol for an ISO code, if there is one.
func SymbolFor(code string) (string, bool) {
	code = strings.ToUpper(code)
	for _, sym := range symbols {
		if sym.Code == code {
			return sym.Symbol, true
		}
	}
	return "", false
}

// FormatAmount formats a decimal amount with two decimal places and the
// currency symbol or code, e.g. "$1234.56" or "CHF 1234.56".
func FormatAmount(amount decimal.Decimal, currency string) string {
	formattedAmount := amount.StringFixed(2)
	if currency == "" {
		return formattedAmount
	}
	if sym, ok := SymbolFor(currency); ok && !strings.EqualFold(currency, "CHF") {
		if amount.IsNegative() {
			return "-" + sym + amount.Abs().StringFixed(2)
		}
		return sym + formattedAmount
	}
	return strings.ToUpper(currency) + " " + formattedAmount
}

// isGrouped reports whether every group after the first has three digits.
func isGrouped(s, sep string) bool {
	parts := strings.Split(s, sep)
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return len(parts[0]) > 0 && len(parts[0]) <= 3
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
