// Package columnmap locates the semantic columns of a tabular bank export by
// scoring header cells against fixed pattern lists.
package columnmap

import (
	"regexp"
	"strings"

	"fjacquet/statement-insights/internal/parsererror"
)

// Field is a semantic column.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldCurrency    Field = "currency"
)

// Fields lists every field in mapping order.
var Fields = []Field{FieldDate, FieldDescription, FieldAmount, FieldDebit, FieldCredit, FieldCurrency}

// Patterns is the header pattern table. Patterns are lower-case.
var Patterns = map[Field][]string{
	FieldDate:        {"date", "transaction date", "posted date", "trans date", "posting date", "payment date"},
	FieldDescription: {"description", "details", "transaction", "narrative", "particulars", "memo", "note", "reference", "payee", "merchant"},
	FieldAmount:      {"amount", "value", "sum", "total", "payment", "transaction amount"},
	FieldDebit:       {"debit", "withdrawal", "expense", "paid out"},
	FieldCredit:      {"credit", "deposit", "income", "paid in"},
	FieldCurrency:    {"currency", "iso code", "curr", "ccy"},
}

const (
	scoreExact    = 1.0
	scoreContains = 0.8
)

// NotFound marks a field without a matching column.
const NotFound = -1

// Mapping is the typed field to column index result. Every index is either a
// valid column position or NotFound.
type Mapping struct {
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
	Currency    int
}

// Index returns the column index for f.
func (m Mapping) Index(f Field) int {
	switch f {
	case FieldDate:
		return m.Date
	case FieldDescription:
		return m.Description
	case FieldAmount:
		return m.Amount
	case FieldDebit:
		return m.Debit
	case FieldCredit:
		return m.Credit
	case FieldCurrency:
		return m.Currency
	}
	return NotFound
}

func (m *Mapping) set(f Field, idx int) {
	switch f {
	case FieldDate:
		m.Date = idx
	case FieldDescription:
		m.Description = idx
	case FieldAmount:
		m.Amount = idx
	case FieldDebit:
		m.Debit = idx
	case FieldCredit:
		m.Credit = idx
	case FieldCurrency:
		m.Currency = idx
	}
}

// Has reports whether f was located.
func (m Mapping) Has(f Field) bool {
	return m.Index(f) != NotFound
}

// UsesSplitAmounts reports whether amounts must be derived from debit and
// credit columns because there is no single amount column.
func (m Mapping) UsesSplitAmounts() bool {
	return !m.Has(FieldAmount) && m.Has(FieldDebit) && m.Has(FieldCredit)
}

// Valid reports whether the mapping is usable: a date column and either an
// amount column or both debit and credit columns.
func (m Mapping) Valid() bool {
	return m.Validate() == nil
}

// Validate returns a MissingColumnError naming the first missing requirement.
func (m Mapping) Validate() error {
	if !m.Has(FieldDate) {
		return &parsererror.MissingColumnError{Field: string(FieldDate)}
	}
	if !m.Has(FieldAmount) && !(m.Has(FieldDebit) && m.Has(FieldCredit)) {
		return &parsererror.MissingColumnError{Field: string(FieldAmount)}
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeHeader lower-cases a header, trims it and collapses whitespace.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), " ")
}

// Score returns the best match score of header against patterns: 1.0 for an
// exact match, 0.8 when the header contains a pattern, else 0.
func Score(header string, patterns []string) float64 {
	h := NormalizeHeader(header)
	if h == "" {
		return 0
	}
	best := 0.0
	for _, p := range patterns {
		switch {
		case h == p:
			return scoreExact
		case strings.Contains(h, p):
			best = scoreContains
		}
	}
	return best
}

// Map scores every header for every field and keeps, per field, the highest
// scoring header. Ties resolve to the lowest index.
func Map(headers []string) Mapping {
	m := Mapping{Date: NotFound, Description: NotFound, Amount: NotFound, Debit: NotFound, Credit: NotFound, Currency: NotFound}
	for _, f := range Fields {
		bestScore := 0.0
		for i, h := range headers {
			if s := Score(h, Patterns[f]); s > bestScore {
				bestScore = s
				m.set(f, i)
			}
		}
	}
	return m
}
