// Package textutils extracts transactions from loosely structured text such
// as the text layer of a PDF statement or the output of an OCR engine.
package textutils

import (
	"context"
	"regexp"
	"strings"

	"fjacquet/statement-insights/internal/currencyutils"
	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
)

var (
	datePattern = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	// An optional parenthesis or minus, an optional currency symbol, digit
	// groups with optional thousands separators and a two digit fraction.
	amountPattern = regexp.MustCompile(`\(?-?\s?(?:A\$|C\$|[$€£¥₹₽₣])?\s?-?(?:\d{1,3}(?:[,']\d{3})+|\d+)\.\d{2}\)?`)
	codePattern   = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|JPY|RUB)\b`)
)

// DefaultPositiveKeywords mark a line without an explicit sign as an inflow.
var DefaultPositiveKeywords = []string{"deposit", "credit", "salary", "payroll", "refund", "interest", "transfer in"}

// SignPolicy decides the sign of an amount that carries no explicit marker.
type SignPolicy struct {
	// DefaultPositive treats unmarked amounts as inflows. The default is outflow.
	DefaultPositive  bool
	PositiveKeywords []string
}

// DefaultSignPolicy treats unmarked amounts as expenses unless a positive keyword is present.
func DefaultSignPolicy() SignPolicy {
	return SignPolicy{PositiveKeywords: DefaultPositiveKeywords}
}

// NewSignPolicy builds a policy from configuration values.
func NewSignPolicy(defaultSign string, keywords []string) SignPolicy {
	p := SignPolicy{DefaultPositive: strings.EqualFold(defaultSign, "positive"), PositiveKeywords: keywords}
	if len(p.PositiveKeywords) == 0 {
		p.PositiveKeywords = DefaultPositiveKeywords
	}
	return p
}

func (p SignPolicy) positive(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range p.PositiveKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return p.DefaultPositive
}

// LineExtractor turns each line holding both a date and an amount into a
// transaction whose counterparty is the whole trimmed line.
type LineExtractor struct {
	dates  *dateutils.Parser
	sign   SignPolicy
	logger logging.Logger
}

// NewLineExtractor creates a LineExtractor.
func NewLineExtractor(dates *dateutils.Parser, sign SignPolicy, logger logging.Logger) *LineExtractor {
	if dates == nil {
		dates = dateutils.NewParser(dateutils.MonthFirst)
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &LineExtractor{dates: dates, sign: sign, logger: logger}
}

// Extract scans text line by line. Lines with a date and an amount whose
// values cannot be parsed are skipped with a warning. source names the input
// ("pdf", "image") in logs and errors.
func (x *LineExtractor) Extract(ctx context.Context, text, source string) ([]models.Transaction, error) {
	var (
		transactions []models.Transaction
		skipped      int
	)
	logger := x.logger.WithField(logging.FieldParser, source)

	for n, raw := range strings.Split(text, "\n") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		tx, ok, err := x.extractLine(line)
		if !ok {
			continue
		}
		if err != nil {
			skipped++
			logger.WithError(err).Warn("Skipping line",
				logging.F(logging.FieldLine, n+1),
				logging.F(logging.FieldCode, string(parsererror.CodeOf(err))))
			continue
		}
		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		return nil, &parsererror.NoValidRecordsError{Format: source, Dropped: skipped}
	}
	logger.Info("Extracted transactions from text", logging.F(logging.FieldCount, len(transactions)))
	return transactions, nil
}

// extractLine reports ok=false when the line lacks a date or an amount.
func (x *LineExtractor) extractLine(line string) (models.Transaction, bool, error) {
	dateLoc := datePattern.FindStringIndex(line)
	if dateLoc == nil {
		return models.Transaction{}, false, nil
	}
	// Blank out the date so its digits cannot be read as an amount.
	masked := line[:dateLoc[0]] + strings.Repeat(" ", dateLoc[1]-dateLoc[0]) + line[dateLoc[1]:]
	rawAmount := amountPattern.FindString(masked)
	if rawAmount == "" {
		return models.Transaction{}, false, nil
	}
	rawAmount = strings.TrimSpace(rawAmount)

	rawDate := line[dateLoc[0]:dateLoc[1]]
	date, err := x.dates.Parse(rawDate)
	if err != nil {
		return models.Transaction{}, true, &parsererror.ParseError{Parser: "text", Field: "date", Value: rawDate, Err: err}
	}

	amount, err := currencyutils.ParseAmount(rawAmount)
	if err != nil {
		return models.Transaction{}, true, &parsererror.ParseError{Parser: "text", Field: "amount", Value: rawAmount, Err: err}
	}
	explicit := strings.Contains(rawAmount, "-") || (strings.HasPrefix(rawAmount, "(") && strings.HasSuffix(rawAmount, ")"))
	if !explicit && !x.sign.positive(line) {
		amount = amount.Neg()
	}

	tx, err := models.NewTransactionBuilder().
		WithDate(date).
		WithAmount(amount).
		WithCurrency(lineCurrency(line, rawAmount)).
		WithCounterparty(line).
		Build()
	return tx, true, err
}

// lineCurrency prefers a three letter code on the line, then the amount's symbol.
func lineCurrency(line, rawAmount string) string {
	if m := codePattern.FindStringSubmatch(line); m != nil {
		return strings.ToUpper(m[1])
	}
	if code, ok := currencyutils.DetectCurrency(rawAmount); ok {
		return code
	}
	return ""
}
