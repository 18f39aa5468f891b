// Package tabular turns rows of cells (from a CSV file or a worksheet) into
// normalized transactions. Both tabular parsers share this engine so that
// header detection, currency sampling and row validation behave the same.
package tabular

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"fjacquet/statement-insights/internal/columnmap"
	"fjacquet/statement-insights/internal/currencyutils"
	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
)

// DefaultHeaderScanRows is how many leading rows are searched for a header.
const DefaultHeaderScanRows = 10

// currencySampleSize bounds the rows inspected for a currency symbol.
const currencySampleSize = 10

// DateFunc converts a raw date cell into a calendar date.
type DateFunc func(cell string) (civil.Date, error)

// Engine extracts transactions from rows of cells.
type Engine struct {
	source         string
	headerScanRows int
	parseDate      DateFunc
	logger         logging.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithHeaderScanRows sets how many leading rows may precede the header.
func WithHeaderScanRows(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.headerScanRows = n
		}
	}
}

// WithDateFunc replaces the date cell parser, e.g. to accept spreadsheet serials.
func WithDateFunc(fn DateFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.parseDate = fn
		}
	}
}

// WithDateOrder sets how ambiguous numeric dates are read by the default date parser.
func WithDateOrder(order dateutils.Order) Option {
	return func(e *Engine) {
		e.parseDate = dateutils.NewParser(order).Parse
	}
}

// NewEngine creates an Engine. source names the input kind ("csv", "excel")
// in logs and errors.
func NewEngine(source string, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	e := &Engine{
		source:         source,
		headerScanRows: DefaultHeaderScanRows,
		parseDate:      dateutils.ParseDate,
		logger:         logger.WithField(logging.FieldParser, source),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindHeader returns the index and mapping of the first valid header row
// within the scan window. When none is found the error explains which
// required column is missing.
func (e *Engine) FindHeader(rows [][]string) (int, columnmap.Mapping, error) {
	limit := min(e.headerScanRows, len(rows))
	var firstErr error
	for i := 0; i < limit; i++ {
		if isBlank(rows[i]) {
			continue
		}
		m := columnmap.Map(rows[i])
		err := m.Validate()
		if err == nil {
			return i, m, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return -1, columnmap.Mapping{}, &parsererror.NoValidRecordsError{Format: e.source}
	}
	if missing, ok := firstErr.(*parsererror.MissingColumnError); ok {
		missing.Source = e.source
	}
	return -1, columnmap.Mapping{}, firstErr
}

// block is the state of one header block.
type block struct {
	mapping  columnmap.Mapping
	currency string
}

// Extract converts rows into transactions. Rows before the header are
// ignored, a repeated header starts a new block, and rows with a bad date or
// amount are dropped with a warning. Zero surviving rows is an error.
func (e *Engine) Extract(ctx context.Context, rows [][]string) ([]models.Transaction, error) {
	headerIdx, mapping, err := e.FindHeader(rows)
	if err != nil {
		return nil, err
	}

	cur := e.newBlock(rows, headerIdx, mapping)
	var (
		transactions []models.Transaction
		dropped      int
	)

	for i := headerIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if m, ok := e.repeatedHeader(row); ok {
			e.logger.Debug("Repeated header row, starting new block", logging.F(logging.FieldRow, i+1))
			cur = e.newBlock(rows, i, m)
			continue
		}

		tx, err := e.parseRow(row, cur)
		if err != nil {
			dropped++
			e.logger.WithError(err).Warn("Dropping row",
				logging.F(logging.FieldRow, i+1),
				logging.F(logging.FieldCode, string(parsererror.CodeOf(err))))
			continue
		}
		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		return nil, &parsererror.NoValidRecordsError{Format: e.source, Dropped: dropped}
	}

	e.logger.Info("Extracted transactions",
		logging.F(logging.FieldCount, len(transactions)),
		logging.F("dropped", dropped))
	return transactions, nil
}

func (e *Engine) newBlock(rows [][]string, headerIdx int, m columnmap.Mapping) block {
	b := block{mapping: m}
	if !m.Has(columnmap.FieldCurrency) {
		b.currency = e.sampleCurrency(rows, headerIdx, m)
		if b.currency != "" {
			e.logger.Debug("Detected file currency from amount symbols", logging.F(logging.FieldCurrency, b.currency))
		}
	}
	return b
}

// sampleCurrency inspects up to ten data rows after the header for a
// currency symbol. Exactly one distinct currency becomes the block default.
func (e *Engine) sampleCurrency(rows [][]string, headerIdx int, m columnmap.Mapping) string {
	found := map[string]struct{}{}
	sampled := 0
	for i := headerIdx + 1; i < len(rows) && sampled < currencySampleSize; i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if _, ok := e.repeatedHeader(row); ok {
			break
		}
		sampled++
		for _, idx := range []int{m.Amount, m.Debit, m.Credit} {
			if code, ok := currencyutils.DetectCurrency(cell(row, idx)); ok {
				found[code] = struct{}{}
			}
		}
	}
	if len(found) != 1 {
		return ""
	}
	for code := range found {
		return code
	}
	return ""
}

// repeatedHeader reports whether row is another header: it maps to a valid
// set of columns and none of its cells reads as a date.
func (e *Engine) repeatedHeader(row []string) (columnmap.Mapping, bool) {
	m := columnmap.Map(row)
	if !m.Valid() {
		return m, false
	}
	for _, c := range row {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, err := e.parseDate(c); err == nil {
			return m, false
		}
	}
	return m, true
}

func (e *Engine) parseRow(row []string, b block) (models.Transaction, error) {
	m := b.mapping

	rawDate := cell(row, m.Date)
	date, err := e.parseDate(rawDate)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Parser: e.source, Field: "date", Value: rawDate, Err: err}
	}

	amount, err := e.amount(row, m)
	if err != nil {
		return models.Transaction{}, err
	}

	currency := b.currency
	if m.Has(columnmap.FieldCurrency) {
		if c := currencyutils.NormalizeCurrency(cell(row, m.Currency)); c != "" {
			currency = c
		}
	}

	return models.NewTransactionBuilder().
		WithDate(date).
		WithAmount(amount).
		WithCurrency(currency).
		WithCounterparty(cell(row, m.Description)).
		Build()
}

// amount reads the single amount column, or derives credit minus debit when
// only split columns exist (or the amount cell is blank). A blank side counts
// as zero; both sides blank is a failure.
func (e *Engine) amount(row []string, m columnmap.Mapping) (decimal.Decimal, error) {
	raw := cell(row, m.Amount)
	splitAvailable := m.Has(columnmap.FieldDebit) && m.Has(columnmap.FieldCredit)

	if m.Has(columnmap.FieldAmount) && (raw != "" || !splitAvailable) {
		amount, err := currencyutils.ParseAmount(raw)
		if err != nil {
			return decimal.Zero, &parsererror.ParseError{Parser: e.source, Field: "amount", Value: raw, Err: err}
		}
		return amount, nil
	}

	rawDebit, rawCredit := cell(row, m.Debit), cell(row, m.Credit)
	if rawDebit == "" && rawCredit == "" {
		return decimal.Zero, &parsererror.ParseError{Parser: e.source, Field: "amount", Value: "", Err: currencyutils.ErrEmptyAmount}
	}
	debit, err := side(rawDebit)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: e.source, Field: "debit", Value: rawDebit, Err: err}
	}
	credit, err := side(rawCredit)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: e.source, Field: "credit", Value: rawCredit, Err: err}
	}
	return credit.Abs().Sub(debit.Abs()), nil
}

func side(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return currencyutils.ParseAmount(raw)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
