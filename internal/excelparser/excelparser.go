// Package excelparser parses spreadsheet (OOXML workbook) bank exports.
package excelparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/tabular"
)

// maxUnzipBytes bounds the decompressed workbook size.
const maxUnzipBytes = 64 << 20

// maxSerial is the serial number of 9999-12-31.
const maxSerial = 2958465

// oleSignature starts legacy BIFF (.xls) files.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Parser parses workbooks. Sheets are tried in order and the first sheet
// with a usable header row is extracted.
type Parser struct {
	parser.BaseParser
	headerScanRows int
	dates          *dateutils.Parser
}

// NewParser creates an Excel parser.
func NewParser(logger logging.Logger, headerScanRows int, order dateutils.Order) *Parser {
	return &Parser{
		BaseParser:     parser.NewBaseParser(logger),
		headerScanRows: headerScanRows,
		dates:          dateutils.NewParser(order),
	}
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	if len(data) == 0 {
		return nil, &parsererror.InvalidFormatError{Format: "excel", Msg: "file is empty"}
	}
	if bytes.HasPrefix(data, oleSignature) {
		return nil, &parsererror.InvalidFormatError{Format: "excel", Msg: "legacy .xls workbooks are not supported, save as .xlsx"}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{UnzipSizeLimit: maxUnzipBytes})
	if err != nil {
		return nil, &parsererror.InvalidFormatError{Format: "excel", Msg: "unreadable workbook", Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			p.GetLogger().WithError(err).Warn("Failed to close workbook")
		}
	}()

	engine := tabular.NewEngine("excel", p.GetLogger(),
		tabular.WithHeaderScanRows(p.headerScanRows),
		tabular.WithDateFunc(p.parseDateCell))

	var firstErr error
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &parsererror.InvalidFormatError{Format: "excel", Msg: fmt.Sprintf("unreadable sheet %q", sheet), Err: err}
		}

		if _, _, err := engine.FindHeader(rows); err != nil {
			p.GetLogger().Debug("Sheet has no usable header",
				logging.F(logging.FieldSheet, sheet),
				logging.F(logging.FieldReason, err.Error()))
			if firstErr == nil {
				firstErr = withSheet(err, sheet)
			}
			continue
		}

		p.GetLogger().Info("Parsing worksheet", logging.F(logging.FieldSheet, sheet))
		return engine.Extract(ctx, rows)
	}

	if firstErr == nil {
		firstErr = &parsererror.NoValidRecordsError{Format: "excel"}
	}
	return nil, firstErr
}

// parseDateCell accepts both text dates and raw date serials. Serials are
// converted without a timezone so the calendar day never shifts.
func (p *Parser) parseDateCell(cell string) (civil.Date, error) {
	d, textErr := p.dates.Parse(cell)
	if textErr == nil {
		return d, nil
	}

	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return civil.Date{}, textErr
	}
	return SerialToDate(serial)
}

// SerialToDate converts a 1900-system spreadsheet serial to a calendar date.
// Any time-of-day fraction is ignored.
func SerialToDate(serial float64) (civil.Date, error) {
	if serial < 1 || serial > maxSerial || math.IsNaN(serial) {
		return civil.Date{}, fmt.Errorf("date serial %v out of range", serial)
	}
	t, err := excelize.ExcelDateToTime(math.Floor(serial), false)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

func withSheet(err error, sheet string) error {
	var missing *parsererror.MissingColumnError
	if errors.As(err, &missing) {
		missing.Source = fmt.Sprintf("sheet %q", sheet)
	}
	return err
}
