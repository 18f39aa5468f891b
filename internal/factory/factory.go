package factory

import (
	"fjacquet/statement-insights/internal/csvparser"
	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/detector"
	"fjacquet/statement-insights/internal/excelparser"
	"fjacquet/statement-insights/internal/imageparser"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/ocr"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/pdfparser"
	"fjacquet/statement-insights/internal/tabular"
	"fjacquet/statement-insights/internal/textutils"
)

// Options carries what the parsers need from configuration.
type Options struct {
	Logger         logging.Logger
	HeaderScanRows int
	DateOrder      dateutils.Order
	Sign           textutils.SignPolicy
	// OCR is used for images and, when PDFOCR is set, for PDFs without a text layer.
	OCR    ocr.Engine
	PDFOCR bool
}

// Registry maps each supported format to its parser.
type Registry map[detector.Format]parser.Parser

// NewRegistry builds one parser per supported format.
func NewRegistry(opts Options) Registry {
	r := Registry{}
	for _, f := range []detector.Format{detector.CSV, detector.Excel, detector.PDF, detector.Image} {
		r[f] = GetParserWithLogger(f, opts)
	}
	return r
}

// Get returns the parser for format.
func (r Registry) Get(format detector.Format) (parser.Parser, error) {
	p, ok := r[format]
	if !ok {
		return nil, &parsererror.UnsupportedFileTypeError{MIMEType: string(format)}
	}
	return p, nil
}

// GetParserWithLogger returns a new parser for the given format, or nil when
// the format has none.
func GetParserWithLogger(format detector.Format, opts Options) parser.Parser {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	lines := textutils.NewLineExtractor(dateutils.NewParser(opts.DateOrder), opts.Sign, logger)

	switch format {
	case detector.CSV:
		return csvparser.NewParser(logger,
			tabular.WithHeaderScanRows(opts.HeaderScanRows),
			tabular.WithDateOrder(opts.DateOrder))
	case detector.Excel:
		return excelparser.NewParser(logger, opts.HeaderScanRows, opts.DateOrder)
	case detector.PDF:
		var pdfOpts []pdfparser.Option
		if opts.PDFOCR && opts.OCR != nil {
			pdfOpts = append(pdfOpts, pdfparser.WithOCR(opts.OCR))
		}
		return pdfparser.NewParser(logger, lines, pdfOpts...)
	case detector.Image:
		return imageparser.NewParser(logger, opts.OCR, lines)
	default:
		return nil
	}
}
