// Package processor runs one uploaded statement through detection, parsing,
// normalization and categorization.
package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"fjacquet/statement-insights/internal/analysis"
	"fjacquet/statement-insights/internal/categorizer"
	"fjacquet/statement-insights/internal/detector"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
)

// Upload is one file to process.
type Upload struct {
	Data     []byte
	MIMEType string
	Filename string
}

// ParserSource resolves the parser for a detected format.
type ParserSource interface {
	Get(format detector.Format) (parser.Parser, error)
}

// Config holds processing limits and defaults.
type Config struct {
	DefaultCurrency string
	Timeout         time.Duration
	MaxBytes        int64
}

// Processor turns uploads into categorized transactions.
type Processor struct {
	parsers     ParserSource
	categorizer *categorizer.Categorizer
	cfg         Config
	logger      logging.Logger
}

// New creates a Processor.
func New(parsers ParserSource, cat *categorizer.Categorizer, cfg Config, logger logging.Logger) *Processor {
	if cat == nil {
		cat = categorizer.NewCategorizer(nil, logger)
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	return &Processor{parsers: parsers, categorizer: cat, cfg: cfg, logger: logger}
}

// Process parses an upload into date-sorted, categorized transactions.
func (p *Processor) Process(ctx context.Context, u Upload) ([]models.Transaction, error) {
	start := time.Now()
	logger := p.logger.WithFields(
		logging.F(logging.FieldFile, u.Filename),
		logging.F(logging.FieldMIMEType, u.MIMEType),
		logging.F(logging.FieldSize, len(u.Data)))

	if p.cfg.MaxBytes > 0 && int64(len(u.Data)) > p.cfg.MaxBytes {
		return nil, &parsererror.FileTooLargeError{Size: int64(len(u.Data)), Limit: p.cfg.MaxBytes}
	}

	format := detector.Detect(u.MIMEType, u.Filename)
	if !format.Supported() {
		logger.Warn("Rejected unsupported file type")
		return nil, &parsererror.UnsupportedFileTypeError{MIMEType: u.MIMEType, Filename: u.Filename}
	}
	logger = logger.WithField(logging.FieldFormat, string(format))

	if err := detector.CheckSignature(format, u.Data); err != nil {
		logger.WithError(err).Error("File content does not match its type")
		return nil, err
	}

	prs, err := p.parsers.Get(format)
	if err != nil {
		return nil, err
	}

	parseCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	txs, err := prs.Parse(parseCtx, u.Data)
	if err != nil {
		if errors.Is(parseCtx.Err(), context.DeadlineExceeded) {
			err = &parsererror.TimeoutError{Operation: "parse " + string(format), Err: err}
		}
		logger.WithError(err).Error("Failed to parse statement",
			logging.F(logging.FieldCode, string(parsererror.CodeOf(err))))
		return nil, err
	}

	p.normalize(txs)
	p.categorizer.CategorizeAll(txs)
	analysis.SortByDate(txs)

	logger.Info("Processed statement",
		logging.F(logging.FieldCount, len(txs)),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return txs, nil
}

func (p *Processor) normalize(txs []models.Transaction) {
	for i := range txs {
		txs[i].Counterparty = strings.TrimSpace(txs[i].Counterparty)
		if txs[i].Currency == "" {
			txs[i].Currency = p.cfg.DefaultCurrency
		}
	}
}
