// Package pdfparser extracts transactions from PDF statements. The embedded
// text layer is used when present; scanned documents go through OCR.
package pdfparser

import (
	"bytes"
	"context"
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/ocr"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/textutils"
)

// MIMEType is sent to the OCR engine for scanned documents.
const MIMEType = "application/pdf"

var signature = []byte("%PDF-")

// Parser parses PDF statements.
type Parser struct {
	parser.BaseParser
	extractor Extractor
	lines     *textutils.LineExtractor
	ocr       ocr.Engine
}

// Option configures a Parser.
type Option func(*Parser)

// WithExtractor replaces the text layer extractor.
func WithExtractor(e Extractor) Option {
	return func(p *Parser) { p.extractor = e }
}

// WithOCR enables the OCR fallback for documents without a text layer.
func WithOCR(engine ocr.Engine) Option {
	return func(p *Parser) { p.ocr = engine }
}

// NewParser creates a PDF parser.
func NewParser(logger logging.Logger, lines *textutils.LineExtractor, opts ...Option) *Parser {
	p := &Parser{
		BaseParser: parser.NewBaseParser(logger),
		extractor:  NewDslipakExtractor(),
		lines:      lines,
	}
	if p.lines == nil {
		p.lines = textutils.NewLineExtractor(nil, textutils.DefaultSignPolicy(), p.GetLogger())
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasSignature reports whether data starts like a PDF document.
func HasSignature(data []byte) bool {
	return bytes.HasPrefix(data, signature)
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	logger := p.GetLogger().WithField(logging.FieldParser, "pdf")

	if !HasSignature(data) {
		return nil, &parsererror.InvalidFormatError{Format: "pdf", Msg: "missing %PDF- signature", ActualContentSnippet: snippet(data)}
	}

	text, err := p.extractor.ExtractText(data)
	if err != nil {
		logger.WithError(err).Warn("Failed to read PDF text layer")
		text = ""
	}

	if strings.TrimSpace(text) == "" {
		if p.ocr == nil {
			if err != nil {
				return nil, &parsererror.InvalidFormatError{Format: "pdf", Msg: "unreadable document", Err: err}
			}
			return nil, &parsererror.InvalidFormatError{Format: "pdf", Msg: "document has no text layer and OCR is disabled"}
		}
		logger.Info("No text layer found, falling back to OCR")
		text, err = p.ocr.Recognize(ctx, data, MIMEType)
		if err != nil {
			return nil, err
		}
	}

	return p.lines.Extract(ctx, text, "pdf")
}

func snippet(data []byte) string {
	const limit = 32
	if len(data) > limit {
		data = data[:limit]
	}
	return string(data)
}
