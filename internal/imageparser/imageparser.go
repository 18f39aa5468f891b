// Package imageparser extracts transactions from photographed or scanned
// statements through OCR.
package imageparser

import (
	"bytes"
	"context"
	"errors"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/ocr"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/textutils"
)

// ErrNoEngine is wrapped in an OCR error when no engine is configured.
var ErrNoEngine = errors.New("no OCR engine configured")

var (
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
)

// HasSignature reports whether data looks like a JPEG or PNG image.
func HasSignature(data []byte) bool {
	return SniffMIMEType(data) != ""
}

// SniffMIMEType returns the image MIME type matching the leading bytes, or "".
func SniffMIMEType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, jpegSignature):
		return "image/jpeg"
	case bytes.HasPrefix(data, pngSignature):
		return "image/png"
	}
	return ""
}

// Parser parses statement images.
type Parser struct {
	parser.BaseParser
	engine ocr.Engine
	lines  *textutils.LineExtractor
}

// NewParser creates an image parser. engine may be nil when OCR is not
// configured, in which case every parse fails with an OCR error.
func NewParser(logger logging.Logger, engine ocr.Engine, lines *textutils.LineExtractor) *Parser {
	p := &Parser{BaseParser: parser.NewBaseParser(logger), engine: engine, lines: lines}
	if p.lines == nil {
		p.lines = textutils.NewLineExtractor(nil, textutils.DefaultSignPolicy(), p.GetLogger())
	}
	return p
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	mimeType := SniffMIMEType(data)
	if p.engine == nil {
		return nil, &parsererror.OCRError{MIMEType: mimeType, Err: ErrNoEngine}
	}
	if mimeType == "" {
		return nil, &parsererror.InvalidFormatError{Format: "image", Msg: "not a JPEG or PNG image"}
	}

	p.GetLogger().Debug("Running OCR on image",
		logging.F(logging.FieldMIMEType, mimeType),
		logging.F(logging.FieldSize, len(data)))

	text, err := p.engine.Recognize(ctx, data, mimeType)
	if err != nil {
		var ocrErr *parsererror.OCRError
		if errors.As(err, &ocrErr) {
			return nil, err
		}
		return nil, &parsererror.OCRError{MIMEType: mimeType, Err: err}
	}
	return p.lines.Extract(ctx, text, "image")
}
