// Package csvparser parses delimited-text bank exports.
package csvparser

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/tabular"
)

// candidateDelimiters in tie-break order.
var candidateDelimiters = []rune{',', ';', '\t'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser parses CSV statements with an auto-detected delimiter.
type Parser struct {
	parser.BaseParser
	engineOpts []tabular.Option
}

// NewParser creates a CSV parser. Engine options tune header scanning and date parsing.
func NewParser(logger logging.Logger, opts ...tabular.Option) *Parser {
	return &Parser{
		BaseParser: parser.NewBaseParser(logger),
		engineOpts: opts,
	}
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &parsererror.InvalidFormatError{Format: "csv", Msg: "file is empty"}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &parsererror.InvalidFormatError{Format: "csv", Msg: "binary content", ActualContentSnippet: snippet(data)}
	}

	delimiter := DetectDelimiter(data)
	p.GetLogger().Debug("Detected CSV delimiter", logging.F(logging.FieldDelimiter, string(delimiter)))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &parsererror.InvalidFormatError{Format: "csv", Msg: "unreadable CSV", Err: err}
	}

	return tabular.NewEngine("csv", p.GetLogger(), p.engineOpts...).Extract(ctx, rows)
}

// DetectDelimiter inspects the first non-empty line and returns the candidate
// delimiter that occurs most often there. Ties favour comma, then semicolon,
// then tab; a line with none of them yields comma.
func DetectDelimiter(data []byte) rune {
	line := firstLine(data)
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func firstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func snippet(data []byte) string {
	const limit = 32
	if len(data) > limit {
		data = data[:limit]
	}
	return strings.ToValidUTF8(string(bytes.ReplaceAll(data, []byte{0}, nil)), "?")
}
