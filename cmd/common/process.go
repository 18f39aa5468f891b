// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/statement-insights/internal/batch"
	outputs "fjacquet/statement-insights/internal/common"
	"fjacquet/statement-insights/internal/container"
	"fjacquet/statement-insights/internal/fileutils"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/validation"
)

// ErrNoInput is returned when a command needs --input and got none.
var ErrNoInput = errors.New("no input given, use --input")

// LoadTransactions parses every input file (directories are expanded) and
// returns the merged, date-sorted transactions.
func LoadTransactions(ctx context.Context, c *container.Container, inputs []string) (*batch.Result, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	for _, in := range inputs {
		if err := validation.IsValidPath(in); err != nil {
			return nil, err
		}
	}
	files, err := batch.CollectFiles(inputs)
	if err != nil {
		return nil, err
	}
	agg := batch.NewAggregator(c.GetProcessor(), c.GetConfig().Server.MaxUploadBytes, c.GetLogger())
	return agg.Aggregate(ctx, files)
}

// OpenOutput returns a writer for path, or stdout when path is empty. The
// returned close function is always non-nil.
func OpenOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// WriteTransactions writes txs as csv or json.
func WriteTransactions(w io.Writer, txs []models.Transaction, format string) error {
	switch format {
	case "csv", "":
		return outputs.WriteTransactionsCSV(w, txs, outputs.DefaultDelimiter)
	case "json":
		return outputs.WriteJSON(w, txs)
	default:
		return validation.IsValidOutputFormat(format, "csv", "json")
	}
}

// FormatError renders an error with its code for the terminal.
func FormatError(err error) string {
	code := parsererror.CodeOf(err)
	if code == parsererror.CodeInternal {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Error [%s]: %v", code, err)
}

// ReportFailures prints one line per input that could not be parsed.
func ReportFailures(w io.Writer, result *batch.Result) {
	for _, f := range result.Failed() {
		fmt.Fprintf(w, "skipped %s: %s\n", f.File, FormatError(f.Err))
	}
}
