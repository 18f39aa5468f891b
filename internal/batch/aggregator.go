// Package batch merges the statements of several files into one transaction list.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/statement-insights/internal/analysis"
	"fjacquet/statement-insights/internal/fileutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/processor"

	"cloud.google.com/go/civil"
)

// SupportedExtensions lists the file extensions picked up from a directory.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls", ".pdf", ".jpg", ".jpeg", ".png"}

// Processor parses one upload.
type Processor interface {
	Process(ctx context.Context, u processor.Upload) ([]models.Transaction, error)
}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

// IsZero reports whether the range is unset.
func (dr DateRange) IsZero() bool {
	return dr.Start == (civil.Date{}) || dr.End == (civil.Date{})
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start, dr.End)
}

// FileResult records the outcome for one input file.
type FileResult struct {
	File  string
	Count int
	Err   error
}

// Result is the merged output of a batch run.
type Result struct {
	Transactions []models.Transaction
	Files        []FileResult
	DateRange    DateRange
	Duplicates   int
}

// Failed returns the files that could not be parsed.
func (r *Result) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Aggregator reads and merges statement files.
type Aggregator struct {
	processor Processor
	maxBytes  int64
	logger    logging.Logger
}

// NewAggregator creates a new Aggregator. maxBytes bounds each file read.
func NewAggregator(p Processor, maxBytes int64, logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Aggregator{processor: p, maxBytes: maxBytes, logger: logger}
}

// CollectFiles expands directories into the supported files they contain.
// Plain file paths are kept as given.
func CollectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		if !fileutils.DirectoryExists(p) {
			files = append(files, p)
			continue
		}
		for _, ext := range SupportedExtensions {
			found, err := fileutils.ListFilesWithExtension(p, ext)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Aggregate parses every file and merges the transactions chronologically. A
// file that fails is logged and skipped; Aggregate only fails when no file
// could be parsed.
func (a *Aggregator) Aggregate(ctx context.Context, files []string) (*Result, error) {
	result := &Result{}
	var firstErr error

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txs, err := a.processFile(ctx, file)
		result.Files = append(result.Files, FileResult{File: file, Count: len(txs), Err: err})
		if err != nil {
			a.logger.WithError(err).Error("Failed to parse file",
				logging.F(logging.FieldFile, filepath.Base(file)))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		a.logger.Debug("Loaded transactions from file",
			logging.F(logging.FieldFile, filepath.Base(file)),
			logging.F(logging.FieldCount, len(txs)))
		result.Transactions = append(result.Transactions, txs...)
	}

	if len(result.Transactions) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("no input files")
	}

	analysis.SortByDate(result.Transactions)
	result.DateRange = CalculateDateRange(result.Transactions)
	result.Duplicates = a.detectAndLogDuplicates(result.Transactions)

	a.logger.Info("Aggregated transactions",
		logging.F(logging.FieldCount, len(result.Transactions)),
		logging.F("files", len(files)),
		logging.F("failed_files", len(result.Failed())))
	return result, nil
}

func (a *Aggregator) processFile(ctx context.Context, file string) ([]models.Transaction, error) {
	data, err := fileutils.ReadFileLimited(file, a.maxBytes)
	if err != nil {
		return nil, err
	}
	// The detector falls back to the extension when no MIME type is declared.
	return a.processor.Process(ctx, processor.Upload{Data: data, Filename: filepath.Base(file)})
}

// detectAndLogDuplicates counts transactions that repeat an earlier one. They
// usually come from overlapping statements and are kept, not removed.
func (a *Aggregator) detectAndLogDuplicates(transactions []models.Transaction) int {
	seen := make(map[string]bool, len(transactions))
	duplicates := 0
	for _, tx := range transactions {
		key := duplicateKey(tx)
		if seen[key] {
			duplicates++
			a.logger.Warn("Potential duplicate transaction",
				logging.F("date", tx.FormatDate()),
				logging.F("amount", tx.Amount.String()),
				logging.F("counterparty", tx.Counterparty))
			continue
		}
		seen[key] = true
	}
	return duplicates
}

func duplicateKey(tx models.Transaction) string {
	return tx.FormatDate() + "|" + tx.Amount.String() + "|" + strings.ToLower(strings.TrimSpace(tx.Counterparty))
}

// CalculateDateRange returns the first and last dates of a date-sorted list.
func CalculateDateRange(transactions []models.Transaction) DateRange {
	if len(transactions) == 0 {
		return DateRange{}
	}
	return DateRange{Start: transactions[0].Date, End: transactions[len(transactions)-1].Date}
}

// GenerateOutputFilename creates a filename for the merged output.
// Format: {prefix}_{start_date}_{end_date}.csv
func GenerateOutputFilename(prefix string, dateRange DateRange) string {
	if dateRange.IsZero() {
		return prefix + ".csv"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, dateRange)
}
