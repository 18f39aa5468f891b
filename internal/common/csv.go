// Package common provides the output writers shared by the CLI and the HTTP server.
package common

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"fjacquet/statement-insights/internal/fileutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter separates fields in CSV output.
const DefaultDelimiter = ','

// WriteTransactionsCSV writes transactions with a header row
// (date, amount, currency, counterparty, category).
func WriteTransactionsCSV(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(models.ToRows(transactions), gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsToCSV writes transactions to a CSV file, creating parent directories.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	file, err := fileutils.CreateFile(csvFile)
	if err != nil {
		logger.WithError(err).Error("Failed to create CSV file")
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactionsCSV(file, transactions, delimiter); err != nil {
		logger.WithError(err).Error("Failed to marshal transactions to CSV")
		return err
	}

	logger.Info("Wrote transactions to CSV file",
		logging.F(logging.FieldOutputFile, csvFile),
		logging.F(logging.FieldCount, len(transactions)))
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error writing JSON: %w", err)
	}
	return nil
}
