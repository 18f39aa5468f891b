package parsererror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"unsupported", &UnsupportedFileTypeError{MIMEType: "application/json"}, CodeUnsupportedFileType},
		{"too large", &FileTooLargeError{Limit: 10}, CodeFileTooLarge},
		{"invalid content", &InvalidFormatError{Format: "pdf", Msg: "missing %PDF- signature"}, CodeInvalidFileContent},
		{"missing column", &MissingColumnError{Field: "date"}, CodeMissingRequiredColumn},
		{"no records", &NoValidRecordsError{Format: "csv"}, CodeNoValidRecords},
		{"date parse", &ParseError{Field: "date"}, CodeDateParseFailure},
		{"amount parse", &ParseError{Field: "amount"}, CodeAmountParseFailure},
		{"ocr", &OCRError{MIMEType: "image/png", Err: errors.New("quota")}, CodeOCRFailure},
		{"precondition", &PreconditionError{Reason: "empty"}, CodePreconditionFailed},
		{"timeout", &TimeoutError{Operation: "parse", Err: context.DeadlineExceeded}, CodeParseTimeout},
		{"config", &ConfigurationError{Component: "recommender", Msg: "no key"}, CodeConfiguration},
		{"upload", &UploadNotFoundError{ID: "x"}, CodeUploadNotFound},
		{"wrapped", fmt.Errorf("processing: %w", &NoValidRecordsError{Format: "excel"}), CodeNoValidRecords},
		{"plain", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestMissingColumnError_Reason(t *testing.T) {
	assert.Equal(t, "DATE_COLUMN_NOT_FOUND", (&MissingColumnError{Field: "date"}).Reason())
	assert.Equal(t, "AMOUNT_COLUMN_NOT_FOUND", (&MissingColumnError{Field: "amount"}).Reason())
	assert.Contains(t, (&MissingColumnError{Field: "date", Source: "sheet Sheet1"}).Error(), "sheet Sheet1")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&TimeoutError{Operation: "parse", Err: context.DeadlineExceeded}))
	assert.True(t, IsRetryable(&OCRError{Err: context.DeadlineExceeded}))
	assert.False(t, IsRetryable(&OCRError{Err: errors.New("bad image")}))
	assert.False(t, IsRetryable(&UnsupportedFileTypeError{}))
	assert.False(t, IsRetryable(nil))
}

func TestErrorMessages(t *testing.T) {
	err := &InvalidFormatError{Format: "excel", Msg: "cannot open workbook", Err: errors.New("zip: not a valid zip file")}
	assert.Contains(t, err.Error(), "cannot open workbook")
	assert.Contains(t, err.Error(), "zip")
	assert.ErrorIs(t, &ParseError{Field: "amount", Err: context.Canceled}, context.Canceled)
}
