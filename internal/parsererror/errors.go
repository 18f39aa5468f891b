// Package parsererror defines the typed errors raised by the statement
// pipeline. Every error that can reach a caller carries a stable Code so
// that the CLI and the HTTP intake can render a specific message.
package parsererror

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable machine-readable error kind.
type Code string

const (
	CodeUnsupportedFileType   Code = "UNSUPPORTED_FILE_TYPE"
	CodeFileTooLarge          Code = "FILE_TOO_LARGE"
	CodeInvalidFileContent    Code = "INVALID_FILE_CONTENT"
	CodeMissingRequiredColumn Code = "MISSING_REQUIRED_COLUMN"
	CodeNoValidRecords        Code = "NO_VALID_RECORDS"
	CodeDateParseFailure      Code = "DATE_PARSE_FAILURE"
	CodeAmountParseFailure    Code = "AMOUNT_PARSE_FAILURE"
	CodeOCRFailure            Code = "OCR_FAILURE"
	CodePreconditionFailed    Code = "ANALYSIS_PRECONDITION_FAILED"
	CodeParseTimeout          Code = "PARSE_TIMEOUT"
	CodeConfiguration         Code = "CONFIGURATION_ERROR"
	CodeRecommendationFailure Code = "RECOMMENDATION_FAILURE"
	CodeUploadNotFound        Code = "UPLOAD_NOT_FOUND"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Coded is implemented by every error in this package.
type Coded interface {
	error
	Code() Code
}

// CodeOf returns the code of the first Coded error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// IsRetryable reports whether the failure is transient and the same input may
// succeed on a later attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return true
	}
	switch CodeOf(err) {
	case CodeOCRFailure, CodeRecommendationFailure:
		return errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

// UnsupportedFileTypeError is returned when no parsing strategy matches the
// declared MIME type or filename.
type UnsupportedFileTypeError struct {
	MIMEType string
	Filename string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type (mime=%q, name=%q)", e.MIMEType, e.Filename)
}

func (e *UnsupportedFileTypeError) Code() Code { return CodeUnsupportedFileType }

// FileTooLargeError is returned by the upload intake when a file exceeds the size ceiling.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("file of %d bytes exceeds the %d byte limit", e.Size, e.Limit)
	}
	return fmt.Sprintf("file exceeds the %d byte limit", e.Limit)
}

func (e *FileTooLargeError) Code() Code { return CodeFileTooLarge }

// InvalidFormatError represents an input whose bytes do not conform to the
// format that was selected for it (empty buffer, bad signature, unreadable workbook).
type InvalidFormatError struct {
	Format               string
	ActualContentSnippet string
	Msg                  string
	Err                  error
}

func (e *InvalidFormatError) Error() string {
	msg := fmt.Sprintf("invalid %s content: %s", e.Format, e.Msg)
	if e.ActualContentSnippet != "" {
		msg += fmt.Sprintf(" (content snippet: %q)", e.ActualContentSnippet)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFormatError) Unwrap() error { return e.Err }

func (e *InvalidFormatError) Code() Code { return CodeInvalidFileContent }

// MissingColumnError is returned when the column mapper cannot find a
// required column in any candidate header row.
type MissingColumnError struct {
	Field  string
	Source string
}

func (e *MissingColumnError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: required %s column not found", e.Source, e.Field)
	}
	return fmt.Sprintf("required %s column not found", e.Field)
}

func (e *MissingColumnError) Code() Code { return CodeMissingRequiredColumn }

// Reason returns the field specific detail code, e.g. DATE_COLUMN_NOT_FOUND.
func (e *MissingColumnError) Reason() string {
	switch e.Field {
	case "date":
		return "DATE_COLUMN_NOT_FOUND"
	default:
		return "AMOUNT_COLUMN_NOT_FOUND"
	}
}

// NoValidRecordsError is returned when a parser ran to completion but every
// record was dropped.
type NoValidRecordsError struct {
	Format  string
	Dropped int
}

func (e *NoValidRecordsError) Error() string {
	return fmt.Sprintf("%s: no valid transactions found (%d records dropped)", e.Format, e.Dropped)
}

func (e *NoValidRecordsError) Code() Code { return CodeNoValidRecords }

// ParseError represents a per-record failure to parse a single value. It is
// logged and the record is dropped; it never escapes a parser on its own.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code maps the failing field onto DATE_PARSE_FAILURE or AMOUNT_PARSE_FAILURE.
func (e *ParseError) Code() Code {
	if e.Field == "date" {
		return CodeDateParseFailure
	}
	return CodeAmountParseFailure
}

// OCRError wraps a failure from the external OCR engine.
type OCRError struct {
	MIMEType string
	Err      error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("ocr failed for %s: %v", e.MIMEType, e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }

func (e *OCRError) Code() Code { return CodeOCRFailure }

// PreconditionError is returned when the analyzer is handed input it cannot work with.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "analysis precondition failed: " + e.Reason
}

func (e *PreconditionError) Code() Code { return CodePreconditionFailed }

// TimeoutError is returned when parsing exceeds its time budget. It is retryable.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Code() Code { return CodeParseTimeout }

// ConfigurationError is returned at construction time when a collaborator
// lacks required settings such as an API key.
type ConfigurationError struct {
	Component string
	Msg       string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Component, e.Msg)
}

func (e *ConfigurationError) Code() Code { return CodeConfiguration }

// RecommendationError wraps a failure from the recommendation service.
type RecommendationError struct {
	Msg string
	Err error
}

func (e *RecommendationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recommendation failed: %s: %v", e.Msg, e.Err)
	}
	return "recommendation failed: " + e.Msg
}

func (e *RecommendationError) Unwrap() error { return e.Err }

func (e *RecommendationError) Code() Code { return CodeRecommendationFailure }

// UploadNotFoundError is returned when a stored upload id is unknown or malformed.
type UploadNotFoundError struct {
	ID string
}

func (e *UploadNotFoundError) Error() string {
	return fmt.Sprintf("upload %q not found", e.ID)
}

func (e *UploadNotFoundError) Code() Code { return CodeUploadNotFound }
