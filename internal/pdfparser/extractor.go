package pdfparser

import (
	"bytes"
	"fmt"

	"github.com/dslipak/pdf"
)

// Extractor extracts the text layer of a PDF document.
type Extractor interface {
	ExtractText(data []byte) (string, error)
}

// DslipakExtractor reads the embedded text layer with the pure Go dslipak/pdf reader.
type DslipakExtractor struct{}

// NewDslipakExtractor creates a DslipakExtractor.
func NewDslipakExtractor() *DslipakExtractor {
	return &DslipakExtractor{}
}

// ExtractText returns the plain text of every page. The reader panics on some
// malformed documents, so panics are turned into errors.
func (e *DslipakExtractor) ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MockExtractor returns canned text, for tests.
type MockExtractor struct {
	Text string
	Err  error
}

// NewMockExtractor creates a MockExtractor.
func NewMockExtractor(text string, err error) *MockExtractor {
	return &MockExtractor{Text: text, Err: err}
}

// ExtractText returns the canned text or error.
func (e *MockExtractor) ExtractText([]byte) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}
