// Package detector picks a parsing strategy from the declared MIME type and
// file name of an upload.
package detector

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"

	"fjacquet/statement-insights/internal/parsererror"
)

// Format is the parsing strategy for a file.
type Format string

const (
	CSV         Format = "csv"
	Excel       Format = "excel"
	PDF         Format = "pdf"
	Image       Format = "image"
	Unsupported Format = "unsupported"
)

// XLSXMIMEType is the MIME type of Office Open XML workbooks.
const XLSXMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var mimeFormats = map[string]Format{
	"text/csv":                 CSV,
	"text/plain":               CSV,
	"application/csv":          CSV,
	"application/vnd.ms-excel": Excel,
	XLSXMIMEType:               Excel,
	"application/pdf":          PDF,
	"image/jpeg":               Image,
	"image/png":                Image,
}

var extFormats = map[string]Format{
	".csv":  CSV,
	".xlsx": Excel,
	".xls":  Excel,
	".pdf":  PDF,
	".jpg":  Image,
	".jpeg": Image,
	".png":  Image,
}

// genericTypes carry no information about the content and defer to the extension.
var genericTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// Detect returns the format for an upload. A recognized MIME type wins; an
// empty or generic one falls back to the file extension. Any other MIME type
// is unsupported.
func Detect(mimeType, filename string) Format {
	mt := normalizeMIME(mimeType)
	ext := strings.ToLower(filepath.Ext(filename))

	if f, ok := mimeFormats[mt]; ok {
		if f == Excel && mt == "application/vnd.ms-excel" && ext == ".csv" {
			return CSV
		}
		return f
	}
	if !genericTypes[mt] {
		return Unsupported
	}
	if f, ok := extFormats[ext]; ok {
		return f
	}
	return Unsupported
}

// Supported reports whether f has a parser.
func (f Format) Supported() bool {
	return f != Unsupported && f != ""
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt, _, _ = strings.Cut(mimeType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

var pdfSignature = []byte("%PDF-")

// CheckSignature rejects content that cannot be of the detected format before
// any parser runs.
func CheckSignature(format Format, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &parsererror.InvalidFormatError{Format: string(format), Msg: "file is empty"}
	}
	if format == PDF && !bytes.HasPrefix(data, pdfSignature) {
		return &parsererror.InvalidFormatError{Format: string(format), Msg: "missing %PDF- signature", ActualContentSnippet: head(data)}
	}
	return nil
}

func head(data []byte) string {
	if len(data) > 16 {
		data = data[:16]
	}
	return string(data)
}
