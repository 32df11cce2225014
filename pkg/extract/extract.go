// Package extract converts documents and spreadsheets into the canonical
// provider-agnostic shape: extracted text plus an ordered list of normalized
// inline images. One reader per format, dispatched by extension.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// Content is the canonical extraction result. It is request-scoped and never
// persisted; callers own it only for the duration of a single request.
type Content struct {
	Text   string
	Images []imaging.Image
}

// UnsupportedFormatError identifies an extension no reader claims.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

// DocumentReadError wraps any underlying I/O or parse failure from a document
// reader. Callers only ever see this wrapper, never the original error type.
type DocumentReadError struct {
	Path  string
	Cause error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("error reading document %s: %v", e.Path, e.Cause)
}

func (e *DocumentReadError) Unwrap() error { return e.Cause }

// SpreadsheetReadError is the spreadsheet counterpart of DocumentReadError.
type SpreadsheetReadError struct {
	Path  string
	Cause error
}

func (e *SpreadsheetReadError) Error() string {
	return fmt.Sprintf("error reading spreadsheet %s: %v", e.Path, e.Cause)
}

func (e *SpreadsheetReadError) Unwrap() error { return e.Cause }

// Document extracts text and embedded images from a document file, dispatching
// on the (case-insensitive) extension. Readers degrade rather than fail where
// the format allows it: RTF comes back as raw text, ODT as a fixed
// "not supported" notice.
func Document(path string) (Content, error) {
	var (
		content Content
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx", ".doc":
		content, err = readWord(path)
	case ".pdf":
		content, err = readPDF(path)
	case ".pptx", ".ppt":
		content, err = readPowerPoint(path)
	case ".rtf":
		content, err = readRTF(path)
	case ".odt":
		content, err = readODT(path)
	case ".txt", ".md", ".html", ".htm":
		content, err = readText(path, ext)
	default:
		return Content{}, &UnsupportedFormatError{Ext: ext}
	}

	if err != nil {
		return Content{}, &DocumentReadError{Path: path, Cause: err}
	}
	return content, nil
}

// Spreadsheet flattens tabular data into text. Spreadsheets never carry
// inline images.
func Spreadsheet(path string) (Content, error) {
	var (
		text string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		text, err = readCSV(path)
	case ".xlsx", ".xls":
		text, err = readWorkbook(path)
	default:
		return Content{}, &UnsupportedFormatError{Ext: ext}
	}

	if err != nil {
		return Content{}, &SpreadsheetReadError{Path: path, Cause: err}
	}
	return Content{Text: text}, nil
}
