package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrOutOfRange is returned when a requested page number lies outside the
// document.
var ErrOutOfRange = errors.New("page number out of range")

// PageBuffer is a standalone document buffer produced by page extraction.
// When Degraded is set, single-page isolation was unavailable and Data is
// the original multi-page buffer unchanged; callers must treat Degraded as
// a capability flag, not assume isolation.
type PageBuffer struct {
	Data     []byte
	Page     int
	Degraded bool
}

// Extractor isolates single pages from a PDF byte buffer and extracts
// plain text. Side-effect-free; input buffers are never mutated.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// PageCount returns the total number of pages in the document.
func (e *Extractor) PageCount(doc []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(doc), nil)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return count, nil
}

// ExtractPage produces a new, independent single-page PDF for the given
// 1-indexed page number. The page number must lie in [1, PageCount].
//
// If page surgery fails at the library level the extractor degrades to
// returning the original buffer unchanged with the Degraded flag set.
func (e *Extractor) ExtractPage(doc []byte, pageNumber int) (*PageBuffer, error) {
	if pageNumber < 1 {
		return nil, fmt.Errorf("%w: page %d", ErrOutOfRange, pageNumber)
	}
	count, err := e.PageCount(doc)
	if err != nil {
		return nil, err
	}
	if pageNumber > count {
		return nil, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, pageNumber, count)
	}

	var out bytes.Buffer
	pages := []string{strconv.Itoa(pageNumber)}
	if err := api.Trim(bytes.NewReader(doc), &out, pages, nil); err != nil {
		slog.Warn("single-page extraction unavailable, degrading to whole document",
			"page", pageNumber, "error", err)
		return &PageBuffer{Data: doc, Page: pageNumber, Degraded: true}, nil
	}

	return &PageBuffer{Data: out.Bytes(), Page: pageNumber}, nil
}

// ExtractText extracts the plain text of the first page of a (typically
// single-page) buffer. Best effort: returns the empty string on any
// failure and never panics.
func (e *Extractor) ExtractText(doc []byte) (text string) {
	// The text layer parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("text extraction panicked", "recovered", r)
			text = ""
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return ""
	}
	if reader.NumPage() < 1 {
		return ""
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
