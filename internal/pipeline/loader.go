package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

var pdfMagic = []byte("%PDF-")

// ErrNotPDF is returned when a loaded file does not carry the PDF header.
var ErrNotPDF = errors.New("not a PDF document")

// ErrTooLarge is returned when a document exceeds the configured size cap.
var ErrTooLarge = errors.New("document exceeds size limit")

// LoadDocument reads a PDF from disk into memory, enforcing the byte cap
// and the %PDF- header. maxBytes <= 0 disables the cap.
func LoadDocument(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if err := CheckPDFHeader(data); err != nil {
		return nil, err
	}
	return data, nil
}

// CheckPDFHeader verifies the buffer starts with the PDF magic bytes.
func CheckPDFHeader(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return ErrNotPDF
	}
	return nil
}
