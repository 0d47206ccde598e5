package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// buildPDF constructs a minimal valid PDF with the given number of empty
// pages, computing the xref offsets as the objects are written.
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", i+3)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", kids, pages),
	}
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R >>")
	}

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return buf.Bytes()
}

func TestPageCount(t *testing.T) {
	e := NewExtractor()

	count, err := e.PageCount(buildPDF(t, 5))
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestPageCountGarbage(t *testing.T) {
	e := NewExtractor()

	if _, err := e.PageCount([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := e.PageCount(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestExtractPageSinglePageBuffer(t *testing.T) {
	e := NewExtractor()
	doc := buildPDF(t, 5)

	buf, err := e.ExtractPage(doc, 3)
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if buf.Degraded {
		t.Error("extraction degraded for a valid document")
	}
	if buf.Page != 3 {
		t.Errorf("page = %d, want 3", buf.Page)
	}

	count, err := e.PageCount(buf.Data)
	if err != nil {
		t.Fatalf("PageCount on extracted buffer: %v", err)
	}
	if count != 1 {
		t.Errorf("extracted buffer has %d pages, want 1", count)
	}
}

func TestExtractPagePastDocumentEnd(t *testing.T) {
	e := NewExtractor()
	doc := buildPDF(t, 5)

	_, err := e.ExtractPage(doc, 6)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestExtractPageOutOfRange(t *testing.T) {
	e := NewExtractor()

	// Garbage documents fail before range validation when the page count
	// cannot be resolved; range validation itself is exercised with
	// explicit bounds.
	if _, err := e.ExtractPage([]byte("garbage"), 1); err == nil {
		t.Error("expected error for garbage document")
	}

	for _, page := range []int{0, -3} {
		_, err := e.ExtractPage([]byte("garbage"), page)
		if err == nil {
			t.Errorf("page %d: expected error", page)
		}
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("page %d: err = %v, want ErrOutOfRange", page, err)
		}
	}
}

func TestExtractTextGarbage(t *testing.T) {
	e := NewExtractor()

	// Text extraction is best-effort: malformed input yields empty text,
	// never a panic.
	if got := e.ExtractText([]byte("garbage bytes")); got != "" {
		t.Errorf("ExtractText on garbage = %q, want empty", got)
	}
	if got := e.ExtractText(nil); got != "" {
		t.Errorf("ExtractText on nil = %q, want empty", got)
	}
}
