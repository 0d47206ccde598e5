package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmribera/textaudit/internal/cache"
	"github.com/jmribera/textaudit/internal/llm"
	"github.com/jmribera/textaudit/internal/model"
	"github.com/jmribera/textaudit/internal/pdf"
	"github.com/jmribera/textaudit/internal/validate"
)

type fakeSource struct {
	pages       int
	failPages   map[int]bool
	degradePage int
	degradeAll  bool
}

func (f *fakeSource) PageCount(doc []byte) (int, error) {
	if f.pages <= 0 {
		return 0, errors.New("unreadable document")
	}
	return f.pages, nil
}

func (f *fakeSource) ExtractPage(doc []byte, pageNumber int) (*pdf.PageBuffer, error) {
	if pageNumber < 1 || pageNumber > f.pages {
		return nil, pdf.ErrOutOfRange
	}
	if f.failPages[pageNumber] {
		return nil, errors.New("extraction failed")
	}
	if f.degradeAll {
		// Single-page isolation unavailable: every page carries the same
		// whole-document buffer.
		return &pdf.PageBuffer{Data: doc, Page: pageNumber, Degraded: true}, nil
	}
	return &pdf.PageBuffer{
		Data:     []byte{byte(pageNumber)},
		Page:     pageNumber,
		Degraded: pageNumber == f.degradePage,
	}, nil
}

type fakeBackend struct {
	calls     []int
	failPages map[int]bool
	results   map[int]*llm.PageResult
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeBackend) AnalyzePage(ctx context.Context, pageBytes []byte, pageNumber int) (*llm.PageResult, error) {
	f.calls = append(f.calls, pageNumber)
	if f.failPages[pageNumber] {
		return nil, errors.New("backend unavailable")
	}
	if r, ok := f.results[pageNumber]; ok {
		return r, nil
	}
	return &llm.PageResult{}, nil
}

func newTestAnalyzer(source *fakeSource, backend *fakeBackend) *Analyzer {
	cleaner := validate.NewCleaner(validate.PolicyDrop, model.CategorySemantics)
	return NewAnalyzerWith(source, backend, cleaner)
}

func finding(cat model.Category) model.Finding {
	return model.Finding{
		Category:         cat,
		Priority:         model.PriorityMedium,
		OriginalFragment: "texto con problema",
		Recommendation:   "revisar la redaccion del fragmento",
	}
}

func TestAnalyzeClampsRange(t *testing.T) {
	source := &fakeSource{pages: 10}
	backend := &fakeBackend{}
	a := newTestAnalyzer(source, backend)

	report, err := a.Analyze(context.Background(), []byte("doc"), 8, 15, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Range.Start != 8 || report.Range.End != 10 {
		t.Errorf("range = [%d,%d], want [8,10]", report.Range.Start, report.Range.End)
	}
	if len(backend.calls) != 3 {
		t.Fatalf("backend calls = %d, want 3", len(backend.calls))
	}
	for i, page := range []int{8, 9, 10} {
		if backend.calls[i] != page {
			t.Errorf("call %d analyzed page %d, want %d", i, backend.calls[i], page)
		}
	}
}

func TestAnalyzeEmptyRange(t *testing.T) {
	source := &fakeSource{pages: 10}
	backend := &fakeBackend{}
	a := newTestAnalyzer(source, backend)

	report, err := a.Analyze(context.Background(), []byte("doc"), 7, 3, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(backend.calls) != 0 {
		t.Errorf("backend invoked %d times on empty range", len(backend.calls))
	}
	if len(report.Findings) != 0 || len(report.Pages) != 0 {
		t.Errorf("empty range produced findings=%d pages=%d", len(report.Findings), len(report.Pages))
	}
}

func TestAnalyzePageCountError(t *testing.T) {
	a := newTestAnalyzer(&fakeSource{pages: 0}, &fakeBackend{})

	if _, err := a.Analyze(context.Background(), []byte("doc"), 1, 5, nil); err == nil {
		t.Fatal("expected error for unreadable document")
	}
}

func TestAnalyzeFailureIsolation(t *testing.T) {
	source := &fakeSource{pages: 3, failPages: map[int]bool{2: true}}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			1: {Findings: []model.Finding{finding(model.CategoryGrammar)}},
			3: {Findings: []model.Finding{finding(model.CategoryOrthography)}},
		},
	}
	a := newTestAnalyzer(source, backend)

	report, err := a.Analyze(context.Background(), []byte("doc"), 1, 3, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(report.Pages) != 3 {
		t.Fatalf("page statuses = %d, want 3", len(report.Pages))
	}
	if report.Pages[1].Status != model.PageFailed {
		t.Errorf("page 2 status = %q, want failed", report.Pages[1].Status)
	}
	if report.Pages[1].Error == "" {
		t.Error("failed page has no error message")
	}
	if len(report.Findings) != 2 {
		t.Errorf("findings = %d, want 2 from surviving pages", len(report.Findings))
	}
	if failed := report.FailedPages(); len(failed) != 1 || failed[0] != 2 {
		t.Errorf("FailedPages = %v, want [2]", failed)
	}
}

func TestAnalyzeBackendFailureIsolation(t *testing.T) {
	source := &fakeSource{pages: 2}
	backend := &fakeBackend{
		failPages: map[int]bool{1: true},
		results: map[int]*llm.PageResult{
			2: {Findings: []model.Finding{finding(model.CategoryGenderBias)}},
		},
	}
	a := newTestAnalyzer(source, backend)

	report, err := a.Analyze(context.Background(), []byte("doc"), 1, 2, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Pages[0].Status != model.PageFailed {
		t.Errorf("page 1 status = %q, want failed", report.Pages[0].Status)
	}
	if len(report.Findings) != 1 {
		t.Errorf("findings = %d, want 1", len(report.Findings))
	}
}

func TestAnalyzeStampsMetadata(t *testing.T) {
	bad := finding(model.CategoryGrammar)
	bad.PDFPage = 999

	source := &fakeSource{pages: 5}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			3: {
				DetectedLanguage: "en",
				PrintedPageLabel: "12",
				Findings:         []model.Finding{bad},
			},
		},
	}
	a := newTestAnalyzer(source, backend)

	report, err := a.AnalyzeSinglePage(context.Background(), []byte("doc"), 3)
	if err != nil {
		t.Fatalf("AnalyzeSinglePage: %v", err)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(report.Findings))
	}

	f := report.Findings[0]
	if f.PDFPage != 3 {
		t.Errorf("PDFPage = %d, want 3 regardless of backend value", f.PDFPage)
	}
	if f.PrintedPage != 12 {
		t.Errorf("PrintedPage = %d, want 12", f.PrintedPage)
	}
	if f.DetectedLanguage != "en" {
		t.Errorf("DetectedLanguage = %q, want en", f.DetectedLanguage)
	}
}

func TestAnalyzeMetadataFallbacks(t *testing.T) {
	source := &fakeSource{pages: 5}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			4: {
				DetectedLanguage: "fr",
				PrintedPageLabel: "xii",
				Findings:         []model.Finding{finding(model.CategorySemantics)},
			},
		},
	}
	a := newTestAnalyzer(source, backend)

	report, err := a.AnalyzeSinglePage(context.Background(), []byte("doc"), 4)
	if err != nil {
		t.Fatalf("AnalyzeSinglePage: %v", err)
	}

	f := report.Findings[0]
	if f.DetectedLanguage != model.DefaultLanguage {
		t.Errorf("DetectedLanguage = %q, want fallback %q", f.DetectedLanguage, model.DefaultLanguage)
	}
	if f.PrintedPage != 4 {
		t.Errorf("PrintedPage = %d, want PDF page fallback 4", f.PrintedPage)
	}
}

func TestAnalyzeDegradedFlag(t *testing.T) {
	source := &fakeSource{pages: 3, degradePage: 2}
	a := newTestAnalyzer(source, &fakeBackend{})

	report, err := a.Analyze(context.Background(), []byte("doc"), 1, 3, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, status := range report.Pages {
		want := status.Page == 2
		if status.Degraded != want {
			t.Errorf("page %d degraded = %v, want %v", status.Page, status.Degraded, want)
		}
	}
}

func TestAnalyzeCachesPageResults(t *testing.T) {
	source := &fakeSource{pages: 2}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			1: {Findings: []model.Finding{finding(model.CategoryGrammar)}},
			2: {Findings: []model.Finding{finding(model.CategoryOrthography)}},
		},
	}
	a := newTestAnalyzer(source, backend)
	a.cache = cache.NewMemoryCache(time.Hour, time.Hour)
	a.cacheTTL = time.Hour

	for run := 0; run < 2; run++ {
		report, err := a.Analyze(context.Background(), []byte("doc"), 1, 2, nil)
		if err != nil {
			t.Fatalf("Analyze run %d: %v", run, err)
		}
		if len(report.Findings) != 2 {
			t.Fatalf("run %d findings = %d, want 2", run, len(report.Findings))
		}
	}

	if len(backend.calls) != 2 {
		t.Errorf("backend calls = %d, want 2 (second run served from cache)", len(backend.calls))
	}
}

func TestAnalyzeDegradedPagesBypassCache(t *testing.T) {
	source := &fakeSource{pages: 2, degradeAll: true}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			1: {PrintedPageLabel: "101", Findings: []model.Finding{finding(model.CategoryGenderBias)}},
			2: {PrintedPageLabel: "202", Findings: []model.Finding{finding(model.CategoryOrthography)}},
		},
	}
	a := newTestAnalyzer(source, backend)
	a.cache = cache.NewMemoryCache(time.Hour, time.Hour)
	a.cacheTTL = time.Hour

	report, err := a.Analyze(context.Background(), []byte("doc"), 1, 2, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Both pages carry identical document bytes; each must still reach the
	// backend and keep its own result.
	if len(backend.calls) != 2 {
		t.Fatalf("backend calls = %v, want both pages analyzed", backend.calls)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(report.Findings))
	}

	first, second := report.Findings[0], report.Findings[1]
	if first.Category != model.CategoryGenderBias || first.PDFPage != 1 || first.PrintedPage != 101 {
		t.Errorf("page 1 finding = %s/%d/%d, want gender_bias/1/101", first.Category, first.PDFPage, first.PrintedPage)
	}
	if second.Category != model.CategoryOrthography || second.PDFPage != 2 || second.PrintedPage != 202 {
		t.Errorf("page 2 finding = %s/%d/%d, want orthography/2/202", second.Category, second.PDFPage, second.PrintedPage)
	}
}

func TestAnalyzeProgressMonotonic(t *testing.T) {
	source := &fakeSource{pages: 4}
	a := newTestAnalyzer(source, &fakeBackend{})

	var seen []int
	_, err := a.Analyze(context.Background(), []byte("doc"), 1, 4, func(done, total int) {
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		seen = append(seen, done)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(seen) != 4 {
		t.Fatalf("progress callbacks = %d, want 4", len(seen))
	}
	for i, d := range seen {
		if d != i+1 {
			t.Errorf("callback %d reported done=%d, want %d", i, d, i+1)
		}
	}
}

func TestAnalyzeDropsInvalidCategories(t *testing.T) {
	bogus := finding("invented_category")

	source := &fakeSource{pages: 1}
	backend := &fakeBackend{
		results: map[int]*llm.PageResult{
			1: {Findings: []model.Finding{bogus, finding(model.CategoryGrammar)}},
		},
	}
	a := newTestAnalyzer(source, backend)

	report, err := a.AnalyzeSinglePage(context.Background(), []byte("doc"), 1)
	if err != nil {
		t.Fatalf("AnalyzeSinglePage: %v", err)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("findings = %d, want 1 after drop", len(report.Findings))
	}
	if report.Findings[0].Category != model.CategoryGrammar {
		t.Errorf("surviving category = %q, want grammar", report.Findings[0].Category)
	}
	if report.Pages[0].Findings != 1 {
		t.Errorf("page status findings = %d, want 1", report.Pages[0].Findings)
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := LoadDocument(path, 1<<20)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty document loaded")
	}
}

func TestLoadDocumentNotPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDocument(path, 0); !errors.Is(err, ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
}

func TestLoadDocumentTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 plus lots of content here"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDocument(path, 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestLoadDocumentMissing(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "absent.pdf"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}
