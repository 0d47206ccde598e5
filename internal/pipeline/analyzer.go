package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jmribera/textaudit/internal/cache"
	"github.com/jmribera/textaudit/internal/llm"
	"github.com/jmribera/textaudit/internal/model"
	"github.com/jmribera/textaudit/internal/pdf"
	"github.com/jmribera/textaudit/internal/validate"
)

// PageSource isolates single pages from a document buffer.
type PageSource interface {
	PageCount(doc []byte) (int, error)
	ExtractPage(doc []byte, pageNumber int) (*pdf.PageBuffer, error)
}

// ProgressFunc receives monotonic progress, once per completed page,
// 1-indexed, in ascending order.
type ProgressFunc func(done, total int)

// Analyzer orchestrates the page-by-page analysis of one document:
// extract a single page, analyze it, clean the findings, stamp metadata,
// and isolate per-page failures so no single page aborts the run.
//
// Pages are processed strictly sequentially in ascending order. A stateless
// backend makes the analyzer safe to share across goroutines; each
// Analyze call owns its own accumulator.
type Analyzer struct {
	extractor PageSource
	backend   llm.Backend
	cleaner   *validate.Cleaner
	cache     cache.Cache // nil disables caching
	cacheTTL  time.Duration
	maxBytes  int64
}

// NewAnalyzer builds the full analysis stack from configuration.
// Backend construction errors (missing API key, unknown backend name)
// surface here, before any analysis runs.
func NewAnalyzer(cfg *model.Config) (*Analyzer, error) {
	extractor := pdf.NewExtractor()

	backend, err := llm.NewBackend(llm.ConfigFromModel(cfg.LLM), extractor)
	if err != nil {
		return nil, fmt.Errorf("configure backend: %w", err)
	}

	cleaner := validate.NewCleaner(
		validate.ParsePolicy(cfg.Validate.OnInvalidCategory),
		model.Category(cfg.Validate.FallbackCategory),
	)

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			pageCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			pageCache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	return &Analyzer{
		extractor: extractor,
		backend:   backend,
		cleaner:   cleaner,
		cache:     pageCache,
		cacheTTL:  cfg.Cache.TTL,
		maxBytes:  cfg.Document.MaxBytes,
	}, nil
}

// NewAnalyzerWith wires an analyzer from explicit components. Used by
// tests and by callers that already own a backend.
func NewAnalyzerWith(extractor PageSource, backend llm.Backend, cleaner *validate.Cleaner) *Analyzer {
	return &Analyzer{
		extractor: extractor,
		backend:   backend,
		cleaner:   cleaner,
	}
}

// Backend returns the active backend name.
func (a *Analyzer) Backend() string {
	return a.backend.Name()
}

// Analyze analyzes the requested page range of the document.
//
// The range is clamped to [1, pageCount]; an empty clamped range yields an
// empty report, not an error. A page whose extraction or analysis fails is
// logged, recorded in the report's page statuses, and skipped; the run
// always continues to the next page.
func (a *Analyzer) Analyze(ctx context.Context, doc []byte, startPage, endPage int, onProgress ProgressFunc) (*model.Report, error) {
	pageCount, err := a.extractor.PageCount(doc)
	if err != nil {
		return nil, fmt.Errorf("resolve page count: %w", err)
	}

	pageRange := clampRange(startPage, endPage, pageCount)

	report := &model.Report{
		AnalyzedAt: time.Now().UTC(),
		Backend:    a.backend.Name(),
		PageCount:  pageCount,
		Range:      pageRange,
		Pages:      []model.PageStatus{},
		Findings:   []model.Finding{},
	}

	if pageRange.Empty() {
		slog.Info("clamped page range is empty, nothing to analyze",
			"requested_start", startPage, "requested_end", endPage, "page_count", pageCount)
		return report, nil
	}

	total := pageRange.Len()
	done := 0

	for page := pageRange.Start; page <= pageRange.End; page++ {
		status := a.analyzePage(ctx, doc, page, report)
		report.Pages = append(report.Pages, status)

		done++
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	slog.Info("analysis complete",
		"backend", a.backend.Name(),
		"pages", total,
		"findings", len(report.Findings),
		"failed_pages", len(report.FailedPages()))

	return report, nil
}

// AuditFile loads a document from disk and analyzes all of its pages.
func (a *Analyzer) AuditFile(ctx context.Context, path string) (*model.Report, error) {
	doc, err := LoadDocument(path, a.maxBytes)
	if err != nil {
		return nil, err
	}

	report, err := a.Analyze(ctx, doc, 1, int(^uint(0)>>1), nil)
	if err != nil {
		return nil, err
	}
	report.DocumentName = filepath.Base(path)
	return report, nil
}

// AnalyzeSinglePage is a convenience entry point for one page.
func (a *Analyzer) AnalyzeSinglePage(ctx context.Context, doc []byte, pageNumber int) (*model.Report, error) {
	return a.Analyze(ctx, doc, pageNumber, pageNumber, nil)
}

// analyzePage runs extract -> backend -> clean -> stamp for one page and
// appends the findings to the report. Every failure is contained here.
func (a *Analyzer) analyzePage(ctx context.Context, doc []byte, page int, report *model.Report) model.PageStatus {
	status := model.PageStatus{Page: page, Status: model.PageOK}

	buf, err := a.extractor.ExtractPage(doc, page)
	if err != nil {
		slog.Error("page extraction failed", "page", page, "error", err)
		status.Status = model.PageFailed
		status.Error = err.Error()
		return status
	}
	status.Degraded = buf.Degraded

	// A degraded buffer is the whole document, so its bytes no longer
	// identify one page; caching by content would replay one page's result
	// for every other page.
	var result *llm.PageResult
	fromCache := false
	if !buf.Degraded {
		result, fromCache = a.cachedResult(buf.Data)
	}
	if !fromCache {
		result, err = a.backend.AnalyzePage(ctx, buf.Data, page)
		if err != nil {
			slog.Error("page analysis failed", "page", page, "backend", a.backend.Name(), "error", err)
			status.Status = model.PageFailed
			status.Error = err.Error()
			return status
		}
		if !buf.Degraded {
			a.storeResult(buf.Data, result)
		}
	}

	cleaned := a.cleaner.Clean(result.Findings)

	language := result.DetectedLanguage
	if !model.SupportedLanguage(language) {
		language = model.DefaultLanguage
	}
	printedPage := parsePrintedPage(result.PrintedPageLabel, page)

	for _, f := range cleaned {
		f.PDFPage = page // authoritative, regardless of what the backend reported
		f.PrintedPage = printedPage
		f.DetectedLanguage = language
		report.Findings = append(report.Findings, f)
	}

	status.Findings = len(cleaned)
	return status
}

// cachedResult looks up the raw backend result for identical page bytes.
func (a *Analyzer) cachedResult(pageBytes []byte) (*llm.PageResult, bool) {
	if a.cache == nil {
		return nil, false
	}

	data, found := a.cache.Get(cache.PageKey(pageBytes, a.backend.Name()))
	if !found {
		return nil, false
	}

	var result llm.PageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (a *Analyzer) storeResult(pageBytes []byte, result *llm.PageResult) {
	if a.cache == nil || result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := a.cache.Set(cache.PageKey(pageBytes, a.backend.Name()), data, a.cacheTTL); err != nil {
		slog.Debug("page result cache store failed", "error", err)
	}
}

// clampRange clamps [start, end] into [1, pageCount]. Out-of-range input
// is corrected, never rejected; a crossed range after clamping is empty.
func clampRange(start, end, pageCount int) model.PageRange {
	if start < 1 {
		start = 1
	}
	if end > pageCount {
		end = pageCount
	}
	return model.PageRange{Start: start, End: end}
}

// parsePrintedPage parses the backend's printed-page label, falling back
// to the PDF page number.
func parsePrintedPage(label string, pdfPage int) int {
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return pdfPage
	}
	return n
}
