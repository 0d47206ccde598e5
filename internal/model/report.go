package model

import "time"

// PageOutcome describes what happened to a single page during a run.
type PageOutcome string

const (
	PageOK     PageOutcome = "ok"     // page analyzed, findings (possibly zero) recorded
	PageFailed PageOutcome = "failed" // extraction or analysis errored; page contributed nothing
)

// PageStatus records the per-page outcome of an analysis run, so a page
// that failed is distinguishable from a page that was analyzed and found
// clean.
type PageStatus struct {
	Page     int         `json:"page"`
	Status   PageOutcome `json:"status"`
	Findings int         `json:"findings"`
	Degraded bool        `json:"degraded,omitempty"` // whole-document buffer was analyzed instead of a single page
	Error    string      `json:"error,omitempty"`
}

// PageRange is a closed 1-indexed interval of PDF pages, already clamped
// to the document.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the clamped range selects no pages.
func (r PageRange) Empty() bool {
	return r.Start > r.End
}

// Len returns the number of pages the range selects.
func (r PageRange) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Report is the complete result of analyzing a page range of one document.
type Report struct {
	DocumentName string    `json:"document_name,omitempty"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	Backend      string    `json:"backend"`
	PageCount    int       `json:"page_count"`
	Range        PageRange `json:"range"`

	Pages    []PageStatus `json:"pages"`
	Findings []Finding    `json:"findings"`

	// Score is the quality index, when scoring was requested.
	Score *Score `json:"score,omitempty"`
}

// CountByCategory tallies findings per taxonomy category.
func (r *Report) CountByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, f := range r.Findings {
		counts[f.Category]++
	}
	return counts
}

// CountByPriority tallies findings per priority.
func (r *Report) CountByPriority() map[Priority]int {
	counts := make(map[Priority]int)
	for _, f := range r.Findings {
		counts[f.Priority]++
	}
	return counts
}

// FailedPages returns the pages that contributed zero findings because of
// an error, in ascending order.
func (r *Report) FailedPages() []int {
	var failed []int
	for _, p := range r.Pages {
		if p.Status == PageFailed {
			failed = append(failed, p.Page)
		}
	}
	return failed
}
