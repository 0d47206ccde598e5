package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jmribera/textaudit/internal/model"
)

const placeholder = "—"

// Renderer produces report output in the supported formats.
type Renderer struct {
	IncludeFooter bool
}

// NewRenderer creates a renderer with the default footer setting.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{IncludeFooter: includeFooter}
}

// RenderJSON returns the report as indented JSON.
func (r *Renderer) RenderJSON(rep *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// RenderMarkdown returns the report as a Markdown document: per-document
// header, findings table, summary counts, and failed pages, if any.
// The findings table is sorted by PDF page, then category.
func (r *Renderer) RenderMarkdown(rep *model.Report) string {
	var b strings.Builder

	name := rep.DocumentName
	if name == "" {
		name = "document"
	}

	fmt.Fprintf(&b, "# Analysis Report: %s\n\n", name)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", rep.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Backend:** %s\n", rep.Backend)
	fmt.Fprintf(&b, "- **Pages:** %d of %d analyzed", rep.Range.Len(), rep.PageCount)
	if !rep.Range.Empty() {
		fmt.Fprintf(&b, " (%d-%d)", rep.Range.Start, rep.Range.End)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Findings:** %d\n\n", len(rep.Findings))

	if len(rep.Findings) == 0 {
		b.WriteString("No issues found in the analyzed pages.\n")
	} else {
		b.WriteString("## Findings\n\n")
		b.WriteString("| Category | Priority | Page | Printed | Fragment | Recommendation |\n")
		b.WriteString("|----------|----------|------|---------|----------|----------------|\n")
		for _, f := range sortedFindings(rep.Findings) {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s |\n",
				f.Category,
				f.Priority,
				f.PDFPage,
				printedCell(f.PrintedPage),
				tableCell(f.OriginalFragment),
				tableCell(f.Recommendation))
		}
		b.WriteString("\n")

		r.writeSummary(&b, rep)
	}

	if failed := rep.FailedPages(); len(failed) > 0 {
		b.WriteString("## Failed Pages\n\n")
		b.WriteString("The following pages could not be analyzed: ")
		b.WriteString(joinInts(failed))
		b.WriteString("\n\n")
	}

	if r.IncludeFooter {
		b.WriteString("---\n")
		b.WriteString("*Generated by textaudit*\n")
	}

	return b.String()
}

func (r *Renderer) writeSummary(b *strings.Builder, rep *model.Report) {
	b.WriteString("## Summary\n\n")

	b.WriteString("### By Category\n\n")
	byCategory := rep.CountByCategory()
	for _, cat := range model.Categories() {
		if n := byCategory[cat]; n > 0 {
			fmt.Fprintf(b, "- %s: %d\n", cat, n)
		}
	}
	b.WriteString("\n")

	b.WriteString("### By Priority\n\n")
	byPriority := rep.CountByPriority()
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		if n := byPriority[p]; n > 0 {
			fmt.Fprintf(b, "- %s: %d\n", p, n)
		}
	}
	b.WriteString("\n")
}

// RenderCSV returns the findings as CSV with a header row, sorted the
// same way as the Markdown table.
func (r *Renderer) RenderCSV(rep *model.Report) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := []string{"category", "priority", "pdf_page", "printed_page", "original_fragment", "recommendation"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, f := range sortedFindings(rep.Findings) {
		row := []string{
			string(f.Category),
			string(f.Priority),
			strconv.Itoa(f.PDFPage),
			strconv.Itoa(f.PrintedPage),
			f.OriginalFragment,
			f.Recommendation,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return []byte(b.String()), nil
}

// WriteJSON renders and writes the JSON report to path.
func (r *Renderer) WriteJSON(rep *model.Report, path string) error {
	data, err := r.RenderJSON(rep)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteMarkdown renders and writes the Markdown report to path.
func (r *Renderer) WriteMarkdown(rep *model.Report, path string) error {
	return writeFile(path, []byte(r.RenderMarkdown(rep)))
}

// WriteCSV renders and writes the CSV report to path.
func (r *Renderer) WriteCSV(rep *model.Report, path string) error {
	data, err := r.RenderCSV(rep)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// sortedFindings returns a copy sorted by PDF page, then category. The
// report's own slice is never reordered.
func sortedFindings(findings []model.Finding) []model.Finding {
	out := make([]model.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PDFPage != out[j].PDFPage {
			return out[i].PDFPage < out[j].PDFPage
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// tableCell escapes a value for a Markdown table cell.
func tableCell(s string) string {
	if s == "" {
		return placeholder
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func printedCell(printed int) string {
	if printed <= 0 {
		return placeholder
	}
	return strconv.Itoa(printed)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
