package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jmribera/textaudit/internal/model"
)

// RenderXLSX returns the report as an XLSX workbook with a findings sheet
// and a summary sheet.
func (r *Renderer) RenderXLSX(rep *model.Report) ([]byte, error) {
	f := excelize.NewFile()

	const sheet = "Findings"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Category", "Priority", "PDF Page", "Printed Page", "Fragment", "Recommendation"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, finding := range sortedFindings(rep.Findings) {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, string(finding.Category))
		write(2, string(finding.Priority))
		write(3, finding.PDFPage)
		if finding.PrintedPage > 0 {
			write(4, finding.PrintedPage)
		}
		write(5, finding.OriginalFragment)
		write(6, finding.Recommendation)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 16)
	_ = f.SetColWidth(sheet, "C", "D", 12)
	_ = f.SetColWidth(sheet, "E", "E", 48)
	_ = f.SetColWidth(sheet, "F", "F", 60)

	if err := r.addSummarySheet(f, rep); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) addSummarySheet(f *excelize.File, rep *model.Report) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, "Document")
	write(2, 1, rep.DocumentName)
	write(1, 2, "Backend")
	write(2, 2, rep.Backend)
	write(1, 3, "Pages Analyzed")
	write(2, 3, rep.Range.Len())
	write(1, 4, "Total Findings")
	write(2, 4, len(rep.Findings))

	row := 6
	write(1, row, "Category")
	write(2, row, "Count")
	row++
	byCategory := rep.CountByCategory()
	for _, cat := range model.Categories() {
		if n := byCategory[cat]; n > 0 {
			write(1, row, string(cat))
			write(2, row, n)
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

// WriteXLSX renders and writes the XLSX report to path.
func (r *Renderer) WriteXLSX(rep *model.Report, path string) error {
	data, err := r.RenderXLSX(rep)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}
