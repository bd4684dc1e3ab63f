// Package report renders aggregated production data as spreadsheet
// workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/welder-tracker/internal/aggregate"
)

// SummarySheet is the name of the only sheet in the summary workbook.
const SummarySheet = "Summary"

// Column headers of the summary sheet.
var summaryHeader = []string{"Month", "Article", "Welder", "Quantity"}

// WriteSummary writes the cross-welder month summary as an XLSX workbook.
// Each article gets a total row (Welder column empty) followed by one row
// per welder subtotal, welders in name order.
func WriteSummary(w io.Writer, months []aggregate.MonthSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SummarySheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	_ = f.SetColWidth(SummarySheet, "A", "A", 20)
	_ = f.SetColWidth(SummarySheet, "B", "B", 16)
	_ = f.SetColWidth(SummarySheet, "C", "C", 24)
	_ = f.SetColWidth(SummarySheet, "D", "D", 12)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: 2,
	})
	if err != nil {
		return err
	}
	qtyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "D1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, m := range months {
		month := m.Title
		if month == "" {
			month = m.Label
		}
		for _, a := range m.Articles {
			if err := f.SetSheetRow(SummarySheet, cell("A", row), &[]any{month, a.Article, "", a.TotalQuantity}); err != nil {
				return err
			}
			if err := f.SetCellStyle(SummarySheet, cell("A", row), cell("D", row), totalStyle); err != nil {
				return err
			}
			row++
			for _, name := range a.WelderNames() {
				if err := f.SetSheetRow(SummarySheet, cell("A", row), &[]any{month, a.Article, name, a.WelderDetails[name]}); err != nil {
					return err
				}
				if err := f.SetCellStyle(SummarySheet, cell("D", row), cell("D", row), qtyStyle); err != nil {
					return err
				}
				row++
			}
		}
	}

	if err := f.SetPanes(SummarySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
