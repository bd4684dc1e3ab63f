package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/welder-tracker/internal/aggregate"
)

func TestWriteSummary(t *testing.T) {
	months := []aggregate.MonthSummary{
		{
			Key:   "2024-01",
			Label: "Январь 2024 г.",
			Articles: []aggregate.ArticleSummary{
				{
					Article:       "XT637",
					TotalQuantity: 7.5,
					WelderDetails: map[string]float64{"Petrov": 2.5, "Ivanov": 5},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteSummary(&buf, months); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SummarySheet {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + total + 2 welders: %v", len(rows), rows)
	}
	if rows[0][0] != "Month" || rows[0][3] != "Quantity" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "XT637" || rows[1][2] != "" {
		t.Fatalf("total row = %v", rows[1])
	}
	if rows[2][2] != "Ivanov" || rows[3][2] != "Petrov" {
		t.Fatalf("welder rows = %v / %v", rows[2], rows[3])
	}

	v, err := f.GetCellValue(SummarySheet, "D2", excelize.Options{RawCellValue: true})
	if err != nil || v != "7.5" {
		t.Fatalf("D2 = %q, %v", v, err)
	}
}

func TestWriteSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, nil); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SummarySheet)
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want header only", rows)
	}
}
