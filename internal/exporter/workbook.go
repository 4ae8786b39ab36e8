package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

// Workbook sheet names, in tab order.
const (
	SheetMonthly       = "Monthly GMV"
	SheetTopProducts   = "Top Products"
	SheetRFM           = "RFM"
	SheetDecember      = "December"
	SheetConcentration = "Concentration"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths map[string]float64
}

// WriteWorkbook stores the report tables as one xlsx file with a sheet per
// view.
func WriteWorkbook(path string, report *models.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Export(err, "create workbook directory")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := workbookSheets(report)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return apperrors.Export(err, "rename sheet")
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return apperrors.Export(err, "create sheet "+s.name)
		}

		if err := writeSheet(f, s); err != nil {
			return apperrors.Export(err, "fill sheet "+s.name)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return apperrors.Export(err, "save workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last+"1", style); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	for col, width := range s.widths {
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func workbookSheets(report *models.Report) []sheet {
	monthly := sheet{
		name:   SheetMonthly,
		header: []any{"Month", "GMV"},
	}
	for _, m := range report.MonthlyGMV {
		monthly.rows = append(monthly.rows, []any{m.Month, m.GMV.InexactFloat64()})
	}

	products := sheet{
		name:   SheetTopProducts,
		header: []any{"Description", "TotalPrice", "Quantity", "Avg_Price"},
		widths: map[string]float64{"A": 40},
	}
	for _, p := range report.TopProducts {
		products.rows = append(products.rows, []any{
			p.Description, p.TotalPrice.InexactFloat64(), p.Quantity, p.AvgPrice.InexactFloat64(),
		})
	}

	rfm := sheet{
		name:   SheetRFM,
		header: []any{"CustomerID", "Recency", "Frequency", "Monetary", "R_Score", "F_Score", "M_Score", "RFM_Score", "Segment"},
		widths: map[string]float64{"I": 14},
	}
	for _, c := range report.Customers {
		rfm.rows = append(rfm.rows, []any{
			c.CustomerID, c.Recency, c.Frequency, c.Monetary.InexactFloat64(),
			c.RScore, c.FScore, c.MScore, c.Score, c.Segment,
		})
	}

	december := sheet{
		name:   SheetDecember,
		header: []any{"Date", "Order_Count", "GMV"},
		widths: map[string]float64{"A": 12},
	}
	for _, d := range report.DecemberDaily {
		december.rows = append(december.rows, []any{d.Date, d.OrderCount, d.GMV.InexactFloat64()})
	}

	conc := report.Concentration
	concentration := sheet{
		name:   SheetConcentration,
		header: []any{"Metric", "Value"},
		rows: [][]any{
			{"Customers", conc.Customers},
			{"Top customers", conc.TopCustomers},
			{"Total GMV", conc.TotalGMV.InexactFloat64()},
			{"Top GMV", conc.TopGMV.InexactFloat64()},
			{"Share (%)", fmt.Sprintf("%.2f", conc.SharePercent)},
		},
		widths: map[string]float64{"A": 16},
	}

	return []sheet{monthly, products, rfm, december, concentration}
}
