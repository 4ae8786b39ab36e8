package exporter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"retail-metrics/internal/models"
)

// Console prints the run summaries as plain text tables.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Shape(ds *models.Dataset) error {
	_, err := fmt.Fprintf(c.w, "Cleaned data shape: (%d, %d)\n", ds.Len(), CleanedColumns)
	return err
}

func (c *Console) TopProducts(products []models.ProductSales) error {
	if _, err := fmt.Fprintf(c.w, "Top %d Products:\n", len(products)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Description\tTotalPrice\tQuantity\tAvg_Price\t")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n",
			p.Description, p.TotalPrice.StringFixed(2), p.Quantity, p.AvgPrice.StringFixed(6))
	}
	return tw.Flush()
}

func (c *Console) RFM(summary models.RFMSummary, highValueScore string) error {
	if _, err := fmt.Fprintf(c.w, "High-value customers (RFM %s): %d\n", highValueScore, summary.HighValue); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Segment\tCustomers\tMonetary")
	for _, s := range summary.Segments {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Segment, s.Customers, s.Monetary.StringFixed(2))
	}
	return tw.Flush()
}

func (c *Console) DailyActivity(month string, days []models.DailyActivity) error {
	if _, err := fmt.Fprintf(c.w, "%s daily orders and GMV:\n", month); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "InvoiceDate\tOrder_Count\tGMV\t")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", d.Date, d.OrderCount, d.GMV.StringFixed(2))
	}
	return tw.Flush()
}

func (c *Console) Concentration(conc models.Concentration, share float64) error {
	pct := share * 100
	_, err := fmt.Fprintf(c.w, "Top %.0f%% customers GMV: %s GBP\nShare of total GMV: %.2f%%\n",
		pct, conc.TopGMV.StringFixed(2), conc.SharePercent)
	return err
}
