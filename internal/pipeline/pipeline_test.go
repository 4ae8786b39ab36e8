package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-metrics/internal/charts"
	"retail-metrics/internal/config"
	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/observability"
)

// writeRetailCSV writes ten customers where customer i buys one unit at
// 10*i on each of December 1..i 2011, plus a cancelled and an anonymous row.
func writeRetailCSV(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n")
	for i := 1; i <= 10; i++ {
		for day := 1; day <= i; day++ {
			fmt.Fprintf(&b, "5%02d%02d,S%d,PRODUCT-%d,1,12/%d/2011 12:00,%d,%d.0,United Kingdom\n",
				i, day, i, i, day, 10*i, 12340+i)
		}
	}
	b.WriteString("C581484,23843,\"PAPER CRAFT , LITTLE BIRDIE\",-80995,12/9/2011 9:27,2.08,16446,United Kingdom\n")
	b.WriteString("581498,85099B,JUMBO BAG RED RETROSPOT,5,12/9/2011 10:26,4.13,,United Kingdom\n")

	path := filepath.Join(dir, "Online_Retail.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Paths = config.PathsConfig{
		Input:      writeRetailCSV(t, dir),
		CleanedCSV: filepath.Join(dir, "data", "cleaned_retail.csv"),
		FiguresDir: filepath.Join(dir, "output", "figures"),
		Workbook:   filepath.Join(dir, "output", "retail_metrics.xlsx"),
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Run(t *testing.T) {
	cfg := testConfig(t)
	metrics := observability.NewMetrics()
	var out bytes.Buffer

	report, err := NewRunner(cfg, discardLogger(), metrics, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 55, report.RecordCount)
	assert.Equal(t, "3850.00", report.Revenue.StringFixed(2))
	assert.Len(t, report.MonthlyGMV, 1)
	assert.Len(t, report.MonetaryDistribution, 30)
	assert.Len(t, report.TopProducts, 10)
	assert.Equal(t, 10, report.RFM.Customers)
	assert.Len(t, report.DecemberDaily, 10)
	assert.Equal(t, 2, report.Concentration.TopCustomers)

	for _, path := range []string{cfg.Paths.CleanedCSV, cfg.Paths.Workbook} {
		assert.FileExists(t, path)
	}
	for _, name := range charts.Files() {
		assert.FileExists(t, filepath.Join(cfg.Paths.FiguresDir, name))
	}

	text := out.String()
	assert.Contains(t, text, "Cleaned data shape: (55, 9)")
	assert.Contains(t, text, "Top 10 Products:")
	assert.Contains(t, text, "High-value customers (RFM 555): 2")
	assert.Contains(t, text, "December daily orders and GMV:")
	assert.Contains(t, text, "Top 20% customers GMV: 1810.00 GBP")
	assert.Contains(t, text, "Share of total GMV: 47.01%")

	assert.Less(t, strings.Index(text, "Cleaned data shape"), strings.Index(text, "Top 10 Products"))
	assert.Less(t, strings.Index(text, "High-value"), strings.Index(text, "December daily"))

	steps, err := testutil.GatherAndCount(metrics.Registry(), "retail_metrics_pipeline_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 9, steps)

	reasons, err := testutil.GatherAndCount(metrics.Registry(), "retail_metrics_load_rows_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 3, reasons)
}

func TestRunner_Compute_WritesNothing(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	report, err := NewRunner(cfg, discardLogger(), observability.NewMetrics(), &out).Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 55, report.RecordCount)
	assert.Empty(t, out.String())
	assert.NoFileExists(t, cfg.Paths.CleanedCSV)
	assert.NoFileExists(t, cfg.Paths.Workbook)
	assert.NoDirExists(t, cfg.Paths.FiguresDir)
}

func TestRunner_FirstFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "missing.csv")
	var out bytes.Buffer

	_, err := NewRunner(cfg, discardLogger(), observability.NewMetrics(), &out).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step load")
	assert.Equal(t, apperrors.CodeInput, apperrors.CodeOf(err))
	assert.Empty(t, out.String())
	assert.NoDirExists(t, cfg.Paths.FiguresDir)
}

func TestRunner_BinningFailureStopsBeforeEmittingLaterSteps(t *testing.T) {
	cfg := testConfig(t)
	csv := "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"
	for i := 1; i <= 6; i++ {
		csv += fmt.Sprintf("1000,S,MUG,1,12/1/2011 10:00,%d,%d,UK\n", i, i)
	}
	require.NoError(t, os.WriteFile(cfg.Paths.Input, []byte(csv), 0o644))
	var out bytes.Buffer

	_, err := NewRunner(cfg, discardLogger(), observability.NewMetrics(), &out).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step rfm")
	assert.Equal(t, apperrors.CodeBinning, apperrors.CodeOf(err))
	assert.Contains(t, out.String(), "Top 1 Products:")
	assert.NotContains(t, out.String(), "December daily")
	assert.NoFileExists(t, cfg.Paths.Workbook)
}

func TestRunner_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(cfg, discardLogger(), observability.NewMetrics(), io.Discard).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions(t *testing.T) {
	opts := Options(config.ReportConfig{
		TopProducts:       5,
		HistogramBins:     20,
		Quantiles:         4,
		TopShare:          0.1,
		CompletenessMonth: 11,
	})

	assert.Equal(t, 5, opts.TopProducts)
	assert.Equal(t, 20, opts.HistogramBins)
	assert.Equal(t, 4, opts.Quantiles)
	assert.Equal(t, 0.1, opts.TopShare)
	assert.Equal(t, "November", opts.CompletenessMonth.String())
}
