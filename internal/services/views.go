package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

const monthLayout = "2006-01"
const dayLayout = "2006-01-02"

type ReportOptions struct {
	TopProducts       int
	HistogramBins     int
	Quantiles         int
	TopShare          float64
	CompletenessMonth time.Month
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		TopProducts:       10,
		HistogramBins:     30,
		Quantiles:         5,
		TopShare:          0.2,
		CompletenessMonth: time.December,
	}
}

// MonthlyGMV sums revenue per calendar month, oldest first. Months without
// transactions are not reported.
func MonthlyGMV(ds *models.Dataset) []models.MonthlyGMV {
	groups := make(map[string]decimal.Decimal)
	for _, tx := range ds.Transactions {
		month := tx.InvoiceDate.Format(monthLayout)
		groups[month] = groups[month].Add(tx.TotalPrice)
	}

	result := make([]models.MonthlyGMV, 0, len(groups))
	for month, gmv := range groups {
		result = append(result, models.MonthlyGMV{Month: month, GMV: gmv})
	}
	slices.SortFunc(result, func(a, b models.MonthlyGMV) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return result
}

// CustomerMonetary returns the summed revenue of every customer, ordered by
// customer id.
func CustomerMonetary(ds *models.Dataset) []float64 {
	totals := make(map[int64]decimal.Decimal)
	for _, tx := range ds.Transactions {
		totals[tx.CustomerID] = totals[tx.CustomerID].Add(tx.TotalPrice)
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = totals[id].InexactFloat64()
	}
	return values
}

// MonetaryHistogram splits [min, max] into equal-width bins. Every bin is
// half-open except the last, which also holds the maximum.
func MonetaryHistogram(values []float64, bins int) ([]models.HistogramBin, error) {
	if len(values) == 0 {
		return nil, apperrors.EmptyDataset("no customers to bin")
	}
	if bins < 1 {
		return nil, apperrors.Binning("histogram needs at least one bin")
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)

	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	result := make([]models.HistogramBin, bins)
	for i := range result {
		result[i] = models.HistogramBin{
			Lower: edges[i],
			Upper: edges[i+1],
			Count: int(counts[i]),
		}
	}
	return result, nil
}

// TopProducts ranks products by revenue. Rows without a description are not
// grouped. Equal revenues keep description order.
func TopProducts(ds *models.Dataset, limit int) []models.ProductSales {
	type productAgg struct {
		total    decimal.Decimal
		quantity int64
	}

	groups := make(map[string]*productAgg)
	for _, tx := range ds.Transactions {
		if nullValues[tx.Description] {
			continue
		}
		agg, ok := groups[tx.Description]
		if !ok {
			agg = &productAgg{}
			groups[tx.Description] = agg
		}
		agg.total = agg.total.Add(tx.TotalPrice)
		agg.quantity += tx.Quantity
	}

	result := make([]models.ProductSales, 0, len(groups))
	for description, agg := range groups {
		result = append(result, models.ProductSales{
			Description: description,
			TotalPrice:  agg.total,
			Quantity:    agg.quantity,
		})
	}
	slices.SortFunc(result, func(a, b models.ProductSales) int {
		return cmp.Compare(a.Description, b.Description)
	})
	slices.SortStableFunc(result, func(a, b models.ProductSales) int {
		return b.TotalPrice.Cmp(a.TotalPrice)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i].AvgPrice = result[i].TotalPrice.Div(decimal.NewFromInt(result[i].Quantity))
	}
	return result
}

// DailyActivity reports distinct invoices and revenue per calendar day for
// every row in the given month, across all years present.
func DailyActivity(ds *models.Dataset, month time.Month) []models.DailyActivity {
	type dayAgg struct {
		invoices map[string]struct{}
		gmv      decimal.Decimal
	}

	groups := make(map[string]*dayAgg)
	for _, tx := range ds.Transactions {
		if tx.InvoiceDate.Month() != month {
			continue
		}
		day := tx.InvoiceDate.Format(dayLayout)
		agg, ok := groups[day]
		if !ok {
			agg = &dayAgg{invoices: make(map[string]struct{})}
			groups[day] = agg
		}
		agg.invoices[tx.InvoiceNo] = struct{}{}
		agg.gmv = agg.gmv.Add(tx.TotalPrice)
	}

	result := make([]models.DailyActivity, 0, len(groups))
	for day, agg := range groups {
		result = append(result, models.DailyActivity{
			Date:       day,
			OrderCount: len(agg.invoices),
			GMV:        agg.gmv,
		})
	}
	slices.SortFunc(result, func(a, b models.DailyActivity) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return result
}

// RevenueConcentration measures how much of total revenue the top share of
// customers by Monetary produce. The number of top customers is
// int(len(customers) * share), so it can be zero for small populations.
func RevenueConcentration(customers []models.CustomerRFM, share float64) models.Concentration {
	ranked := slices.Clone(customers)
	slices.SortStableFunc(ranked, func(a, b models.CustomerRFM) int {
		return b.Monetary.Cmp(a.Monetary)
	})

	top := int(float64(len(ranked)) * share)

	total := decimal.Zero
	for _, c := range ranked {
		total = total.Add(c.Monetary)
	}

	topGMV := decimal.Zero
	curve := make([]float64, len(ranked))
	running := decimal.Zero
	for i, c := range ranked {
		running = running.Add(c.Monetary)
		if i < top {
			topGMV = running
		}
		if total.IsPositive() {
			curve[i] = running.Div(total).InexactFloat64() * 100
		}
	}

	var percent float64
	if total.IsPositive() {
		percent = topGMV.Div(total).InexactFloat64() * 100
	}

	return models.Concentration{
		Customers:    len(ranked),
		TopCustomers: top,
		TotalGMV:     total,
		TopGMV:       topGMV,
		SharePercent: percent,
		Curve:        curve,
	}
}
