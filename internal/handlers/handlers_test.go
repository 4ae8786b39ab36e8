package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"retail-metrics/internal/models"
	"retail-metrics/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReport() *models.Report {
	products := make([]models.ProductSales, 12)
	for i := range products {
		products[i] = models.ProductSales{
			Description: fmt.Sprintf("PRODUCT %02d", i+1),
			TotalPrice:  decimal.NewFromInt(int64(1200 - i*50)),
			Quantity:    int64(100 - i),
			AvgPrice:    decimal.RequireFromString("2.5"),
		}
	}

	days := make([]models.DailyActivity, 60)
	for i := range days {
		days[i] = models.DailyActivity{
			Date:       time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			OrderCount: 10 + i,
			GMV:        decimal.NewFromInt(int64(500 + i)),
		}
	}

	return &models.Report{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RecordCount: 120,
		Revenue:     decimal.NewFromInt(9000),
		MonthlyGMV: []models.MonthlyGMV{
			{Month: "2010-12", GMV: decimal.NewFromInt(5000)},
			{Month: "2011-01", GMV: decimal.NewFromInt(4000)},
		},
		MonetaryDistribution: []models.HistogramBin{
			{Lower: 0, Upper: 100, Count: 3},
			{Lower: 100, Upper: 200, Count: 2},
		},
		TopProducts: products,
		Customers: []models.CustomerRFM{
			{CustomerID: 17850, Recency: 1, Frequency: 4, Monetary: decimal.NewFromInt(700), RScore: 5, FScore: 5, MScore: 5, Score: "555", Segment: "Champions"},
			{CustomerID: 12583, Recency: 90, Frequency: 1, Monetary: decimal.NewFromInt(40), RScore: 1, FScore: 1, MScore: 1, Score: "111", Segment: "Lost"},
		},
		RFM: models.RFMSummary{
			Customers: 2,
			HighValue: 1,
			Segments: []models.SegmentCount{
				{Segment: "Champions", Customers: 1, Monetary: decimal.NewFromInt(700)},
				{Segment: "Lost", Customers: 1, Monetary: decimal.NewFromInt(40)},
			},
		},
		DecemberDaily: days,
		Concentration: models.Concentration{
			Customers:    2,
			TopCustomers: 0,
			TotalGMV:     decimal.NewFromInt(740),
			TopGMV:       decimal.Zero,
		},
	}
}

func readyAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	a.SetReport(testReport())
	return a
}
