package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthlyGMV struct {
	Month string          `json:"month"`
	GMV   decimal.Decimal `json:"gmv"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type ProductSales struct {
	Description string          `json:"description"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Quantity    int64           `json:"quantity"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
}

type CustomerRFM struct {
	CustomerID int64           `json:"customer_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   decimal.Decimal `json:"monetary"`
	RScore     int             `json:"r_score"`
	FScore     int             `json:"f_score"`
	MScore     int             `json:"m_score"`
	Score      string          `json:"rfm_score"`
	Segment    string          `json:"segment"`
}

type SegmentCount struct {
	Segment   string          `json:"segment"`
	Customers int             `json:"customers"`
	Monetary  decimal.Decimal `json:"monetary"`
}

type RFMSummary struct {
	Customers     int            `json:"customers"`
	HighValue     int            `json:"high_value"`
	ReferenceDate time.Time      `json:"reference_date"`
	Segments      []SegmentCount `json:"segments"`
}

type DailyActivity struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	GMV        decimal.Decimal `json:"gmv"`
}

type Concentration struct {
	Customers    int             `json:"customers"`
	TopCustomers int             `json:"top_customers"`
	TotalGMV     decimal.Decimal `json:"total_gmv"`
	TopGMV       decimal.Decimal `json:"top_gmv"`
	SharePercent float64         `json:"share_percent"`
	// Curve holds cumulative revenue share (0-100) after each customer,
	// customers ordered by descending Monetary.
	Curve []float64 `json:"-"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	GeneratedAt          time.Time       `json:"generated_at"`
	RecordCount          int             `json:"record_count"`
	Revenue              decimal.Decimal `json:"revenue"`
	MonthlyGMV           []MonthlyGMV    `json:"monthly_gmv"`
	MonetaryDistribution []HistogramBin  `json:"monetary_distribution"`
	TopProducts          []ProductSales  `json:"top_products"`
	Customers            []CustomerRFM   `json:"-"`
	RFM                  RFMSummary      `json:"rfm"`
	DecemberDaily        []DailyActivity `json:"december_daily"`
	Concentration        Concentration   `json:"concentration"`
}
