package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retail-metrics/internal/models"
)

// sampleDataset builds ten customers where customer i buys one unit of
// PRODUCT-i at 10*i on each of December 1..i 2011, so Recency, Frequency and
// Monetary all grow with i. Customer 1 also bought GIFT WRAP in November.
func sampleDataset() *models.Dataset {
	ds := &models.Dataset{}
	add := func(invoice string, customer int64, desc string, qty int64, price string, at time.Time) {
		p := decimal.RequireFromString(price)
		ds.Transactions = append(ds.Transactions, models.Transaction{
			InvoiceNo:   invoice,
			StockCode:   "S" + desc,
			Description: desc,
			Quantity:    qty,
			InvoiceDate: at,
			UnitPrice:   p,
			CustomerID:  customer,
			Country:     "United Kingdom",
			TotalPrice:  p.Mul(decimal.NewFromInt(qty)),
		})
	}

	add("500000", 1, "GIFT WRAP", 2, "5", time.Date(2011, 11, 15, 12, 0, 0, 0, time.UTC))
	for i := int64(1); i <= 10; i++ {
		for day := 1; day <= int(i); day++ {
			invoice := fmt.Sprintf("5%02d%02d", i, day)
			add(invoice, i, fmt.Sprintf("PRODUCT-%d", i), 1, fmt.Sprint(10*i), time.Date(2011, 12, day, 12, 0, 0, 0, time.UTC))
		}
	}
	ds.RawRows = len(ds.Transactions)
	return ds
}
