package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CancellationPrefix marks invoices that reverse an earlier sale.
const CancellationPrefix = "C"

type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int64
	InvoiceDate time.Time
	UnitPrice   decimal.Decimal
	CustomerID  int64
	Country     string
	TotalPrice  decimal.Decimal
}

// Dataset is the cleaned transaction set. It is built once by the loader and
// must not be mutated afterwards; every view reads it independently.
type Dataset struct {
	Transactions []Transaction

	RawRows                int
	DroppedMissingCustomer int
	DroppedCancelled       int
	DroppedNonPositive     int
}

func (d *Dataset) Len() int {
	return len(d.Transactions)
}

func (d *Dataset) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		total = total.Add(tx.TotalPrice)
	}
	return total
}

func (d *Dataset) MaxInvoiceDate() time.Time {
	var latest time.Time
	for _, tx := range d.Transactions {
		if tx.InvoiceDate.After(latest) {
			latest = tx.InvoiceDate
		}
	}
	return latest
}
