package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Input header names. StockCode and Country are carried through when present.
const (
	colInvoiceNo   = "InvoiceNo"
	colStockCode   = "StockCode"
	colDescription = "Description"
	colQuantity    = "Quantity"
	colInvoiceDate = "InvoiceDate"
	colUnitPrice   = "UnitPrice"
	colCustomerID  = "CustomerID"
	colCountry     = "Country"
)

var requiredColumns = []string{colInvoiceNo, colDescription, colQuantity, colInvoiceDate, colUnitPrice, colCustomerID}

var dateLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Cell values read as missing.
var nullValues = map[string]bool{
	"": true, "NaN": true, "nan": true, "NA": true, "N/A": true, "NULL": true, "null": true, "None": true,
}

type columns struct {
	invoiceNo, stockCode, description, quantity, invoiceDate, unitPrice, customerID, country int
}

type dropReason int

const (
	kept dropReason = iota
	droppedMissingCustomer
	droppedCancelled
	droppedNonPositive
)

type rowOutcome struct {
	tx   models.Transaction
	drop dropReason
}

// LoadDataset reads the transaction log at filename and returns the cleaned
// set. Any unreadable row fails the whole load.
func LoadDataset(ctx context.Context, filename string, logger *slog.Logger) (*models.Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, apperrors.Input(err, "open transaction log")
	}
	defer file.Close()

	start := time.Now()
	logger.Info("processing CSV file", "filename", filename)

	ds, err := ReadDataset(ctx, file)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	logger.Info("csv processing complete",
		"raw_rows", ds.RawRows,
		"kept", ds.Len(),
		"dropped_missing_customer", ds.DroppedMissingCustomer,
		"dropped_cancelled", ds.DroppedCancelled,
		"dropped_non_positive", ds.DroppedNonPositive,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(ds.RawRows)/duration.Seconds()))

	return ds, nil
}

// ReadDataset cleans a transaction log read from r. Records are parsed in
// batches across a bounded worker group; output order follows input order.
func ReadDataset(ctx context.Context, r io.Reader) (*models.Dataset, error) {
	reader := csv.NewReader(bufio.NewReaderSize(r, 1024*1024))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.EmptyDataset("empty file")
	}
	if err != nil {
		return nil, apperrors.Input(err, "read header")
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &models.Dataset{}
	batch := make([][]string, 0, batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Input(err, "read record")
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := processBatch(ctx, batch, cols, ds); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := processBatch(ctx, batch, cols, ds); err != nil {
			return nil, err
		}
	}

	if ds.Len() == 0 {
		return nil, apperrors.EmptyDataset("no valid records found")
	}

	return ds, nil
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columns{}, apperrors.Input(nil, "missing columns: "+strings.Join(missing, ", "))
	}

	optional := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	return columns{
		invoiceNo:   index[colInvoiceNo],
		stockCode:   optional(colStockCode),
		description: index[colDescription],
		quantity:    index[colQuantity],
		invoiceDate: index[colInvoiceDate],
		unitPrice:   index[colUnitPrice],
		customerID:  index[colCustomerID],
		country:     optional(colCountry),
	}, nil
}

func processBatch(ctx context.Context, batch [][]string, cols columns, ds *models.Dataset) error {
	outcomes := make([]rowOutcome, len(batch))
	offset := ds.RawRows

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := cleanRecord(batch[i], cols)
				if err != nil {
					return fmt.Errorf("record %d: %w", offset+i+1, err)
				}
				outcomes[i] = out
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	ds.RawRows += len(batch)
	for _, out := range outcomes {
		switch out.drop {
		case droppedMissingCustomer:
			ds.DroppedMissingCustomer++
		case droppedCancelled:
			ds.DroppedCancelled++
		case droppedNonPositive:
			ds.DroppedNonPositive++
		default:
			ds.Transactions = append(ds.Transactions, out.tx)
		}
	}

	return nil
}

// cleanRecord applies the cleaning filters in order: missing customer,
// cancellation, non-positive quantity or price. Numeric cells are parsed
// before filtering so a malformed number fails even on a dropped row; a
// missing number never passes the positivity filter. Dates are only parsed
// for rows that survive.
func cleanRecord(record []string, cols columns) (rowOutcome, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	quantity, hasQuantity, err := parseQuantity(strings.TrimSpace(field(cols.quantity)))
	if err != nil {
		return rowOutcome{}, err
	}

	unitPrice, hasPrice, err := parseUnitPrice(strings.TrimSpace(field(cols.unitPrice)))
	if err != nil {
		return rowOutcome{}, err
	}

	rawCustomer := strings.TrimSpace(field(cols.customerID))
	if nullValues[rawCustomer] {
		return rowOutcome{drop: droppedMissingCustomer}, nil
	}

	invoiceNo := strings.TrimSpace(field(cols.invoiceNo))
	if strings.HasPrefix(invoiceNo, models.CancellationPrefix) {
		return rowOutcome{drop: droppedCancelled}, nil
	}

	if !hasQuantity || !hasPrice || quantity <= 0 || !unitPrice.IsPositive() {
		return rowOutcome{drop: droppedNonPositive}, nil
	}

	invoiceDate, err := parseInvoiceDate(strings.TrimSpace(field(cols.invoiceDate)))
	if err != nil {
		return rowOutcome{}, err
	}

	customerID, err := parseCustomerID(rawCustomer)
	if err != nil {
		return rowOutcome{}, err
	}

	return rowOutcome{
		tx: models.Transaction{
			InvoiceNo:   invoiceNo,
			StockCode:   field(cols.stockCode),
			Description: field(cols.description),
			Quantity:    quantity,
			InvoiceDate: invoiceDate,
			UnitPrice:   unitPrice,
			CustomerID:  customerID,
			Country:     field(cols.country),
			TotalPrice:  unitPrice.Mul(decimal.NewFromInt(quantity)),
		},
	}, nil
}

func parseInvoiceDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.Parse(nil, fmt.Sprintf("invoice date %q", value))
}

// parseQuantity reads an integer count. Float renderings of whole numbers
// such as "6.0" are accepted. The second result is false for a missing cell.
func parseQuantity(value string) (int64, bool, error) {
	if nullValues[value] {
		return 0, false, nil
	}
	if q, err := strconv.ParseInt(value, 10, 64); err == nil {
		return q, true, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, apperrors.Parse(err, fmt.Sprintf("quantity %q", value))
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false, apperrors.Parse(nil, fmt.Sprintf("quantity %q is not a whole number", value))
	}
	return int64(f), true, nil
}

// parseUnitPrice reads a price. The second result is false for a missing cell.
func parseUnitPrice(value string) (decimal.Decimal, bool, error) {
	if nullValues[value] {
		return decimal.Zero, false, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, apperrors.Parse(err, fmt.Sprintf("unit price %q", value))
	}
	return price, true, nil
}

// parseCustomerID accepts "17850" and float renderings such as "17850.0".
// A fractional part is truncated toward zero.
func parseCustomerID(value string) (int64, error) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.Parse(err, fmt.Sprintf("customer id %q", value))
	}
	return int64(math.Trunc(f)), nil
}
