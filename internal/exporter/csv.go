package exporter

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

// DateLayout is how InvoiceDate is written to the cleaned table.
const DateLayout = "2006-01-02 15:04:05"

var cleanedHeader = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate",
	"UnitPrice", "CustomerID", "Country", "TotalPrice",
}

// CleanedColumns is the column count of the cleaned table.
var CleanedColumns = len(cleanedHeader)

// WriteCleanedCSV persists the cleaned set at path, creating parent
// directories as needed.
func WriteCleanedCSV(path string, ds *models.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Export(err, "create output directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.Export(err, "create cleaned csv")
	}

	if err := WriteCSV(file, ds); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return apperrors.Export(err, "close cleaned csv")
	}
	return nil
}

func WriteCSV(w io.Writer, ds *models.Dataset) error {
	buf := bufio.NewWriterSize(w, 1024*1024)
	writer := csv.NewWriter(buf)

	if err := writer.Write(cleanedHeader); err != nil {
		return apperrors.Export(err, "write header")
	}

	record := make([]string, len(cleanedHeader))
	for _, tx := range ds.Transactions {
		record[0] = tx.InvoiceNo
		record[1] = tx.StockCode
		record[2] = tx.Description
		record[3] = strconv.FormatInt(tx.Quantity, 10)
		record[4] = tx.InvoiceDate.Format(DateLayout)
		record[5] = tx.UnitPrice.String()
		record[6] = strconv.FormatInt(tx.CustomerID, 10)
		record[7] = tx.Country
		record[8] = tx.TotalPrice.String()
		if err := writer.Write(record); err != nil {
			return apperrors.Export(err, "write record")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.Export(err, "flush csv")
	}
	if err := buf.Flush(); err != nil {
		return apperrors.Export(err, "flush csv")
	}
	return nil
}
