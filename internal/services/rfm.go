package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

// Segment names, strongest first.
const (
	SegmentChampions = "Champions"
	SegmentLoyal     = "Loyal"
	SegmentPotential = "Potential"
	SegmentAtRisk    = "At Risk"
	SegmentLost      = "Lost"
)

var segmentOrder = []string{SegmentChampions, SegmentLoyal, SegmentPotential, SegmentAtRisk, SegmentLost}

// ComputeRFM derives one record per customer, ordered by customer id, and
// the reference date used for Recency (one day after the latest invoice).
//
// Recency buckets score inversely, so the most recent customers get q.
// Frequency is bucketed on its first-occurrence rank because invoice counts
// are heavily tied. Monetary buckets score directly.
func ComputeRFM(ds *models.Dataset, q int) ([]models.CustomerRFM, time.Time, error) {
	if ds.Len() == 0 {
		return nil, time.Time{}, apperrors.EmptyDataset("no transactions for RFM")
	}

	reference := ds.MaxInvoiceDate().Add(24 * time.Hour)

	type customerAgg struct {
		last     time.Time
		invoices map[string]struct{}
		monetary decimal.Decimal
	}

	groups := make(map[int64]*customerAgg)
	for _, tx := range ds.Transactions {
		agg, ok := groups[tx.CustomerID]
		if !ok {
			agg = &customerAgg{invoices: make(map[string]struct{})}
			groups[tx.CustomerID] = agg
		}
		if tx.InvoiceDate.After(agg.last) {
			agg.last = tx.InvoiceDate
		}
		agg.invoices[tx.InvoiceNo] = struct{}{}
		agg.monetary = agg.monetary.Add(tx.TotalPrice)
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	customers := make([]models.CustomerRFM, len(ids))
	recency := make([]float64, len(ids))
	frequency := make([]float64, len(ids))
	monetary := make([]float64, len(ids))
	for i, id := range ids {
		agg := groups[id]
		days := int(reference.Sub(agg.last) / (24 * time.Hour))
		customers[i] = models.CustomerRFM{
			CustomerID: id,
			Recency:    days,
			Frequency:  len(agg.invoices),
			Monetary:   agg.monetary,
		}
		recency[i] = float64(days)
		frequency[i] = float64(len(agg.invoices))
		monetary[i] = agg.monetary.InexactFloat64()
	}

	rBuckets, err := QCut(recency, q)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("recency: %w", err)
	}
	fBuckets, err := QCut(FirstRank(frequency), q)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("frequency: %w", err)
	}
	mBuckets, err := QCut(monetary, q)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("monetary: %w", err)
	}

	for i := range customers {
		c := &customers[i]
		c.RScore = q - rBuckets[i]
		c.FScore = fBuckets[i] + 1
		c.MScore = mBuckets[i] + 1
		c.Score = fmt.Sprintf("%d%d%d", c.RScore, c.FScore, c.MScore)
		c.Segment = segmentFor(c.RScore+c.FScore+c.MScore, q)
	}

	return customers, reference, nil
}

// HighValueScore is the concatenated score of a customer in the top bucket
// of all three dimensions, "555" for quintiles.
func HighValueScore(q int) string {
	return strings.Repeat(fmt.Sprint(q), 3)
}

// segmentFor maps the summed score onto a segment. With quintiles the cut
// points are 12, 9, 6 and 4 out of 15; other bucket counts scale linearly.
func segmentFor(total, q int) string {
	switch {
	case total*5 >= 12*q:
		return SegmentChampions
	case total*5 >= 9*q:
		return SegmentLoyal
	case total*5 >= 6*q:
		return SegmentPotential
	case total*15 >= 12*q:
		return SegmentAtRisk
	default:
		return SegmentLost
	}
}

func SummarizeRFM(customers []models.CustomerRFM, reference time.Time, q int) models.RFMSummary {
	highValue := HighValueScore(q)

	counts := make(map[string]*models.SegmentCount, len(segmentOrder))
	for _, name := range segmentOrder {
		counts[name] = &models.SegmentCount{Segment: name, Monetary: decimal.Zero}
	}

	summary := models.RFMSummary{
		Customers:     len(customers),
		ReferenceDate: reference,
	}
	for _, c := range customers {
		if c.Score == highValue {
			summary.HighValue++
		}
		seg := counts[c.Segment]
		seg.Customers++
		seg.Monetary = seg.Monetary.Add(c.Monetary)
	}

	for _, name := range segmentOrder {
		summary.Segments = append(summary.Segments, *counts[name])
	}
	return summary
}
