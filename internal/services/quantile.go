package services

import (
	"fmt"
	"math"
	"slices"
	"sort"

	apperrors "retail-metrics/internal/errors"
)

// QuantileEdges returns the q+1 bucket edges of values at the 0, 1/q, ...,
// 1 quantiles, interpolating linearly between the two closest order
// statistics at position p*(n-1).
//
// Probabilities are built as i*(1/q), the way numpy's linspace steps, so
// 3*(1/5) is 0.6000000000000001 rather than 0.6. On tied samples that
// rounding is what separates two otherwise equal edges.
func QuantileEdges(values []float64, q int) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	step := 1.0 / float64(q)
	edges := make([]float64, q+1)
	for i := range edges {
		p := float64(i) * step
		if i == q {
			p = 1
		}
		h := p * float64(n-1)
		lo := math.Floor(h)
		idx := int(lo)
		if idx >= n-1 {
			edges[i] = sorted[n-1]
			continue
		}
		edges[i] = sorted[idx] + (h-lo)*(sorted[idx+1]-sorted[idx])
	}
	return edges
}

// QCut assigns every value to one of q equal-count buckets and returns the
// zero-based bucket per value. Bucket i holds (edges[i], edges[i+1]]; the
// first bucket also holds its lower edge. When the values have too few
// distinct points to produce strictly increasing edges QCut fails rather
// than merging buckets.
func QCut(values []float64, q int) ([]int, error) {
	if len(values) == 0 {
		return nil, apperrors.EmptyDataset("no values to bucket")
	}
	if q < 1 {
		return nil, apperrors.Binning(fmt.Sprintf("invalid bucket count %d", q))
	}

	edges := QuantileEdges(values, q)
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, apperrors.Binning(fmt.Sprintf("bucket edges must be unique, got %v", edges))
		}
	}

	upper := edges[1:]
	buckets := make([]int, len(values))
	for i, v := range values {
		b := sort.SearchFloat64s(upper, v)
		if b >= q {
			b = q - 1
		}
		buckets[i] = b
	}
	return buckets, nil
}

// FirstRank ranks values ascending from 1, breaking ties by position so
// every rank is distinct.
func FirstRank(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] < values[b]:
			return -1
		case values[a] > values[b]:
			return 1
		}
		return 0
	})

	ranks := make([]float64, len(values))
	for pos, idx := range order {
		ranks[idx] = float64(pos + 1)
	}
	return ranks
}
