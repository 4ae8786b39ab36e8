package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-metrics/internal/models"
)

func sampleReport(t *testing.T) *models.Report {
	t.Helper()
	ds := sampleDataset()

	customers, reference, err := ComputeRFM(ds, 5)
	require.NoError(t, err)

	return &models.Report{
		GeneratedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RecordCount:   ds.Len(),
		Revenue:       ds.Revenue(),
		MonthlyGMV:    MonthlyGMV(ds),
		TopProducts:   TopProducts(ds, 10),
		Customers:     customers,
		RFM:           SummarizeRFM(customers, reference, 5),
		DecemberDaily: DailyActivity(ds, time.December),
		Concentration: RevenueConcentration(customers, 0.2),
	}
}

func TestAnalytics_NotReadyUntilReportSet(t *testing.T) {
	a := NewAnalytics()

	assert.False(t, a.Ready())
	assert.Empty(t, a.TopProducts(5))

	a.SetReport(sampleReport(t))

	assert.True(t, a.Ready())
}

func TestAnalytics_Accessors(t *testing.T) {
	a := NewAnalytics()
	a.SetReport(sampleReport(t))

	assert.Len(t, a.MonthlyGMV(), 2)
	assert.Len(t, a.TopProducts(3), 3)
	assert.Len(t, a.TopProducts(50), 10)
	assert.Equal(t, 10, a.RFM().Customers)
	assert.Len(t, a.DecemberDaily(), 10)
	assert.Equal(t, 2, a.Concentration().TopCustomers)

	c, ok := a.Customer(10)
	require.True(t, ok)
	assert.Equal(t, "555", c.Score)

	_, ok = a.Customer(999)
	assert.False(t, ok)
}

func TestAnalytics_Stats(t *testing.T) {
	a := NewAnalytics()
	a.SetReport(sampleReport(t))

	stats := a.Stats()

	assert.Equal(t, 56, stats["record_count"])
	assert.Equal(t, "3860.00", stats["revenue"])
	assert.Equal(t, 10, stats["customers"])
	assert.Equal(t, 2, stats["high_value"])
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics()
	report := sampleReport(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.SetReport(report)
		}()
		go func() {
			defer wg.Done()
			_ = a.TopProducts(5)
			_ = a.RFM()
			_ = a.Stats()
		}()
	}
	wg.Wait()

	assert.True(t, a.Ready())
}
