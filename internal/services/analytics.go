package services

import (
	"log/slog"
	"sync"

	"retail-metrics/internal/models"
)

// Analytics serves the latest report to concurrent readers.
type Analytics struct {
	mu     sync.RWMutex
	report *models.Report
	logger *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		report: &models.Report{},
		logger: slog.Default(),
	}
}

func (a *Analytics) SetReport(report *models.Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.report = report
	a.logger.Info("report published",
		"records", report.RecordCount,
		"customers", report.RFM.Customers,
		"generated_at", report.GeneratedAt)
}

func (a *Analytics) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.RecordCount > 0
}

func (a *Analytics) MonthlyGMV() []models.MonthlyGMV {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.MonthlyGMV
}

func (a *Analytics) MonetaryDistribution() []models.HistogramBin {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.MonetaryDistribution
}

func (a *Analytics) TopProducts(limit int) []models.ProductSales {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.report.TopProducts) <= limit {
		return a.report.TopProducts
	}
	return a.report.TopProducts[:limit]
}

func (a *Analytics) RFM() models.RFMSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.RFM
}

// Customer looks up one customer's RFM record.
func (a *Analytics) Customer(id int64) (models.CustomerRFM, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, c := range a.report.Customers {
		if c.CustomerID == id {
			return c, true
		}
	}
	return models.CustomerRFM{}, false
}

func (a *Analytics) DecemberDaily() []models.DailyActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.DecemberDaily
}

func (a *Analytics) Concentration() models.Concentration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.Concentration
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":  a.report.RecordCount,
		"generated_at":  a.report.GeneratedAt,
		"revenue":       a.report.Revenue.StringFixed(2),
		"months":        len(a.report.MonthlyGMV),
		"customers":     a.report.RFM.Customers,
		"high_value":    a.report.RFM.HighValue,
		"december_days": len(a.report.DecemberDaily),
	}
}
