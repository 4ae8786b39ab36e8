package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/Online_Retail.csv", cfg.Paths.Input)
	assert.Equal(t, "data/cleaned_retail.csv", cfg.Paths.CleanedCSV)
	assert.Equal(t, "output/figures", cfg.Paths.FiguresDir)
	assert.Equal(t, 10, cfg.Report.TopProducts)
	assert.Equal(t, 30, cfg.Report.HistogramBins)
	assert.Equal(t, 5, cfg.Report.Quantiles)
	assert.InDelta(t, 0.2, cfg.Report.TopShare, 1e-12)
	assert.Equal(t, 12, cfg.Report.CompletenessMonth)
	assert.Equal(t, 5*time.Minute, cfg.Report.LoadTimeout)
	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Security.TrustedProxies)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RETAIL_PATHS_INPUT", "/tmp/retail.csv")
	t.Setenv("RETAIL_REPORT_TOP_PRODUCTS", "5")
	t.Setenv("RETAIL_LOG_FORMAT", "json")
	t.Setenv("RETAIL_SECURITY_ALLOWED_ORIGINS", "http://a,http://b")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/retail.csv", cfg.Paths.Input)
	assert.Equal(t, 5, cfg.Report.TopProducts)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Security.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"log level", "RETAIL_LOG_LEVEL", "verbose"},
		{"log format", "RETAIL_LOG_FORMAT", "xml"},
		{"port", "RETAIL_SERVER_PORT", "70000"},
		{"quantiles", "RETAIL_REPORT_QUANTILES", "1"},
		{"top share", "RETAIL_REPORT_TOP_SHARE", "1.5"},
		{"month", "RETAIL_REPORT_COMPLETENESS_MONTH", "13"},
		{"unparseable", "RETAIL_REPORT_HISTOGRAM_BINS", "thirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
