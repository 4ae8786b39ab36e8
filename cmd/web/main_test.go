package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-metrics/internal/config"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/services"
)

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850.0,United Kingdom
536366,22633,HAND WARMER UNION JACK,6,12/2/2010 8:28,1.85,17851.0,United Kingdom
536367,84879,ASSORTED COLOUR BIRD ORNAMENT,32,12/3/2010 8:34,1.69,13047.0,United Kingdom
536368,22960,JAM MAKING SET WITH JARS,6,12/4/2010 8:34,4.25,13048.0,United Kingdom
536369,21756,BATH BUILDING BLOCK WORD,3,12/5/2010 8:35,5.95,13049.0,United Kingdom
536370,22728,ALARM CLOCK BAKELIKE PINK,24,12/6/2010 8:45,3.75,12583.0,France
C536379,D,Discount,-1,12/1/2010 9:41,27.5,14527.0,United Kingdom
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "Online_Retail.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0o644))

	t.Setenv("RETAIL_PATHS_INPUT", input)
	t.Setenv("RETAIL_PATHS_CLEANED_CSV", filepath.Join(dir, "data", "cleaned_retail.csv"))
	t.Setenv("RETAIL_PATHS_FIGURES_DIR", filepath.Join(dir, "figures"))
	t.Setenv("RETAIL_PATHS_WORKBOOK", filepath.Join(dir, "retail_metrics.xlsx"))
	t.Setenv("RETAIL_SECURITY_RATE_LIMIT_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func preparedHandler(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	logger := quietLogger()
	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics()

	require.NoError(t, prepare(context.Background(), cfg, analytics, logger, metrics))
	return newHandler(t.Context(), cfg, analytics, logger, metrics), cfg
}

func TestPrepare_WritesOnlyFigures(t *testing.T) {
	_, cfg := preparedHandler(t)

	entries, err := os.ReadDir(cfg.Paths.FiguresDir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	assert.NoFileExists(t, cfg.Paths.CleanedCSV)
	assert.NoFileExists(t, cfg.Paths.Workbook)
}

func TestServer_Routes(t *testing.T) {
	handler, _ := preparedHandler(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/monthly-gmv", http.StatusOK},
		{http.MethodGet, "/api/monetary-distribution", http.StatusOK},
		{http.MethodGet, "/api/top-products", http.StatusOK},
		{http.MethodGet, "/api/top-products?limit=3", http.StatusOK},
		{http.MethodGet, "/api/top-products?limit=zero", http.StatusBadRequest},
		{http.MethodGet, "/api/rfm", http.StatusOK},
		{http.MethodGet, "/api/customers/17850", http.StatusOK},
		{http.MethodGet, "/api/customers/99999", http.StatusNotFound},
		{http.MethodGet, "/api/customers/abc", http.StatusBadRequest},
		{http.MethodGet, "/api/december-daily", http.StatusOK},
		{http.MethodGet, "/api/concentration", http.StatusOK},
		{http.MethodGet, "/sse/top-products", http.StatusOK},
		{http.MethodGet, "/sse/monthly-gmv", http.StatusOK},
		{http.MethodGet, "/sse/december-daily", http.StatusOK},
		{http.MethodGet, "/sse/rfm", http.StatusOK},
		{http.MethodGet, "/sse/refresh-all", http.StatusOK},
		{http.MethodGet, "/figures/monthly_gmv_trend.png", http.StatusOK},
		{http.MethodGet, "/figures/absent.png", http.StatusNotFound},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
		{http.MethodPost, "/api/rfm", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestServer_CustomerPayload(t *testing.T) {
	handler, _ := preparedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/12583", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			CustomerID int64  `json:"customer_id"`
			Frequency  int    `json:"frequency"`
			Monetary   string `json:"monetary"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(12583), body.Data.CustomerID)
	assert.Equal(t, 1, body.Data.Frequency)
	assert.Equal(t, "90", body.Data.Monetary)
}

func TestDashboard(t *testing.T) {
	handler, _ := preparedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-init="@get('/sse/refresh-all')"`)
	assert.Contains(t, body, `id="products-content"`)
	assert.Contains(t, body, `src="/figures/december_gmv_orders.png"`)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestDashboard_NotReady(t *testing.T) {
	cfg := testConfig(t)
	handler := newHandler(t.Context(), cfg, services.NewAnalytics(), quietLogger(), observability.NewMetrics())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not been computed")
	assert.NotContains(t, w.Body.String(), "/figures/")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rfm", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPrepare_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "absent.csv")
	analytics := services.NewAnalytics()

	err := prepare(context.Background(), cfg, analytics, quietLogger(), observability.NewMetrics())

	require.Error(t, err)
	assert.False(t, analytics.Ready())
}
