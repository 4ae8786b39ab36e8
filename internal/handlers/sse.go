package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retail-metrics/internal/services"
)

const (
	maxTableRows = 50
	maxProducts  = 10
)

var productsTableTemplate = template.Must(template.New("productsTable").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>#</th><th>Description</th><th>Revenue</th><th>Quantity</th><th>Avg Price</th></tr></thead>
<tbody>
{{range $i, $item := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{inc $i}}</td>
<td>{{.Description}}</td>
<td><strong>£{{.TotalPrice.StringFixed 2}}</strong></td>
<td>{{.Quantity}}</td>
<td>£{{.AvgPrice.StringFixed 2}}</td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

var monthlyTableTemplate = template.Must(template.New("monthlyTable").Parse(`
<div id="monthly-content">
<table class="modern-table">
<thead><tr><th>Month</th><th>GMV</th></tr></thead>
<tbody>
{{range $i, $item := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{.Month}}</td>
<td><strong>£{{.GMV.StringFixed 2}}</strong></td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

var decemberTableTemplate = template.Must(template.New("decemberTable").Parse(`
<div id="december-content">
<table class="modern-table">
<thead><tr><th>Date</th><th>Orders</th><th>GMV</th></tr></thead>
<tbody>
{{range $i, $item := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{.Date}}</td>
<td>{{.OrderCount}}</td>
<td><strong>£{{.GMV.StringFixed 2}}</strong></td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

var rfmTableTemplate = template.Must(template.New("rfmTable").Parse(`
<div id="rfm-content">
<p>{{.Data.Customers}} customers, <span class="category-badge">{{.Data.HighValue}} high-value</span></p>
<table class="modern-table">
<thead><tr><th>Segment</th><th>Customers</th><th>Monetary</th></tr></thead>
<tbody>
{{range .Data.Segments}}<tr>
<td>{{.Segment}}</td>
<td>{{.Customers}}</td>
<td>£{{.Monetary.StringFixed 2}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type templateData struct {
	Data    any
	MaxRows int
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, templateData{Data: data, MaxRows: maxTableRows})
	return buf.String(), err
}

func (h *SSEHandlers) patchTable(sse *datastar.ServerSentEventGenerator, tmpl *template.Template, data any) bool {
	html, err := renderTemplate(tmpl, data)
	if err != nil {
		h.logger.Error("render table", "template", tmpl.Name(), "error", err)
		return false
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Error("patch elements", "template", tmpl.Name(), "error", err)
		return false
	}
	return true
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return false
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Error("patch signals", "error", err)
		return false
	}
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.analytics.TopProducts(maxProducts)
	if !h.patchSignals(sse, map[string]any{"productsData": data}) {
		return
	}
	h.patchTable(sse, productsTableTemplate, data)

	flush(w)
}

func (h *SSEHandlers) HandleMonthlyGMV(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.analytics.MonthlyGMV()
	if !h.patchSignals(sse, map[string]any{"monthlyData": data}) {
		return
	}
	h.patchTable(sse, monthlyTableTemplate, data)

	flush(w)
}

func (h *SSEHandlers) HandleDecemberDaily(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.analytics.DecemberDaily()
	if !h.patchSignals(sse, map[string]any{"decemberData": data}) {
		return
	}
	h.patchTable(sse, decemberTableTemplate, data)

	flush(w)
}

func (h *SSEHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.analytics.RFM()
	signals := map[string]any{
		"rfmData":       summary,
		"concentration": h.analytics.Concentration(),
	}
	if !h.patchSignals(sse, signals) {
		return
	}
	h.patchTable(sse, rfmTableTemplate, summary)

	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	products := h.analytics.TopProducts(maxProducts)
	monthly := h.analytics.MonthlyGMV()
	december := h.analytics.DecemberDaily()
	summary := h.analytics.RFM()

	if !h.patchTable(sse, productsTableTemplate, products) ||
		!h.patchTable(sse, monthlyTableTemplate, monthly) ||
		!h.patchTable(sse, decemberTableTemplate, december) ||
		!h.patchTable(sse, rfmTableTemplate, summary) {
		return
	}

	// Send all signals in one call
	h.patchSignals(sse, map[string]any{
		"productsData":  products,
		"monthlyData":   monthly,
		"monetaryData":  h.analytics.MonetaryDistribution(),
		"decemberData":  december,
		"rfmData":       summary,
		"concentration": h.analytics.Concentration(),
	})

	flush(w)
}
