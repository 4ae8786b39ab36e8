package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-metrics/internal/errors"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// ready writes 503 until a report has been published.
func (h *APIHandlers) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.Ready() {
		return true
	}
	err := errors.ServiceUnavailable("report not computed yet")
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
	return false
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleMonthlyGMV(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	h.writeCached(w, h.analytics.MonthlyGMV())
}

func (h *APIHandlers) HandleMonetaryDistribution(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	h.writeCached(w, h.analytics.MonetaryDistribution())
}

// HandleTopProducts accepts an optional limit query parameter.
func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	limit := maxProducts
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errors.WriteError(w, h.logger, errors.BadRequest("limit must be a positive integer"),
				observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	h.writeCached(w, h.analytics.TopProducts(limit))
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	h.writeCached(w, h.analytics.RFM())
}

func (h *APIHandlers) HandleCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("customer id must be an integer"), requestID)
		return
	}

	customer, ok := h.analytics.Customer(id)
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("customer not found"), requestID)
		return
	}

	h.writeCached(w, customer)
}

func (h *APIHandlers) HandleDecemberDaily(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	h.writeCached(w, h.analytics.DecemberDaily())
}

func (h *APIHandlers) HandleConcentration(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	h.writeCached(w, h.analytics.Concentration())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"ready":     h.analytics.Ready(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
