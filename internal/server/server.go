package server

import (
	"log/slog"
	"net/http"

	"retail-metrics/internal/handlers"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// Options carries the optional pieces of the route table. A nil Metrics
// leaves /metrics unregistered and an empty FiguresDir leaves /figures/
// unregistered.
type Options struct {
	Metrics    *observability.Metrics
	FiguresDir string
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers, opts)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, opts Options) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	if opts.Metrics != nil {
		s.mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	if opts.FiguresDir != "" {
		s.mux.Handle("GET /figures/", http.StripPrefix("/figures/", http.FileServer(http.Dir(opts.FiguresDir))))
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/monthly-gmv", s.apiHandlers.HandleMonthlyGMV)
	s.mux.HandleFunc("GET /api/monetary-distribution", s.apiHandlers.HandleMonetaryDistribution)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/rfm", s.apiHandlers.HandleRFM)
	s.mux.HandleFunc("GET /api/customers/{id}", s.apiHandlers.HandleCustomer)
	s.mux.HandleFunc("GET /api/december-daily", s.apiHandlers.HandleDecemberDaily)
	s.mux.HandleFunc("GET /api/concentration", s.apiHandlers.HandleConcentration)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/top-products", s.sseHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /sse/monthly-gmv", s.sseHandlers.HandleMonthlyGMV)
	s.mux.HandleFunc("GET /sse/december-daily", s.sseHandlers.HandleDecemberDaily)
	s.mux.HandleFunc("GET /sse/rfm", s.sseHandlers.HandleRFM)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
