package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"retail-metrics/internal/charts"
	"retail-metrics/internal/config"
	"retail-metrics/internal/middleware"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/pipeline"
	"retail-metrics/internal/server"
	"retail-metrics/internal/services"
	"retail-metrics/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

var figureTitles = map[string]string{
	charts.MonthlyTrendFile:         "Monthly GMV trend",
	charts.MonetaryDistributionFile: "Monetary value distribution",
	charts.TopProductsFile:          "Top products by sales",
	charts.RFMSegmentsFile:          "Customers per RFM segment",
	charts.DecemberFile:             "December daily GMV and orders",
	charts.ConcentrationFile:        "Revenue concentration",
}

func dashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Cache-Control", cacheMaxAge)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(dashboardSummary(analytics)).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func dashboardSummary(analytics *services.Analytics) templates.Summary {
	if !analytics.Ready() {
		return templates.Summary{}
	}

	stats := analytics.Stats()
	summary := templates.Summary{
		Ready:         true,
		RecordCount:   stats["record_count"].(int),
		Revenue:       stats["revenue"].(string),
		Customers:     stats["customers"].(int),
		HighValue:     stats["high_value"].(int),
		Concentration: analytics.Concentration(),
	}
	for _, name := range charts.Files() {
		summary.Figures = append(summary.Figures, templates.Figure{
			Title: figureTitles[name],
			Src:   path.Join("/figures", name),
		})
	}
	return summary
}

// newHandler assembles the routes behind the middleware chain. The rate
// limiter's janitor runs until ctx is done.
func newHandler(ctx context.Context, cfg *config.Config, analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	}

	srv := server.NewServer(analytics, logger, templateHandlers, server.Options{
		Metrics:    metrics,
		FiguresDir: cfg.Paths.FiguresDir,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(ctx)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

// prepare computes the report in memory, publishes it and renders the
// figures the dashboard links to.
func prepare(ctx context.Context, cfg *config.Config, analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) error {
	start := time.Now()
	report, err := pipeline.NewRunner(cfg, logger, metrics, io.Discard).Compute(ctx)
	if err != nil {
		return err
	}
	analytics.SetReport(report)
	logger.Info("report computed", "duration", time.Since(start))

	paths, err := charts.NewRenderer(cfg.Paths.FiguresDir).RenderAll(report)
	if err != nil {
		return err
	}
	logger.Info("figures rendered", "dir", cfg.Paths.FiguresDir, "count", len(paths))
	return nil
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logger, stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"input", cfg.Paths.Input,
	)

	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics()

	if err := prepare(ctx, cfg, analytics, logger, metrics); err != nil {
		logger.Error("failed to prepare report", "error", err)
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(ctx, cfg, analytics, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}
