package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-metrics/internal/config"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes one report. Summaries go to stdout and logs to stderr.
func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return err
	}

	logger := observability.NewLogger(cfg.Logger, stderr)
	slog.SetDefault(logger)

	logger.Info("starting report",
		"input", cfg.Paths.Input,
		"figures", cfg.Paths.FiguresDir,
		"workbook", cfg.Paths.Workbook,
	)

	start := time.Now()
	runner := pipeline.NewRunner(cfg, logger, observability.NewMetrics(), stdout)
	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error("report failed", "error", err)
		return err
	}

	logger.Info("report complete",
		"records", report.RecordCount,
		"customers", report.RFM.Customers,
		"duration", time.Since(start),
	)
	return nil
}
