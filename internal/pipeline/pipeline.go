package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"retail-metrics/internal/charts"
	"retail-metrics/internal/config"
	"retail-metrics/internal/exporter"
	"retail-metrics/internal/models"
	"retail-metrics/internal/observability"
	"retail-metrics/internal/services"
)

// Step names, in execution order.
const (
	StepLoad          = "load"
	StepMonthly       = "monthly_gmv"
	StepMonetary      = "monetary_distribution"
	StepTopProducts   = "top_products"
	StepRFM           = "rfm"
	StepDecember      = "december_completeness"
	StepDecemberChart = "december_chart"
	StepConcentration = "concentration"
	StepWorkbook      = "workbook"
)

// step pairs a computation over the shared run state with the artifacts it
// emits. Either half may be nil.
type step struct {
	name    string
	compute func(ctx context.Context, st *state) error
	emit    func(st *state) error
}

type state struct {
	dataset   *models.Dataset
	customers []float64
	report    *models.Report
}

// Runner executes the report steps strictly in sequence over one cleaned
// dataset. The first failing step aborts the rest.
type Runner struct {
	cfg      *config.Config
	opts     services.ReportOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
	console  *exporter.Console
	renderer *charts.Renderer
}

func NewRunner(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, out io.Writer) *Runner {
	return &Runner{
		cfg:      cfg,
		opts:     Options(cfg.Report),
		logger:   logger,
		metrics:  metrics,
		console:  exporter.NewConsole(out),
		renderer: charts.NewRenderer(cfg.Paths.FiguresDir),
	}
}

// Options maps report configuration onto the view parameters.
func Options(cfg config.ReportConfig) services.ReportOptions {
	return services.ReportOptions{
		TopProducts:       cfg.TopProducts,
		HistogramBins:     cfg.HistogramBins,
		Quantiles:         cfg.Quantiles,
		TopShare:          cfg.TopShare,
		CompletenessMonth: time.Month(cfg.CompletenessMonth),
	}
}

// Run computes every view and writes the cleaned table, the figures, the
// console summaries and the workbook.
func (r *Runner) Run(ctx context.Context) (*models.Report, error) {
	return r.execute(ctx, true)
}

// Compute builds the report without writing any artifact.
func (r *Runner) Compute(ctx context.Context) (*models.Report, error) {
	return r.execute(ctx, false)
}

func (r *Runner) execute(ctx context.Context, emit bool) (*models.Report, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline")
	defer func() {
		span.Finish()
		r.logger.Info("pipeline finished", span.LogAttrs()...)
	}()

	st := &state{report: &models.Report{GeneratedAt: time.Now().UTC()}}

	for _, s := range r.steps() {
		if err := r.runStep(ctx, s, st, emit); err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("step %s: %w", s.name, err)
		}
	}

	return st.report, nil
}

func (r *Runner) runStep(ctx context.Context, s step, st *state, emit bool) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	stepCtx, span := observability.StartSpan(ctx, s.name)
	start := time.Now()
	defer func() {
		r.metrics.ObserveStep(s.name, time.Since(start), err)
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
		r.logger.Debug("step completed", span.LogAttrs()...)
	}()

	if s.compute != nil {
		if err := s.compute(stepCtx, st); err != nil {
			return err
		}
	}
	if emit && s.emit != nil {
		return s.emit(st)
	}
	return nil
}

func (r *Runner) steps() []step {
	return []step{
		{
			name: StepLoad,
			compute: func(ctx context.Context, st *state) error {
				ctx, cancel := context.WithTimeout(ctx, r.cfg.Report.LoadTimeout)
				defer cancel()

				ds, err := services.LoadDataset(ctx, r.cfg.Paths.Input, r.logger)
				if err != nil {
					return err
				}
				r.metrics.ObserveDataset(ds)

				st.dataset = ds
				st.report.RecordCount = ds.Len()
				st.report.Revenue = ds.Revenue()
				return nil
			},
			emit: func(st *state) error {
				if err := exporter.WriteCleanedCSV(r.cfg.Paths.CleanedCSV, st.dataset); err != nil {
					return err
				}
				r.logger.Info("cleaned data written", "path", r.cfg.Paths.CleanedCSV)
				return r.console.Shape(st.dataset)
			},
		},
		{
			name: StepMonthly,
			compute: func(_ context.Context, st *state) error {
				st.report.MonthlyGMV = services.MonthlyGMV(st.dataset)
				return nil
			},
			emit: func(st *state) error {
				return r.figure(r.renderer.MonthlyTrend(st.report.MonthlyGMV))
			},
		},
		{
			name: StepMonetary,
			compute: func(_ context.Context, st *state) error {
				st.customers = services.CustomerMonetary(st.dataset)
				bins, err := services.MonetaryHistogram(st.customers, r.opts.HistogramBins)
				if err != nil {
					return err
				}
				st.report.MonetaryDistribution = bins
				return nil
			},
			emit: func(st *state) error {
				return r.figure(r.renderer.MonetaryDistribution(st.report.MonetaryDistribution))
			},
		},
		{
			name: StepTopProducts,
			compute: func(_ context.Context, st *state) error {
				st.report.TopProducts = services.TopProducts(st.dataset, r.opts.TopProducts)
				return nil
			},
			emit: func(st *state) error {
				if err := r.console.TopProducts(st.report.TopProducts); err != nil {
					return err
				}
				return r.figure(r.renderer.TopProducts(st.report.TopProducts))
			},
		},
		{
			name: StepRFM,
			compute: func(_ context.Context, st *state) error {
				customers, reference, err := services.ComputeRFM(st.dataset, r.opts.Quantiles)
				if err != nil {
					return err
				}
				st.report.Customers = customers
				st.report.RFM = services.SummarizeRFM(customers, reference, r.opts.Quantiles)
				return nil
			},
			emit: func(st *state) error {
				if err := r.console.RFM(st.report.RFM, services.HighValueScore(r.opts.Quantiles)); err != nil {
					return err
				}
				return r.figure(r.renderer.RFMSegments(st.report.RFM.Segments))
			},
		},
		{
			name: StepDecember,
			compute: func(_ context.Context, st *state) error {
				st.report.DecemberDaily = services.DailyActivity(st.dataset, r.opts.CompletenessMonth)
				return nil
			},
			emit: func(st *state) error {
				return r.console.DailyActivity(r.opts.CompletenessMonth.String(), st.report.DecemberDaily)
			},
		},
		{
			name: StepDecemberChart,
			emit: func(st *state) error {
				return r.figure(r.renderer.DecemberActivity(st.report.DecemberDaily))
			},
		},
		{
			name: StepConcentration,
			compute: func(_ context.Context, st *state) error {
				st.report.Concentration = services.RevenueConcentration(st.report.Customers, r.opts.TopShare)
				return nil
			},
			emit: func(st *state) error {
				if err := r.console.Concentration(st.report.Concentration, r.opts.TopShare); err != nil {
					return err
				}
				return r.figure(r.renderer.Concentration(st.report.Concentration))
			},
		},
		{
			name: StepWorkbook,
			emit: func(st *state) error {
				if err := exporter.WriteWorkbook(r.cfg.Paths.Workbook, st.report); err != nil {
					return err
				}
				r.logger.Info("workbook written", "path", r.cfg.Paths.Workbook)
				return nil
			},
		},
	}
}

func (r *Runner) figure(path string, err error) error {
	if err != nil {
		return err
	}
	r.logger.Info("figure saved", "path", path)
	return nil
}
