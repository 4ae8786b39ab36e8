package charts

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	apperrors "retail-metrics/internal/errors"
	"retail-metrics/internal/models"
)

// Figure file names inside the renderer's directory.
const (
	MonthlyTrendFile         = "monthly_gmv_trend.png"
	MonetaryDistributionFile = "monetary_distribution.png"
	TopProductsFile          = "top_10_products.png"
	RFMSegmentsFile          = "rfm_segments.png"
	DecemberFile             = "december_gmv_orders.png"
	ConcentrationFile        = "revenue_concentration.png"
)

const (
	defaultWidth  = 12 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// Renderer writes report figures as PNG files into a single directory.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{
		dir:    dir,
		width:  defaultWidth,
		height: defaultHeight,
	}
}

func (r *Renderer) Dir() string {
	return r.dir
}

// RenderAll writes every figure of the report in a fixed order and returns
// the written paths. The first failure stops the run.
func (r *Renderer) RenderAll(report *models.Report) ([]string, error) {
	steps := []func() (string, error){
		func() (string, error) { return r.MonthlyTrend(report.MonthlyGMV) },
		func() (string, error) { return r.MonetaryDistribution(report.MonetaryDistribution) },
		func() (string, error) { return r.TopProducts(report.TopProducts) },
		func() (string, error) { return r.RFMSegments(report.RFM.Segments) },
		func() (string, error) { return r.DecemberActivity(report.DecemberDaily) },
		func() (string, error) { return r.Concentration(report.Concentration) },
	}

	paths := make([]string, 0, len(steps))
	for _, step := range steps {
		path, err := step()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// MonthlyTrend draws monthly revenue as a line with point markers.
func (r *Renderer) MonthlyTrend(months []models.MonthlyGMV) (string, error) {
	if len(months) == 0 {
		return "", apperrors.Render(nil, "monthly trend: no months")
	}

	p := plot.New()
	p.Title.Text = "Monthly GMV Trend"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "GMV (GBP)"
	p.Add(plotter.NewGrid())

	labels := make([]string, len(months))
	pts := make(plotter.XYs, len(months))
	for i, m := range months {
		labels[i] = m.Month
		pts[i].X = float64(i)
		pts[i].Y = m.GMV.InexactFloat64()
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return "", apperrors.Render(err, "monthly trend")
	}
	line.Color = plotutil.Color(0)
	points.Color = plotutil.Color(0)
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.NominalX(labels...)
	rotateXLabels(p)

	return r.save(p, MonthlyTrendFile)
}

// MonetaryDistribution draws the customer Monetary histogram from
// precomputed bins.
func (r *Renderer) MonetaryDistribution(bins []models.HistogramBin) (string, error) {
	if len(bins) == 0 {
		return "", apperrors.Render(nil, "monetary distribution: no bins")
	}

	p := plot.New()
	p.Title.Text = "Monetary Value Distribution"
	p.X.Label.Text = "Monetary (GBP)"
	p.Y.Label.Text = "Count"

	hist := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Upper - bins[0].Lower,
		FillColor: plotutil.Color(1),
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, b := range bins {
		hist.Bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}
	p.Add(hist)

	return r.save(p, MonetaryDistributionFile)
}

// TopProducts draws a horizontal bar per product with the largest revenue
// at the top.
func (r *Renderer) TopProducts(products []models.ProductSales) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d Products by Sales", len(products))
	p.X.Label.Text = "Sales (GBP)"

	if len(products) > 0 {
		values := make(plotter.Values, len(products))
		labels := make([]string, len(products))
		for i, prod := range products {
			j := len(products) - 1 - i
			values[j] = prod.TotalPrice.InexactFloat64()
			labels[j] = prod.Description
		}

		bars, err := plotter.NewBarChart(values, vg.Points(18))
		if err != nil {
			return "", apperrors.Render(err, "top products")
		}
		bars.Horizontal = true
		bars.Color = plotutil.Color(2)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalY(labels...)
	}

	return r.save(p, TopProductsFile)
}

// RFMSegments draws customers per segment.
func (r *Renderer) RFMSegments(segments []models.SegmentCount) (string, error) {
	if len(segments) == 0 {
		return "", apperrors.Render(nil, "rfm segments: no segments")
	}

	p := plot.New()
	p.Title.Text = "Customers per RFM Segment"
	p.Y.Label.Text = "Customers"

	values := make(plotter.Values, len(segments))
	labels := make([]string, len(segments))
	for i, s := range segments {
		values[i] = float64(s.Customers)
		labels[i] = s.Segment
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return "", apperrors.Render(err, "rfm segments")
	}
	bars.Color = plotutil.Color(3)
	p.Add(bars)
	p.NominalX(labels...)

	return r.save(p, RFMSegmentsFile)
}

// DecemberActivity draws daily revenue above daily order count. The two
// panels share the date axis and keep their own y-axis.
func (r *Renderer) DecemberActivity(days []models.DailyActivity) (string, error) {
	gmv := plot.New()
	gmv.Title.Text = "December Daily GMV and Order Count"
	gmv.Y.Label.Text = "GMV (GBP)"

	orders := plot.New()
	orders.X.Label.Text = "Date"
	orders.Y.Label.Text = "Order Count"

	if len(days) > 0 {
		labels := make([]string, len(days))
		gmvPts := make(plotter.XYs, len(days))
		orderPts := make(plotter.XYs, len(days))
		for i, d := range days {
			labels[i] = d.Date
			gmvPts[i] = plotter.XY{X: float64(i), Y: d.GMV.InexactFloat64()}
			orderPts[i] = plotter.XY{X: float64(i), Y: float64(d.OrderCount)}
		}

		if err := addSeries(gmv, gmvPts, 0, draw.CircleGlyph{}); err != nil {
			return "", apperrors.Render(err, "december gmv")
		}
		if err := addSeries(orders, orderPts, 1, draw.SquareGlyph{}); err != nil {
			return "", apperrors.Render(err, "december orders")
		}

		gmv.NominalX(make([]string, len(days))...)
		orders.NominalX(labels...)
		rotateXLabels(orders)
	}

	img := vgimg.New(r.width, 2*r.height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}

	canvases := plot.Align([][]*plot.Plot{{gmv}, {orders}}, tiles, dc)
	gmv.Draw(canvases[0][0])
	orders.Draw(canvases[1][0])

	path, err := r.path(DecemberFile)
	if err != nil {
		return "", err
	}
	if err := writePNG(path, img); err != nil {
		return "", apperrors.Render(err, "december activity")
	}
	return path, nil
}

// Concentration draws the cumulative revenue share against the share of
// customers ranked by Monetary, with a marker at the top-share cut.
func (r *Renderer) Concentration(c models.Concentration) (string, error) {
	if len(c.Curve) == 0 {
		return "", apperrors.Render(nil, "concentration: no customers")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Revenue Concentration (top %d customers: %.2f%%)", c.TopCustomers, c.SharePercent)
	p.X.Label.Text = "Customers (%)"
	p.Y.Label.Text = "Cumulative revenue (%)"
	p.Add(plotter.NewGrid())

	n := float64(len(c.Curve))
	pts := make(plotter.XYs, 0, len(c.Curve)+1)
	pts = append(pts, plotter.XY{})
	for i, v := range c.Curve {
		pts = append(pts, plotter.XY{X: float64(i+1) / n * 100, Y: v})
	}

	curve, err := plotter.NewLine(pts)
	if err != nil {
		return "", apperrors.Render(err, "concentration curve")
	}
	curve.Color = plotutil.Color(0)
	curve.Width = vg.Points(2)
	p.Add(curve)
	p.Legend.Add("cumulative share", curve)

	cutX := float64(c.TopCustomers) / n * 100
	cut, err := plotter.NewLine(plotter.XYs{{X: cutX, Y: 0}, {X: cutX, Y: 100}})
	if err != nil {
		return "", apperrors.Render(err, "concentration cut")
	}
	cut.Color = plotutil.Color(1)
	cut.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(cut)
	p.Legend.Add(fmt.Sprintf("top %d customers", c.TopCustomers), cut)
	p.Legend.Top = false
	p.Legend.Left = false

	p.X.Min, p.X.Max = 0, 100
	p.Y.Min, p.Y.Max = 0, 100

	return r.save(p, ConcentrationFile)
}

func addSeries(p *plot.Plot, pts plotter.XYs, colorIndex int, shape draw.GlyphDrawer) error {
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(colorIndex)
	points.Color = plotutil.Color(colorIndex)
	points.Shape = shape
	p.Add(plotter.NewGrid(), line, points)
	return nil
}

func rotateXLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func (r *Renderer) path(name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", apperrors.Render(err, "create figures directory")
	}
	return filepath.Join(r.dir, name), nil
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	path, err := r.path(name)
	if err != nil {
		return "", err
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", apperrors.Render(err, "save "+name)
	}
	return path, nil
}

func writePNG(path string, img *vgimg.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Files lists the figure names RenderAll produces, in order.
func Files() []string {
	return slices.Clone(figureFiles)
}

var figureFiles = []string{
	MonthlyTrendFile,
	MonetaryDistributionFile,
	TopProductsFile,
	RFMSegmentsFile,
	DecemberFile,
	ConcentrationFile,
}
