package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"retail-metrics/internal/models"
)

// Figure is one chart image shown on the dashboard.
type Figure struct {
	Title string
	Src   string
}

// Summary is the headline data rendered into the page on first paint. The
// tables below it are filled in by the SSE endpoints.
type Summary struct {
	Ready         bool
	RecordCount   int
	Revenue       string
	Customers     int
	HighValue     int
	Concentration models.Concentration
	Figures       []Figure
}

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#222}
header{background:#1f2d3d;color:#fff;padding:1rem 2rem}
main{padding:1.5rem 2rem;display:grid;gap:1.5rem}
.cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:1rem}
.card{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.card h3{margin:0;font-size:.8rem;color:#666;text-transform:uppercase}
.card p{margin:.4rem 0 0;font-size:1.6rem;font-weight:600}
.modern-table{width:100%;border-collapse:collapse;background:#fff}
.modern-table th,.modern-table td{padding:.5rem;border-bottom:1px solid #eee;text-align:left}
.category-badge{background:#e8f0fe;border-radius:4px;padding:.1rem .4rem}
.figures{display:grid;grid-template-columns:repeat(auto-fit,minmax(480px,1fr));gap:1rem}
.figures img{width:100%;background:#fff;border-radius:8px}`

// Dashboard renders the whole page.
func Dashboard(s Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<title>Retail Metrics</title><style>`+styles+`</style>`+
			`<script type="module" src="`+datastarScript+`"></script></head>`+
			`<body data-init="@get('/sse/refresh-all')"><header><h1>Retail Metrics</h1></header><main>`); err != nil {
			return err
		}

		if !s.Ready {
			if _, err := io.WriteString(w, `<p>The report has not been computed yet.</p>`); err != nil {
				return err
			}
		} else if err := cards(s).Render(ctx, w); err != nil {
			return err
		}

		sections := []struct{ id, title string }{
			{"products-content", "Top Products"},
			{"rfm-content", "RFM Segments"},
			{"december-content", "December Daily Orders and GMV"},
			{"monthly-content", "Monthly GMV"},
		}
		for _, sec := range sections {
			if _, err := fmt.Fprintf(w, `<section><h2>%s</h2><div id="%s">Loading...</div></section>`,
				templ.EscapeString(sec.title), templ.EscapeString(sec.id)); err != nil {
				return err
			}
		}

		if err := figures(s.Figures).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func cards(s Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		values := []struct{ label, value string }{
			{"Records", fmt.Sprint(s.RecordCount)},
			{"Revenue (GBP)", s.Revenue},
			{"Customers", fmt.Sprint(s.Customers)},
			{"High-value customers", fmt.Sprint(s.HighValue)},
			{fmt.Sprintf("Top %d customers share", s.Concentration.TopCustomers), fmt.Sprintf("%.2f%%", s.Concentration.SharePercent)},
		}

		if _, err := io.WriteString(w, `<div class="cards">`); err != nil {
			return err
		}
		for _, v := range values {
			if _, err := fmt.Fprintf(w, `<div class="card"><h3>%s</h3><p>%s</p></div>`,
				templ.EscapeString(v.label), templ.EscapeString(v.value)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func figures(figs []Figure) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(figs) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<section><h2>Figures</h2><div class="figures">`); err != nil {
			return err
		}
		for _, f := range figs {
			if _, err := fmt.Fprintf(w, `<img src="%s" alt="%s" loading="lazy">`,
				templ.EscapeString(f.Src), templ.EscapeString(f.Title)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></section>`)
		return err
	})
}
