package export

import (
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"zoexpense/internal/core"
)

// ChartKind selects what a ChartRenderer draws.
type ChartKind int

const (
	// CategoryPie draws each category's share of the total.
	CategoryPie ChartKind = iota
	// DailyBars draws one bar per day.
	DailyBars
)

// ChartRenderer draws a report as a PNG image.
type ChartRenderer struct {
	Kind   ChartKind
	Width  int
	Height int
}

func NewChartRenderer() ChartRenderer {
	return ChartRenderer{Kind: CategoryPie, Width: 800, Height: 800}
}

func NewDailyChartRenderer() ChartRenderer {
	return ChartRenderer{Kind: DailyBars, Width: 1200, Height: 600}
}

func (c ChartRenderer) Format() string {
	if c.Kind == DailyBars {
		return "daily-png"
	}
	return "png"
}

func (ChartRenderer) Extension() string   { return "png" }
func (ChartRenderer) ContentType() string { return "image/png" }

// Render fails with ErrEmptyReport when no value is positive, since neither
// chart can be drawn from zero data.
func (c ChartRenderer) Render(w io.Writer, doc Document) error {
	if c.Kind == DailyBars {
		return c.renderDaily(w, doc)
	}
	return c.renderPie(w, doc)
}

func (c ChartRenderer) renderPie(w io.Writer, doc Document) error {
	values := make([]chart.Value, 0, len(doc.Report.Categories))
	for _, cat := range doc.Report.Categories {
		if cat.Amount <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: cat.Category.String() + " " + core.Percent(cat.Percentage),
			Value: float64(cat.Amount),
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		})
	}
	if len(values) == 0 {
		return ErrEmptyReport
	}

	pie := chart.PieChart{
		Title:  "Expenses by category, " + doc.Report.Window.Label,
		Width:  c.Width,
		Height: c.Height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
			FillColor: chart.ColorWhite,
		},
	}
	return pie.Render(chart.PNG, w)
}

func (c ChartRenderer) renderDaily(w io.Writer, doc Document) error {
	unit := float64(pow10(doc.Currency.DecimalPlaces))
	bars := make([]chart.Value, 0, len(doc.Report.Daily))
	top := 0.0
	for _, d := range doc.Report.Daily {
		v := float64(d.Amount) / unit
		top = max(top, v)
		bars = append(bars, chart.Value{
			Label: d.Date[5:],
			Value: v,
			Style: chart.Style{StrokeColor: chart.ColorBlue, FillColor: chart.ColorBlue},
		})
	}
	if top <= 0 {
		return ErrEmptyReport
	}

	graph := chart.BarChart{
		Title:    "Daily totals (" + doc.Currency.Code + "), " + doc.Report.Window.Label,
		Width:    max(c.Width, 60*len(bars)+100),
		Height:   c.Height,
		BarWidth: 40,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

func pow10(places int) int64 {
	n := int64(1)
	for range places {
		n *= 10
	}
	return n
}
