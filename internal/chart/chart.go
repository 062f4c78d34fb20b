// Package chart renders the backtest price chart as a self-contained HTML
// page: the close series with every buy and sell fill marked on it.
package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"demacross/internal/domain"
)

const dateLayout = "2006-01-02"

// Render writes the signal chart for one run to w. Buys are drawn as green
// upward triangles at their fill price, sells as red downward triangles.
func Render(w io.Writer, symbol string, bars []domain.Bar, buys, sells []domain.SignalRecord) error {
	title := "Strategy Signals: " + symbol

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1280px",
			Height:    "640px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	dates := make([]string, len(bars))
	closes := make([]opts.LineData, len(bars))
	for i, b := range bars {
		dates[i] = b.Timestamp.Format(dateLayout)
		closes[i] = opts.LineData{Value: b.Close}
	}
	line.SetXAxis(dates).AddSeries("Close Price", closes,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	line.Overlap(
		markerSeries("Buy Signal", buys, "green", 0),
		markerSeries("Sell Signal", sells, "red", 180),
	)

	return line.Render(w)
}

// markerSeries builds a scatter overlay with one triangle per fill. Points
// are (date, price) pairs so they land on the shared category axis without a
// full-length series.
func markerSeries(name string, recs []domain.SignalRecord, color string, rotate int) *charts.Scatter {
	points := make([]opts.ScatterData, len(recs))
	for i, r := range recs {
		points[i] = opts.ScatterData{
			Value:        []interface{}{r.Time.Format(dateLayout), r.Price},
			Symbol:       "triangle",
			SymbolSize:   14,
			SymbolRotate: rotate,
		}
	}

	sc := charts.NewScatter()
	sc.AddSeries(name, points, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	return sc
}
