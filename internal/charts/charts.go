// Package charts renders transaction analytics as PNG images.
package charts

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vadiminshakov/paydash/internal/services/filter"
)

// Name identifies a chart.
type Name string

const (
	Volume       Name = "volume"
	Participants Name = "participants"
	Amounts      Name = "amounts"
	Status       Name = "status"
)

// Names lists every chart in display order.
var Names = []Name{Volume, Participants, Amounts, Status}

var (
	ErrUnknownChart = errors.New("unknown chart")
	ErrNoData       = errors.New("no data to chart")
)

const (
	width  = 800
	height = 400
)

var (
	accent       = drawing.ColorFromHex("667eea")
	paletteMain  = []drawing.Color{accent, drawing.ColorFromHex("764ba2"), drawing.ColorFromHex("a78bfa"), drawing.ColorFromHex("c4b5fd"), drawing.ColorFromHex("818cf8")}
	paletteState = []drawing.Color{drawing.ColorFromHex("28a745"), drawing.ColorFromHex("ffc107"), drawing.ColorFromHex("dc3545")}
)

// theme carries the colours that change with dark mode.
type theme struct {
	background drawing.Color
	text       drawing.Color
	grid       drawing.Color
}

func themeFor(dark bool) theme {
	if dark {
		return theme{
			background: drawing.ColorFromHex("1a1a2e"),
			text:       drawing.ColorFromHex("e2e8f0"),
			grid:       drawing.Color{R: 255, G: 255, B: 255, A: 26},
		}
	}
	return theme{
		background: drawing.ColorWhite,
		text:       drawing.ColorFromHex("333333"),
		grid:       drawing.Color{R: 0, G: 0, B: 0, A: 26},
	}
}

// ParseName validates a chart name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownChart, "%q", s)
}

// Render draws the named chart from agg as PNG.
func Render(w io.Writer, name Name, agg filter.Aggregates, dark bool) error {
	th := themeFor(dark)

	var err error
	switch name {
	case Volume:
		err = renderVolume(w, agg, th)
	case Participants:
		err = renderPie(w, "Transactions per Wallet", agg.ByParticipant, paletteMain, th)
	case Amounts:
		err = renderBars(w, "Transaction Amount Distribution", agg.ByBucket, th)
	case Status:
		err = renderPie(w, "Transaction Status", agg.ByStatus, paletteState, th)
	default:
		return errors.Wrapf(ErrUnknownChart, "%q", name)
	}

	return errors.Wrapf(err, "failed to render %s chart", name)
}

func renderVolume(w io.Writer, agg filter.Aggregates, th theme) error {
	if len(agg.RecentAmounts) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(agg.RecentAmounts))
	ys := make([]float64, len(agg.RecentAmounts))
	ticks := make([]chart.Tick, len(agg.RecentAmounts))
	maxY := 0.0
	for i, amount := range agg.RecentAmounts {
		xs[i] = float64(i)
		ys[i] = amount.InexactFloat64()
		ticks[i] = chart.Tick{Value: float64(i), Label: fmt.Sprintf("TX%d", i+1)}
		if ys[i] > maxY {
			maxY = ys[i]
		}
	}

	// a single point or all-zero amounts would otherwise give an empty range
	maxX := float64(len(xs) - 1)
	if maxX < 1 {
		maxX = 1
	}
	if maxY <= 0 {
		maxY = 1
	}

	graph := chart.Chart{
		Title:      "Transaction Amount (USDT)",
		TitleStyle: chart.Style{FontColor: th.text},
		Width:      width,
		Height:     height,
		Background: chart.Style{
			FillColor: th.background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: th.background},
		XAxis: chart.XAxis{
			Style: chart.Style{FontColor: th.text, StrokeColor: th.grid},
			Range: &chart.ContinuousRange{Min: 0, Max: maxX},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: th.text, StrokeColor: th.grid},
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", vf)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Transaction Amount (USDT)",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: accent,
					StrokeWidth: 2,
					FillColor:   accent.WithAlpha(26),
				},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

func renderBars(w io.Writer, title string, counts []filter.Count, th theme) error {
	if total(counts) == 0 {
		return ErrNoData
	}

	maxCount := 0
	for _, c := range counts {
		if c.Value > maxCount {
			maxCount = c.Value
		}
	}

	bars := make([]chart.Value, 0, len(counts))
	for i, c := range counts {
		bars = append(bars, chart.Value{
			Label: c.Label,
			Value: float64(c.Value),
			Style: chart.Style{FillColor: paletteMain[i%len(paletteMain)], StrokeColor: paletteMain[i%len(paletteMain)]},
		})
	}

	barChart := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: th.text},
		Background: chart.Style{
			FillColor: th.background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: th.background},
		XAxis:  chart.Style{FontColor: th.text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: th.text},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", vf)
				}
				return ""
			},
		},
		Width:  width,
		Height: height,
		Bars:   bars,
	}

	return barChart.Render(chart.PNG, w)
}

func renderPie(w io.Writer, title string, counts []filter.Count, palette []drawing.Color, th theme) error {
	values := make([]chart.Value, 0, len(counts))
	for i, c := range counts {
		// zero slices break normalisation
		if c.Value == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", c.Label, c.Value),
			Value: float64(c.Value),
			Style: chart.Style{FillColor: palette[i%len(palette)], FontColor: th.text},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	pie := chart.PieChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: th.text},
		Background: chart.Style{FillColor: th.background},
		Canvas:     chart.Style{FillColor: th.background},
		Width:      width / 2,
		Height:     height,
		Values:     values,
	}

	return pie.Render(chart.PNG, w)
}

func total(counts []filter.Count) int {
	sum := 0
	for _, c := range counts {
		sum += c.Value
	}
	return sum
}
