package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pingdash/internal/models"
)

var errNoSamples = errors.New("not enough successful samples to chart")

var chartPadding = chart.Style{
	Padding: chart.Box{
		Top:    20,
		Left:   20,
		Right:  20,
		Bottom: 20,
	},
}

var gridStyle = chart.Style{
	StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
	StrokeWidth: 1.0,
}

// latencySeries places samples on a time axis ending at the snapshot time,
// one interval apart. Lost samples leave a gap.
func latencySeries(snap Snapshot) ([]time.Time, []float64) {
	interval := snap.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	n := len(snap.Latency)
	var xs []time.Time
	var ys []float64
	for i, s := range snap.Latency {
		if s.Lost {
			continue
		}
		xs = append(xs, snap.Generated.Add(-time.Duration(n-1-i)*interval))
		ys = append(ys, s.RTTMs)
	}
	return xs, ys
}

func (g *Generator) generateLatencyChart(outputDir string, snap Snapshot) error {
	xs, ys := latencySeries(snap)
	if len(xs) < 2 {
		return errNoSamples
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Network Latency - %s", snap.Target),
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		XAxis: chart.XAxis{
			Name: "Time",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Latency (ms)",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: snap.Target,
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(0),
					StrokeWidth: 2,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	// Add moving average
	if len(ys) > 10 {
		ts := graph.Series[0].(chart.TimeSeries)
		graph.Series = append(graph.Series, chart.SMASeries{
			Name: "Moving Avg",
			Style: chart.Style{
				StrokeColor:     chart.GetDefaultColor(1),
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
			InnerSeries: ts,
			Period:      10,
		})
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	return renderPNG(filepath.Join(outputDir, "latency.png"), graph.Render)
}

var portColors = map[models.PortStatus]drawing.Color{
	models.PortOpen:     {R: 46, G: 204, B: 113, A: 255},
	models.PortClosed:   {R: 149, G: 165, B: 166, A: 255},
	models.PortFiltered: {R: 231, G: 76, B: 60, A: 255},
}

// generatePortChart draws one bar per status with the port count.
func (g *Generator) generatePortChart(outputDir string, snap Snapshot) error {
	counts := map[models.PortStatus]int{}
	for _, p := range snap.Ports {
		counts[p.Status]++
	}

	var bars []chart.Value
	for _, status := range []models.PortStatus{models.PortOpen, models.PortClosed, models.PortFiltered} {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%d)", status, counts[status]),
			Value: float64(counts[status]),
			Style: chart.Style{
				FillColor:   portColors[status],
				StrokeColor: portColors[status],
			},
		})
	}

	graph := chart.BarChart{
		Title: fmt.Sprintf("Port Scan - %s", snap.Target),
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chartPadding,
		Width:      800,
		Height:     400,
		Bars:       bars,
		BarWidth:   120,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: float64(len(snap.Ports)),
			},
		},
	}

	return renderPNG(filepath.Join(outputDir, "ports.png"), graph.Render)
}

func renderPNG(filename string, render func(chart.RendererProvider, io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := render(chart.PNG, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
