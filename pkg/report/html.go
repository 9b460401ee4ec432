package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/latticeforge/deepscan/pkg/tdg"
)

const (
	htmlChartWidth  = "100%"
	htmlChartHeight = "600px"
	axisLabelRotate = 45
	axisLabelSize   = 10
)

// severityColor maps a tdg.Severity to the bar color its score gets in
// the HTML distribution chart, grounded on the teacher's own
// red/amber/blue item-style coloring in internal/analyzers/couples/plot.go
// and halstead/plot.go.
func severityColor(sev tdg.Severity) string {
	switch sev {
	case tdg.SeverityCritical:
		return "#d64545"
	case tdg.SeverityWarning:
		return "#d6a545"
	default:
		return "#4593d6"
	}
}

// ToHTML renders dc's per-file TDG distribution as a standalone HTML
// page containing a single go-echarts bar chart, one bar per scored
// file colored by severity and sorted worst-first. Grounded on the
// teacher's charts.NewBar/opts.BarData idiom (internal/analyzers/
// imports/plot.go, internal/analyzers/halstead/plot.go) rather than its
// full plotpage templating system, since a single chart has no need for
// plotpage's multi-section page assembly.
func ToHTML(dc *DeepContext) ([]byte, error) {
	bar := buildTdgBarChart(dc.Analyses.Tdg)

	var buf bytes.Buffer

	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}

	return buf.Bytes(), nil
}

func buildTdgBarChart(scores []tdg.Score) *charts.Bar {
	sorted := make([]tdg.Score, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	labels := make([]string, len(sorted))
	data := make([]opts.BarData, len(sorted))

	for i, s := range sorted {
		labels[i] = s.FilePath
		data[i] = opts.BarData{
			Value:     s.Value,
			ItemStyle: &opts.ItemStyle{Color: severityColor(s.Severity)},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: htmlChartWidth, Height: htmlChartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "TDG Score Distribution",
			Subtitle: fmt.Sprintf("%d files scored", len(sorted)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "File",
			AxisLabel: &opts.AxisLabel{Rotate: axisLabelRotate, FontSize: axisLabelSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "TDG"}),
	)
	bar.SetXAxis(labels).AddSeries("TDG", data)

	return bar
}
