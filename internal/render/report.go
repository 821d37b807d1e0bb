package render

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/density.report/internal/dxgrid"
)

const (
	histogramBins  = 40
	sliceMaxPoints = 8000
)

// viridis is the color ramp used for density-colored charts.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteReport renders an HTML report for a merge: a histogram of voxel
// values, per-file interior contributions, and the middle z plane
// colored by density.
func WriteReport(w io.Writer, res *dxgrid.MergeResult) error {
	page := components.NewPage()
	page.PageTitle = "Grid Merge Report"
	page.AddCharts(
		valueHistogram(res),
		fileContributions(res),
		sliceChart(res),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// valueHistogram buckets the merged values into a bar chart.
func valueHistogram(res *dxgrid.MergeResult) *charts.Bar {
	labels, counts := histogram(res.Values, histogramBins)

	y := make([]opts.BarData, len(counts))
	for i, c := range counts {
		y[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Density Distribution", Subtitle: fmt.Sprintf("%d voxels", len(res.Values))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("voxels", y)
	return bar
}

// histogram buckets values into bins labeled by bin center.
func histogram(values []float64, bins int) ([]string, []int) {
	if len(values) == 0 || bins < 1 {
		return nil, nil
	}

	lo := floats.Min(values)
	hi := floats.Max(values)
	if lo == hi {
		return []string{fmt.Sprintf("%.4f", lo)}, []int{len(values)}
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.4f", lo+width*(float64(i)+0.5))
	}
	return labels, counts
}

// fileContributions charts how many interior voxels each input supplied.
func fileContributions(res *dxgrid.MergeResult) *charts.Bar {
	x := make([]string, len(res.Files))
	y := make([]opts.BarData, len(res.Files))
	for i, f := range res.Files {
		x[i] = filepath.Base(f.Path)
		y[i] = opts.BarData{Value: f.Interior}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Input Files", Subtitle: fmt.Sprintf("%d files merged", len(res.Files))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("interior voxels", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// sliceChart renders the middle z plane as density-colored scatter points,
// downsampled by stride to stay within sliceMaxPoints.
func sliceChart(res *dxgrid.MergeResult) *charts.Scatter {
	h := res.Header
	iz := h.Counts.Z / 2

	planePoints := h.Counts.X * h.Counts.Y
	stride := 1
	if planePoints > sliceMaxPoints {
		stride = int(math.Ceil(float64(planePoints) / float64(sliceMaxPoints)))
	}

	data := make([]opts.ScatterData, 0, planePoints/stride+1)
	for n := 0; n < planePoints; n += stride {
		ix := n / h.Counts.Y
		iy := n % h.Counts.Y
		x := h.Origin.X + h.Spacing*float64(ix)
		y := h.Origin.Y + h.Spacing*float64(iy)
		v := res.Values[(ix*h.Counts.Y+iy)*h.Counts.Z+iz]
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
	}

	maxVal := res.Stats.Max
	if maxVal == res.Stats.Min {
		maxVal = res.Stats.Min + 1
	}

	xMin := h.Origin.X - h.Spacing
	xMax := h.Origin.X + h.Spacing*float64(h.Counts.X)
	yMin := h.Origin.Y - h.Spacing
	yMax := h.Origin.Y + h.Spacing*float64(h.Counts.Y)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Density Slice", Subtitle: fmt.Sprintf("z=%.3f points=%d stride=%d", h.Origin.Z+h.Spacing*float64(iz), len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: xMin, Max: xMax, Name: "x [A]", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: yMin, Max: yMax, Name: "y [A]", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(res.Stats.Min),
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("density", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}
