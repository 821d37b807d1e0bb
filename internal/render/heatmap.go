// Package render turns merge results into images and HTML reports.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/density.report/internal/dxgrid"
)

// Axis names one axis of the combined grid.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis converts a flag value to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case AxisX, AxisY, AxisZ:
		return Axis(s), nil
	}
	return "", fmt.Errorf("unknown axis %q (want x, y or z)", s)
}

// planes returns how many slices the grid holds along the axis.
func (a Axis) planes(c dxgrid.Counts) int {
	switch a {
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	case AxisZ:
		return c.Z
	}
	return 0
}

// sliceGrid adapts one plane of a linearized volume to plotter.GridXYZ.
// The volume is stored x outer, y middle, z inner.
type sliceGrid struct {
	header dxgrid.Header
	values []float64
	axis   Axis
	index  int
}

func (g sliceGrid) flat(ix, iy, iz int) float64 {
	c := g.header.Counts
	return g.values[(ix*c.Y+iy)*c.Z+iz]
}

func (g sliceGrid) Dims() (c, r int) {
	counts := g.header.Counts
	switch g.axis {
	case AxisX:
		return counts.Y, counts.Z
	case AxisY:
		return counts.X, counts.Z
	default:
		return counts.X, counts.Y
	}
}

func (g sliceGrid) Z(c, r int) float64 {
	switch g.axis {
	case AxisX:
		return g.flat(g.index, c, r)
	case AxisY:
		return g.flat(c, g.index, r)
	default:
		return g.flat(c, r, g.index)
	}
}

func (g sliceGrid) X(c int) float64 {
	h := g.header
	if g.axis == AxisX {
		return h.Origin.Y + h.Spacing*float64(c)
	}
	return h.Origin.X + h.Spacing*float64(c)
}

func (g sliceGrid) Y(r int) float64 {
	h := g.header
	if g.axis == AxisZ {
		return h.Origin.Y + h.Spacing*float64(r)
	}
	return h.Origin.Z + h.Spacing*float64(r)
}

// axisLabels returns the in-plane axis names for a slice.
func (a Axis) axisLabels() (x, y string) {
	switch a {
	case AxisX:
		return "y [A]", "z [A]"
	case AxisY:
		return "x [A]", "z [A]"
	default:
		return "x [A]", "y [A]"
	}
}

// coordinate returns the world position of plane index along the axis.
func (a Axis) coordinate(h dxgrid.Header, index int) float64 {
	offset := h.Spacing * float64(index)
	switch a {
	case AxisX:
		return h.Origin.X + offset
	case AxisY:
		return h.Origin.Y + offset
	default:
		return h.Origin.Z + offset
	}
}

// SlicePlot renders one plane of the merged volume as a heat map. A
// negative index selects the middle plane.
func SlicePlot(h dxgrid.Header, values []float64, axis Axis, index int) (*plot.Plot, error) {
	if len(values) != h.Counts.Total() {
		return nil, fmt.Errorf("got %d values for a %dx%dx%d grid", len(values), h.Counts.X, h.Counts.Y, h.Counts.Z)
	}

	planes := axis.planes(h.Counts)
	if planes == 0 {
		return nil, fmt.Errorf("unknown axis %q (want x, y or z)", axis)
	}
	if index < 0 {
		index = planes / 2
	}
	if index >= planes {
		return nil, fmt.Errorf("slice index %d out of range: axis %s has %d planes", index, axis, planes)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Density slice %s=%.3f", axis, axis.coordinate(h, index))
	p.X.Label.Text, p.Y.Label.Text = axis.axisLabels()

	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(sliceGrid{header: h, values: values, axis: axis, index: index}, cm.Palette(255))
	p.Add(hm)

	return p, nil
}

// SavePNG writes the plot to path as a square PNG.
func SavePNG(p *plot.Plot, path string) error {
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save slice plot: %w", err)
	}
	return nil
}
