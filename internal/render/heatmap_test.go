package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/density.report/internal/dxgrid"
)

// testVolume builds a 4x3x2 grid whose value at (ix, iy, iz) is
// ix*100 + iy*10 + iz, so slices are easy to verify by eye.
func testVolume() (dxgrid.Header, []float64) {
	h := dxgrid.Header{
		Origin:  dxgrid.Vec3{X: 10, Y: 20, Z: 30},
		Counts:  dxgrid.Counts{X: 4, Y: 3, Z: 2},
		Spacing: 0.5,
		Points:  24,
	}
	values := make([]float64, 0, 24)
	for ix := 0; ix < 4; ix++ {
		for iy := 0; iy < 3; iy++ {
			for iz := 0; iz < 2; iz++ {
				values = append(values, float64(ix*100+iy*10+iz))
			}
		}
	}
	return h, values
}

func TestParseAxis(t *testing.T) {
	for _, s := range []string{"x", "y", "z"} {
		axis, err := ParseAxis(s)
		if err != nil {
			t.Errorf("ParseAxis(%q) failed: %v", s, err)
		}
		if string(axis) != s {
			t.Errorf("ParseAxis(%q) = %q", s, axis)
		}
	}

	if _, err := ParseAxis("w"); err == nil {
		t.Error("expected error for axis w, got nil")
	}
}

func TestSliceGrid_ZPlane(t *testing.T) {
	h, values := testVolume()
	g := sliceGrid{header: h, values: values, axis: AxisZ, index: 1}

	c, r := g.Dims()
	if c != 4 || r != 3 {
		t.Fatalf("Dims = (%d, %d), want (4, 3)", c, r)
	}

	// Column walks x, row walks y, plane fixes z.
	if got := g.Z(2, 1); got != 211 {
		t.Errorf("Z(2, 1) = %v, want 211", got)
	}
	if got := g.X(2); got != 11.0 {
		t.Errorf("X(2) = %v, want 11.0", got)
	}
	if got := g.Y(1); got != 20.5 {
		t.Errorf("Y(1) = %v, want 20.5", got)
	}
}

func TestSliceGrid_XPlane(t *testing.T) {
	h, values := testVolume()
	g := sliceGrid{header: h, values: values, axis: AxisX, index: 3}

	c, r := g.Dims()
	if c != 3 || r != 2 {
		t.Fatalf("Dims = (%d, %d), want (3, 2)", c, r)
	}

	// Column walks y, row walks z, plane fixes x.
	if got := g.Z(2, 1); got != 321 {
		t.Errorf("Z(2, 1) = %v, want 321", got)
	}
	if got := g.X(2); got != 21.0 {
		t.Errorf("X(2) = %v, want 21.0", got)
	}
	if got := g.Y(1); got != 30.5 {
		t.Errorf("Y(1) = %v, want 30.5", got)
	}
}

func TestSliceGrid_YPlane(t *testing.T) {
	h, values := testVolume()
	g := sliceGrid{header: h, values: values, axis: AxisY, index: 2}

	c, r := g.Dims()
	if c != 4 || r != 2 {
		t.Fatalf("Dims = (%d, %d), want (4, 2)", c, r)
	}

	// Column walks x, row walks z, plane fixes y.
	if got := g.Z(3, 1); got != 321 {
		t.Errorf("Z(3, 1) = %v, want 321", got)
	}
}

func TestSlicePlot_MiddlePlaneDefault(t *testing.T) {
	h, values := testVolume()

	p, err := SlicePlot(h, values, AxisZ, -1)
	if err != nil {
		t.Fatalf("SlicePlot failed: %v", err)
	}

	// 2 planes along z, middle index 1, coordinate 30.5.
	if p.Title.Text != "Density slice z=30.500" {
		t.Errorf("unexpected title %q", p.Title.Text)
	}
	if p.X.Label.Text != "x [A]" || p.Y.Label.Text != "y [A]" {
		t.Errorf("unexpected axis labels %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}
}

func TestSlicePlot_IndexOutOfRange(t *testing.T) {
	h, values := testVolume()

	_, err := SlicePlot(h, values, AxisY, 3)
	if err == nil {
		t.Fatal("expected error for out-of-range index, got nil")
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected 'out of range' in error, got: %v", err)
	}
}

func TestSlicePlot_WrongValueCount(t *testing.T) {
	h, values := testVolume()

	_, err := SlicePlot(h, values[:10], AxisZ, 0)
	if err == nil {
		t.Fatal("expected error for short value slice, got nil")
	}
}

func TestSlicePlot_UnknownAxis(t *testing.T) {
	h, values := testVolume()

	_, err := SlicePlot(h, values, Axis("w"), 0)
	if err == nil {
		t.Fatal("expected error for unknown axis, got nil")
	}
}

func TestSavePNG(t *testing.T) {
	h, values := testVolume()

	p, err := SlicePlot(h, values, AxisZ, 0)
	if err != nil {
		t.Fatalf("SlicePlot failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "slice.png")
	if err := SavePNG(p, path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}
