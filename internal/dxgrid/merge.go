package dxgrid

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/density.report/internal/fsutil"
	"github.com/banshee-data/density.report/internal/monitoring"
)

// FileSummary records what one input file contributed to a merge.
type FileSummary struct {
	Path     string `json:"path"`
	Header   Header `json:"header"`
	Interior int    `json:"interior_voxels"`
}

// MergeResult is the reassembled grid plus per-file provenance for
// reporting and export.
type MergeResult struct {
	Header  Header
	Values  []float64
	Files   []FileSummary
	Stats   ValueStats
	Elapsed time.Duration
}

// Merger reassembles a full density grid from sub-grid files.
type Merger struct {
	fs fsutil.FileSystem
}

// NewMerger returns a Merger reading through the given filesystem.
func NewMerger(fs fsutil.FileSystem) *Merger {
	return &Merger{fs: fs}
}

// ExpandInputs resolves command-line arguments to a list of grid files.
// A single argument is treated as a glob pattern, which covers shells
// that hand wildcards through unexpanded; several arguments are taken
// literally.
func (m *Merger) ExpandInputs(args []string) ([]string, error) {
	if len(args) == 1 {
		matches, err := m.fs.Glob(args[0])
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", args[0], err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", args[0])
		}
		return matches, nil
	}
	return args, nil
}

// Merge parses every input, strips halos, stitches the interiors into one
// volume and linearizes it. Inputs are natural-sorted first; the earliest
// file anchors where the combined grid is expected to start.
func (m *Merger) Merge(paths []string) (*MergeResult, error) {
	if len(paths) == 0 {
		return nil, &IntegrityError{Reason: "no input files"}
	}
	start := time.Now()

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	SortNatural(sorted)

	voxels := make(VoxelMap)
	var (
		spacing  float64
		anchor   Vec3
		expected int
		files    []FileSummary
	)
	for n, path := range sorted {
		monitoring.Logf("[Merge] processing %s (%d/%d)", path, n+1, len(sorted))
		parsed, err := ParseFile(m.fs, path)
		if err != nil {
			return nil, err
		}
		h := parsed.Header
		if n == 0 {
			spacing = h.Spacing
			// The first file's interior starts one voxel inside its
			// declared origin.
			anchor = Vec3{
				X: h.Origin.X + h.Spacing,
				Y: h.Origin.Y + h.Spacing,
				Z: h.Origin.Z + h.Spacing,
			}
		} else if h.Spacing != spacing {
			return nil, &IntegrityError{
				Path:   path,
				Reason: fmt.Sprintf("spacing %g differs from %g declared by earlier files", h.Spacing, spacing),
			}
		}
		expected += h.Points - h.Counts.Surface()
		voxels.MergeFrom(parsed.Voxels)
		files = append(files, FileSummary{Path: path, Header: h, Interior: len(parsed.Voxels)})
	}

	header, err := deriveGeometry(voxels, spacing)
	if err != nil {
		return nil, err
	}
	if expected != len(voxels) {
		return nil, &IntegrityError{Reason: fmt.Sprintf("input headers promise %d interior voxels, merged %d", expected, len(voxels))}
	}
	if total := header.Counts.Total(); total != len(voxels) {
		return nil, &IntegrityError{Reason: fmt.Sprintf("derived %dx%dx%d geometry holds %d points, merged %d voxels", header.Counts.X, header.Counts.Y, header.Counts.Z, total, len(voxels))}
	}
	if KeyFor(header.Origin) != KeyFor(anchor) {
		return nil, &IntegrityError{Reason: fmt.Sprintf("combined grid starts at (%.3f, %.3f, %.3f), expected (%.3f, %.3f, %.3f) from %s",
			header.Origin.X, header.Origin.Y, header.Origin.Z, anchor.X, anchor.Y, anchor.Z, sorted[0])}
	}

	values, err := linearize(header, voxels)
	if err != nil {
		return nil, err
	}

	return &MergeResult{
		Header:  header,
		Values:  values,
		Files:   files,
		Stats:   Summarize(values),
		Elapsed: time.Since(start),
	}, nil
}

// MergeToFile merges the input paths and writes the combined grid to
// outPath in the same layout the inputs use.
func (m *Merger) MergeToFile(outPath string, paths []string) (*MergeResult, error) {
	res, err := m.Merge(paths)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(m.fs, outPath, res.Header, res.Values); err != nil {
		return nil, err
	}
	return res, nil
}

// deriveGeometry infers the combined grid from the merged voxels alone:
// the origin is the minimum corner, the counts come from the span of each
// axis. Against that the caller checks everything the inputs declared.
func deriveGeometry(voxels VoxelMap, spacing float64) (Header, error) {
	if len(voxels) == 0 {
		return Header{}, &IntegrityError{Reason: "no interior voxels to merge"}
	}

	var minK, maxK VoxelKey
	first := true
	for k := range voxels {
		if first {
			minK, maxK = k, k
			first = false
			continue
		}
		minK.X = min(minK.X, k.X)
		minK.Y = min(minK.Y, k.Y)
		minK.Z = min(minK.Z, k.Z)
		maxK.X = max(maxK.X, k.X)
		maxK.Y = max(maxK.Y, k.Y)
		maxK.Z = max(maxK.Z, k.Z)
	}

	counts := Counts{
		X: axisCount(minK.X, maxK.X, spacing),
		Y: axisCount(minK.Y, maxK.Y, spacing),
		Z: axisCount(minK.Z, maxK.Z, spacing),
	}
	return Header{
		Origin:  Vec3{X: Coord(minK.X), Y: Coord(minK.Y), Z: Coord(minK.Z)},
		Counts:  counts,
		Spacing: spacing,
		Points:  len(voxels),
	}, nil
}

// axisCount returns how many grid points an axis span covers, endpoints
// included.
func axisCount(lo, hi int64, spacing float64) int {
	return int(math.Round(Coord(hi-lo)/spacing)) + 1
}

// axisCoords returns count evenly spaced coordinates starting at origin.
// floats.Span needs at least two points, so single-point axes are handled
// directly.
func axisCoords(origin float64, count int, spacing float64) []float64 {
	if count == 1 {
		return []float64{origin}
	}
	dst := make([]float64, count)
	floats.Span(dst, origin, origin+spacing*float64(count-1))
	return dst
}

// linearize walks the combined grid x outer, y middle, z inner, the flat
// order the OpenDX layout stores values in.
func linearize(h Header, voxels VoxelMap) ([]float64, error) {
	xs := axisCoords(h.Origin.X, h.Counts.X, h.Spacing)
	ys := axisCoords(h.Origin.Y, h.Counts.Y, h.Spacing)
	zs := axisCoords(h.Origin.Z, h.Counts.Z, h.Spacing)

	values := make([]float64, 0, h.Counts.Total())
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				key := VoxelKey{X: Quantize(x), Y: Quantize(y), Z: Quantize(z)}
				v, ok := voxels[key]
				if !ok {
					return nil, &MissingVoxelError{Coord: Vec3{X: x, Y: y, Z: z}}
				}
				values = append(values, v)
			}
		}
	}
	return values, nil
}
