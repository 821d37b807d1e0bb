package dxgrid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/density.report/internal/fsutil"
)

// headerLines is the number of leading non-blank lines carrying grid
// geometry in the OpenDX files GIST writes.
const headerLines = 7

// footerLine closes every grid file this package writes.
const footerLine = `object "density [A^-3]" class field`

// ParsedGrid is the outcome of reading one grid file: the geometry it
// declares and the interior voxels that survive halo stripping.
type ParsedGrid struct {
	Header    Header
	Voxels    VoxelMap
	RawValues int // values present in the data section, halo included
}

// Parse reads one grid file. The first seven non-blank lines are the
// header; of the rest, lines opening with a number are data and anything
// else is trailing annotation, which is ignored. Grid points on the
// boundary faces are the halo and are dropped, so the returned voxels
// cover the interior only.
func Parse(r io.Reader) (*ParsedGrid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var header []string
	var values []float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(header) < headerLines {
			header = append(header, line)
			continue
		}
		fields := strings.Fields(line)
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			continue
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("non-numeric value %q in data section", f)}
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading grid file: %w", err)
	}
	if len(header) < headerLines {
		return nil, &FormatError{Reason: fmt.Sprintf("header has %d lines, expected %d", len(header), headerLines)}
	}

	h, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	voxels, err := stripHalo(h, values)
	if err != nil {
		return nil, err
	}

	return &ParsedGrid{Header: h, Voxels: voxels, RawValues: len(values)}, nil
}

// ParseFile reads and parses the named grid file, attaching the path to
// any format or integrity error.
func ParseFile(fsys fsutil.FileSystem, path string) (*ParsedGrid, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid file: %w", err)
	}
	defer f.Close()

	parsed, err := Parse(f)
	if err != nil {
		var formatErr *FormatError
		var integrityErr *IntegrityError
		switch {
		case errors.As(err, &formatErr) && formatErr.Path == "":
			formatErr.Path = path
		case errors.As(err, &integrityErr) && integrityErr.Path == "":
			integrityErr.Path = path
		}
		return nil, err
	}
	return parsed, nil
}

// parseHeader extracts geometry from the seven header lines. Lines are
// recognised by their leading tokens, so ordering variations are
// tolerated as long as every required line appears.
func parseHeader(lines []string) (Header, error) {
	var h Header
	var haveCounts, haveOrigin, haveSpacing, havePoints bool
	for _, line := range lines {
		fields := strings.Fields(line)
		switch {
		case len(fields) >= 2 && fields[0]+fields[1] == "object1":
			if len(fields) < 5 {
				return h, &FormatError{Reason: fmt.Sprintf("gridpositions line %q too short", line)}
			}
			counts, err := parseCounts(fields[len(fields)-3:])
			if err != nil {
				return h, &FormatError{Reason: fmt.Sprintf("gridpositions line %q: %v", line, err)}
			}
			h.Counts = counts
			haveCounts = true

		case len(fields) >= 2 && fields[0]+fields[1] == "object3":
			if len(fields) < 3 {
				return h, &FormatError{Reason: fmt.Sprintf("array object line %q too short", line)}
			}
			n, err := strconv.Atoi(fields[len(fields)-3])
			if err != nil {
				return h, &FormatError{Reason: fmt.Sprintf("array object line %q: bad item count", line)}
			}
			h.Points = n
			havePoints = true

		case fields[0] == "origin":
			if len(fields) < 4 {
				return h, &FormatError{Reason: fmt.Sprintf("origin line %q too short", line)}
			}
			p, err := parseVec3(fields[1:4])
			if err != nil {
				return h, &FormatError{Reason: fmt.Sprintf("origin line %q: %v", line, err)}
			}
			h.Origin = p
			haveOrigin = true

		case fields[0] == "delta":
			if len(fields) < 4 {
				return h, &FormatError{Reason: fmt.Sprintf("delta line %q too short", line)}
			}
			d, err := parseVec3(fields[1:4])
			if err != nil {
				return h, &FormatError{Reason: fmt.Sprintf("delta line %q: %v", line, err)}
			}
			spacing, err := singleComponent(d)
			if err != nil {
				return h, &FormatError{Reason: fmt.Sprintf("delta line %q: %v", line, err)}
			}
			if haveSpacing && spacing != h.Spacing {
				return h, &FormatError{Reason: fmt.Sprintf("delta lines disagree on spacing (%g vs %g); anisotropic grids are not supported", h.Spacing, spacing)}
			}
			h.Spacing = spacing
			haveSpacing = true
		}
	}

	var missing []string
	if !haveCounts {
		missing = append(missing, "gridpositions counts")
	}
	if !haveOrigin {
		missing = append(missing, "origin")
	}
	if !haveSpacing {
		missing = append(missing, "delta")
	}
	if !havePoints {
		missing = append(missing, "array item count")
	}
	if len(missing) > 0 {
		return h, &FormatError{Reason: "header missing " + strings.Join(missing, ", ")}
	}
	return h, nil
}

func parseCounts(fields []string) (Counts, error) {
	var vals [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Counts{}, fmt.Errorf("bad count %q", f)
		}
		vals[i] = n
	}
	return Counts{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func parseVec3(fields []string) (Vec3, error) {
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("bad component %q", f)
		}
		vals[i] = v
	}
	return Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// singleComponent returns the one non-zero component of a delta vector.
// The grids this tool handles are axis-aligned, so each delta line must
// advance exactly one axis.
func singleComponent(d Vec3) (float64, error) {
	var spacing float64
	nonzero := 0
	for _, v := range []float64{d.X, d.Y, d.Z} {
		if v != 0 {
			spacing = v
			nonzero++
		}
	}
	if nonzero != 1 {
		return 0, fmt.Errorf("%d non-zero components, expected exactly 1", nonzero)
	}
	return spacing, nil
}

// stripHalo walks the declared grid x outer, y middle, z inner, mapping
// interior points to their values and discarding the boundary faces. The
// flat cursor advances on every point, halo included, so values keep
// their declared positions.
func stripHalo(h Header, values []float64) (VoxelMap, error) {
	c := h.Counts
	if c.X < 2 || c.Y < 2 || c.Z < 2 {
		return nil, &IntegrityError{Reason: fmt.Sprintf("counts %dx%dx%d leave no room for a halo", c.X, c.Y, c.Z)}
	}
	if len(values) < c.Total() {
		return nil, &IntegrityError{Reason: fmt.Sprintf("data section has %d values, counts declare %d", len(values), c.Total())}
	}

	voxels := make(VoxelMap, c.Total()-c.Surface())
	cursor := 0
	for i := 0; i < c.X; i++ {
		for j := 0; j < c.Y; j++ {
			for k := 0; k < c.Z; k++ {
				interior := i != 0 && i != c.X-1 &&
					j != 0 && j != c.Y-1 &&
					k != 0 && k != c.Z-1
				if interior {
					key := VoxelKey{
						X: Quantize(h.Origin.X + h.Spacing*float64(i)),
						Y: Quantize(h.Origin.Y + h.Spacing*float64(j)),
						Z: Quantize(h.Origin.Z + h.Spacing*float64(k)),
					}
					voxels[key] = values[cursor]
				}
				cursor++
			}
		}
	}

	if got, want := len(voxels), len(values)-c.Surface(); got != want {
		return nil, &IntegrityError{Reason: fmt.Sprintf("stripped %d interior voxels, expected %d", got, want)}
	}
	return voxels, nil
}

// Write emits a grid in the OpenDX text layout: geometry header, values
// at four decimal places three per line, and the closing field object.
func Write(w io.Writer, h Header, values []float64) error {
	if len(values) != h.Counts.Total() {
		return &IntegrityError{Reason: fmt.Sprintf("%d values for a %dx%dx%d grid", len(values), h.Counts.X, h.Counts.Y, h.Counts.Z)}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "object 1 class gridpositions counts %d %d %d\n", h.Counts.X, h.Counts.Y, h.Counts.Z)
	fmt.Fprintf(bw, "origin %.3f %.3f %.3f\n", h.Origin.X, h.Origin.Y, h.Origin.Z)
	fmt.Fprintf(bw, "delta %.1f 0 0\n", h.Spacing)
	fmt.Fprintf(bw, "delta 0 %.1f 0\n", h.Spacing)
	fmt.Fprintf(bw, "delta 0 0 %.1f\n", h.Spacing)
	fmt.Fprintf(bw, "object 2 class gridconnections counts %d %d %d\n", h.Counts.X, h.Counts.Y, h.Counts.Z)
	fmt.Fprintf(bw, "object 3 class array type float rank 0 items %d data follows\n", len(values))

	for i, v := range values {
		if i%3 == 2 || i == len(values)-1 {
			fmt.Fprintf(bw, "%.4f\n", v)
		} else {
			fmt.Fprintf(bw, "%.4f ", v)
		}
	}

	fmt.Fprintf(bw, "\n%s\n", footerLine)
	return bw.Flush()
}

// WriteFile writes a grid to the named file.
func WriteFile(fsys fsutil.FileSystem, path string, h Header, values []float64) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Write(f, h, values); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
