package dxgrid

import "fmt"

// FormatError reports a file whose text cannot be understood as the
// OpenDX subset this package reads.
type FormatError struct {
	Path   string // empty when parsing from a plain reader
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid grid file %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid grid file: %s", e.Reason)
}

// IntegrityError reports grid data that parses but does not add up:
// declared counts that disagree with the payload, sub-grids that cannot
// stitch into one continuous volume, or mismatched spacing across files.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("grid integrity check failed for %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("grid integrity check failed: %s", e.Reason)
}

// MissingVoxelError reports a grid point the combined volume should
// contain but no input file supplied.
type MissingVoxelError struct {
	Coord Vec3
}

func (e *MissingVoxelError) Error() string {
	return fmt.Sprintf("no voxel value at (%.3f, %.3f, %.3f)", e.Coord.X, e.Coord.Y, e.Coord.Z)
}
