package dxgrid

import "math"

// keyScale fixes voxel keys at three decimal places, the precision the
// grid writers emit coordinates with.
const keyScale = 1000

// Vec3 is a point in grid space, in Angstroms.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Counts holds per-axis grid point counts.
type Counts struct {
	X int `json:"nx"`
	Y int `json:"ny"`
	Z int `json:"nz"`
}

// Total returns the number of grid points the counts describe.
func (c Counts) Total() int {
	return c.X * c.Y * c.Z
}

// Surface returns the number of grid points on the boundary faces, the
// one-voxel halo a sub-grid shares with its neighbours. Only meaningful
// for counts of at least 2 per axis.
func (c Counts) Surface() int {
	return c.X*c.Y*2 + c.Y*(c.Z-2)*2 + (c.X-2)*(c.Z-2)*2
}

// Header describes the geometry one grid file declares: where the grid
// starts, how many points it has per axis, and how far apart they sit.
// Points is the total the data section claims to contain, used for
// cross-checking only.
type Header struct {
	Origin  Vec3    `json:"origin"`
	Counts  Counts  `json:"counts"`
	Spacing float64 `json:"spacing"`
	Points  int     `json:"points"`
}

// VoxelKey identifies a grid point by its coordinate quantized to
// thousandths. Fixed-point keys give exact map equality for coordinates
// that agree to three decimal places, with no float hashing subtleties.
type VoxelKey struct {
	X, Y, Z int64
}

// Quantize converts one coordinate to its fixed-point key component.
func Quantize(v float64) int64 {
	return int64(math.Round(v * keyScale))
}

// Coord returns the coordinate a key component represents.
func Coord(k int64) float64 {
	return float64(k) / keyScale
}

// KeyFor returns the quantized key for a point.
func KeyFor(p Vec3) VoxelKey {
	return VoxelKey{X: Quantize(p.X), Y: Quantize(p.Y), Z: Quantize(p.Z)}
}

// VoxelMap maps quantized grid coordinates to density values.
type VoxelMap map[VoxelKey]float64

// MergeFrom copies all entries of src into m. Colliding keys take the
// value from src, so later files win where interiors overlap.
func (m VoxelMap) MergeFrom(src VoxelMap) {
	for k, v := range src {
		m[k] = v
	}
}
