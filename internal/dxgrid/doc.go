// Package dxgrid reads, merges and writes volumetric density grids in the
// OpenDX text layout produced by GIST analyses.
//
// Large maps are computed as overlapping sub-grids, each carrying a
// one-voxel halo that duplicates data owned by its neighbours. Parsing
// strips the halo; merging stitches the remaining interior voxels into one
// continuous grid, derives the combined geometry and checks that the
// result is complete before it is written back out in the same layout.
package dxgrid
