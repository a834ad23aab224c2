package glide

import (
	"math"
	"slices"

	"github.com/akmonengine/glide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey - coordinates of a cell in 3D space
type CellKey struct {
	X, Y, Z int
}

// Cell - indices of the triangles overlapping a cell
type Cell struct {
	triIndices []int
}

// SpatialGrid - uniform hashed grid over static triangles.
// Distinct cells may share a bucket, queries are therefore conservative.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid - creates a grid of cellSize cubes, hashed into numCells buckets
// (rounded up to a power of two)
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].triIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - rounds up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert - adds a triangle index to every cell its AABB occupies
func (sg *SpatialGrid) Insert(triIndex int, aabb actor.AABB) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})

				sg.cells[cellIdx].triIndices = append(
					sg.cells[cellIdx].triIndices,
					triIndex,
				)
			}
		}
	}
}

// Build - clears the grid and indexes tris by position in the slice
func (sg *SpatialGrid) Build(tris []actor.MapTri) {
	sg.Clear()
	for i := range tris {
		sg.Insert(i, tris[i].Tri.AABB())
	}
	sg.SortCells()
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].triIndices = sg.cells[i].triIndices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].triIndices) > 1 {
			slices.Sort(sg.cells[i].triIndices)
		}
	}
}

// Query - appends to out the indices of every triangle sharing a cell with aabb.
// The result is sorted and free of duplicates, so scanning it visits triangles in
// the same order as a scan of the whole slice.
func (sg *SpatialGrid) Query(aabb actor.AABB, out []int) []int {
	out = out[:0]

	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	// Past this many cells, walking every bucket once is cheaper
	span := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	if span <= 0 || span > len(sg.cells) {
		for i := range sg.cells {
			out = append(out, sg.cells[i].triIndices...)
		}
	} else {
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := sg.hashCell(CellKey{x, y, z})
					out = append(out, sg.cells[cellIdx].triIndices...)
				}
			}
		}
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// worldToCell - converts a world position to cell coordinates
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell - hashes a cell to a bucket index
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
