package actor

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Map holds the static world geometry. The triangles are not modified after
// NewMap; Checksum identifies the geometry so that derived data (ellipsoid
// space copies, spatial indices) can be reused safely.
type Map struct {
	tris     []MapTri
	bounds   AABB
	checksum uint64
}

// NewMap takes ownership of tris
func NewMap(tris []MapTri) *Map {
	m := &Map{tris: tris}

	buf := make([]byte, 0, len(tris)*9*8)
	for i, t := range tris {
		for _, p := range t.Positions() {
			for _, c := range p {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
			}
		}

		if i == 0 {
			m.bounds = t.AABB()
		} else {
			m.bounds = m.bounds.Union(t.AABB())
		}
	}
	m.checksum = xxh3.Hash(buf)

	return m
}

// Tris returns the static triangles. Callers must not modify them.
func (m *Map) Tris() []MapTri {
	return m.tris
}

func (m *Map) Len() int {
	return len(m.tris)
}

func (m *Map) Bounds() AABB {
	return m.bounds
}

// Checksum is the xxh3 hash of every vertex position, in order
func (m *Map) Checksum() uint64 {
	return m.checksum
}
