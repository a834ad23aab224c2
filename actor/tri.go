package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DegenerateAreaEpsilon is the smallest |AB x AC| for which a triangle still has a usable normal.
const DegenerateAreaEpsilon = 1e-12

// Vertex is a triangle corner. Only Pos takes part in collision, the other
// attributes ride along for the renderer.
type Vertex struct {
	Pos    mgl64.Vec3
	UV     mgl64.Vec2
	Normal mgl64.Vec3
}

// Tri is a triangle in counter-clockwise winding: the face normal
// (B-A) x (C-A) points to the side that can be collided with.
type Tri struct {
	A, B, C Vertex
}

// NewTri builds a triangle from three positions
func NewTri(a, b, c mgl64.Vec3) Tri {
	return Tri{A: Vertex{Pos: a}, B: Vertex{Pos: b}, C: Vertex{Pos: c}}
}

// MapTri is a triangle owned by the map or by a brush entity
type MapTri struct {
	Tri
	TextureName string
}

// Positions returns the three corner positions in winding order
func (t Tri) Positions() [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{t.A.Pos, t.B.Pos, t.C.Pos}
}

// Scaled returns a copy of the triangle with every position multiplied
// component-wise by s. Only positions are scaled.
func (t Tri) Scaled(s mgl64.Vec3) Tri {
	t.A.Pos = ScaleVec(t.A.Pos, s)
	t.B.Pos = ScaleVec(t.B.Pos, s)
	t.C.Pos = ScaleVec(t.C.Pos, s)
	return t
}

// Transformed returns a copy of the triangle moved by transform
func (t Tri) Transformed(transform Transform) Tri {
	t.A.Pos = transform.Apply(t.A.Pos)
	t.B.Pos = transform.Apply(t.B.Pos)
	t.C.Pos = transform.Apply(t.C.Pos)
	return t
}

func (t Tri) AABB() AABB {
	return NewAABBFromPoints(t.A.Pos, t.B.Pos, t.C.Pos)
}

// IsDegenerate reports a triangle without a well defined normal:
// zero area, repeated corners, or any non-finite coordinate.
func (t Tri) IsDegenerate() bool {
	for _, p := range t.Positions() {
		for _, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return true
			}
		}
	}

	ab := t.B.Pos.Sub(t.A.Pos)
	ac := t.C.Pos.Sub(t.A.Pos)
	return ab.Cross(ac).Len() < DegenerateAreaEpsilon
}

// Plane is the supporting plane of a triangle.
// Normal·x = D for every point x on the plane; P is a point on it.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
	P      mgl64.Vec3
}

// NewPlaneFromTri derives the supporting plane of tri. The normal follows
// the counter-clockwise winding. The result is undefined for degenerate triangles.
func NewPlaneFromTri(tri Tri) Plane {
	ab := tri.B.Pos.Sub(tri.A.Pos)
	ac := tri.C.Pos.Sub(tri.A.Pos)
	normal := ab.Cross(ac).Normalize()

	return Plane{
		Normal: normal,
		D:      tri.A.Pos.Dot(normal),
		P:      tri.A.Pos,
	}
}

// SignedDistance returns the distance from the plane to point, positive on the normal side
func (p Plane) SignedDistance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) - p.D
}

// ScaleVec multiplies two vectors component-wise
func ScaleVec(v, s mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0] * s[0], v[1] * s[1], v[2] * s[2]}
}
