// Package sweep implements swept unit-sphere versus triangle collision detection.
//
// All inputs are expected in ellipsoid space, where the moving volume is a sphere of
// radius 1. For one triangle and one sweep (a base position and a velocity), the
// primitive finds the earliest time t in [0,1] at which the sphere surface touches the
// triangle, and the point of contact.
//
// The test runs in four stages:
//  1. Plane interval: the interval of t during which the sphere overlaps the slab of
//     half-width 1 around the triangle's plane. No interval means no contact.
//  2. Face: the sphere touches the plane at the start of the interval; if that touch
//     point lies inside the triangle, it is the contact.
//  3. Vertex: otherwise, solve ||C(t) - p||² = 1 for each corner p.
//  4. Edge: and solve the same against every edge, constrained to the segment.
//
// The earliest root wins. Stages are evaluated in that order and a later stage must
// strictly improve on the current t, so face beats vertex beats edge for coincident
// contacts. Callers rely on this precedence.
//
// References:
//   - Fauerby: "Improved Collision detection and Response" (2003)
//   - Nettle: "Generic Collision Detection for Games Using Ellipsoids" (2000)
package sweep

import (
	"math"

	"github.com/akmonengine/glide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ParallelEpsilon is the magnitude of velocity·normal below which a sweep is
	// treated as travelling parallel to a plane.
	ParallelEpsilon = 1e-12
)

// Feature identifies which part of a triangle produced a contact
type Feature uint8

const (
	FeatureNone Feature = iota
	FeatureFace
	FeatureVertex
	FeatureEdge
)

func (f Feature) String() string {
	switch f {
	case FeatureFace:
		return "face"
	case FeatureVertex:
		return "vertex"
	case FeatureEdge:
		return "edge"
	default:
		return "none"
	}
}

// CollisionInfo is the working state and result of a scan.
//
// BasePos and Velocity describe the sweep being tested. DidCollide, HitPoint and
// NearestDistance hold the nearest contact found so far; Feature records which case
// of the primitive produced it. NearestDistance is measured along Velocity.
type CollisionInfo struct {
	DidCollide      bool
	HitPoint        mgl64.Vec3
	NearestDistance float64
	Velocity        mgl64.Vec3
	BasePos         mgl64.Vec3
	Feature         Feature
}

// NewCollisionInfo returns a fresh state for a sweep
func NewCollisionInfo(basePos, velocity mgl64.Vec3) CollisionInfo {
	return CollisionInfo{
		BasePos:  basePos,
		Velocity: velocity,
	}
}

// Reset clears any contact and points the state at a new sweep
func (ci *CollisionInfo) Reset(basePos, velocity mgl64.Vec3) {
	*ci = NewCollisionInfo(basePos, velocity)
}

// record keeps a contact if it is nearer than anything found before in this scan
func (ci *CollisionInfo) record(t float64, hitPoint mgl64.Vec3, feature Feature) {
	distanceToHitpoint := t * ci.Velocity.Len()
	if !ci.DidCollide || ci.NearestDistance > distanceToHitpoint {
		ci.DidCollide = true
		ci.NearestDistance = distanceToHitpoint
		ci.HitPoint = hitPoint
		ci.Feature = feature
	}
}

// GetSmallestRoot solves a·x² + b·x + c = 0 and returns the lowest root in (0, maxRoot).
//
// The smaller root is returned if it is in range, otherwise the larger one if it is.
// A negative discriminant, or a == 0, yields no root.
func GetSmallestRoot(a, b, c, maxRoot float64) (float64, bool) {
	if a == 0 {
		return 0, false
	}

	d := b*b - 4.0*a*c
	if d < 0.0 {
		return 0, false
	}

	sqrtD := math.Sqrt(d)
	denom := 1.0 / (2.0 * a)
	r0 := (-b - sqrtD) * denom
	r1 := (-b + sqrtD) * denom
	if r0 > r1 {
		r0, r1 = r1, r0
	}

	if r0 > 0.0 && r0 < maxRoot {
		return r0, true
	}

	// r0 may be negative (the contact happened "before" the sweep started);
	// only roots inside the sweep are of interest.
	if r1 > 0.0 && r1 < maxRoot {
		return r1, true
	}

	return 0, false
}

// ConstructNormalToTriLineSegment returns the in-plane normal of edge a→b,
// pointing to the inside of a counter-clockwise triangle.
func ConstructNormalToTriLineSegment(a, b, planeNormal mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a).Normalize()
	return planeNormal.Cross(ab).Normalize()
}

// SignedDistancePointToPlane is the distance from the plane through ptOnPlane to pt,
// positive on the side planeNormal points to.
func SignedDistancePointToPlane(pt, ptOnPlane, planeNormal mgl64.Vec3) float64 {
	return pt.Sub(ptOnPlane).Dot(planeNormal)
}

// IsPointInTriangle reports whether a point on the triangle's plane lies strictly
// inside it, by testing it against the three edge half-planes. Points on an edge
// are outside; the edge test catches them.
func IsPointInTriangle(point mgl64.Vec3, tri actor.Tri, triNormal mgl64.Vec3) bool {
	edges := [3][2]mgl64.Vec3{
		{tri.A.Pos, tri.B.Pos},
		{tri.B.Pos, tri.C.Pos},
		{tri.C.Pos, tri.A.Pos},
	}

	for _, e := range edges {
		n := ConstructNormalToTriLineSegment(e[0], e[1], triNormal)
		if SignedDistancePointToPlane(point, e[0], n) <= 0.0 {
			return false
		}
	}

	return true
}

// CheckSweptSphereVsLineSegment finds when a unit sphere moving from sphereBase along
// velocity first touches the segment p0→p1, if that happens before maxT.
//
// The sphere touches the infinite line when the distance from C(t) to the line is 1.
// Writing e = p1 - p0 and q = C(t) - p0, that is |e|²|q|² - (e·q)² = |e|², a quadratic
// in t. The root is only valid when the closest point p0 + f·e lies on the segment,
// i.e. f ∈ [0,1].
func CheckSweptSphereVsLineSegment(p0, p1, sphereBase, velocity mgl64.Vec3, maxT float64) (float64, mgl64.Vec3, bool) {
	e := p1.Sub(p0)
	eSquaredLength := e.LenSqr()
	vSquaredLength := velocity.LenSqr()
	baseToVertex := sphereBase.Sub(p0)
	eDotVel := e.Dot(velocity)
	eDotBaseToVertex := e.Dot(baseToVertex)

	a := eSquaredLength*vSquaredLength - eDotVel*eDotVel
	b := eSquaredLength*2.0*velocity.Dot(baseToVertex) - 2.0*(eDotVel*eDotBaseToVertex)
	c := eSquaredLength*(baseToVertex.LenSqr()-1.0) - eDotBaseToVertex*eDotBaseToVertex

	t, ok := GetSmallestRoot(a, b, c, maxT)
	if !ok {
		return 0, mgl64.Vec3{}, false
	}

	f := (eDotVel*t + eDotBaseToVertex) / eSquaredLength
	if f < 0.0 || f > 1.0 {
		return 0, mgl64.Vec3{}, false
	}

	return t, p0.Add(e.Mul(f)), true
}

// CollideUnitSphereWithTri tests the sweep held in ci against one triangle and
// records the contact in ci if it is the nearest so far.
//
// It returns true if the triangle was touched at all, even when an earlier triangle
// in the same scan remains nearer. Degenerate triangles (zero area, non-finite
// corners) are never touched.
func CollideUnitSphereWithTri(ci *CollisionInfo, tri actor.Tri) bool {
	if tri.IsDegenerate() {
		return false
	}

	plane := actor.NewPlaneFromTri(tri)
	basePos := ci.BasePos
	velocity := ci.Velocity

	// Moving away from (or along) the front face, nothing to hit
	velDotNormal := plane.Normal.Dot(velocity)
	if velDotNormal >= 0.0 {
		return false
	}

	// Signed distance from the plane to the sphere center
	sD := plane.SignedDistance(basePos)

	embeddedInPlane := false
	var t0 float64
	if math.Abs(velDotNormal) < ParallelEpsilon {
		// Travelling along the plane: either within reach of it for the whole
		// sweep, or never
		if math.Abs(sD) >= 1.0 {
			return false
		}
		embeddedInPlane = true
	} else {
		// t0: the sphere touches the front of the plane, t1: it leaves the back
		t0 = (1.0 - sD) / velDotNormal
		t1 := (-1.0 - sD) / velDotNormal
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > 1.0 || t1 < 0.0 {
			return false
		}

		t0 = mgl64.Clamp(t0, 0.0, 1.0)
	}

	var hitPoint mgl64.Vec3
	var feature Feature
	foundCollision := false
	t := 1.0

	// Face: where the sphere first rests on the plane
	if !embeddedInPlane {
		planeIntersection := basePos.Add(velocity.Mul(t0)).Sub(plane.Normal)
		if IsPointInTriangle(planeIntersection, tri, plane.Normal) {
			foundCollision = true
			hitPoint = planeIntersection
			feature = FeatureFace
			t = t0
		}
	}

	// Vertices and edges can only be hit first if the face was not
	if !foundCollision {
		a := velocity.LenSqr()

		for _, p := range tri.Positions() {
			b := 2.0 * velocity.Dot(basePos.Sub(p))
			c := p.Sub(basePos).LenSqr() - 1.0
			if newT, ok := GetSmallestRoot(a, b, c, t); ok {
				t = newT
				foundCollision = true
				hitPoint = p
				feature = FeatureVertex
			}
		}

		edges := [3][2]mgl64.Vec3{
			{tri.A.Pos, tri.B.Pos},
			{tri.B.Pos, tri.C.Pos},
			{tri.C.Pos, tri.A.Pos},
		}
		for _, e := range edges {
			if newT, edgeHit, ok := CheckSweptSphereVsLineSegment(e[0], e[1], basePos, velocity, t); ok {
				t = newT
				foundCollision = true
				hitPoint = edgeHit
				feature = FeatureEdge
			}
		}
	}

	if !foundCollision {
		return false
	}

	ci.record(t, hitPoint, feature)
	return true
}

// Scan tests the sweep in ci against every triangle and leaves the nearest contact in
// ci. Previous contact state is discarded first.
func Scan(ci *CollisionInfo, tris []actor.Tri) {
	ci.Reset(ci.BasePos, ci.Velocity)

	for i := range tris {
		CollideUnitSphereWithTri(ci, tris[i])
	}
}

// ScanFirst stops at the first triangle that touches the sweep and returns its
// index, or -1 if none does.
func ScanFirst(ci *CollisionInfo, tris []actor.Tri) int {
	ci.Reset(ci.BasePos, ci.Velocity)

	for i := range tris {
		if CollideUnitSphereWithTri(ci, tris[i]) {
			return i
		}
	}

	return -1
}
