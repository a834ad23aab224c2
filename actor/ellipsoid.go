package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldUp is the vertical axis. RadiusB of an ellipsoid is measured along it.
var WorldUp = mgl64.Vec3{0, 0, 1}

var ErrInvalidRadius = errors.New("ellipsoid radius must be finite and strictly positive")

// EllipsoidCollider is the bounding volume of a moving character: an ellipsoid
// with a horizontal radius A (X and Y) and a vertical radius B (Z).
//
// Collision queries run in ellipsoid space, where the collider is a unit
// sphere. The mapping into that space is the diagonal matrix
// diag(1/RadiusA, 1/RadiusA, 1/RadiusB); it is always derived from the radii.
type EllipsoidCollider struct {
	Center  mgl64.Vec3
	RadiusA float64
	RadiusB float64
}

// NewEllipsoidCollider creates a collider centered at center
func NewEllipsoidCollider(center mgl64.Vec3, radiusA, radiusB float64) (EllipsoidCollider, error) {
	ec := EllipsoidCollider{Center: center}
	if err := ec.SetRadii(radiusA, radiusB); err != nil {
		return EllipsoidCollider{}, err
	}
	return ec, nil
}

// NewEllipsoidColliderFromAABB derives a collider from a model bounding box:
// the horizontal radius is half the X extent, the vertical radius half the Z
// extent. The center is left at the origin, callers place it.
// A box flat on X or Z yields ErrInvalidRadius.
func NewEllipsoidColliderFromAABB(mins, maxs mgl64.Vec3) (EllipsoidCollider, error) {
	width := math.Abs(maxs.X() - mins.X())
	height := math.Abs(maxs.Z() - mins.Z())

	ec, err := NewEllipsoidCollider(mgl64.Vec3{}, width/2.0, height/2.0)
	if err != nil {
		return EllipsoidCollider{}, fmt.Errorf("collider from aabb %v-%v: %w", mins, maxs, err)
	}
	return ec, nil
}

// SetRadii changes both radii, e.g. when a new animation brings its own bounds
func (ec *EllipsoidCollider) SetRadii(radiusA, radiusB float64) error {
	if !validRadius(radiusA) || !validRadius(radiusB) {
		return fmt.Errorf("radii (%v, %v): %w", radiusA, radiusB, ErrInvalidRadius)
	}

	ec.RadiusA = radiusA
	ec.RadiusB = radiusB
	return nil
}

// Validate checks the radii of a collider built as a struct literal
func (ec EllipsoidCollider) Validate() error {
	if !validRadius(ec.RadiusA) || !validRadius(ec.RadiusB) {
		return fmt.Errorf("radii (%v, %v): %w", ec.RadiusA, ec.RadiusB, ErrInvalidRadius)
	}
	return nil
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

// ToESpace returns the world to ellipsoid space mapping
func (ec EllipsoidCollider) ToESpace() mgl64.Mat3 {
	return mgl64.Diag3(ec.ScaleToESpace())
}

// ScaleToESpace returns the diagonal of ToESpace
func (ec EllipsoidCollider) ScaleToESpace() mgl64.Vec3 {
	return mgl64.Vec3{1.0 / ec.RadiusA, 1.0 / ec.RadiusA, 1.0 / ec.RadiusB}
}

// ScaleFromESpace returns the component-wise inverse of ScaleToESpace
func (ec EllipsoidCollider) ScaleFromESpace() mgl64.Vec3 {
	return mgl64.Vec3{ec.RadiusA, ec.RadiusA, ec.RadiusB}
}

// ToESpacePoint maps a world point or vector into ellipsoid space
func (ec EllipsoidCollider) ToESpacePoint(v mgl64.Vec3) mgl64.Vec3 {
	return ScaleVec(v, ec.ScaleToESpace())
}

// FromESpacePoint maps an ellipsoid space point or vector back to world space
func (ec EllipsoidCollider) FromESpacePoint(v mgl64.Vec3) mgl64.Vec3 {
	return ScaleVec(v, ec.ScaleFromESpace())
}

// ESpaceCenter is the center of the unit sphere in ellipsoid space
func (ec EllipsoidCollider) ESpaceCenter() mgl64.Vec3 {
	return ec.ToESpacePoint(ec.Center)
}

// AABB returns the world box enclosing the ellipsoid
func (ec EllipsoidCollider) AABB() AABB {
	r := ec.ScaleFromESpace()
	return AABB{Min: ec.Center.Sub(r), Max: ec.Center.Add(r)}
}
