package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform places a brush in the world: rotation first, then translation
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Apply maps a local point to world space.
// A zero-value Rotation is treated as the identity.
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	if t.Rotation == (mgl64.Quat{}) {
		return point.Add(t.Position)
	}
	return t.Rotation.Rotate(point).Add(t.Position)
}

// IsIdentity reports whether Apply leaves every point unchanged. Rotations are
// compared exactly.
func (t Transform) IsIdentity() bool {
	noRotation := t.Rotation == (mgl64.Quat{}) || t.Rotation == mgl64.QuatIdent()
	return noRotation && t.Position == (mgl64.Vec3{})
}
