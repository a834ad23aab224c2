package glide

import (
	"github.com/akmonengine/glide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// TraceRayAgainstUnitSphere reports whether the ray starting at rayPos along rayDir
// passes within distance 1 of sphereCenter. Spheres behind the ray origin are missed.
func TraceRayAgainstUnitSphere(rayPos, rayDir, sphereCenter mgl64.Vec3) bool {
	if rayDir.LenSqr() == 0 {
		return false
	}

	rayPosToSphereCenter := sphereCenter.Sub(rayPos)
	normRayDir := rayDir.Normalize()
	projection := normRayDir.Dot(rayPosToSphereCenter)
	if projection < 0.0 {
		return false
	}

	closestPoint := rayPos.Add(normRayDir.Mul(projection))
	return sphereCenter.Sub(closestPoint).Len() < 1.0
}

// TraceRayAgainstEllipsoid is TraceRayAgainstUnitSphere in the collider's ellipsoid space
func TraceRayAgainstEllipsoid(rayPos, rayDir mgl64.Vec3, ec actor.EllipsoidCollider) bool {
	return TraceRayAgainstUnitSphere(
		ec.ToESpacePoint(rayPos),
		ec.ToESpacePoint(rayDir),
		ec.ESpaceCenter(),
	)
}
