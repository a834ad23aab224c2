// Package slide resolves a swept unit sphere against a triangle set by sliding it
// along whatever it hits.
//
// Each depth is one Step: scan the triangles for the nearest contact, move the sphere
// up to just short of it, and turn the part of the motion that would have gone into
// the obstacle into motion along a sliding plane through the contact point. Resolve
// repeats Step on the remaining motion until nothing is hit, the remaining motion is
// negligible, or the depth budget runs out.
//
// The result is the classic "collide and slide" response: the sphere loses only the
// velocity component pointing into the obstacle and keeps the tangential one.
//
// All positions and velocities are in ellipsoid space.
package slide

import (
	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxDepth is the number of slides after the first scan. Resolve performs
	// at most DefaultMaxDepth+1 scans; sharp concave corners can otherwise bounce the
	// sphere back and forth indefinitely.
	DefaultMaxDepth = 5

	// DefaultVeryCloseDist is how far the sphere is kept from a contact, and the
	// remaining motion below which sliding stops.
	// It depends on the scale of the level geometry.
	DefaultVeryCloseDist = 0.01
)

// Kind is the outcome of a single Step
type Kind uint8

const (
	// Resolved: no contact, the full velocity was applied
	Resolved Kind = iota
	// Collided: a contact was found and motion remains along the sliding plane
	Collided
	// Stopped: a contact was found and the remaining motion is negligible
	Stopped
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Collided:
		return "collided"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StepResult is the outcome of one depth of the resolution.
//
// Position is the base position for the next depth (or the final position when Kind
// is not Collided), Velocity the remaining motion along the sliding plane. Info is the
// scan state with HitPoint pulled back by the very close distance.
type StepResult struct {
	Kind     Kind
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Info     sweep.CollisionInfo
}

// Result is the outcome of a whole resolution.
//
// Info is the state of the last scan. Contact is the state of the last scan that
// found a contact, and is only meaningful when DidCollide is set. Scans counts the
// scans performed, Depth is the depth of the last one.
type Result struct {
	Position   mgl64.Vec3
	Info       sweep.CollisionInfo
	Contact    sweep.CollisionInfo
	DidCollide bool
	Scans      int
	Depth      int
}

// Resolver holds the tuning of the resolution. The zero value is not usable, see
// NewResolver.
type Resolver struct {
	MaxDepth      int
	VeryCloseDist float64
}

// NewResolver returns a resolver with the default depth and distance
func NewResolver() Resolver {
	return Resolver{
		MaxDepth:      DefaultMaxDepth,
		VeryCloseDist: DefaultVeryCloseDist,
	}
}

// Step performs one depth of the resolution. It has no side effects.
func (r Resolver) Step(basePos, velocity mgl64.Vec3, tris []actor.Tri) StepResult {
	ci := sweep.NewCollisionInfo(basePos, velocity)
	sweep.Scan(&ci, tris)

	destinationPos := basePos.Add(velocity)
	if !ci.DidCollide {
		return StepResult{Kind: Resolved, Position: destinationPos, Velocity: velocity, Info: ci}
	}

	// Stop just short of the contact. When already closer than that, stay put.
	newBasePos := basePos
	if ci.NearestDistance >= r.VeryCloseDist {
		vNorm := velocity.Normalize()
		length := ci.NearestDistance - r.VeryCloseDist
		newBasePos = basePos.Add(vNorm.Mul(length))
		ci.HitPoint = ci.HitPoint.Sub(vNorm.Mul(r.VeryCloseDist))
	}

	// The sliding plane passes through the contact and faces the sphere center
	slidingPlane := actor.Plane{
		P:      ci.HitPoint,
		Normal: newBasePos.Sub(ci.HitPoint).Normalize(),
	}
	slidingPlane.D = slidingPlane.Normal.Dot(slidingPlane.P)

	// Project the intended destination onto it
	distance := slidingPlane.SignedDistance(destinationPos)
	newDestinationPos := destinationPos.Sub(slidingPlane.Normal.Mul(distance))
	newVelocity := newDestinationPos.Sub(ci.HitPoint)

	if newVelocity.Len() < r.VeryCloseDist {
		return StepResult{Kind: Stopped, Position: newBasePos, Velocity: newVelocity, Info: ci}
	}

	return StepResult{Kind: Collided, Position: newBasePos, Velocity: newVelocity, Info: ci}
}

// Resolve slides the sphere from basePos along velocity through tris and returns
// where it ends up. At most MaxDepth+1 scans are performed; when the budget runs out
// the sphere stays at the last base position, which is always clear of geometry.
func (r Resolver) Resolve(basePos, velocity mgl64.Vec3, tris []actor.Tri) Result {
	var res Result
	pos, vel := basePos, velocity

	for depth := 0; depth <= r.MaxDepth; depth++ {
		step := r.Step(pos, vel, tris)

		res.Scans++
		res.Depth = depth
		res.Info = step.Info
		if step.Info.DidCollide {
			res.DidCollide = true
			res.Contact = step.Info
		}

		if step.Kind != Collided {
			res.Position = step.Position
			return res
		}
		pos, vel = step.Position, step.Velocity
	}

	res.Position = pos
	return res
}
