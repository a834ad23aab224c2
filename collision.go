package glide

import (
	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
	"github.com/go-gl/mathgl/mgl64"
)

// CollideEllipsoidWithMapTris moves the ellipsoid by velocity and then by gravity
// through the static triangles and every brush triangle set, sliding along what it
// hits, and returns the result in world space.
//
// The two displacements are resolved as independent sweeps, movement first: a
// character walking down a slope settles onto it afterwards instead of following it.
//
// BasePos is the final center. DidCollide is set when either sweep made contact;
// HitPoint, NearestDistance and Feature then describe the last contact (the gravity
// sweep's when it has one). NearestDistance is in ellipsoid space.
//
// ctx may be nil, in which case the scratch buffer is allocated for this call.
func CollideEllipsoidWithMapTris(ctx *Context, ec actor.EllipsoidCollider, velocity, gravity mgl64.Vec3, static []actor.MapTri, brushes [][]actor.MapTri) sweep.CollisionInfo {
	ctx = orLocal(ctx)
	ctx.acquire()
	defer ctx.release()

	n := len(static)
	for _, b := range brushes {
		n += len(b)
	}

	scale := ec.ScaleToESpace()
	ctx.begin(n)
	ctx.appendScaled(static, scale)
	for _, b := range brushes {
		ctx.appendScaled(b, scale)
	}

	return ctx.collide(ec, velocity, gravity)
}

// collide runs both sweeps against the triangles already in the scratch buffer
func (c *Context) collide(ec actor.EllipsoidCollider, velocity, gravity mgl64.Vec3) sweep.CollisionInfo {
	esBasePos := ec.ESpaceCenter()
	esVelocity := ec.ToESpacePoint(velocity)
	esGravity := ec.ToESpacePoint(gravity)

	move := c.Resolver.Resolve(esBasePos, esVelocity, c.tris)
	fall := c.Resolver.Resolve(move.Position, esGravity, c.tris)

	contact := move.Contact
	if fall.DidCollide {
		contact = fall.Contact
	}

	ci := sweep.CollisionInfo{
		DidCollide: move.DidCollide || fall.DidCollide,
		Velocity:   ec.FromESpacePoint(fall.Info.Velocity),
		BasePos:    ec.FromESpacePoint(fall.Position),
	}
	if ci.DidCollide {
		ci.HitPoint = ec.FromESpacePoint(contact.HitPoint)
		ci.NearestDistance = contact.NearestDistance
		ci.Feature = contact.Feature
	}

	return ci
}

// PushTouch reports whether the ellipsoid, moved by velocity, would touch any of
// tris. It stops at the first touched triangle and does not resolve anything: the
// returned BasePos is the unmoved center. Used for trigger style checks such as
// bumping into a door or probing for ground.
//
// A zero velocity never touches anything.
func PushTouch(ctx *Context, ec actor.EllipsoidCollider, velocity mgl64.Vec3, tris []actor.MapTri) sweep.CollisionInfo {
	ctx = orLocal(ctx)
	ctx.acquire()
	defer ctx.release()

	ctx.begin(len(tris))
	ctx.appendScaled(tris, ec.ScaleToESpace())

	return ctx.touch(ec, velocity)
}

// touch scans the triangles already in the scratch buffer
func (c *Context) touch(ec actor.EllipsoidCollider, velocity mgl64.Vec3) sweep.CollisionInfo {
	ci := sweep.NewCollisionInfo(ec.ESpaceCenter(), ec.ToESpacePoint(velocity))
	sweep.ScanFirst(&ci, c.tris)

	ci.HitPoint = ec.FromESpacePoint(ci.HitPoint)
	ci.Velocity = ec.FromESpacePoint(ci.Velocity)
	ci.BasePos = ec.FromESpacePoint(ci.BasePos)
	return ci
}
