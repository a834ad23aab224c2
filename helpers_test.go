package glide

import (
	"math"

	"github.com/akmonengine/glide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions
func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// bigFloor is a single upward triangle on z, wide enough to contain the origin
// well away from its edges
func bigFloor(z float64) actor.MapTri {
	return actor.MapTri{
		Tri:         actor.NewTri(mgl64.Vec3{-40, -40, z}, mgl64.Vec3{40, -40, z}, mgl64.Vec3{0, 40, z}),
		TextureName: "floor",
	}
}

// squareFloor is the square [-half, half]² on z = 0, facing up
func squareFloor(half float64) []actor.MapTri {
	return []actor.MapTri{
		{Tri: actor.NewTri(mgl64.Vec3{-half, -half, 0}, mgl64.Vec3{half, -half, 0}, mgl64.Vec3{half, half, 0})},
		{Tri: actor.NewTri(mgl64.Vec3{-half, -half, 0}, mgl64.Vec3{half, half, 0}, mgl64.Vec3{-half, half, 0})},
	}
}

// wall is a vertical quad from p0 to p1, facing left of the p0→p1 direction
// seen from above
func wall(p0, p1 mgl64.Vec2, height float64) []actor.MapTri {
	a := mgl64.Vec3{p0.X(), p0.Y(), 0}
	b := mgl64.Vec3{p0.X(), p0.Y(), height}
	c := mgl64.Vec3{p1.X(), p1.Y(), height}
	d := mgl64.Vec3{p1.X(), p1.Y(), 0}

	return []actor.MapTri{
		{Tri: actor.NewTri(a, b, c)},
		{Tri: actor.NewTri(a, c, d)},
	}
}

// room is a floor closed by four walls facing inwards, with a ramp against the
// +Y wall
func room(half, height float64) []actor.MapTri {
	tris := squareFloor(half)

	corners := []mgl64.Vec2{{half, -half}, {half, half}, {-half, half}, {-half, -half}}
	for i := range corners {
		tris = append(tris, wall(corners[i], corners[(i+1)%len(corners)], height)...)
	}

	// Rises towards +Y
	r0 := mgl64.Vec3{-half / 2, half / 2, 0}
	r1 := mgl64.Vec3{half / 2, half / 2, 0}
	r2 := mgl64.Vec3{half / 2, half, height / 2}
	r3 := mgl64.Vec3{-half / 2, half, height / 2}
	tris = append(tris,
		actor.MapTri{Tri: actor.NewTri(r0, r1, r2), TextureName: "ramp"},
		actor.MapTri{Tri: actor.NewTri(r0, r2, r3), TextureName: "ramp"},
	)

	return tris
}

func mustCollider(center mgl64.Vec3, radiusA, radiusB float64) actor.EllipsoidCollider {
	ec, err := actor.NewEllipsoidCollider(center, radiusA, radiusB)
	if err != nil {
		panic(err)
	}
	return ec
}
