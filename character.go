package glide

import (
	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
	"github.com/go-gl/mathgl/mgl64"
)

// GroundState tells whether a character stands on something
type GroundState uint8

const (
	InAir GroundState = iota
	OnGround
)

func (s GroundState) String() string {
	if s == OnGround {
		return "on ground"
	}
	return "in air"
}

// Character is an ellipsoid moved through the world by the simulation, such as the
// player or an enemy.
type Character struct {
	Name     string
	Collider actor.EllipsoidCollider
	// Velocity is the intended motion per second, set by the game before each Step
	Velocity mgl64.Vec3

	// PrevPosition is the collider center before the last tick
	PrevPosition mgl64.Vec3
	// RenderPosition is interpolated between PrevPosition and the collider center
	// by the time left over after the last tick
	RenderPosition mgl64.Vec3
	State          GroundState
	// LastCollision is the result of the last tick's collision query
	LastCollision sweep.CollisionInfo
	// Ground is the result of the last ground probe
	Ground sweep.CollisionInfo

	// Brushes bumped during the last Step
	touching []*actor.Brush
}

// NewCharacter places a character with its collider
func NewCharacter(name string, collider actor.EllipsoidCollider) *Character {
	return &Character{
		Name:           name,
		Collider:       collider,
		PrevPosition:   collider.Center,
		RenderPosition: collider.Center,
	}
}

// Position is the current collider center
func (c *Character) Position() mgl64.Vec3 {
	return c.Collider.Center
}

// Teleport moves the character without colliding and without interpolation
func (c *Character) Teleport(position mgl64.Vec3) {
	c.Collider.Center = position
	c.PrevPosition = position
	c.RenderPosition = position
}

func (c *Character) interpolate(alpha float64) {
	perTickMotion := c.Collider.Center.Sub(c.PrevPosition)
	c.RenderPosition = c.PrevPosition.Add(perTickMotion.Mul(alpha))
}
