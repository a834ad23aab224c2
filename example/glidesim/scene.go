package main

import (
	"fmt"
	"os"

	"github.com/akmonengine/glide"
	"github.com/akmonengine/glide/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml"
)

// sceneFile is the TOML layout of a scene
type sceneFile struct {
	Triangles  []sceneTri       `toml:"triangles"`
	Brushes    []sceneBrush     `toml:"brushes"`
	Characters []sceneCharacter `toml:"characters"`
}

type sceneTri struct {
	A       []float64 `toml:"a"`
	B       []float64 `toml:"b"`
	C       []float64 `toml:"c"`
	Texture string    `toml:"texture"`
}

type sceneBrush struct {
	Name      string     `toml:"name"`
	Touchable bool       `toml:"touchable"`
	Position  []float64  `toml:"position"`
	Triangles []sceneTri `toml:"triangles"`
}

// sceneCharacter is sized either by radius_a and radius_b, or by the bounding
// box of its model (mins, maxs) when no radius is given
type sceneCharacter struct {
	Name     string    `toml:"name"`
	Center   []float64 `toml:"center"`
	RadiusA  float64   `toml:"radius_a"`
	RadiusB  float64   `toml:"radius_b"`
	Mins     []float64 `toml:"mins"`
	Maxs     []float64 `toml:"maxs"`
	Velocity []float64 `toml:"velocity"`
}

type scene struct {
	Map        *actor.Map
	Brushes    []*actor.Brush
	Characters []*glide.Character
}

func loadScene(path string) (scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scene{}, fmt.Errorf("error reading scene: %w", err)
	}

	var file sceneFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return scene{}, fmt.Errorf("error decoding scene: %w", err)
	}

	return file.build()
}

func (f sceneFile) build() (scene, error) {
	var s scene

	tris, err := buildTris(f.Triangles)
	if err != nil {
		return scene{}, err
	}
	s.Map = actor.NewMap(tris)

	for _, b := range f.Brushes {
		tris, err := buildTris(b.Triangles)
		if err != nil {
			return scene{}, fmt.Errorf("brush %q: %w", b.Name, err)
		}
		position, err := vec3(b.Position, true)
		if err != nil {
			return scene{}, fmt.Errorf("brush %q position: %w", b.Name, err)
		}

		brush := actor.NewBrush(b.Name, tris, b.Touchable)
		transform := actor.NewTransform()
		transform.Position = position
		brush.SetTransform(transform)
		s.Brushes = append(s.Brushes, brush)
	}

	for _, c := range f.Characters {
		center, err := vec3(c.Center, false)
		if err != nil {
			return scene{}, fmt.Errorf("character %q center: %w", c.Name, err)
		}
		velocity, err := vec3(c.Velocity, true)
		if err != nil {
			return scene{}, fmt.Errorf("character %q velocity: %w", c.Name, err)
		}
		collider, err := c.collider(center)
		if err != nil {
			return scene{}, fmt.Errorf("character %q: %w", c.Name, err)
		}

		character := glide.NewCharacter(c.Name, collider)
		character.Velocity = velocity
		s.Characters = append(s.Characters, character)
	}

	return s, nil
}

func (c sceneCharacter) collider(center mgl64.Vec3) (actor.EllipsoidCollider, error) {
	if c.RadiusA != 0 || c.RadiusB != 0 {
		return actor.NewEllipsoidCollider(center, c.RadiusA, c.RadiusB)
	}

	mins, err := vec3(c.Mins, false)
	if err != nil {
		return actor.EllipsoidCollider{}, fmt.Errorf("mins: %w", err)
	}
	maxs, err := vec3(c.Maxs, false)
	if err != nil {
		return actor.EllipsoidCollider{}, fmt.Errorf("maxs: %w", err)
	}

	collider, err := actor.NewEllipsoidColliderFromAABB(mins, maxs)
	if err != nil {
		return actor.EllipsoidCollider{}, err
	}
	collider.Center = center
	return collider, nil
}

func buildTris(in []sceneTri) ([]actor.MapTri, error) {
	tris := make([]actor.MapTri, 0, len(in))
	for i, t := range in {
		var corners [3]mgl64.Vec3
		for j, v := range [3][]float64{t.A, t.B, t.C} {
			p, err := vec3(v, false)
			if err != nil {
				return nil, fmt.Errorf("triangle %d: %w", i, err)
			}
			corners[j] = p
		}
		tris = append(tris, actor.MapTri{
			Tri:         actor.NewTri(corners[0], corners[1], corners[2]),
			TextureName: t.Texture,
		})
	}
	return tris, nil
}

func vec3(v []float64, optional bool) (mgl64.Vec3, error) {
	if len(v) == 0 && optional {
		return mgl64.Vec3{}, nil
	}
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// wall is a vertical quad from p0 to p1, facing left of the p0→p1 direction
// when seen from above
func wall(p0, p1 mgl64.Vec2, height float64, texture string) []actor.MapTri {
	a := mgl64.Vec3{p0.X(), p0.Y(), 0}
	b := mgl64.Vec3{p0.X(), p0.Y(), height}
	c := mgl64.Vec3{p1.X(), p1.Y(), height}
	d := mgl64.Vec3{p1.X(), p1.Y(), 0}

	return []actor.MapTri{
		{Tri: actor.NewTri(a, b, c), TextureName: texture},
		{Tri: actor.NewTri(a, c, d), TextureName: texture},
	}
}

// defaultScene is a closed square room with a touchable door in the player's way
// and a crate dropped from the ceiling.
func defaultScene() scene {
	const (
		size   = 200.0
		height = 120.0
	)

	var tris []actor.MapTri
	tris = append(tris,
		actor.MapTri{Tri: actor.NewTri(mgl64.Vec3{-size, -size, 0}, mgl64.Vec3{size, -size, 0}, mgl64.Vec3{size, size, 0}), TextureName: "floor"},
		actor.MapTri{Tri: actor.NewTri(mgl64.Vec3{-size, -size, 0}, mgl64.Vec3{size, size, 0}, mgl64.Vec3{-size, size, 0}), TextureName: "floor"},
	)
	corners := []mgl64.Vec2{{size, -size}, {size, size}, {-size, size}, {-size, -size}}
	for i := range corners {
		tris = append(tris, wall(corners[i], corners[(i+1)%len(corners)], height, "wall")...)
	}

	door := actor.NewBrush("door", wall(mgl64.Vec2{0, -30}, mgl64.Vec2{0, 30}, 80, "door"), true)
	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{100, 0, 0}
	door.SetTransform(transform)

	player := glide.NewCharacter("player", actor.EllipsoidCollider{Center: mgl64.Vec3{-100, 0, 30}, RadiusA: 16, RadiusB: 28})
	player.Velocity = mgl64.Vec3{150, 0, 0}

	crate := glide.NewCharacter("crate", actor.EllipsoidCollider{Center: mgl64.Vec3{0, 100, 100}, RadiusA: 12, RadiusB: 12})

	return scene{
		Map:        actor.NewMap(tris),
		Brushes:    []*actor.Brush{door},
		Characters: []*glide.Character{player, crate},
	}
}
