package glide

import (
	"errors"
	"testing"

	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func weightlessSettings() Settings {
	settings := DefaultSettings()
	settings.World.Gravity = []float64{0, 0, 0}
	return settings
}

func newTestWorld(t *testing.T, m *actor.Map, settings Settings) *World {
	t.Helper()

	logger, _ := test.NewNullLogger()
	world, err := NewWorld(logger, m, settings)
	if err != nil {
		t.Fatalf("NewWorld() = %v", err)
	}
	return world
}

// door is a wall across x, facing -X
func door(name string, x float64, touchable bool) *actor.Brush {
	brush := actor.NewBrush(name, wall(mgl64.Vec2{0, -30}, mgl64.Vec2{0, 30}, 80), touchable)
	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{x, 0, 0}
	brush.SetTransform(transform)
	return brush
}

func TestNewWorld(t *testing.T) {
	t.Run("invalid settings", func(t *testing.T) {
		settings := DefaultSettings()
		settings.World.FixedUpdateTime = 0
		if _, err := NewWorld(nil, nil, settings); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("NewWorld() = %v, want ErrInvalidSettings", err)
		}
	})

	t.Run("nil logger and map", func(t *testing.T) {
		world, err := NewWorld(nil, nil, DefaultSettings())
		if err != nil {
			t.Fatalf("NewWorld() = %v", err)
		}
		if world.Map() == nil || world.Map().Len() != 0 {
			t.Errorf("Map() = %v, want an empty map", world.Map())
		}
		world.Step(world.Settings.World.FixedUpdateTime)
		if world.Ticks() != 1 {
			t.Errorf("Ticks() = %d, want 1", world.Ticks())
		}
	})
}

func TestWorld_FallsOntoTheFloor(t *testing.T) {
	world := newTestWorld(t, actor.NewMap(squareFloor(200)), DefaultSettings())
	recorder := &eventRecorder{}
	recorder.listen(&world.Events)

	player := NewCharacter("player", mustCollider(mgl64.Vec3{50, 20, 60}, 16, 28))
	world.AddCharacter(player)

	for i := 0; i < 60; i++ {
		world.Step(world.Settings.World.FixedUpdateTime)
	}

	if world.Ticks() != 60 {
		t.Errorf("Ticks() = %d, want 60", world.Ticks())
	}
	if z := player.Position().Z(); z < 27.9 || z > 28.4 {
		t.Errorf("resting height = %v, want about 28", z)
	}
	if !floatEqual(player.Position().X(), 50, 1e-9) || !floatEqual(player.Position().Y(), 20, 1e-9) {
		t.Errorf("Position() = %v, a vertical fall should not drift", player.Position())
	}
	if player.State != OnGround {
		t.Errorf("State = %v, want on ground", player.State)
	}
	if !player.LastCollision.DidCollide {
		t.Error("LastCollision should report the floor")
	}
	if n := recorder.count(ON_LAND); n != 1 {
		t.Errorf("got %d land events, want 1", n)
	}
	if n := recorder.count(ON_LEAVE_GROUND); n != 0 {
		t.Errorf("got %d leave ground events, want 0", n)
	}
}

func TestWorld_FixedStep(t *testing.T) {
	// A power of two tick keeps the accumulator exact
	settings := weightlessSettings()
	settings.World.FixedUpdateTime = 1.0 / 64.0
	world := newTestWorld(t, nil, settings)
	tick := world.Settings.World.FixedUpdateTime

	runner := NewCharacter("runner", mustCollider(mgl64.Vec3{}, 1, 1))
	runner.Velocity = mgl64.Vec3{64, 0, 0}
	world.AddCharacter(runner)

	world.Step(1.5 * tick)
	if world.Ticks() != 1 {
		t.Fatalf("Ticks() = %d, want 1", world.Ticks())
	}
	if !vec3Equal(runner.Position(), mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("Position() = %v, want (1, 0, 0)", runner.Position())
	}
	if !vec3Equal(runner.PrevPosition, mgl64.Vec3{}, 1e-9) {
		t.Errorf("PrevPosition = %v, want the origin", runner.PrevPosition)
	}
	if !vec3Equal(runner.RenderPosition, mgl64.Vec3{0.5, 0, 0}, 1e-9) {
		t.Errorf("RenderPosition = %v, want halfway at (0.5, 0, 0)", runner.RenderPosition)
	}

	// The leftover half tick completes a second one
	world.Step(0.5 * tick)
	if world.Ticks() != 2 {
		t.Fatalf("Ticks() = %d, want 2", world.Ticks())
	}
	if !vec3Equal(runner.Position(), mgl64.Vec3{2, 0, 0}, 1e-9) {
		t.Errorf("Position() = %v, want (2, 0, 0)", runner.Position())
	}
	if !vec3Equal(runner.RenderPosition, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("RenderPosition = %v, want (1, 0, 0)", runner.RenderPosition)
	}

	world.Step(0.25 * tick)
	if world.Ticks() != 2 {
		t.Errorf("Ticks() = %d, a quarter tick should not run a fixed update", world.Ticks())
	}
}

func TestWorld_DropsTimeWhenBehind(t *testing.T) {
	logger, hook := test.NewNullLogger()
	world, err := NewWorld(logger, nil, weightlessSettings())
	if err != nil {
		t.Fatal(err)
	}
	tick := world.Settings.World.FixedUpdateTime

	world.Step(10 * tick)
	if world.Ticks() != 5 {
		t.Errorf("Ticks() = %d, want the cap of 5", world.Ticks())
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Errorf("last log entry = %v, want a warning", entry)
	}

	world.Step(0)
	if world.Ticks() != 5 {
		t.Errorf("Ticks() = %d, the dropped time should not be replayed", world.Ticks())
	}
}

func TestWorld_Teleport(t *testing.T) {
	world := newTestWorld(t, nil, weightlessSettings())
	character := NewCharacter("ghost", mustCollider(mgl64.Vec3{}, 1, 1))
	world.AddCharacter(character)

	character.Teleport(mgl64.Vec3{100, 0, 0})
	world.Step(0.5 * world.Settings.World.FixedUpdateTime)

	if character.RenderPosition != (mgl64.Vec3{100, 0, 0}) {
		t.Errorf("RenderPosition = %v, a teleport should not be interpolated", character.RenderPosition)
	}
}

func TestWorld_Bumps(t *testing.T) {
	world := newTestWorld(t, nil, weightlessSettings())
	recorder := &eventRecorder{}
	recorder.listen(&world.Events)
	tick := world.Settings.World.FixedUpdateTime

	frontDoor := door("door", 10, true)
	if err := world.AddBrush(frontDoor); err != nil {
		t.Fatal(err)
	}

	player := NewCharacter("player", mustCollider(mgl64.Vec3{0, 4, 40}, 4, 8))
	player.Velocity = mgl64.Vec3{60, 0, 0}
	world.AddCharacter(player)

	for i := 0; i < 10; i++ {
		world.Step(tick)
	}

	if x := player.Position().X(); x > 6.01 {
		t.Errorf("Position().X = %v, the door should stop the player before 6", x)
	}
	if n := recorder.count(BUMP_ENTER); n != 1 {
		t.Errorf("got %d bump enter events, want 1", n)
	}
	if n := recorder.count(BUMP_STAY); n < 3 {
		t.Errorf("got %d bump stay events, want at least 3", n)
	}
	if n := recorder.count(BUMP_EXIT); n != 0 {
		t.Errorf("got %d bump exit events, want 0", n)
	}
	for _, event := range recorder.events {
		if enter, ok := event.(BumpEnterEvent); ok && (enter.Brush != frontDoor || enter.Character != player) {
			t.Errorf("BumpEnterEvent = %+v, want the player and the door", enter)
		}
	}

	// Standing still does not bump
	recorder.reset()
	player.Velocity = mgl64.Vec3{}
	world.Step(tick)
	if n := recorder.count(BUMP_EXIT); n != 1 {
		t.Errorf("got %d bump exit events after stopping, want 1", n)
	}

	t.Run("removed door", func(t *testing.T) {
		if !world.RemoveBrush("door") {
			t.Fatal("RemoveBrush(door) = false")
		}
		if world.RemoveBrush("door") {
			t.Error("second RemoveBrush(door) = true")
		}
		if _, ok := world.Brush("door"); ok {
			t.Error("Brush(door) still found")
		}

		player.Velocity = mgl64.Vec3{60, 0, 0}
		for i := 0; i < 10; i++ {
			world.Step(tick)
		}
		if x := player.Position().X(); x < 15 {
			t.Errorf("Position().X = %v, the player should walk through the removed door", x)
		}
	})
}

func TestWorld_SolidBrushDoesNotBump(t *testing.T) {
	world := newTestWorld(t, nil, weightlessSettings())
	recorder := &eventRecorder{}
	recorder.listen(&world.Events)

	if err := world.AddBrush(door("wall", 10, false)); err != nil {
		t.Fatal(err)
	}

	player := NewCharacter("player", mustCollider(mgl64.Vec3{0, 4, 40}, 4, 8))
	player.Velocity = mgl64.Vec3{60, 0, 0}
	world.AddCharacter(player)

	for i := 0; i < 10; i++ {
		world.Step(world.Settings.World.FixedUpdateTime)
	}

	if x := player.Position().X(); x > 6.01 {
		t.Errorf("Position().X = %v, the brush should stop the player", x)
	}
	if len(recorder.events) != 0 {
		t.Errorf("got %v, a brush that is not touchable raises no event", recorder.events)
	}
}

func TestWorld_StandsOnBrush(t *testing.T) {
	world := newTestWorld(t, nil, weightlessSettings())
	if err := world.AddBrush(actor.NewBrush("platform", squareFloor(50), false)); err != nil {
		t.Fatal(err)
	}

	character := NewCharacter("player", mustCollider(mgl64.Vec3{10, 5, 8.05}, 4, 8))
	world.AddCharacter(character)
	world.Step(world.Settings.World.FixedUpdateTime)

	if character.State != OnGround {
		t.Errorf("State = %v, want on ground", character.State)
	}
	if !character.Ground.DidCollide {
		t.Error("Ground should report the platform")
	}
}

func TestWorld_Brushes(t *testing.T) {
	world := newTestWorld(t, nil, DefaultSettings())

	for _, name := range []string{"lift", "door"} {
		if err := world.AddBrush(door(name, 0, true)); err != nil {
			t.Fatalf("AddBrush(%s) = %v", name, err)
		}
	}
	if err := world.AddBrush(door("lift", 5, false)); !errors.Is(err, ErrBrushExists) {
		t.Errorf("AddBrush(lift) again = %v, want ErrBrushExists", err)
	}

	brushes := world.Brushes()
	if len(brushes) != 2 || brushes[0].Name != "lift" || brushes[1].Name != "door" {
		t.Errorf("Brushes() = %v, want lift then door", brushes)
	}
}

func TestWorld_RemoveCharacter(t *testing.T) {
	world := newTestWorld(t, nil, DefaultSettings())
	a := NewCharacter("a", mustCollider(mgl64.Vec3{}, 1, 1))
	b := NewCharacter("b", mustCollider(mgl64.Vec3{}, 1, 1))
	world.AddCharacter(a)
	world.AddCharacter(b)

	world.RemoveCharacter(a)
	if characters := world.Characters(); len(characters) != 1 || characters[0] != b {
		t.Errorf("Characters() = %v, want only b", characters)
	}

	// Unknown characters are ignored
	world.RemoveCharacter(a)
	if len(world.Characters()) != 1 {
		t.Errorf("len(Characters()) = %d, want 1", len(world.Characters()))
	}
}

// crowd places characters running in various directions across the room
func crowd() []*Character {
	characters := make([]*Character, 0, 8)
	for i := 0; i < 8; i++ {
		f := float64(i)
		c := NewCharacter("npc", mustCollider(mgl64.Vec3{-150 + 40*f, -100 + 25*f, 30 + 5*f}, 8+f, 16+2*f))
		c.Velocity = mgl64.Vec3{300 - 80*f, 120*f - 400, 20 * f}
		characters = append(characters, c)
	}
	return characters
}

func runCrowd(t *testing.T, settings Settings, frames int) []*Character {
	t.Helper()

	world := newTestWorld(t, actor.NewMap(room(200, 100)), settings)
	if err := world.AddBrush(door("door", 120, true)); err != nil {
		t.Fatal(err)
	}

	characters := crowd()
	for _, c := range characters {
		world.AddCharacter(c)
	}
	for i := 0; i < frames; i++ {
		world.Step(world.Settings.World.FixedUpdateTime)
	}
	return characters
}

func TestWorld_WorkersAgree(t *testing.T) {
	single := DefaultSettings()
	multi := DefaultSettings()
	multi.World.Workers = 4

	expected := runCrowd(t, single, 30)
	got := runCrowd(t, multi, 30)

	for i := range expected {
		if got[i].Position() != expected[i].Position() {
			t.Errorf("character %d: %v with 4 workers, %v with 1", i, got[i].Position(), expected[i].Position())
		}
	}
}

func TestWorld_GridAgrees(t *testing.T) {
	linear := DefaultSettings()
	grid := DefaultSettings()
	grid.Grid.Enabled = true
	grid.Grid.CellSize = 32
	grid.Grid.NumCells = 64

	expected := runCrowd(t, linear, 60)
	got := runCrowd(t, grid, 60)

	for i := range expected {
		if !vec3Equal(got[i].Position(), expected[i].Position(), 1e-9) {
			t.Errorf("character %d: %v with the grid, %v without", i, got[i].Position(), expected[i].Position())
		}
		if got[i].State != expected[i].State {
			t.Errorf("character %d: %v with the grid, %v without", i, got[i].State, expected[i].State)
		}
	}
}

// One tick of the world is one call to CollideEllipsoidWithMapTris
func TestWorld_MatchesDriver(t *testing.T) {
	m := actor.NewMap(room(200, 100))
	world := newTestWorld(t, m, DefaultSettings())
	frontDoor := door("door", 120, true)
	if err := world.AddBrush(frontDoor); err != nil {
		t.Fatal(err)
	}

	character := NewCharacter("player", mustCollider(mgl64.Vec3{60, 10, 40}, 16, 28))
	character.Velocity = mgl64.Vec3{900, 300, 0}
	world.AddCharacter(character)

	tick := world.Settings.World.FixedUpdateTime
	expected := CollideEllipsoidWithMapTris(
		nil,
		character.Collider,
		character.Velocity.Mul(tick),
		world.Settings.GravityVec().Mul(tick),
		m.Tris(),
		[][]actor.MapTri{frontDoor.WorldTris()},
	)

	world.Step(tick)

	if character.Position() != expected.BasePos {
		t.Errorf("Position() = %v, want %v", character.Position(), expected.BasePos)
	}
	if character.LastCollision != expected {
		t.Errorf("LastCollision = %+v, want %+v", character.LastCollision, expected)
	}
}

func TestWorld_InvalidSettingsSkipStep(t *testing.T) {
	logger, hook := test.NewNullLogger()
	world, err := NewWorld(logger, actor.NewMap(squareFloor(200)), weightlessSettings())
	if err != nil {
		t.Fatalf("NewWorld() = %v", err)
	}
	tick := world.Settings.World.FixedUpdateTime

	runner := NewCharacter("runner", mustCollider(mgl64.Vec3{0, 0, 40}, 16, 28))
	runner.Velocity = mgl64.Vec3{60, 0, 0}
	world.AddCharacter(runner)

	world.Settings.World.FixedUpdateTime = 0
	world.Step(0.1)

	if world.Ticks() != 0 {
		t.Errorf("Ticks() = %d, want 0", world.Ticks())
	}
	if runner.RenderPosition != (mgl64.Vec3{0, 0, 40}) {
		t.Errorf("RenderPosition = %v, want the start position", runner.RenderPosition)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.ErrorLevel {
		t.Errorf("LastEntry() = %v, want an error", entry)
	} else if err, _ := entry.Data[logrus.ErrorKey].(error); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("logged error = %v, want ErrInvalidSettings", err)
	}

	world.Settings.World.FixedUpdateTime = tick
	world.Step(tick)
	if world.Ticks() != 1 {
		t.Errorf("Ticks() = %d after restoring the settings, want 1", world.Ticks())
	}
	if runner.Position().X() <= 0 {
		t.Errorf("Position() = %v, the runner should have moved", runner.Position())
	}
}

// Brushes and static geometry out of reach are left out of the queries. Every
// tick must still match the driver run against everything.
func TestWorld_CullingKeepsResults(t *testing.T) {
	m := actor.NewMap(room(200, 100))
	world := newTestWorld(t, m, DefaultSettings())

	lift := actor.NewBrush("lift", squareFloor(40), false)
	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{0, 0, 500}
	lift.SetTransform(transform)

	// Faces +X, towards the room center
	gate := actor.NewBrush("gate", wall(mgl64.Vec2{0, 30}, mgl64.Vec2{0, -30}, 80), true)
	transform.Position = mgl64.Vec3{-170, 0, 0}
	gate.SetTransform(transform)

	brushes := []*actor.Brush{door("door", 120, true), lift, gate}
	var brushTris [][]actor.MapTri
	for _, b := range brushes {
		if err := world.AddBrush(b); err != nil {
			t.Fatal(err)
		}
		brushTris = append(brushTris, b.WorldTris())
	}

	east := NewCharacter("east", mustCollider(mgl64.Vec3{60, 4, 40}, 16, 28))
	east.Velocity = mgl64.Vec3{600, 0, 0}
	west := NewCharacter("west", mustCollider(mgl64.Vec3{-60, -4, 60}, 8, 20))
	west.Velocity = mgl64.Vec3{-500, 20, 0}
	characters := []*Character{east, west}
	for _, c := range characters {
		world.AddCharacter(c)
	}

	tick := world.Settings.World.FixedUpdateTime
	gravity := world.Settings.GravityVec().Mul(tick)
	probe := actor.WorldUp.Mul(-world.Settings.World.GroundProbeDistance)

	for frame := 0; frame < 40; frame++ {
		expected := make([]sweep.CollisionInfo, len(characters))
		for i, c := range characters {
			expected[i] = CollideEllipsoidWithMapTris(nil, c.Collider, c.Velocity.Mul(tick), gravity, m.Tris(), brushTris)
		}

		world.Step(tick)

		for i, c := range characters {
			if c.LastCollision != expected[i] {
				t.Fatalf("frame %d, %s: LastCollision = %+v, want %+v", frame, c.Name, c.LastCollision, expected[i])
			}

			ground := PushTouch(nil, c.Collider, probe, m.Tris())
			for _, tris := range brushTris {
				if ground.DidCollide {
					break
				}
				ground = PushTouch(nil, c.Collider, probe, tris)
			}
			if c.Ground != ground {
				t.Fatalf("frame %d, %s: Ground = %+v, want %+v", frame, c.Name, c.Ground, ground)
			}

			var touching []*actor.Brush
			for j, b := range brushes {
				if b.Touchable && PushTouch(nil, c.Collider, c.Velocity.Mul(tick), brushTris[j]).DidCollide {
					touching = append(touching, b)
				}
			}
			if len(c.touching) != len(touching) {
				t.Fatalf("frame %d, %s: touching %d brushes, want %d", frame, c.Name, len(c.touching), len(touching))
			}
			for j := range touching {
				if c.touching[j] != touching[j] {
					t.Errorf("frame %d, %s: touching[%d] = %s, want %s", frame, c.Name, j, c.touching[j].Name, touching[j].Name)
				}
			}
		}
	}

	if east.Position().X() > 120-16+1e-6 {
		t.Errorf("east ended at %v, past the door", east.Position())
	}
	if west.Position().X() < -170+8-1e-6 {
		t.Errorf("west ended at %v, past the gate", west.Position())
	}
}

func TestQueryBox(t *testing.T) {
	ec := mustCollider(mgl64.Vec3{10, -20, 30}, 8, 16)
	const reach = 25.0

	box := queryBox(ec, reach)
	inner := ec.AABB().Expand(reach)
	for i := 0; i < 3; i++ {
		if box.Min[i] >= inner.Min[i] || box.Max[i] <= inner.Max[i] {
			t.Errorf("queryBox() = %+v, should strictly enclose %+v", box, inner)
		}
	}
}
