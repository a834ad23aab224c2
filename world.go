package glide

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const DEFAULT_WORKERS = 1

var ErrBrushExists = errors.New("a brush with this name already exists")

// World moves characters through static map geometry and brushes at a fixed
// timestep.
type World struct {
	Settings Settings
	Events   Events

	log        *logrus.Logger
	staticMap  *actor.Map
	grid       *SpatialGrid
	characters []*Character
	// Insertion ordered, brush triangles are scanned in this order
	brushes *orderedmap.OrderedMap[string, *actor.Brush]

	// One per worker
	contexts []*Context
	// Snapshot of the brushes taken at the start of each Step, in registry order
	active      []activeBrush
	accumulator float64
	ticks       atomic.Int64
}

type activeBrush struct {
	brush *actor.Brush
	tris  []actor.MapTri
	box   actor.AABB
}

// NewWorld creates a world over m. A nil logger uses the logrus standard logger,
// a nil map an empty one.
func NewWorld(log *logrus.Logger, m *actor.Map, settings Settings) (*World, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	w := &World{
		Settings: settings,
		Events:   NewEvents(),
		log:      log,
		brushes:  orderedmap.NewOrderedMap[string, *actor.Brush](),
	}
	w.SetMap(m)

	return w, nil
}

// Map returns the static geometry
func (w *World) Map() *actor.Map {
	return w.staticMap
}

// SetMap replaces the static geometry and rebuilds the spatial grid if enabled
func (w *World) SetMap(m *actor.Map) {
	if m == nil {
		m = actor.NewMap(nil)
	}
	w.staticMap = m
	w.grid = nil

	if w.Settings.Grid.Enabled {
		w.grid = NewSpatialGrid(w.Settings.Grid.CellSize, w.Settings.Grid.NumCells)
		w.grid.Build(m.Tris())
	}

	w.log.WithFields(logrus.Fields{
		"tris":     m.Len(),
		"checksum": fmt.Sprintf("%016x", m.Checksum()),
		"size":     m.Bounds().Size(),
		"grid":     w.grid != nil,
	}).Debug("map loaded")
}

// Characters returns the characters in insertion order. Callers must not modify
// the slice.
func (w *World) Characters() []*Character {
	return w.characters
}

// AddCharacter adds a character to the world
func (w *World) AddCharacter(character *Character) {
	w.characters = append(w.characters, character)
}

// RemoveCharacter removes a character from the world
func (w *World) RemoveCharacter(character *Character) {
	k := -1
	for i, c := range w.characters {
		if c == character {
			k = i
			break
		}
	}

	if k != -1 {
		w.characters = append(w.characters[:k], w.characters[k+1:]...)
	}

	w.Events.forgetCharacter(character)
}

// AddBrush registers a brush. Brush names are unique.
func (w *World) AddBrush(brush *actor.Brush) error {
	if _, ok := w.brushes.Get(brush.Name); ok {
		return fmt.Errorf("%w: %q", ErrBrushExists, brush.Name)
	}
	w.brushes.Set(brush.Name, brush)

	w.log.WithField("brush", brush.Name).Debug("brush added")
	return nil
}

// RemoveBrush unregisters the brush with this name and reports whether it existed
func (w *World) RemoveBrush(name string) bool {
	brush, ok := w.brushes.Get(name)
	if !ok {
		return false
	}
	w.brushes.Delete(name)
	w.Events.forgetBrush(brush)

	w.log.WithField("brush", name).Debug("brush removed")
	return true
}

// Brush returns the brush with this name
func (w *World) Brush(name string) (*actor.Brush, bool) {
	return w.brushes.Get(name)
}

// Brushes returns the brushes in insertion order
func (w *World) Brushes() []*actor.Brush {
	brushes := make([]*actor.Brush, 0, w.brushes.Len())
	for el := w.brushes.Front(); el != nil; el = el.Next() {
		brushes = append(brushes, el.Value)
	}
	return brushes
}

// Ticks is the number of fixed updates run since the world was created
func (w *World) Ticks() int64 {
	return w.ticks.Load()
}

// Step advances the world by dt seconds.
//
// Characters move in fixed ticks of Settings.World.FixedUpdateTime; time not
// covered by a whole tick is carried over to the next Step. When a Step would run
// more than Settings.World.MaxStepsPerFrame ticks, the extra time is dropped so
// that a slow frame cannot snowball into ever slower ones.
//
// Settings are validated on every Step. Invalid settings skip the Step and log an
// error.
func (w *World) Step(dt float64) {
	if err := w.prepare(); err != nil {
		w.log.WithError(err).Error("step skipped")
		return
	}
	tick := w.Settings.World.FixedUpdateTime

	w.accumulator += dt
	steps := 0
	for w.accumulator >= tick {
		if steps >= w.Settings.World.MaxStepsPerFrame {
			w.log.WithFields(logrus.Fields{
				"steps":   steps,
				"dropped": w.accumulator,
			}).Warn("simulation is running behind, dropping time")
			w.accumulator = 0
			break
		}

		w.fixedUpdate(tick)
		w.accumulator -= tick
		steps++
	}

	alpha := w.accumulator / tick
	task(w.Settings.World.Workers, w.characters, func(worker int, character *Character) {
		ctx := w.contexts[worker]

		character.interpolate(alpha)
		w.probeGround(ctx, character)
		w.bump(ctx, character, tick)
	})

	for _, character := range w.characters {
		w.Events.recordBumps(character)
	}
	w.Events.processGroundEvents(w.characters)
	w.Events.flush()
}

// prepare checks the settings, sizes the per-worker contexts and takes the
// brush snapshot
func (w *World) prepare() error {
	if err := w.Settings.Validate(); err != nil {
		return err
	}
	workers := w.Settings.World.Workers

	resolver := w.Settings.Resolver()
	for len(w.contexts) < workers {
		w.contexts = append(w.contexts, NewContext(resolver))
	}
	for _, ctx := range w.contexts {
		ctx.Resolver = resolver
	}

	w.active = w.active[:0]
	for el := w.brushes.Front(); el != nil; el = el.Next() {
		w.active = append(w.active, activeBrush{
			brush: el.Value,
			tris:  el.Value.WorldTris(),
			box:   el.Value.AABB(),
		})
	}
	return nil
}

func (w *World) fixedUpdate(tick float64) {
	gravity := w.Settings.GravityVec().Mul(tick)

	task(w.Settings.World.Workers, w.characters, func(worker int, character *Character) {
		ctx := w.contexts[worker]

		character.PrevPosition = character.Collider.Center
		ci := w.collide(ctx, character.Collider, character.Velocity.Mul(tick), gravity)
		character.Collider.Center = ci.BasePos
		character.LastCollision = ci
	})

	w.ticks.Inc()
}

// collide is CollideEllipsoidWithMapTris against the world. Geometry out of
// reach of the sweep is left out: the map and brushes by their bounds, static
// triangles by the spatial grid when there is one.
func (w *World) collide(ctx *Context, ec actor.EllipsoidCollider, velocity, gravity mgl64.Vec3) sweep.CollisionInfo {
	ctx.acquire()
	defer ctx.release()

	box := queryBox(ec, w.sweepReach(ec, velocity, gravity))
	scale := ec.ScaleToESpace()

	n, all := w.selectStatic(ctx, box)
	for _, b := range w.active {
		if b.box.Overlaps(box) {
			n += len(b.tris)
		}
	}

	ctx.begin(n)
	w.appendStatic(ctx, all, scale)
	for _, b := range w.active {
		if b.box.Overlaps(box) {
			ctx.appendScaled(b.tris, scale)
		}
	}

	return ctx.collide(ec, velocity, gravity)
}

// probeGround looks for static or brush geometry right below the character.
// Static geometry is checked first, then each brush until one is found.
func (w *World) probeGround(ctx *Context, character *Character) {
	ec := character.Collider
	probe := actor.WorldUp.Mul(-w.Settings.World.GroundProbeDistance)
	box := queryBox(ec, probe.Len())

	ci := w.touchStatic(ctx, ec, box, probe)
	if !ci.DidCollide {
		for _, b := range w.active {
			if !b.box.Overlaps(box) {
				continue
			}
			if ci = PushTouch(ctx, ec, probe, b.tris); ci.DidCollide {
				break
			}
		}
	}

	character.Ground = ci
	if ci.DidCollide {
		character.State = OnGround
	} else {
		character.State = InAir
	}
}

// bump records the touchable brushes a moving character runs into within one tick
func (w *World) bump(ctx *Context, character *Character, tick float64) {
	character.touching = character.touching[:0]
	if character.Velocity.Len() <= 0 {
		return
	}

	velocity := character.Velocity.Mul(tick)
	box := queryBox(character.Collider, velocity.Len())
	for _, b := range w.active {
		if !b.brush.Touchable || !b.box.Overlaps(box) {
			continue
		}
		if ci := PushTouch(ctx, character.Collider, velocity, b.tris); ci.DidCollide {
			character.touching = append(character.touching, b.brush)
		}
	}
}

func (w *World) touchStatic(ctx *Context, ec actor.EllipsoidCollider, box actor.AABB, velocity mgl64.Vec3) sweep.CollisionInfo {
	ctx.acquire()
	defer ctx.release()

	n, all := w.selectStatic(ctx, box)
	ctx.begin(n)
	w.appendStatic(ctx, all, ec.ScaleToESpace())

	return ctx.touch(ec, velocity)
}

// selectStatic picks the static triangles a query confined to box can touch and
// returns how many there are. all is set when no selection was made and the
// whole map takes part.
func (w *World) selectStatic(ctx *Context, box actor.AABB) (n int, all bool) {
	switch {
	case w.staticMap.Len() == 0 || !w.staticMap.Bounds().Overlaps(box):
		ctx.candidates = ctx.candidates[:0]
		return 0, false
	case w.grid != nil:
		ctx.candidates = w.grid.Query(box, ctx.candidates)
		return len(ctx.candidates), false
	default:
		return w.staticMap.Len(), true
	}
}

func (w *World) appendStatic(ctx *Context, all bool, scale mgl64.Vec3) {
	if all {
		ctx.appendMap(w.staticMap, scale)
		return
	}
	ctx.appendMapIndices(w.staticMap, ctx.candidates, scale)
}

// sweepReach bounds, in world units, how far a collide query can carry the
// collider center. A slide never lengthens the remaining motion, so each sweep
// covers at most MaxDepth+1 times its ellipsoid space length.
func (w *World) sweepReach(ec actor.EllipsoidCollider, velocity, gravity mgl64.Vec3) float64 {
	minR := math.Min(ec.RadiusA, ec.RadiusB)
	maxR := math.Max(ec.RadiusA, ec.RadiusB)
	depth := float64(w.Settings.Collision.MaxDepth + 1)

	return depth * (velocity.Len() + gravity.Len()) * maxR / minR
}

// queryBox encloses every point the collider can touch while its center moves
// by at most reach
func queryBox(ec actor.EllipsoidCollider, reach float64) actor.AABB {
	maxR := math.Max(ec.RadiusA, ec.RadiusB)
	margin := 1e-3 * (maxR + reach)

	return ec.AABB().Expand(reach + margin)
}
