package glide

import (
	"errors"
	"sync"

	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/slide"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/atomic"
)

var ErrContextInUse = errors.New("glide: collision context is already running a query")

// Context owns the scratch memory of collision queries: the ellipsoid space copy
// of every triangle taking part in a query. Reusing a Context across frames avoids
// reallocating that buffer; nothing else is carried from one query to the next.
//
// A Context runs one query at a time. Starting a second query while one is in
// flight panics with ErrContextInUse; use one Context per goroutine.
type Context struct {
	Resolver slide.Resolver

	inUse      atomic.Bool
	tris       []actor.Tri
	candidates []int

	// Ellipsoid space copy of a whole Map, valid for one scale
	mapTris     []actor.Tri
	mapScale    mgl64.Vec3
	mapChecksum uint64
	mapLen      int
}

// NewContext creates a context using resolver for slide resolution
func NewContext(resolver slide.Resolver) *Context {
	return &Context{Resolver: resolver}
}

// ContextPool hands out contexts with the default resolver
var ContextPool = sync.Pool{
	New: func() interface{} {
		return NewContext(slide.NewResolver())
	},
}

// orLocal returns ctx, or a fresh context for a single call when ctx is nil
func orLocal(ctx *Context) *Context {
	if ctx == nil {
		return NewContext(slide.NewResolver())
	}
	return ctx
}

func (c *Context) acquire() {
	if !c.inUse.CompareAndSwap(false, true) {
		panic(ErrContextInUse)
	}
}

func (c *Context) release() {
	c.inUse.Store(false)
}

// begin empties the scratch buffer and makes room for n triangles
func (c *Context) begin(n int) {
	if cap(c.tris) < n {
		c.tris = make([]actor.Tri, 0, n)
	}
	c.tris = c.tris[:0]
}

// appendScaled copies tris into the scratch buffer in ellipsoid space
func (c *Context) appendScaled(tris []actor.MapTri, scale mgl64.Vec3) {
	for i := range tris {
		c.tris = append(c.tris, tris[i].Tri.Scaled(scale))
	}
}

// scaledMap returns the map triangles in ellipsoid space. The copy is kept until
// the scale or the map changes.
func (c *Context) scaledMap(m *actor.Map, scale mgl64.Vec3) []actor.Tri {
	if c.mapScale != scale || c.mapChecksum != m.Checksum() || c.mapLen != m.Len() {
		if cap(c.mapTris) < m.Len() {
			c.mapTris = make([]actor.Tri, m.Len())
		}
		c.mapTris = c.mapTris[:m.Len()]
		for i, t := range m.Tris() {
			c.mapTris[i] = t.Tri.Scaled(scale)
		}
		c.mapScale = scale
		c.mapChecksum = m.Checksum()
		c.mapLen = m.Len()
	}

	return c.mapTris
}

// appendMap copies every map triangle into the scratch buffer in ellipsoid space
func (c *Context) appendMap(m *actor.Map, scale mgl64.Vec3) {
	c.tris = append(c.tris, c.scaledMap(m, scale)...)
}

// appendMapIndices copies the selected map triangles, in the given order
func (c *Context) appendMapIndices(m *actor.Map, indices []int, scale mgl64.Vec3) {
	scaled := c.scaledMap(m, scale)
	for _, i := range indices {
		c.tris = append(c.tris, scaled[i])
	}
}
