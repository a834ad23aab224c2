package actor

// Brush is a world object defined by its own small triangle mesh, such as a
// door or a lift. Its triangles are authored in local space and placed by
// Transform. Touchable brushes report bumps from moving characters.
type Brush struct {
	Name      string
	Touchable bool

	local     []MapTri
	transform Transform
	world     []MapTri
}

// NewBrush creates a brush at the identity transform. The triangles are copied.
func NewBrush(name string, local []MapTri, touchable bool) *Brush {
	b := &Brush{
		Name:      name,
		Touchable: touchable,
		local:     append([]MapTri(nil), local...),
		transform: NewTransform(),
	}
	b.updateWorldTris()

	return b
}

func (b *Brush) Transform() Transform {
	return b.transform
}

// SetTransform moves the brush and recomputes its world triangles
func (b *Brush) SetTransform(transform Transform) {
	b.transform = transform
	b.updateWorldTris()
}

// WorldTris returns the brush triangles in world space. The slice is owned by
// the brush and is rewritten by SetTransform.
func (b *Brush) WorldTris() []MapTri {
	return b.world
}

func (b *Brush) AABB() AABB {
	if len(b.world) == 0 {
		return AABB{Min: b.transform.Position, Max: b.transform.Position}
	}

	box := b.world[0].AABB()
	for _, t := range b.world[1:] {
		box = box.Union(t.AABB())
	}
	return box
}

func (b *Brush) updateWorldTris() {
	if cap(b.world) < len(b.local) {
		b.world = make([]MapTri, len(b.local))
	}
	b.world = b.world[:len(b.local)]

	if b.transform.IsIdentity() {
		copy(b.world, b.local)
		return
	}
	for i, t := range b.local {
		b.world[i] = MapTri{
			Tri:         t.Tri.Transformed(b.transform),
			TextureName: t.TextureName,
		}
	}
}
