package main

import (
	"math"
	"time"

	"github.com/akmonengine/glide"
	"github.com/akmonengine/glide/actor"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// World units per terminal cell, horizontally, when the map is empty. Cells
	// are about twice as tall as they are wide.
	defaultUnitsPerColumn = 8.0
	walkSpeed             = 150.0
)

type view struct {
	screen tcell.Screen
	world  *glide.World
	player *glide.Character
	width  int
	height int

	// World point drawn at the center of the screen
	origin         mgl64.Vec3
	unitsPerColumn float64
}

// runView renders the world from above until Escape or q is pressed. The arrow
// keys steer the first character.
func runView(world *glide.World) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := &view{screen: screen, world: world}
	if characters := world.Characters(); len(characters) > 0 {
		v.player = characters[0]
	}
	v.fit()

	eventChan := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go pollEvents(screen, eventChan, quit)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return nil
			}
		case now := <-ticker.C:
			world.Step(now.Sub(last).Seconds())
			last = now
			v.draw()
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or quit is closed
func pollEvents(screen tcell.Screen, events chan<- tcell.Event, quit <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

// fit centers the map on the screen and scales it to fill the terminal
func (v *view) fit() {
	v.width, v.height = v.screen.Size()
	v.unitsPerColumn = defaultUnitsPerColumn

	bounds := v.world.Map().Bounds()
	v.origin = bounds.Center()
	size := bounds.Size()
	if v.width > 0 && v.height > 0 && size.X() > 0 && size.Y() > 0 {
		v.unitsPerColumn = 1.05 * math.Max(size.X()/float64(v.width), 2*size.Y()/float64(v.height))
	}
}

func (v *view) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
		if v.player == nil {
			return true
		}

		switch ev.Key() {
		case tcell.KeyUp:
			v.player.Velocity = mgl64.Vec3{0, walkSpeed, 0}
		case tcell.KeyDown:
			v.player.Velocity = mgl64.Vec3{0, -walkSpeed, 0}
		case tcell.KeyLeft:
			v.player.Velocity = mgl64.Vec3{-walkSpeed, 0, 0}
		case tcell.KeyRight:
			v.player.Velocity = mgl64.Vec3{walkSpeed, 0, 0}
		case tcell.KeyRune:
			if ev.Rune() == ' ' {
				v.player.Velocity = mgl64.Vec3{}
			}
		}
	case *tcell.EventResize:
		v.fit()
		v.screen.Sync()
	}
	return true
}

// toCell maps a world position to a terminal cell
func (v *view) toCell(p mgl64.Vec3) (int, int) {
	d := p.Sub(v.origin)
	x := v.width/2 + int(math.Round(d.X()/v.unitsPerColumn))
	y := v.height/2 - int(math.Round(d.Y()/(2*v.unitsPerColumn)))
	return x, y
}

func (v *view) draw() {
	v.screen.Clear()

	wallStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, t := range v.world.Map().Tris() {
		// Only walls are visible from above
		if n := actor.NewPlaneFromTri(t.Tri).Normal; math.Abs(n.Z()) > 0.5 {
			continue
		}
		v.drawTri(t.Tri.Positions(), '#', wallStyle)
	}

	brushStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for _, b := range v.world.Brushes() {
		for _, t := range b.WorldTris() {
			v.drawTri(t.Tri.Positions(), '+', brushStyle)
		}
	}

	for _, c := range v.world.Characters() {
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		if c.State == glide.InAir {
			style = tcell.StyleDefault.Foreground(tcell.ColorBlue)
		}
		x, y := v.toCell(c.RenderPosition)
		v.screen.SetContent(x, y, '@', nil, style)
	}

	v.screen.Show()
}

// drawTri plots the edges of a triangle projected on the ground plane
func (v *view) drawTri(corners [3]mgl64.Vec3, r rune, style tcell.Style) {
	for i := range corners {
		p0, p1 := corners[i], corners[(i+1)%3]
		steps := int(math.Ceil(p1.Sub(p0).Len()/v.unitsPerColumn)) + 1
		for s := 0; s <= steps; s++ {
			x, y := v.toCell(p0.Add(p1.Sub(p0).Mul(float64(s) / float64(steps))))
			if x >= 0 && x < v.width && y >= 0 && y < v.height {
				v.screen.SetContent(x, y, r, nil, style)
			}
		}
	}
}
