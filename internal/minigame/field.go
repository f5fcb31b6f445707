// Package minigame implements the arcade rounds launched by the game loop.
// Each round is a black box that turns player input into a game.Result.
package minigame

import (
	"math"
	"strings"

	"github.com/mlange-42/ark/ecs"
)

// Field dimensions in cells.
const (
	fieldW = 40
	fieldH = 12
)

// Position is a body's location in cells.
type Position struct {
	X, Y float64
}

// Velocity is in cells per second.
type Velocity struct {
	DX, DY float64
}

// BodyKind tags what a drifting body is.
type BodyKind uint8

const (
	BodyCrystal BodyKind = iota
	BodyAsteroid
	BodyBullet
	BodyRaider
)

// Body is the visible part of a drifting object.
type Body struct {
	Kind  BodyKind
	Glyph rune
}

// field is a bounded playfield of drifting bodies kept in an ECS world.
type field struct {
	world  *ecs.World
	bodies *ecs.Map3[Position, Velocity, Body]
	filter *ecs.Filter3[Position, Velocity, Body]
	wrapX  bool
}

func newField(wrapX bool) *field {
	w := ecs.NewWorld(64)
	return &field{
		world:  w,
		bodies: ecs.NewMap3[Position, Velocity, Body](w),
		filter: ecs.NewFilter3[Position, Velocity, Body](w),
		wrapX:  wrapX,
	}
}

func (f *field) spawn(p Position, v Velocity, b Body) ecs.Entity {
	return f.bodies.NewEntity(&p, &v, &b)
}

// step moves every body and drops the ones that left the field. It
// returns the kinds of bodies that fell off the bottom edge.
func (f *field) step(dt float64) []BodyKind {
	var gone []ecs.Entity
	var fell []BodyKind

	query := f.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		pos.X += vel.DX * dt
		pos.Y += vel.DY * dt
		if f.wrapX {
			pos.X = math.Mod(pos.X+fieldW, fieldW)
		}
		switch {
		case pos.Y >= fieldH:
			fell = append(fell, body.Kind)
			gone = append(gone, query.Entity())
		case pos.Y < 0, pos.X < 0, pos.X >= fieldW:
			gone = append(gone, query.Entity())
		}
	}

	for _, e := range gone {
		f.world.RemoveEntity(e)
	}
	return fell
}

// hit removes the first body of kind within reach of (x, y).
func (f *field) hit(x, y int, reach float64, kind BodyKind) bool {
	var target ecs.Entity
	found := false

	query := f.filter.Query()
	for query.Next() {
		pos, _, body := query.Get()
		if found || body.Kind != kind {
			continue
		}
		if math.Abs(pos.X-float64(x)) <= reach && math.Abs(pos.Y-float64(y)) <= reach {
			target = query.Entity()
			found = true
		}
	}

	if found {
		f.world.RemoveEntity(target)
	}
	return found
}

// collide removes every pair of bodies of kinds a and b sharing a cell and
// returns the number of pairs.
func (f *field) collide(a, b BodyKind) int {
	type cell struct{ x, y int }
	as := map[cell]ecs.Entity{}
	var bs []struct {
		c cell
		e ecs.Entity
	}

	query := f.filter.Query()
	for query.Next() {
		pos, _, body := query.Get()
		c := cell{int(math.Round(pos.X)), int(math.Round(pos.Y))}
		switch body.Kind {
		case a:
			as[c] = query.Entity()
		case b:
			bs = append(bs, struct {
				c cell
				e ecs.Entity
			}{c, query.Entity()})
		}
	}

	pairs := 0
	for _, other := range bs {
		ea, ok := as[other.c]
		if !ok {
			continue
		}
		delete(as, other.c)
		f.world.RemoveEntity(ea)
		f.world.RemoveEntity(other.e)
		pairs++
	}
	return pairs
}

func (f *field) count(kind BodyKind) int {
	n := 0
	query := f.filter.Query()
	for query.Next() {
		_, _, body := query.Get()
		if body.Kind == kind {
			n++
		}
	}
	return n
}

// canvas is a character grid the rounds draw into.
type canvas [fieldH][fieldW]rune

func newCanvas() *canvas {
	var c canvas
	for y := range c {
		for x := range c[y] {
			c[y][x] = '.'
		}
	}
	return &c
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < fieldW && y >= 0 && y < fieldH {
		c[y][x] = r
	}
}

func (c *canvas) lines() []string {
	out := make([]string, 0, fieldH)
	for y := range c {
		out = append(out, string(c[y][:]))
	}
	return out
}

func (f *field) draw(c *canvas) {
	query := f.filter.Query()
	for query.Next() {
		pos, _, body := query.Get()
		c.set(int(math.Round(pos.X)), int(math.Round(pos.Y)), body.Glyph)
	}
}

// banner pads a status line to the field width.
func banner(s string) string {
	if len(s) >= fieldW {
		return s[:fieldW]
	}
	return s + strings.Repeat(" ", fieldW-len(s))
}
