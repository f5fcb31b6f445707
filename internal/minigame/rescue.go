package minigame

import (
	"math/rand/v2"

	"github.com/astrodebt/astrodebt/internal/game"
)

const (
	rescueTarget   = 5
	rescueTime     = 25.0
	rescueOxygen   = 10
	rescueSpawnGap = 1.5
)

// Rescue answers the distress beacon: raiders strafe across a wrapping
// field and the player tags them with a targeting cursor. Driving off
// enough of them frees the stranded tank.
type Rescue struct {
	round
	field   *field
	cur     cursor
	tagged  int
	spawnIn float64
}

func NewRescue(rng *rand.Rand) *Rescue {
	r := &Rescue{
		round: newRound(game.KindOxygenRescue, rng, rescueTime),
		field: newField(true),
		cur:   cursor{X: fieldW / 2, Y: fieldH / 2},
	}
	for range 2 {
		r.spawn()
	}
	return r
}

func (r *Rescue) spawn() {
	dx := 3 + r.rng.Float64()*3
	if r.rng.IntN(2) == 0 {
		dx = -dx
	}
	r.field.spawn(
		Position{X: float64(r.rng.IntN(fieldW)), Y: float64(1 + r.rng.IntN(fieldH-2))},
		Velocity{DX: dx},
		Body{Kind: BodyRaider, Glyph: 'W'},
	)
}

func (r *Rescue) HandleInput(in game.Input) {
	if r.done || r.cur.move(in) || in != game.InputConfirm {
		return
	}
	if !r.field.hit(r.cur.X, r.cur.Y, 1, BodyRaider) {
		return
	}
	r.tagged++
	if r.tagged >= rescueTarget {
		r.finish(game.Result{Success: true, Score: r.tagged, RewardOxygen: rescueOxygen})
	}
}

func (r *Rescue) Update(dt float64) {
	if r.done {
		return
	}
	r.field.step(dt)
	r.spawnIn -= dt
	if r.spawnIn <= 0 {
		r.spawn()
		r.spawnIn = rescueSpawnGap
	}
	if r.tick(dt) {
		r.finish(game.Result{Score: r.tagged})
	}
}

func (r *Rescue) Lines() []string {
	c := newCanvas()
	r.field.draw(c)
	c.set(r.cur.X, r.cur.Y, '+')
	return append(c.lines(), r.status("RAIDERS", r.tagged, rescueTarget))
}
