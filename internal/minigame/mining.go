package minigame

import (
	"math/rand/v2"

	"github.com/astrodebt/astrodebt/internal/game"
)

const (
	miningTarget   = 7
	miningTime     = 25.0
	miningSpawnGap = 1.2 // seconds between crystals
	miningMaxField = 6
)

// Mining drifts crystals down the field; the player steers a cursor onto
// them and confirms to collect. Every crystal collected is one material.
type Mining struct {
	round
	field     *field
	cur       cursor
	collected int
	spawnIn   float64
}

func NewMining(rng *rand.Rand) *Mining {
	m := &Mining{
		round: newRound(game.KindMining, rng, miningTime),
		field: newField(false),
		cur:   cursor{X: fieldW / 2, Y: fieldH - 2},
	}
	for range 3 {
		m.spawn()
	}
	return m
}

func (m *Mining) spawn() {
	m.field.spawn(
		Position{X: float64(m.rng.IntN(fieldW)), Y: float64(m.rng.IntN(fieldH / 2))},
		Velocity{DX: m.rng.Float64() - 0.5, DY: 0.5 + m.rng.Float64()},
		Body{Kind: BodyCrystal, Glyph: '*'},
	)
}

func (m *Mining) HandleInput(in game.Input) {
	if m.done || m.cur.move(in) || in != game.InputConfirm {
		return
	}
	if m.field.hit(m.cur.X, m.cur.Y, 1, BodyCrystal) {
		m.collected++
	}
}

func (m *Mining) Update(dt float64) {
	if m.done {
		return
	}
	m.field.step(dt)
	m.spawnIn -= dt
	if m.spawnIn <= 0 && m.field.count(BodyCrystal) < miningMaxField {
		m.spawn()
		m.spawnIn = miningSpawnGap
	}
	if m.tick(dt) {
		m.finish(game.Result{
			Success:         m.collected >= miningTarget,
			Score:           m.collected,
			RewardMaterials: m.collected,
		})
	}
}

func (m *Mining) Collected() int { return m.collected }

func (m *Mining) Lines() []string {
	c := newCanvas()
	m.field.draw(c)
	c.set(m.cur.X, m.cur.Y, '+')
	return append(c.lines(), m.status("CRYSTALS", m.collected, miningTarget))
}
