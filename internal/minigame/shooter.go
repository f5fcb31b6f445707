package minigame

import (
	"math/rand/v2"

	"github.com/astrodebt/astrodebt/internal/game"
)

const (
	shooterTarget   = 8
	shooterTime     = 30.0
	shooterSpawnGap = 0.9
	shooterMaxHull  = 3 // repair points lost at most
	bulletSpeed     = 12.0
)

// Shooter has the ship slide along the bottom row firing at falling rocks.
// Rocks that get past the ship knock repair progress back.
type Shooter struct {
	round
	field     *field
	shipX     int
	destroyed int
	hits      int
	spawnIn   float64
}

func NewShooter(rng *rand.Rand) *Shooter {
	return &Shooter{
		round: newRound(game.KindAsteroidShooter, rng, shooterTime),
		field: newField(false),
		shipX: fieldW / 2,
	}
}

func (s *Shooter) HandleInput(in game.Input) {
	if s.done {
		return
	}
	switch in {
	case game.InputLeft:
		s.shipX = max(0, s.shipX-1)
	case game.InputRight:
		s.shipX = min(fieldW-1, s.shipX+1)
	case game.InputConfirm:
		s.field.spawn(
			Position{X: float64(s.shipX), Y: fieldH - 2},
			Velocity{DY: -bulletSpeed},
			Body{Kind: BodyBullet, Glyph: '|'},
		)
	}
}

func (s *Shooter) Update(dt float64) {
	if s.done {
		return
	}
	for _, k := range s.field.step(dt) {
		if k == BodyAsteroid {
			s.hits++
		}
	}
	s.destroyed += s.field.collide(BodyAsteroid, BodyBullet)

	s.spawnIn -= dt
	if s.spawnIn <= 0 {
		s.field.spawn(
			Position{X: float64(s.rng.IntN(fieldW))},
			Velocity{DY: 1.5 + s.rng.Float64()*1.5},
			Body{Kind: BodyAsteroid, Glyph: 'O'},
		)
		s.spawnIn = shooterSpawnGap
	}

	if s.tick(dt) {
		s.finish(s.outcome())
	}
}

func (s *Shooter) outcome() game.Result {
	res := game.Result{
		Success:      s.destroyed >= shooterTarget,
		Score:        s.destroyed,
		RewardRepair: -min(s.hits, shooterMaxHull),
	}
	if res.Success {
		res.RewardMaterials = 5 + s.rng.IntN(6) + min(5, s.destroyed-shooterTarget)
	} else {
		res.RewardMaterials = 1 + s.rng.IntN(2)
	}
	return res
}

func (s *Shooter) Lines() []string {
	c := newCanvas()
	s.field.draw(c)
	c.set(s.shipX, fieldH-1, 'A')
	return append(c.lines(), s.status("ASTEROIDS", s.destroyed, shooterTarget))
}
