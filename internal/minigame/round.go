package minigame

import (
	"fmt"
	"math/rand/v2"

	"github.com/astrodebt/astrodebt/internal/game"
)

// round holds the clock and outcome shared by every variant.
type round struct {
	kind     game.MinigameKind
	rng      *rand.Rand
	timeLeft float64
	done     bool
	result   game.Result
}

func newRound(kind game.MinigameKind, rng *rand.Rand, limit float64) round {
	return round{kind: kind, rng: rng, timeLeft: limit}
}

func (r *round) Kind() game.MinigameKind { return r.kind }
func (r *round) Done() bool              { return r.done }
func (r *round) Result() game.Result     { return r.result }

// tick runs the clock down and reports whether time ran out on this frame.
func (r *round) tick(dt float64) bool {
	if r.done {
		return false
	}
	r.timeLeft -= dt
	if r.timeLeft <= 0 {
		r.timeLeft = 0
		return true
	}
	return false
}

func (r *round) finish(res game.Result) {
	if r.done {
		return
	}
	res.TimeRemaining = r.timeLeft
	r.result = res
	r.done = true
}

func (r *round) status(label string, got, want int) string {
	return banner(fmt.Sprintf("%s %d/%d  %4.1fs", label, got, want, r.timeLeft))
}

// cursor is a player-controlled cell clamped to the field.
type cursor struct {
	X, Y int
}

func (c *cursor) move(in game.Input) bool {
	switch in {
	case game.InputUp:
		c.Y = max(0, c.Y-1)
	case game.InputDown:
		c.Y = min(fieldH-1, c.Y+1)
	case game.InputLeft:
		c.X = max(0, c.X-1)
	case game.InputRight:
		c.X = min(fieldW-1, c.X+1)
	default:
		return false
	}
	return true
}

// New builds the variant named by kind. Unknown kinds fall back to mining.
// It satisfies game.MinigameFactory.
func New(kind game.MinigameKind, rng *rand.Rand) game.Minigame {
	switch kind {
	case game.KindAsteroidShooter:
		return NewShooter(rng)
	case game.KindTiming:
		return NewTiming(rng)
	case game.KindWiring:
		return NewWiring(rng)
	case game.KindOxygenRescue:
		return NewRescue(rng)
	default:
		return NewMining(rng)
	}
}
