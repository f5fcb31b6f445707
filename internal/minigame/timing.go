package minigame

import (
	"math/rand/v2"
	"strings"

	"github.com/astrodebt/astrodebt/internal/game"
)

const (
	timingHits   = 3
	timingMisses = 3
	timingTime   = 20.0
	timingZone   = 5
	timingSpeed  = 18.0 // cells per second
)

// Timing sweeps a needle across a gauge. Confirm stops it; stopping inside
// the green zone counts as a hit and moves the zone.
type Timing struct {
	round
	needle float64
	dir    float64
	zone   int // left edge
	hits   int
	misses int
}

func NewTiming(rng *rand.Rand) *Timing {
	t := &Timing{
		round: newRound(game.KindTiming, rng, timingTime),
		dir:   1,
	}
	t.moveZone()
	return t
}

func (t *Timing) moveZone() {
	t.zone = t.rng.IntN(fieldW - timingZone)
}

// InZone reports whether the needle is over the green zone.
func (t *Timing) InZone() bool {
	n := int(t.needle)
	return n >= t.zone && n < t.zone+timingZone
}

func (t *Timing) HandleInput(in game.Input) {
	if t.done || in != game.InputConfirm {
		return
	}
	if t.InZone() {
		t.hits++
		t.moveZone()
	} else {
		t.misses++
	}
	t.settle()
}

func (t *Timing) settle() {
	switch {
	case t.hits >= timingHits:
		t.finish(game.Result{Success: true, Score: t.hits})
	case t.misses >= timingMisses:
		t.finish(game.Result{Score: t.hits})
	}
}

func (t *Timing) Update(dt float64) {
	if t.done {
		return
	}
	t.needle += t.dir * timingSpeed * dt
	if t.needle >= fieldW-1 {
		t.needle, t.dir = fieldW-1, -1
	} else if t.needle <= 0 {
		t.needle, t.dir = 0, 1
	}
	if t.tick(dt) {
		t.finish(game.Result{Score: t.hits})
	}
}

func (t *Timing) Lines() []string {
	gauge := []rune(strings.Repeat("-", fieldW))
	for i := t.zone; i < t.zone+timingZone; i++ {
		gauge[i] = '='
	}
	gauge[int(t.needle)] = '^'
	return []string{
		banner("STOP THE NEEDLE IN THE ZONE"),
		string(gauge),
		t.status("WELDS", t.hits, timingHits),
	}
}
