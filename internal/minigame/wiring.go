package minigame

import (
	"math/rand/v2"
	"strings"

	"github.com/astrodebt/astrodebt/internal/game"
)

const (
	wiringSteps   = 4
	wiringTime    = 15.0
	wiringPreview = 2.5 // seconds the sequence stays visible
)

var wiringDirs = []game.Input{game.InputUp, game.InputDown, game.InputLeft, game.InputRight}

var wiringGlyphs = map[game.Input]string{
	game.InputUp:    "UP",
	game.InputDown:  "DOWN",
	game.InputLeft:  "LEFT",
	game.InputRight: "RIGHT",
}

// Wiring shows a short sequence of junctions, hides it, then asks the
// player to repeat it. One wrong junction shorts the panel.
type Wiring struct {
	round
	sequence []game.Input
	entered  int
	preview  float64
}

func NewWiring(rng *rand.Rand) *Wiring {
	w := &Wiring{
		round:   newRound(game.KindWiring, rng, wiringTime),
		preview: wiringPreview,
	}
	for range wiringSteps {
		w.sequence = append(w.sequence, wiringDirs[rng.IntN(len(wiringDirs))])
	}
	return w
}

// Sequence returns a copy of the junction order.
func (w *Wiring) Sequence() []game.Input {
	return append([]game.Input(nil), w.sequence...)
}

func (w *Wiring) HandleInput(in game.Input) {
	if w.done {
		return
	}
	if _, ok := wiringGlyphs[in]; !ok {
		if in == game.InputConfirm {
			w.preview = 0
		}
		return
	}
	w.preview = 0
	if in != w.sequence[w.entered] {
		w.finish(game.Result{Score: w.entered})
		return
	}
	w.entered++
	if w.entered == len(w.sequence) {
		w.finish(game.Result{Success: true, Score: w.entered})
	}
}

func (w *Wiring) Update(dt float64) {
	if w.done {
		return
	}
	w.preview = max(0, w.preview-dt)
	if w.tick(dt) {
		w.finish(game.Result{Score: w.entered})
	}
}

func (w *Wiring) Lines() []string {
	shown := make([]string, len(w.sequence))
	for i, in := range w.sequence {
		switch {
		case w.preview > 0 || i < w.entered:
			shown[i] = wiringGlyphs[in]
		default:
			shown[i] = "?"
		}
	}
	return []string{
		banner("REPEAT THE JUNCTIONS"),
		banner(strings.Join(shown, " > ")),
		w.status("WIRES", w.entered, len(w.sequence)),
	}
}
