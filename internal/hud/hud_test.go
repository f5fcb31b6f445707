package hud

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
	"github.com/astrodebt/astrodebt/internal/finance"
	"github.com/astrodebt/astrodebt/internal/game"
	"github.com/astrodebt/astrodebt/internal/minigame"
	"github.com/astrodebt/astrodebt/internal/render"
)

func newSession(t *testing.T) (*game.Loop, *render.CellBuffer) {
	t.Helper()
	bus := events.NewManager(zap.NewNop())
	rng := rand.New(rand.NewPCG(9, 9>>8|3))
	return game.NewLoop(config.Default(), bus, rng, minigame.New, zap.NewNop()), render.NewCellBuffer(Cols, Rows)
}

func screen(buf *render.CellBuffer) string {
	rows := make([]string, buf.Rows)
	for y := range rows {
		rows[y] = buf.Row(y)
	}
	return strings.Join(rows, "\n")
}

func TestComposeIntro(t *testing.T) {
	l, buf := newSession(t)
	Compose(buf, l)
	out := screen(buf)

	assert.Contains(t, out, "ASTRODEBT")
	assert.Contains(t, out, "Press SPACE to begin.")
	assert.Contains(t, buf.Row(hintRow), "SPACE: begin")
}

func TestComposeMainShowsMetersAndActions(t *testing.T) {
	l, buf := newSession(t)
	l.HandleInput(game.InputConfirm)
	l.Update(1.0 / 60)
	require.Equal(t, game.PhaseMainGame, l.Phase())

	Compose(buf, l)
	out := screen(buf)

	assert.Contains(t, buf.Row(0), "Turn 1")
	assert.Contains(t, out, "Oxygen")
	assert.Contains(t, out, " 99/100")
	assert.Contains(t, out, "[M] Mine asteroids")
	assert.Contains(t, out, "No debts. For now.")
}

func TestComposeLoanOfferAndLedger(t *testing.T) {
	l, buf := newSession(t)
	l.HandleInput(game.InputConfirm)
	l.Update(1.0 / 60)

	_, err := l.Loans.OfferLoan(finance.Zorvax, 40)
	require.NoError(t, err)
	Compose(buf, l)
	out := screen(buf)
	assert.Contains(t, out, "Offers 40 oxygen. You repay 60 materials in 5 turns.")
	assert.Contains(t, out, "[Y] accept")

	l.Narrator.Dismiss()
	l.HandleInput(game.InputAccept)
	Compose(buf, l)
	out = screen(buf)
	assert.Contains(t, out, "Zorvax")
	assert.Contains(t, out, "60 due 5t")
	assert.Contains(t, out, "Debt      60 materials owed")
}

func TestComposeMinigameAndEnd(t *testing.T) {
	l, buf := newSession(t)
	l.HandleInput(game.InputConfirm)
	l.Update(1.0 / 60)
	l.HandleInput(game.InputMine)
	require.Equal(t, game.PhaseMinigame, l.Phase())

	Compose(buf, l)
	assert.Contains(t, screen(buf), "MINING")
	assert.Contains(t, buf.Row(hintRow), "ESC: abandon")

	l.State.TriggerVictory()
	Compose(buf, l)
	assert.Contains(t, screen(buf), "VICTORY")
	assert.Contains(t, buf.Row(hintRow), "SPACE: restart")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Nil(t, wrap("   ", 8))
}
