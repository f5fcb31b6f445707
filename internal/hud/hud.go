// Package hud lays the session out on an 80x45 character grid.
package hud

import (
	"fmt"
	"strings"

	"github.com/astrodebt/astrodebt/internal/finance"
	"github.com/astrodebt/astrodebt/internal/game"
	"github.com/astrodebt/astrodebt/internal/render"
)

const (
	Cols = 80
	Rows = 45
)

// Screen regions.
const (
	shipX, shipY, shipW, shipH = 0, 2, 42, 7
	loanX, loanY, loanW, loanH = 43, 2, 37, 7
	mainY, mainH               = 10, 17
	commsY, commsH             = 28, 15
	hintRow                    = 44
	meterW                     = 20
)

const title = "ASTRODEBT"

// Compose redraws buf from the session.
func Compose(buf *render.CellBuffer, l *game.Loop) {
	buf.Clear()
	s := l.State.Snapshot()

	buf.WriteString(1, 0, title, render.ColorWhite, render.ColorBlack)
	buf.WriteString(12, 0, fmt.Sprintf("Turn %d", s.Turn), render.ColorLightCyan, render.ColorBlack)
	buf.WriteString(Cols-len(string(s.Phase))-1, 0, string(s.Phase), render.ColorDarkGray, render.ColorBlack)

	drawShip(buf, s)
	drawLoans(buf, l.Loans)

	switch s.Phase {
	case game.PhaseIntro:
		drawIntro(buf)
	case game.PhaseMinigame:
		if g, ok := l.ActiveMinigame(); ok {
			drawMinigame(buf, g)
		}
	case game.PhaseMainGame:
		drawPrompt(buf, l)
	case game.PhaseEnd:
		drawEnd(buf, s)
	}

	if d, ok := l.Narrator.Visible(); ok {
		drawDialogue(buf, d)
	}
	drawComms(buf, l.Messages)
	buf.WriteString(1, hintRow, hints(l), render.ColorDarkGray, render.ColorBlack)
}

func drawShip(buf *render.CellBuffer, s game.Snapshot) {
	buf.Box(shipX, shipY, shipW, shipH, "Ship", render.ColorLightCyan)
	x, y := shipX+2, shipY+1

	oxy := ratio(s.Oxygen, s.MaxOxygen)
	meter(buf, x, y, "Oxygen   ", oxy, render.Severity(oxy, render.ColorLightBlue),
		fmt.Sprintf("%3.0f/%-3.0f", s.Oxygen, s.MaxOxygen))

	mat := ratio(float64(s.Materials), float64(s.MaxMaterials))
	meter(buf, x, y+1, "Materials", mat, render.ColorBrown,
		fmt.Sprintf("%3d/%-3d", s.Materials, s.MaxMaterials))

	meter(buf, x, y+2, "Hull     ", s.RepairProgress/100, render.ColorLightGreen,
		fmt.Sprintf("%3.0f%%", s.RepairProgress))

	debtClr := uint8(render.ColorLightGray)
	if s.TotalDebt > s.Materials {
		debtClr = render.ColorLightRed
	}
	buf.WriteString(x, y+4, fmt.Sprintf("Debt      %d materials owed", s.TotalDebt), debtClr, render.ColorBlack)
}

func meter(buf *render.CellBuffer, x, y int, label string, r float64, clr uint8, value string) {
	buf.WriteString(x, y, label, render.ColorLightGray, render.ColorBlack)
	buf.Bar(x+len(label)+1, y, meterW, r, clr)
	buf.WriteString(x+len(label)+meterW+2, y, value, clr, render.ColorBlack)
}

func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return v / limit
}

func drawLoans(buf *render.CellBuffer, m *finance.LoanManager) {
	buf.Box(loanX, loanY, loanW, loanH, "Creditors", render.ColorLightMagenta)
	x, y := loanX+2, loanY+1

	loans := m.ActiveLoans()
	if len(loans) == 0 {
		buf.WriteString(x, y, "No debts. For now.", render.ColorDarkGray, render.ColorBlack)
		return
	}
	for i, d := range loans {
		if i == loanH-3 {
			buf.WriteString(x, y+i, fmt.Sprintf("+%d more", len(loans)-i), render.ColorDarkGray, render.ColorBlack)
			break
		}
		due, clr := fmt.Sprintf("due %dt", d.TurnsUntilDue()), uint8(render.ColorLightGray)
		switch {
		case d.Defaulted():
			due, clr = "DEFAULT", render.ColorLightRed
		case d.TurnsUntilDue() <= 2:
			clr = render.ColorYellow
		}
		buf.WriteString(x, y+i, fmt.Sprintf("%-18s %3d %s", d.Policy.Name(), d.MaterialsOwed(), due), clr, render.ColorBlack)
	}
	sum := m.Summary()
	buf.WriteString(x, loanY+loanH-2, fmt.Sprintf("Min due %d  Paid off %d", sum.MinimumDue, sum.PaidOff),
		render.ColorDarkGray, render.ColorBlack)
}

var introText = []string{
	"The hull is breached and the oxygen is leaking.",
	"Mine the asteroid field for materials and patch the ship.",
	"Every job costs air. Creditors will gladly sell you more,",
	"at a price. Repair the hull before the air or the debt",
	"runs out.",
	"",
	"Press SPACE to begin.",
}

func drawIntro(buf *render.CellBuffer) {
	for i, line := range introText {
		buf.WriteString(4, mainY+2+i, line, render.ColorLightGray, render.ColorBlack)
	}
}

func drawMinigame(buf *render.CellBuffer, g game.Minigame) {
	name := strings.ToUpper(strings.ReplaceAll(string(g.Kind()), "_", " "))
	buf.Box(0, mainY, Cols, mainH, name, render.ColorYellow)
	for i, line := range g.Lines() {
		if i >= mainH-2 {
			break
		}
		buf.WriteString(2, mainY+1+i, line, render.ColorWhite, render.ColorBlack)
	}
}

func drawPrompt(buf *render.CellBuffer, l *game.Loop) {
	switch offer, pending := l.Loans.PendingOffer(); {
	case l.OxygenEventPending():
		buf.Box(8, mainY+2, 64, 6, "Distress beacon", render.ColorLightCyan)
		buf.WriteString(10, mainY+4, "A stranded hauler is leaking air. Raiders circle it.", render.ColorWhite, render.ColorBlack)
		buf.WriteString(10, mainY+5, "Drive them off and share the spare tank?  [Y] / [N]", render.ColorLightCyan, render.ColorBlack)
	case pending:
		clr := uint8(render.ColorLightMagenta)
		if offer.Emergency {
			clr = render.ColorLightRed
		}
		buf.Box(8, mainY+2, 64, 7, offer.CreditorName, clr)
		buf.WriteString(10, mainY+4, fmt.Sprintf("Offers %.0f oxygen. You repay %d materials in %d turns.",
			offer.Amount, offer.MaterialsOwed, offer.TurnsToRepay), render.ColorWhite, render.ColorBlack)
		buf.WriteString(10, mainY+5, fmt.Sprintf("Interest %.0f%%", offer.InterestRate*100), render.ColorLightGray, render.ColorBlack)
		buf.WriteString(10, mainY+6, "[Y] accept   [N] refuse", clr, render.ColorBlack)
	default:
		buf.WriteString(4, mainY+2, "The ship creaks. What now?", render.ColorLightGray, render.ColorBlack)
		mine, _ := game.ActionCost(game.ActionMine)
		repair, _ := game.ActionCost(game.ActionRepair)
		buf.WriteString(6, mainY+4, fmt.Sprintf("[M] Mine asteroids    (needs %.0f oxygen)", mine), render.ColorLightGreen, render.ColorBlack)
		buf.WriteString(6, mainY+5, fmt.Sprintf("[R] Repair the hull   (needs %.0f oxygen)", repair), render.ColorLightGreen, render.ColorBlack)
		buf.WriteString(6, mainY+6, "[L] Call a creditor", render.ColorLightMagenta, render.ColorBlack)
		buf.WriteString(6, mainY+7, "[P] Pay the most urgent debt", render.ColorLightMagenta, render.ColorBlack)
	}
}

func drawEnd(buf *render.CellBuffer, s game.Snapshot) {
	if s.Victory {
		buf.Box(16, mainY+2, 48, 6, "VICTORY", render.ColorLightGreen)
		buf.WriteString(18, mainY+4, fmt.Sprintf("Hull sealed on turn %d.", s.Turn), render.ColorWhite, render.ColorBlack)
	} else {
		buf.Box(16, mainY+2, 48, 6, "GAME OVER", render.ColorLightRed)
		reason := "The last of the air is gone."
		if s.Reason == game.ReasonDebtOverwhelming {
			reason = "The creditors own the ship now."
		}
		buf.WriteString(18, mainY+4, reason, render.ColorWhite, render.ColorBlack)
	}
	buf.WriteString(18, mainY+5, "Press SPACE to start over.", render.ColorDarkGray, render.ColorBlack)
}

func drawDialogue(buf *render.CellBuffer, d game.Dialogue) {
	y := mainY + mainH - 5
	buf.Fill(4, y, 72, 5, render.Cell{Glyph: ' ', FG: render.ColorWhite, BG: render.ColorBlack})
	buf.Box(4, y, 72, 5, d.Speaker, render.ColorYellow)
	lines := wrap(d.Text, 68)
	for i := 0; i < len(lines) && i < 3; i++ {
		buf.WriteString(6, y+1+i, lines[i], render.ColorWhite, render.ColorBlack)
	}
}

func wrap(s string, width int) []string {
	var out []string
	line := ""
	for _, w := range strings.Fields(s) {
		switch {
		case line == "":
			line = w
		case len(line)+1+len(w) <= width:
			line += " " + w
		default:
			out = append(out, line)
			line = w
		}
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}

var priorityColors = map[game.MsgPriority]uint8{
	game.MsgInfo:     render.ColorCyan,
	game.MsgWarning:  render.ColorYellow,
	game.MsgCritical: render.ColorLightRed,
	game.MsgSuccess:  render.ColorLightGreen,
	game.MsgCreditor: render.ColorLightMagenta,
}

func drawComms(buf *render.CellBuffer, log *game.MessageLog) {
	buf.Box(0, commsY, Cols, commsH, "Comms", render.ColorLightCyan)
	for i, m := range log.Recent(commsH - 2) {
		clr, ok := priorityColors[m.Priority]
		if !ok {
			clr = render.ColorLightGray
		}
		buf.WriteString(2, commsY+1+i, m.Text, clr, render.ColorBlack)
	}
}

func hints(l *game.Loop) string {
	switch l.Phase() {
	case game.PhaseIntro:
		return "SPACE: begin  ESC: quit"
	case game.PhaseMinigame:
		return "ARROWS: move  SPACE: act  ESC: abandon"
	case game.PhaseEnd:
		return "SPACE: restart  ESC: quit"
	}
	if l.Narrator.Active() {
		return "SPACE: continue"
	}
	return "M: mine  R: repair  L: borrow  P: pay  Y/N: answer  ESC: quit"
}
