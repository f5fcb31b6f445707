package game

import (
	"fmt"

	"github.com/astrodebt/astrodebt/internal/events"
)

// Dialogue is one speech box: a creditor greeting, a tutorial hint.
type Dialogue struct {
	Speaker string
	Text    string
}

// textSpeed is the typewriter speed of the dialogue box, in chars/second.
const textSpeed = 50.0

// Narrator turns bus events into ship log lines and queues dialogue boxes.
type Narrator struct {
	log  *MessageLog
	bus  *events.Manager
	turn func() int
	subs []events.SubscriptionID

	queue    []Dialogue
	current  *Dialogue
	revealed float64
}

// NewNarrator subscribes a narrator to bus. turn reports the current turn
// for stamping log lines.
func NewNarrator(log *MessageLog, bus *events.Manager, turn func() int) *Narrator {
	n := &Narrator{log: log, bus: bus, turn: turn}
	n.subs = append(n.subs, bus.SubscribeAll(n.handle))
	return n
}

// Detach unsubscribes the narrator from the bus.
func (n *Narrator) Detach() {
	for _, id := range n.subs {
		n.bus.Unsubscribe(id)
	}
	n.subs = nil
}

func (n *Narrator) add(text string, p MsgPriority) {
	n.log.Add(text, p, n.turn())
}

func (n *Narrator) handle(e events.Event) {
	switch e.Kind {
	case events.TurnStarted:
		n.add(fmt.Sprintf("-- Turn %d --", e.Int("turn")), MsgInfo)
	case events.MaterialsGained:
		n.add(fmt.Sprintf("Collected %d materials (hold: %d).", e.Int("amount"), e.Int("total")), MsgSuccess)
	case events.MaterialsGainedFail:
		n.add(fmt.Sprintf("Run went badly. Salvaged %d materials.", e.Int("amount")), MsgWarning)
	case events.MaterialsConsumed:
		n.add(fmt.Sprintf("Used %d materials.", e.Int("amount")), MsgInfo)
	case events.RepairCompleted:
		n.add("Hull integrity restored. Engines are coming online!", MsgSuccess)
	case events.LoanAppeared:
		n.add(fmt.Sprintf("%s offers %.0f oxygen for %d materials, due in %d turns. [Y]es / [N]o",
			e.String("creditor_name"), e.Float("amount"), e.Int("materials_owed"), e.Int("turns")), MsgCreditor)
		if g := e.String("greeting"); g != "" {
			n.Say(e.String("creditor_name"), g)
		}
	case events.LoanAccepted:
		n.add(fmt.Sprintf("Borrowed %.0f oxygen from %s. You owe %d materials.",
			e.Float("amount"), e.String("creditor_name"), e.Int("materials_owed")), MsgWarning)
	case events.LoanRejected:
		n.add(fmt.Sprintf("You turned down %s.", e.String("creditor_name")), MsgInfo)
	case events.LoanPayment:
		n.add(fmt.Sprintf("Paid %d materials to %s. %d left.",
			e.Int("paid"), e.String("creditor_name"), e.Int("remaining")), MsgInfo)
	case events.LoanPaidOff:
		n.add(fmt.Sprintf("Debt to %s paid in full.", e.String("creditor_name")), MsgSuccess)
	case events.LoanDefaulted:
		n.add(fmt.Sprintf("You defaulted on %s! They want %d materials.",
			e.String("creditor_name"), e.Int("materials_owed")), MsgCritical)
	case events.LoanOverdue:
		n.add(fmt.Sprintf("%s loan overdue by %d turns.", e.String("creditor_name"), e.Int("turns_overdue")), MsgCritical)
	case events.PenaltyApplied:
		n.add(penaltyLine(e), MsgCritical)
	case events.MinigameStarted:
		n.add(fmt.Sprintf("Starting %s (cost %.0f O2).", e.String("minigame"), e.Float("cost")), MsgInfo)
	case events.MinigameCompleted:
		n.add(fmt.Sprintf("%s succeeded! Score %d.", e.String("minigame"), e.Int("score")), MsgSuccess)
	case events.MinigameFailed:
		n.add(fmt.Sprintf("%s failed. Score %d.", e.String("minigame"), e.Int("score")), MsgWarning)
	case events.MinigameAbandoned:
		n.add(fmt.Sprintf("Abandoned %s. The oxygen is gone.", e.String("minigame")), MsgWarning)
	case events.OxygenLow:
		n.add(fmt.Sprintf("WARNING: oxygen at %.0f.", e.Float("oxygen")), MsgCritical)
	case events.MaterialsDepleted:
		n.add("The hold is empty.", MsgWarning)
	case events.OxygenRescueOffered:
		n.Say("Distress beacon", "Raiders are stripping a derelict's oxygen tanks nearby. Drive them off and the air is yours. [Y]es / [N]o")
	case events.GameOver:
		n.add(gameOverLine(Reason(e.String("reason"))), MsgCritical)
	case events.Victory:
		n.add("The ship breaks orbit. You made it home!", MsgSuccess)
	case events.Notification:
		n.add(e.String("text"), MsgPriority(e.Int("priority")))
	}
}

func penaltyLine(e events.Event) string {
	who := e.String("creditor_name")
	switch e.String("kind") {
	case "material_theft":
		return fmt.Sprintf("%s collectors took %.0f materials.", who, e.Float("applied"))
	case "oxygen_capacity_reduction":
		return fmt.Sprintf("%s seized tanks: max oxygen -%.0f.", who, e.Float("applied"))
	case "repair_sabotage":
		return fmt.Sprintf("%s sabotaged repairs: -%.0f%%.", who, e.Float("applied"))
	default:
		return fmt.Sprintf("%s is disappointed in you.", who)
	}
}

func gameOverLine(r Reason) string {
	switch r {
	case ReasonOxygenDepleted:
		return "Oxygen depleted. The ship goes quiet."
	case ReasonDebtOverwhelming:
		return "Your creditors repossess the ship."
	default:
		return "Game over."
	}
}

// Say queues a dialogue box.
func (n *Narrator) Say(speaker, text string) {
	n.queue = append(n.queue, Dialogue{Speaker: speaker, Text: text})
	if n.current == nil {
		n.next()
	}
}

func (n *Narrator) next() {
	if len(n.queue) == 0 {
		n.current = nil
		return
	}
	d := n.queue[0]
	n.queue = n.queue[1:]
	n.current = &d
	n.revealed = 0
	n.bus.Emit(events.New(events.DialogueStarted, "narrator", "speaker", d.Speaker))
}

// Update advances the typewriter effect.
func (n *Narrator) Update(dt float64) {
	if n.current == nil {
		return
	}
	n.revealed = min(n.revealed+dt*textSpeed, float64(len(n.current.Text)))
}

// Advance reveals the whole box, or closes it when already revealed.
func (n *Narrator) Advance() {
	if n.current == nil {
		return
	}
	if int(n.revealed) < len(n.current.Text) {
		n.revealed = float64(len(n.current.Text))
		return
	}
	speaker := n.current.Speaker
	n.current = nil
	n.bus.Emit(events.New(events.DialogueEnded, "narrator", "speaker", speaker))
	n.next()
}

// Dismiss closes every box.
func (n *Narrator) Dismiss() {
	n.queue = nil
	for n.current != nil {
		n.revealed = float64(len(n.current.Text))
		n.Advance()
	}
}

// Active reports whether a dialogue box is open.
func (n *Narrator) Active() bool { return n.current != nil }

// Visible returns the open box with the text revealed so far.
func (n *Narrator) Visible() (Dialogue, bool) {
	if n.current == nil {
		return Dialogue{}, false
	}
	d := *n.current
	d.Text = d.Text[:int(n.revealed)]
	return d, true
}
