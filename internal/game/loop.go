// Package game holds the session state machine: the GameState record, the
// resource and repair systems, and the Loop that moves between phases and
// folds minigame results back into the state.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
	"github.com/astrodebt/astrodebt/internal/finance"
)

// Alert thresholds checked after every minigame.
const (
	lowOxygenAlert     = 20
	rescueTriggerRatio = 0.8
)

// Side quest and ally loan amounts.
const (
	sideQuestMinAmount = 25
	sideQuestMaxAmount = 40
	allyLoanAmount     = 20
	allyLoanOxygen     = 50
)

// Loop drives one session. It owns the per-session systems and rebuilds
// them on Restart; the bus, message log and narrator survive restarts.
type Loop struct {
	cfg     config.Config
	bus     *events.Manager
	log     *zap.Logger
	rng     *rand.Rand
	factory MinigameFactory

	State     *GameState
	Resources *ResourceManager
	Repair    *RepairSystem
	Loans     *finance.LoanManager
	Messages  *MessageLog
	Narrator  *Narrator

	active       Minigame
	activeAction Action
	activeCost   float64

	miningAttempts     int
	repairAttempts     int
	prestamistaShown   bool
	allyLoanUsed       bool
	oxygenEventShown   bool
	oxygenEventPending bool
	endObserved        bool
}

// NewLoop creates a session in the intro phase.
func NewLoop(cfg config.Config, bus *events.Manager, rng *rand.Rand, factory MinigameFactory, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewManager(log)
	}
	l := &Loop{
		cfg:      cfg,
		bus:      bus,
		log:      log,
		rng:      rng,
		factory:  factory,
		Messages: NewMessageLog(200),
	}
	l.Narrator = NewNarrator(l.Messages, bus, func() int { return l.State.TurnNumber() })
	l.build()
	return l
}

func (l *Loop) build() {
	l.State = NewGameState(l.cfg.Gameplay, l.bus, l.log)
	l.Resources = NewResourceManager(l.State, l.bus, l.log)
	l.Repair = NewRepairSystem(l.State, l.Resources, l.cfg.Repair, l.bus, l.log)
	l.Loans = finance.NewLoanManager(l.State, l.bus, l.rng, finance.Limits{
		MaxLoans:     l.cfg.Gameplay.MaxActiveLoans,
		MaxDefaulted: l.cfg.Gameplay.MaxDefaultedLoans,
		TermTurns:    l.cfg.Gameplay.LoanTermTurns,
	}, l.log)
	l.State.AttachLoans(l.Loans)

	l.Messages.Add("Your ship is stranded. Hull breached, oxygen leaking.", MsgCritical, 0)
	l.Messages.Add("Mine materials, repair the hull, and watch your debts.", MsgInfo, 0)
	l.Messages.Add("Press SPACE to begin.", MsgInfo, 0)
}

// Restart throws the session away and starts over from the config.
func (l *Loop) Restart() {
	l.log.Info("restarting session", zap.Int("turn", l.State.TurnNumber()))
	l.Narrator.Dismiss()
	l.bus.Reset()
	l.Messages.Clear()

	l.active = nil
	l.activeAction = ""
	l.activeCost = 0
	l.miningAttempts = 0
	l.repairAttempts = 0
	l.prestamistaShown = false
	l.allyLoanUsed = false
	l.oxygenEventShown = false
	l.oxygenEventPending = false
	l.endObserved = false

	l.build()
}

// Phase returns the current phase.
func (l *Loop) Phase() Phase { return l.State.Phase() }

// ActiveMinigame returns the running minigame, if any.
func (l *Loop) ActiveMinigame() (Minigame, bool) { return l.active, l.active != nil }

// OxygenEventPending reports whether the rescue call is waiting for an answer.
func (l *Loop) OxygenEventPending() bool { return l.oxygenEventPending }

// PrestamistaShown reports whether the one-time lender side quest has run.
func (l *Loop) PrestamistaShown() bool { return l.prestamistaShown }

// Attempts returns the tutorial counters for mining and repair.
func (l *Loop) Attempts() (mining, repair int) { return l.miningAttempts, l.repairAttempts }

// HandleInput dispatches one player command to the current phase.
func (l *Loop) HandleInput(in Input) {
	if in == InputNone {
		return
	}
	if in == InputConfirm && l.Narrator.Active() && l.State.Phase() != PhaseEnd {
		l.Narrator.Advance()
		return
	}

	switch l.State.Phase() {
	case PhaseIntro:
		if in == InputConfirm {
			l.begin()
		}
	case PhaseMainGame:
		l.handleMain(in)
	case PhaseMinigame:
		if in == InputEscape {
			l.abandon()
			return
		}
		if l.active != nil {
			l.active.HandleInput(in)
		}
	case PhaseEnd:
		if in == InputConfirm {
			l.Restart()
		}
	}
}

func (l *Loop) begin() {
	l.Messages.Clear()
	l.State.SetPhase(PhaseMainGame)
	l.State.AdvanceTurn()
	l.notify("[M] mine  [R] repair  [L] borrow  [P] pay debt", MsgInfo)
}

func (l *Loop) handleMain(in Input) {
	if l.oxygenEventPending {
		switch in {
		case InputAccept:
			l.oxygenEventPending = false
			l.Narrator.Dismiss()
			l.launch(KindOxygenRescue, ActionRescue, 0)
		case InputReject:
			l.oxygenEventPending = false
			l.Narrator.Dismiss()
			l.notify("You let the distress beacon fade.", MsgInfo)
		}
		return
	}

	if _, pending := l.Loans.PendingOffer(); pending {
		switch in {
		case InputAccept:
			l.Narrator.Dismiss()
			if _, err := l.Loans.AcceptPendingOffer(); err != nil {
				l.notify(loanErrorText(err), MsgWarning)
			}
		case InputReject:
			l.Narrator.Dismiss()
			l.Loans.RejectPendingOffer()
		}
		return
	}

	switch in {
	case InputMine:
		l.StartAction(ActionMine)
	case InputRepair:
		l.StartAction(ActionRepair)
	case InputBorrow:
		l.borrow()
	case InputPay:
		l.pay()
	}
}

// StartAction validates and pays for a mining or repair run, then starts
// the minigame the tutorial schedule picks for it.
func (l *Loop) StartAction(action Action) bool {
	if l.State.Phase() != PhaseMainGame {
		return false
	}
	if !l.State.CanAffordAction(action) {
		cost, _ := ActionCost(action)
		l.notify(fmt.Sprintf("Not enough oxygen: %s needs %.0f.", action, cost), MsgWarning)
		return false
	}

	var attempt int
	switch action {
	case ActionMine:
		attempt = l.miningAttempts + 1
	case ActionRepair:
		if !l.Repair.CanStartRepair() {
			l.notify(fmt.Sprintf("Repairs need %d materials.", l.cfg.Repair.MaterialsCostMin), MsgWarning)
			return false
		}
		attempt = l.repairAttempts + 1
	default:
		return false
	}

	lo, hi := l.cfg.Actions.OxygenCostMin, l.cfg.Actions.OxygenCostMax
	cost := float64(lo + l.rng.IntN(hi-lo+1))
	if !l.State.UpdateOxygen(-cost) {
		return false
	}

	if action == ActionMine {
		l.miningAttempts = attempt
	} else {
		l.repairAttempts = attempt
	}
	l.launch(pickVariant(action, attempt, l.rng), action, cost)
	return true
}

func (l *Loop) launch(kind MinigameKind, action Action, cost float64) {
	seed1, seed2 := l.rng.Uint64(), l.rng.Uint64()
	l.active = l.factory(kind, rand.New(rand.NewPCG(seed1, seed2)))
	l.activeAction = action
	l.activeCost = cost
	l.State.SetPhase(PhaseMinigame)
	l.log.Debug("minigame started", zap.String("kind", string(kind)), zap.Float64("cost", cost))
	l.bus.Emit(events.New(events.MinigameStarted, "loop",
		"minigame", string(kind),
		"action", string(action),
		"cost", cost))
}

func (l *Loop) abandon() {
	if l.active == nil {
		return
	}
	kind := l.active.Kind()
	l.active = nil
	l.bus.Emit(events.New(events.MinigameAbandoned, "loop",
		"minigame", string(kind),
		"action", string(l.activeAction),
		"cost", l.activeCost))
	l.State.SetPhase(PhaseMainGame)
	l.State.AdvanceTurn()
}

func (l *Loop) borrow() {
	if !l.allyLoanUsed && l.State.Oxygen() < allyLoanOxygen {
		if _, err := l.Loans.OfferLoan(finance.Friendly, allyLoanAmount); err == nil {
			l.allyLoanUsed = true
			return
		}
	}
	if !l.Loans.CanTakeLoan() {
		l.notify("No creditor will lend to you right now.", MsgWarning)
		return
	}
	if _, ok := l.Loans.CheckLoanAppearance(); !ok {
		l.notify("You hail the void. Nobody answers.", MsgInfo)
	}
}

func (l *Loop) pay() {
	if _, _, err := l.Loans.PayMostUrgent(); err != nil {
		l.notify(loanErrorText(err), MsgWarning)
	}
}

// Update advances the running minigame and reacts to state changes. It
// is called once per frame; queued events are flushed at the end.
func (l *Loop) Update(dt float64) {
	l.Narrator.Update(dt)

	switch l.State.Phase() {
	case PhaseMainGame:
		l.checkOxygenEvent()
	case PhaseMinigame:
		if l.active != nil {
			l.active.Update(dt)
			if l.active.Done() {
				l.finish(l.active.Result())
			}
		}
	}

	if l.State.Ended() && !l.endObserved {
		l.endObserved = true
		l.active = nil
		l.oxygenEventPending = false
		l.State.SetPhase(PhaseEnd)
		l.notify("Press SPACE to play again.", MsgInfo)
	}

	l.bus.ProcessQueue()
}

func (l *Loop) checkOxygenEvent() {
	if l.oxygenEventShown || l.State.Ended() {
		return
	}
	if l.State.Oxygen() < rescueTriggerRatio*l.State.MaxOxygen() {
		l.oxygenEventShown = true
		l.oxygenEventPending = true
		l.bus.Emit(events.New(events.OxygenRescueOffered, "loop", "oxygen", l.State.Oxygen()))
	}
}

// finish folds a minigame result into the session and ends the turn.
func (l *Loop) finish(res Result) {
	if l.active == nil {
		return
	}
	kind := l.active.Kind()
	if res.Abandoned {
		l.abandon()
		return
	}
	l.active = nil

	if res.RewardMaterials > 0 || (!kind.IsRepair() && kind != KindOxygenRescue) {
		l.Resources.Collect(res.RewardMaterials, res.Success)
	}
	if kind.IsRepair() {
		if _, ok := l.Repair.ProcessRepairAttempt(res.Success); !ok {
			l.notify("Not enough materials to finish the repair.", MsgWarning)
		}
	}
	if res.RewardRepair != 0 {
		l.State.UpdateRepairProgress(float64(res.RewardRepair))
	}
	if res.RewardOxygen > 0 {
		l.State.UpdateOxygen(float64(res.RewardOxygen))
	}

	outcome := events.MinigameCompleted
	if !res.Success {
		outcome = events.MinigameFailed
	}
	l.bus.Emit(events.New(outcome, "loop",
		"minigame", string(kind),
		"action", string(l.activeAction),
		"success", res.Success,
		"score", res.Score,
		"reward_materials", res.RewardMaterials,
		"reward_repair", res.RewardRepair,
		"reward_oxygen", res.RewardOxygen,
		"time_remaining", res.TimeRemaining))

	if l.State.Ended() {
		return
	}
	l.State.SetPhase(PhaseMainGame)

	if l.State.Oxygen() <= lowOxygenAlert {
		l.bus.Emit(events.New(events.OxygenLow, "loop", "oxygen", l.State.Oxygen()))
	}
	if l.State.Materials() == 0 {
		l.bus.Emit(events.New(events.MaterialsDepleted, "loop"))
	}
	if kind != KindOxygenRescue {
		l.lenderSideQuest()
	}

	l.State.AdvanceTurn()
}

// lenderSideQuest makes the Nebula Consortium's agent show up once per
// session, the first time the player comes back from a job with room for
// another loan.
func (l *Loop) lenderSideQuest() {
	if l.prestamistaShown || !l.Loans.CanTakeLoan() {
		return
	}
	if _, pending := l.Loans.PendingOffer(); pending {
		return
	}
	amount := sideQuestMinAmount + l.rng.IntN(sideQuestMaxAmount-sideQuestMinAmount+1)
	if _, err := l.Loans.OfferLoan(finance.Nebula, float64(amount)); err != nil {
		l.log.Debug("side quest offer refused", zap.Error(err))
		return
	}
	l.prestamistaShown = true
}

func (l *Loop) notify(text string, p MsgPriority) {
	l.bus.Queue(events.New(events.Notification, "loop", "text", text, "priority", int(p)))
}

func loanErrorText(err error) string {
	switch {
	case errors.Is(err, finance.ErrLoanLimit):
		return "You already carry the maximum number of loans."
	case errors.Is(err, finance.ErrTooManyDefaults):
		return "Too many defaults. Nobody trusts you now."
	case errors.Is(err, finance.ErrNoActiveLoans):
		return "You have no debts to pay."
	case errors.Is(err, finance.ErrInsufficientMaterials):
		return "Not enough materials to make a payment."
	case errors.Is(err, finance.ErrNoPendingOffer):
		return "There is no offer on the table."
	default:
		return err.Error()
	}
}
