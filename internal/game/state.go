package game

import (
	"math"

	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
)

// Phase is the top-level state of the game loop.
type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseMainGame Phase = "main_game"
	PhaseMinigame Phase = "minigame"
	PhaseEnd      Phase = "end"
)

// Reason explains a game over.
type Reason string

const (
	ReasonNone             Reason = "none"
	ReasonOxygenDepleted   Reason = "oxygen_depleted"
	ReasonDebtOverwhelming Reason = "debt_overwhelming"
)

// Action names an oxygen-costing player action.
type Action string

const (
	ActionMine   Action = "mine"
	ActionRepair Action = "repair"
	ActionRescue Action = "oxygen_rescue"
)

// actionCosts is the oxygen a player must hold before starting an action.
var actionCosts = map[Action]float64{
	ActionMine:   15,
	ActionRepair: 15,
	ActionRescue: 0,
}

// Thresholds for the debt collapse check: debt beyond materials+50 is
// dangerous, beyond materials+100 with low oxygen is fatal.
const (
	debtDangerMargin   = 50
	debtFatalMargin    = 100
	debtCollapseOxygen = 20
)

// Ledger is what the game state needs from the loan book.
type Ledger interface {
	ProcessTurn()
	TotalDebt() int
}

// GameState is the canonical record of one session. Every mutation goes
// through its methods so the clamps and terminal flags always hold.
type GameState struct {
	cfg config.Gameplay
	bus *events.Manager
	log *zap.Logger

	oxygen       float64
	maxOxygen    float64
	materials    int
	maxMaterials int
	repair       float64
	turn         int
	phase        Phase
	gameOver     bool
	victory      bool
	reason       Reason

	loans Ledger
}

// NewGameState creates a session at turn 0 in the intro phase.
func NewGameState(cfg config.Gameplay, bus *events.Manager, log *zap.Logger) *GameState {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewManager(log)
	}
	return &GameState{
		cfg:          cfg,
		bus:          bus,
		log:          log.Named("state"),
		oxygen:       math.Min(cfg.InitialOxygen, cfg.MaxOxygen),
		maxOxygen:    cfg.MaxOxygen,
		materials:    cfg.InitialMaterials,
		maxMaterials: cfg.MaxMaterials,
		phase:        PhaseIntro,
		reason:       ReasonNone,
	}
}

// AttachLoans sets the loan book ticked by AdvanceTurn.
func (s *GameState) AttachLoans(l Ledger) { s.loans = l }

func (s *GameState) Oxygen() float64           { return s.oxygen }
func (s *GameState) MaxOxygen() float64        { return s.maxOxygen }
func (s *GameState) Materials() int            { return s.materials }
func (s *GameState) MaxMaterials() int         { return s.maxMaterials }
func (s *GameState) RepairProgress() float64   { return s.repair }
func (s *GameState) TurnNumber() int           { return s.turn }
func (s *GameState) Phase() Phase              { return s.phase }
func (s *GameState) GameOver() bool            { return s.gameOver }
func (s *GameState) Victory() bool             { return s.victory }
func (s *GameState) Reason() Reason            { return s.reason }
func (s *GameState) VictoryThreshold() float64 { return s.cfg.VictoryRepairThreshold }

// Ended reports whether the session reached a terminal state.
func (s *GameState) Ended() bool { return s.gameOver || s.victory }

// UpdateOxygen adds delta, clamped to [0, max]. Reaching exactly 0 ends the
// game and reports false.
func (s *GameState) UpdateOxygen(delta float64) bool {
	old := s.oxygen
	s.oxygen = clamp(s.oxygen+delta, 0, s.maxOxygen)
	if s.oxygen != old {
		s.bus.Emit(events.New(events.OxygenChanged, "state",
			"old", old, "new", s.oxygen, "delta", s.oxygen-old, "max", s.maxOxygen))
	}
	if s.oxygen == 0 {
		s.TriggerGameOver(ReasonOxygenDepleted)
		return false
	}
	return true
}

// ReduceMaxOxygen lowers the oxygen ceiling and re-clamps the current level.
func (s *GameState) ReduceMaxOxygen(amount float64) {
	if amount <= 0 {
		return
	}
	s.maxOxygen = math.Max(0, s.maxOxygen-amount)
	if s.oxygen > s.maxOxygen {
		s.UpdateOxygen(s.maxOxygen - s.oxygen)
	}
}

// AddMaterials adds up to the storage cap and returns the amount added.
func (s *GameState) AddMaterials(n int) int {
	if n <= 0 {
		return 0
	}
	n = min(n, s.maxMaterials-s.materials)
	s.materials += n
	return n
}

// ConsumeMaterials removes n materials, or nothing if there are fewer.
func (s *GameState) ConsumeMaterials(n int) bool {
	if n < 0 || s.materials < n {
		return false
	}
	s.materials -= n
	return true
}

// UpdateRepairProgress adds delta (negative for sabotage), clamped to
// [0, 100]. Reaching the victory threshold wins the game.
func (s *GameState) UpdateRepairProgress(delta float64) {
	old := s.repair
	s.repair = clamp(s.repair+delta, 0, 100)
	if s.repair != old {
		s.bus.Emit(events.New(events.RepairProgressChanged, "state",
			"old", old, "new", s.repair, "delta", s.repair-old))
	}
	if s.repair >= s.cfg.VictoryRepairThreshold {
		s.TriggerVictory()
	}
}

// AdvanceTurn moves to the next turn: survival tax, loan processing and the
// end-of-turn checks. It does nothing once the session has ended.
func (s *GameState) AdvanceTurn() {
	if s.Ended() {
		return
	}
	s.turn++
	s.bus.Emit(events.New(events.TurnStarted, "state", "turn", s.turn))

	s.UpdateOxygen(-s.cfg.OxygenConsumptionPerTurn)
	if !s.Ended() && s.loans != nil {
		s.loans.ProcessTurn()
	}
	s.CheckGameOverConditions()

	s.log.Debug("turn advanced",
		zap.Int("turn", s.turn),
		zap.Float64("oxygen", s.oxygen),
		zap.Int("materials", s.materials),
		zap.Float64("repair", s.repair))
	s.bus.Emit(events.New(events.TurnEnded, "state", "turn", s.turn))
}

// CheckGameOverConditions evaluates the terminal conditions in order:
// suffocation, debt collapse, then victory.
func (s *GameState) CheckGameOverConditions() {
	if s.oxygen <= 0 {
		s.TriggerGameOver(ReasonOxygenDepleted)
		return
	}
	if debt := s.TotalDebt(); debt > s.materials+debtDangerMargin &&
		s.oxygen < debtCollapseOxygen &&
		debt > s.materials+debtFatalMargin {
		s.TriggerGameOver(ReasonDebtOverwhelming)
		return
	}
	if s.repair >= s.cfg.VictoryRepairThreshold {
		s.TriggerVictory()
	}
}

// TotalDebt returns the outstanding materials owed, 0 without a loan book.
func (s *GameState) TotalDebt() int {
	if s.loans == nil {
		return 0
	}
	return s.loans.TotalDebt()
}

// TriggerGameOver ends the session as a loss. It is a no-op once the
// session has ended either way.
func (s *GameState) TriggerGameOver(reason Reason) {
	if s.Ended() {
		return
	}
	s.gameOver = true
	s.reason = reason
	s.SetPhase(PhaseEnd)
	s.log.Info("game over", zap.String("reason", string(reason)), zap.Int("turn", s.turn))
	s.bus.Emit(events.New(events.GameOver, "state", "reason", string(reason), "turn", s.turn))
}

// TriggerVictory ends the session as a win. It is a no-op once the session
// has ended either way.
func (s *GameState) TriggerVictory() {
	if s.Ended() {
		return
	}
	s.victory = true
	s.SetPhase(PhaseEnd)
	s.log.Info("victory", zap.Int("turn", s.turn))
	s.bus.Emit(events.New(events.Victory, "state", "turn", s.turn))
}

// CanAffordAction reports whether the oxygen on hand covers the action.
// Unknown actions are never affordable.
func (s *GameState) CanAffordAction(action Action) bool {
	cost, ok := actionCosts[action]
	return ok && s.oxygen >= cost
}

// ActionCost returns the oxygen required to start an action.
func ActionCost(action Action) (float64, bool) {
	cost, ok := actionCosts[action]
	return cost, ok
}

// SetPhase changes the phase. Once the session has ended only PhaseEnd is
// accepted.
func (s *GameState) SetPhase(p Phase) bool {
	if s.phase == p {
		return true
	}
	if s.Ended() && p != PhaseEnd {
		return false
	}
	old := s.phase
	s.phase = p
	s.bus.Emit(events.New(events.PhaseChanged, "state", "from", string(old), "to", string(p)))
	return true
}

// Snapshot is a read-only copy of the state for the HUD.
type Snapshot struct {
	Oxygen         float64
	MaxOxygen      float64
	Materials      int
	MaxMaterials   int
	RepairProgress float64
	Turn           int
	Phase          Phase
	GameOver       bool
	Victory        bool
	Reason         Reason
	TotalDebt      int
}

func (s *GameState) Snapshot() Snapshot {
	return Snapshot{
		Oxygen:         s.oxygen,
		MaxOxygen:      s.maxOxygen,
		Materials:      s.materials,
		MaxMaterials:   s.maxMaterials,
		RepairProgress: s.repair,
		Turn:           s.turn,
		Phase:          s.phase,
		GameOver:       s.gameOver,
		Victory:        s.victory,
		Reason:         s.reason,
		TotalDebt:      s.TotalDebt(),
	}
}

// OxygenPct returns oxygen as a percentage of the current ceiling.
func (s Snapshot) OxygenPct() int {
	if s.MaxOxygen <= 0 {
		return 0
	}
	return int(s.Oxygen * 100 / s.MaxOxygen)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
