package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
	"github.com/astrodebt/astrodebt/internal/finance"
)

// scriptedMinigame finishes on its first Update with a preset result,
// unless held open.
type scriptedMinigame struct {
	kind    MinigameKind
	result  Result
	hold    bool
	updated bool
	inputs  []Input
}

func (m *scriptedMinigame) Kind() MinigameKind   { return m.kind }
func (m *scriptedMinigame) HandleInput(in Input) { m.inputs = append(m.inputs, in) }
func (m *scriptedMinigame) Update(float64)       { m.updated = true }
func (m *scriptedMinigame) Done() bool           { return m.updated && !m.hold }
func (m *scriptedMinigame) Result() Result       { return m.result }
func (m *scriptedMinigame) Lines() []string      { return []string{string(m.kind)} }

type scriptedFactory struct {
	results  map[MinigameKind]Result
	hold     bool
	launched []MinigameKind
	last     *scriptedMinigame
}

func (f *scriptedFactory) build(kind MinigameKind, _ *rand.Rand) Minigame {
	f.launched = append(f.launched, kind)
	f.last = &scriptedMinigame{kind: kind, result: f.results[kind], hold: f.hold}
	return f.last
}

const frame = 1.0 / 60

func newTestLoop(t *testing.T, seed uint64) (*Loop, *scriptedFactory, *events.Manager) {
	t.Helper()
	f := &scriptedFactory{results: map[MinigameKind]Result{}}
	bus := events.NewManager(zap.NewNop())
	rng := rand.New(rand.NewPCG(seed, seed>>8|3))
	return NewLoop(config.Default(), bus, rng, f.build, zap.NewNop()), f, bus
}

func startedLoop(t *testing.T, seed uint64) (*Loop, *scriptedFactory, *events.Manager) {
	t.Helper()
	l, f, bus := newTestLoop(t, seed)
	l.HandleInput(InputConfirm)
	l.Update(frame)
	require.Equal(t, PhaseMainGame, l.Phase())
	return l, f, bus
}

// play runs one action through its minigame and back.
func play(t *testing.T, l *Loop, in Input) {
	t.Helper()
	l.HandleInput(in)
	require.Equal(t, PhaseMinigame, l.Phase())
	l.Update(frame)
}

func rejectOffers(l *Loop) {
	if _, ok := l.Loans.PendingOffer(); ok {
		l.HandleInput(InputReject)
	}
}

func TestIntroConfirmStartsTurnOne(t *testing.T) {
	l, _, bus := newTestLoop(t, 1)
	assert.Equal(t, PhaseIntro, l.Phase())
	assert.Zero(t, l.State.TurnNumber())

	l.HandleInput(InputMine)
	assert.Equal(t, PhaseIntro, l.Phase(), "actions are ignored during the intro")

	l.HandleInput(InputConfirm)
	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Equal(t, 1, l.State.TurnNumber())
	assert.Equal(t, 99.0, l.State.Oxygen())
	assert.Len(t, bus.History(events.PhaseChanged), 1)
}

func TestMineDeductsCostAndStartsMinigame(t *testing.T) {
	l, f, bus := startedLoop(t, 1)

	l.HandleInput(InputMine)

	assert.Equal(t, PhaseMinigame, l.Phase())
	assert.Equal(t, []MinigameKind{KindMining}, f.launched)
	assert.GreaterOrEqual(t, l.State.Oxygen(), 99.0-15)
	assert.LessOrEqual(t, l.State.Oxygen(), 99.0-12)
	started := bus.History(events.MinigameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "mining", started[0].String("minigame"))

	l.HandleInput(InputLeft)
	assert.Equal(t, []Input{InputLeft}, f.last.inputs, "minigame input is forwarded")
}

func TestTutorialScheduleThenRandom(t *testing.T) {
	l, f, _ := startedLoop(t, 3)
	l.State.AddMaterials(100)

	for i := 0; i < 4; i++ {
		l.State.UpdateOxygen(100)
		play(t, l, InputMine)
		rejectOffers(l)
		l.oxygenEventPending = false
	}
	for i := 0; i < 4; i++ {
		l.State.UpdateOxygen(100)
		play(t, l, InputRepair)
		rejectOffers(l)
	}

	require.Len(t, f.launched, 8)
	assert.Equal(t, []MinigameKind{KindMining, KindAsteroidShooter}, f.launched[:2])
	for _, k := range f.launched[2:4] {
		assert.Contains(t, []MinigameKind{KindMining, KindAsteroidShooter}, k)
	}
	assert.Equal(t, []MinigameKind{KindTiming, KindWiring}, f.launched[4:6])
	for _, k := range f.launched[6:8] {
		assert.True(t, k.IsRepair())
	}
	mining, repair := l.Attempts()
	assert.Equal(t, 4, mining)
	assert.Equal(t, 4, repair)
}

func TestFailedMiningStillPaysScraps(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	f.results[KindMining] = Result{Success: false, RewardMaterials: 2, RewardRepair: 0}

	play(t, l, InputMine)

	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Equal(t, 2, l.State.Materials())
	assert.Len(t, bus.History(events.MaterialsGainedFail), 1)
	assert.Empty(t, bus.History(events.MaterialsGained))
	assert.Len(t, bus.History(events.MinigameFailed), 1)
	assert.Zero(t, l.State.RepairProgress())
	assert.Equal(t, 2, l.State.TurnNumber())
}

func TestSuccessfulMiningAndDamage(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	l.State.UpdateRepairProgress(20)
	f.results[KindMining] = Result{Success: true, Score: 9, RewardMaterials: 9, RewardRepair: -3}

	play(t, l, InputMine)

	assert.Equal(t, 9, l.State.Materials())
	assert.Equal(t, 17.0, l.State.RepairProgress())
	completed := bus.History(events.MinigameCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, 9, completed[0].Int("score"))
}

func TestRepairMinigameRunsRepairSystem(t *testing.T) {
	l, f, _ := startedLoop(t, 1)
	l.State.AddMaterials(20)
	f.results[KindTiming] = Result{Success: true}
	f.results[KindWiring] = Result{Success: false}

	play(t, l, InputRepair)
	rejectOffers(l)
	assert.Equal(t, 15, l.State.Materials())
	assert.Equal(t, 15.0, l.State.RepairProgress())

	play(t, l, InputRepair)
	assert.Equal(t, 5, l.State.Materials())
	assert.Equal(t, 15.0, l.State.RepairProgress())
}

func TestRepairNeedsMaterials(t *testing.T) {
	l, f, _ := startedLoop(t, 1)
	l.HandleInput(InputRepair)
	l.Update(frame)
	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Empty(t, f.launched)
	assert.Equal(t, 99.0, l.State.Oxygen())
	assert.Contains(t, l.Messages.Recent(1)[0].Text, "materials")
}

func TestCannotAffordAction(t *testing.T) {
	l, f, _ := startedLoop(t, 1)
	l.State.UpdateOxygen(-85) // 14 left
	l.oxygenEventPending = false

	l.HandleInput(InputMine)
	l.Update(frame)
	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Empty(t, f.launched)
	assert.Equal(t, 14.0, l.State.Oxygen())
}

func TestEscapeAbandonsMinigame(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	f.hold = true
	f.results[KindMining] = Result{Success: true, RewardMaterials: 10}

	l.HandleInput(InputMine)
	l.Update(frame)
	require.Equal(t, PhaseMinigame, l.Phase())
	oxygenAfterCost := l.State.Oxygen()

	l.HandleInput(InputEscape)

	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Zero(t, l.State.Materials())
	assert.Equal(t, 2, l.State.TurnNumber())
	assert.Equal(t, oxygenAfterCost-1, l.State.Oxygen(), "the cost is not refunded")
	assert.Len(t, bus.History(events.MinigameAbandoned), 1)
	assert.Empty(t, bus.History(events.MinigameCompleted, events.MinigameFailed))
	_, running := l.ActiveMinigame()
	assert.False(t, running)
}

func TestLenderSideQuestOncePerSession(t *testing.T) {
	l, _, bus := startedLoop(t, 1)

	play(t, l, InputMine)
	assert.True(t, l.PrestamistaShown())
	offer, ok := l.Loans.PendingOffer()
	require.True(t, ok)
	assert.Equal(t, finance.Nebula, offer.Creditor)
	assert.GreaterOrEqual(t, offer.Amount, 25.0)
	assert.LessOrEqual(t, offer.Amount, 40.0)

	l.HandleInput(InputMine)
	assert.Equal(t, PhaseMainGame, l.Phase(), "a pending offer blocks actions")

	l.HandleInput(InputReject)
	_, ok = l.Loans.PendingOffer()
	assert.False(t, ok)

	l.State.UpdateOxygen(100)
	l.oxygenEventShown = true
	play(t, l, InputMine)
	_, ok = l.Loans.PendingOffer()
	assert.False(t, ok, "the side quest does not repeat")
	assert.Len(t, bus.History(events.LoanAppeared), 1)
}

func TestAcceptingOfferThroughInput(t *testing.T) {
	l, _, _ := startedLoop(t, 1)
	play(t, l, InputMine)
	oxygen := l.State.Oxygen()
	offer, ok := l.Loans.PendingOffer()
	require.True(t, ok)

	l.HandleInput(InputAccept)
	require.Len(t, l.Loans.ActiveLoans(), 1)
	assert.Equal(t, min(l.State.MaxOxygen(), oxygen+offer.Amount), l.State.Oxygen())
	assert.Equal(t, offer.MaterialsOwed, l.State.TotalDebt())
}

func TestOxygenRescueEvent(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	f.results[KindOxygenRescue] = Result{Success: true, RewardOxygen: 10}

	l.State.UpdateOxygen(-29) // 70 of 100
	l.Update(frame)
	require.True(t, l.OxygenEventPending())
	assert.Len(t, bus.History(events.OxygenRescueOffered), 1)

	l.HandleInput(InputMine)
	assert.Equal(t, PhaseMainGame, l.Phase(), "the rescue call takes priority")

	l.HandleInput(InputAccept)
	require.Equal(t, PhaseMinigame, l.Phase())
	assert.Equal(t, []MinigameKind{KindOxygenRescue}, f.launched)
	assert.Equal(t, 70.0, l.State.Oxygen(), "the rescue costs nothing")

	l.Update(frame)
	assert.Equal(t, PhaseMainGame, l.Phase())
	assert.Equal(t, 79.0, l.State.Oxygen())
	assert.False(t, l.PrestamistaShown(), "no lender after a rescue")
	assert.Equal(t, 2, l.State.TurnNumber())

	l.State.UpdateOxygen(-30)
	l.Update(frame)
	assert.False(t, l.OxygenEventPending(), "the rescue is offered once")
}

func TestOxygenRescueRejected(t *testing.T) {
	l, f, _ := startedLoop(t, 1)
	l.State.UpdateOxygen(-29)
	l.Update(frame)

	l.HandleInput(InputReject)
	l.Update(frame)
	assert.False(t, l.OxygenEventPending())
	assert.Empty(t, f.launched)
	assert.Equal(t, 70.0, l.State.Oxygen())
	assert.Equal(t, 1, l.State.TurnNumber())
}

func TestLowOxygenAndEmptyHoldAlerts(t *testing.T) {
	l, _, bus := startedLoop(t, 1)
	l.oxygenEventShown = true
	l.State.UpdateOxygen(-68) // 31 left, mining costs 12-15

	play(t, l, InputMine)

	assert.Len(t, bus.History(events.OxygenLow), 1)
	assert.Len(t, bus.History(events.MaterialsDepleted), 1)
}

func TestBorrowAndPay(t *testing.T) {
	l, _, bus := startedLoop(t, 1)
	l.oxygenEventShown = true
	l.State.UpdateOxygen(-60) // 39

	l.HandleInput(InputBorrow)
	offer, ok := l.Loans.PendingOffer()
	require.True(t, ok)
	assert.Equal(t, finance.Friendly, offer.Creditor)
	l.HandleInput(InputAccept)
	require.Len(t, l.Loans.ActiveLoans(), 1)
	assert.Equal(t, 59.0, l.State.Oxygen())

	l.HandleInput(InputPay)
	l.Update(frame)
	assert.Contains(t, l.Messages.Recent(1)[0].Text, "Not enough materials")

	l.Resources.Collect(30, true)
	l.HandleInput(InputPay)
	assert.Equal(t, 26, l.State.Materials()) // owes 21 over 5 turns
	assert.Len(t, bus.History(events.LoanPayment), 1)
}

func TestVictoryEndsLoop(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	l.State.AddMaterials(20)
	l.State.UpdateRepairProgress(90)
	f.results[KindTiming] = Result{Success: true}

	play(t, l, InputRepair)

	assert.True(t, l.State.Victory())
	assert.Equal(t, PhaseEnd, l.Phase())
	assert.Len(t, bus.History(events.RepairCompleted), 1)
	assert.Equal(t, 1, l.State.TurnNumber(), "no turn passes after winning")

	l.HandleInput(InputMine)
	assert.Equal(t, PhaseEnd, l.Phase())
}

func TestRestartAfterGameOverResetsEverything(t *testing.T) {
	l, f, bus := startedLoop(t, 1)
	f.results[KindMining] = Result{Success: true, RewardMaterials: 5}
	play(t, l, InputMine)
	rejectOffers(l)
	require.True(t, l.PrestamistaShown())

	l.State.TriggerGameOver(ReasonOxygenDepleted)
	l.Update(frame)
	require.Equal(t, PhaseEnd, l.Phase())

	l.HandleInput(InputConfirm)

	assert.Equal(t, PhaseIntro, l.Phase())
	assert.Zero(t, l.State.TurnNumber())
	assert.False(t, l.State.GameOver())
	assert.Equal(t, ReasonNone, l.State.Reason())
	assert.Equal(t, 100.0, l.State.Oxygen())
	assert.Zero(t, l.State.Materials())
	assert.False(t, l.PrestamistaShown())
	assert.False(t, l.OxygenEventPending())
	mining, repair := l.Attempts()
	assert.Zero(t, mining)
	assert.Zero(t, repair)
	assert.Empty(t, l.Loans.ActiveLoans())
	assert.Empty(t, bus.History())

	// The fresh session plays from the tutorial again.
	f.launched = nil
	l.HandleInput(InputConfirm)
	play(t, l, InputMine)
	assert.Equal(t, []MinigameKind{KindMining}, f.launched)
	assert.Equal(t, 5, l.State.Materials())
}
