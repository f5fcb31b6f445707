package game

import "math/rand/v2"

// Input is a player command, already decoded from the keyboard.
type Input uint8

const (
	InputNone    Input = iota
	InputConfirm       // Space / Enter
	InputMine          // M
	InputRepair        // R
	InputBorrow        // L
	InputPay           // P
	InputAccept        // Y
	InputReject        // N
	InputEscape        // Esc
	InputUp
	InputDown
	InputLeft
	InputRight
)

// MinigameKind names a minigame variant.
type MinigameKind string

const (
	KindMining          MinigameKind = "mining"
	KindAsteroidShooter MinigameKind = "asteroid_shooter"
	KindTiming          MinigameKind = "timing"
	KindWiring          MinigameKind = "wiring"
	KindOxygenRescue    MinigameKind = "oxygen_rescue"
)

// IsRepair reports whether the variant is a repair job.
func (k MinigameKind) IsRepair() bool { return k == KindTiming || k == KindWiring }

// Result is what a finished minigame hands back to the loop.
type Result struct {
	Success         bool
	Score           int
	RewardMaterials int
	RewardRepair    int // signed; negative is damage
	RewardOxygen    int // rescue only
	TimeRemaining   float64
	Abandoned       bool
}

// Minigame is a self-contained arcade round. The loop feeds it input and
// frame time until Done, then reads its Result.
type Minigame interface {
	Kind() MinigameKind
	HandleInput(in Input)
	Update(dt float64)
	Done() bool
	Result() Result
	// Lines renders the playfield as text rows for the HUD.
	Lines() []string
}

// MinigameFactory builds a minigame of the given kind.
type MinigameFactory func(kind MinigameKind, rng *rand.Rand) Minigame

// tutorialOrder is the fixed variant sequence for the first attempts of
// each action; later attempts pick uniformly from the same pair.
var tutorialOrder = map[Action][2]MinigameKind{
	ActionMine:   {KindMining, KindAsteroidShooter},
	ActionRepair: {KindTiming, KindWiring},
}

// pickVariant returns the variant for the given 1-based attempt.
func pickVariant(action Action, attempt int, rng *rand.Rand) MinigameKind {
	pair := tutorialOrder[action]
	if attempt >= 1 && attempt <= len(pair) {
		return pair[attempt-1]
	}
	return pair[rng.IntN(len(pair))]
}
