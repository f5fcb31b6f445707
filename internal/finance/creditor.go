package finance

import "math"

// CreditorKey identifies a creditor policy.
type CreditorKey string

const (
	Zorvax   CreditorKey = "zorvax"
	Ktar     CreditorKey = "ktar"
	Nebula   CreditorKey = "nebula"
	Friendly CreditorKey = "friendly"
)

// PenaltyKind tags what a defaulted loan does to the ship.
type PenaltyKind string

const (
	PenaltyNone           PenaltyKind = ""
	PenaltyMaterialTheft  PenaltyKind = "material_theft"
	PenaltyOxygenCapacity PenaltyKind = "oxygen_capacity_reduction"
	PenaltyRepairSabotage PenaltyKind = "repair_sabotage"
	PenaltyNarrativeOnly  PenaltyKind = "narrative_only"
)

// PenaltyEffect is the consequence of one turn in default. The loan
// manager applies it to the game state.
type PenaltyEffect struct {
	Kind      PenaltyKind
	Magnitude float64
	Creditor  CreditorKey
}

// IsZero reports whether the effect does nothing at all.
func (p PenaltyEffect) IsZero() bool { return p.Kind == PenaltyNone }

// CreditorPolicy is the per-creditor behavior of a loan.
type CreditorPolicy interface {
	Key() CreditorKey
	Name() string
	InterestRate() float64
	// MaxPrincipal caps the amount lent; 0 means uncapped.
	MaxPrincipal() float64
	Penalty(principal float64, defaulted bool) PenaltyEffect
}

type zorvaxPolicy struct{}

func (zorvaxPolicy) Key() CreditorKey      { return Zorvax }
func (zorvaxPolicy) Name() string          { return "Zorvax" }
func (zorvaxPolicy) InterestRate() float64 { return 0.5 }
func (zorvaxPolicy) MaxPrincipal() float64 { return 0 }

// Zorvax collectors board the ship and take materials.
func (zorvaxPolicy) Penalty(principal float64, defaulted bool) PenaltyEffect {
	if !defaulted {
		return PenaltyEffect{}
	}
	return PenaltyEffect{
		Kind:      PenaltyMaterialTheft,
		Magnitude: math.Min(10, math.Round(principal*0.2)),
		Creditor:  Zorvax,
	}
}

type ktarPolicy struct{}

func (ktarPolicy) Key() CreditorKey      { return Ktar }
func (ktarPolicy) Name() string          { return "K'tar" }
func (ktarPolicy) InterestRate() float64 { return 0.2 }
func (ktarPolicy) MaxPrincipal() float64 { return 0 }

// K'tar seize oxygen tanks, shrinking the ship's capacity.
func (ktarPolicy) Penalty(principal float64, defaulted bool) PenaltyEffect {
	if !defaulted {
		return PenaltyEffect{}
	}
	return PenaltyEffect{
		Kind:      PenaltyOxygenCapacity,
		Magnitude: math.Min(10, principal*0.2),
		Creditor:  Ktar,
	}
}

type nebulaPolicy struct{}

func (nebulaPolicy) Key() CreditorKey      { return Nebula }
func (nebulaPolicy) Name() string          { return "Nebula Consortium" }
func (nebulaPolicy) InterestRate() float64 { return 0.1 }
func (nebulaPolicy) MaxPrincipal() float64 { return 0 }

// The Consortium remotely sabotages repairs.
func (nebulaPolicy) Penalty(principal float64, defaulted bool) PenaltyEffect {
	if !defaulted {
		return PenaltyEffect{}
	}
	return PenaltyEffect{
		Kind:      PenaltyRepairSabotage,
		Magnitude: math.Min(8, principal*0.1),
		Creditor:  Nebula,
	}
}

type friendlyPolicy struct{}

func (friendlyPolicy) Key() CreditorKey      { return Friendly }
func (friendlyPolicy) Name() string          { return "Friendly Ally" }
func (friendlyPolicy) InterestRate() float64 { return 0.05 }
func (friendlyPolicy) MaxPrincipal() float64 { return 30 }

// A friend only gets disappointed.
func (friendlyPolicy) Penalty(_ float64, defaulted bool) PenaltyEffect {
	if !defaulted {
		return PenaltyEffect{}
	}
	return PenaltyEffect{Kind: PenaltyNarrativeOnly, Creditor: Friendly}
}

var policies = map[CreditorKey]CreditorPolicy{
	Zorvax:   zorvaxPolicy{},
	Ktar:     ktarPolicy{},
	Nebula:   nebulaPolicy{},
	Friendly: friendlyPolicy{},
}

// Policy returns the policy for a creditor key.
func Policy(key CreditorKey) (CreditorPolicy, bool) {
	p, ok := policies[key]
	return p, ok
}

// Greeting pools per creditor.
var zorvaxGreetings = []string{
	"Oxygen, yes? Zorvax always has oxygen. Zorvax always collects.",
	"Your gauges are blinking, little ship. Sign here.",
	"Fifty percent is a friendly rate. For Zorvax.",
}

var ktarGreetings = []string{
	"The K'tar Syndicate extends credit. The K'tar Syndicate remembers.",
	"A fair rate for a fair pilot. Default, and we take the tanks.",
	"Our terms are written in steel. Read them carefully.",
}

var nebulaGreetings = []string{
	"The Consortium offers competitive financing across the sector.",
	"Low interest. Long memory. Remote access to your repair bay.",
}

var friendlyGreetings = []string{
	"Hey, I heard you were stuck out here. I can spare a little air.",
	"Pay me back when you can. No rush, really.",
}

func greetingsFor(key CreditorKey) []string {
	switch key {
	case Zorvax:
		return zorvaxGreetings
	case Ktar:
		return ktarGreetings
	case Nebula:
		return nebulaGreetings
	case Friendly:
		return friendlyGreetings
	default:
		return nil
	}
}
