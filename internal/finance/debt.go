package finance

import (
	"math"

	"github.com/google/uuid"
)

// Debt is one accepted loan. Interest is folded into MaterialsOwed when the
// loan is taken; the balance only goes down after that.
type Debt struct {
	ID           uuid.UUID
	Policy       CreditorPolicy
	Principal    float64 // oxygen borrowed
	InterestRate float64
	TakenOnTurn  int

	owed      int
	turnsLeft int
	defaulted bool
}

// NewDebt creates a loan of principal oxygen repayable in termTurns.
// Principal is capped at the policy's MaxPrincipal.
func NewDebt(policy CreditorPolicy, principal float64, termTurns, turn int) *Debt {
	if limit := policy.MaxPrincipal(); limit > 0 && principal > limit {
		principal = limit
	}
	rate := policy.InterestRate()
	return &Debt{
		ID:           uuid.New(),
		Policy:       policy,
		Principal:    principal,
		InterestRate: rate,
		TakenOnTurn:  turn,
		owed:         int(math.Round(principal * (1 + rate))),
		turnsLeft:    termTurns,
	}
}

func (d *Debt) Creditor() CreditorKey { return d.Policy.Key() }
func (d *Debt) MaterialsOwed() int    { return d.owed }
func (d *Debt) TurnsUntilDue() int    { return d.turnsLeft }
func (d *Debt) Defaulted() bool       { return d.defaulted }
func (d *Debt) PaidOff() bool         { return d.owed <= 0 }

// CalculateInterest returns the interest accrued this turn. It is always 0:
// the whole interest was charged up front.
func (d *Debt) CalculateInterest() int { return 0 }

// ApplyPenalty returns the penalty for the current default state without
// applying it.
func (d *Debt) ApplyPenalty() PenaltyEffect {
	return d.Policy.Penalty(d.Principal, d.defaulted)
}

// MakePayment reduces the balance by materials (floored at 0) and reports
// whether this payment cleared the debt.
func (d *Debt) MakePayment(materials int) bool {
	if materials <= 0 || d.owed <= 0 {
		return false
	}
	d.owed -= materials
	if d.owed < 0 {
		d.owed = 0
	}
	return d.owed == 0
}

// AdvanceTurn counts down to the due date. A loan still owing at the due
// date defaults and stays defaulted.
func (d *Debt) AdvanceTurn() {
	d.turnsLeft--
	if d.turnsLeft <= 0 && d.owed > 0 {
		d.defaulted = true
	}
}

// MinimumPayment is the suggested payment for this turn.
func (d *Debt) MinimumPayment() int {
	switch {
	case d.owed <= 0:
		return 0
	case d.turnsLeft <= 0:
		return d.owed
	case d.turnsLeft <= 2:
		return max(1, int(math.Round(float64(d.owed)/2)))
	default:
		return max(1, d.owed/d.turnsLeft)
	}
}
