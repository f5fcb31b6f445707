// Package finance implements loans: creditor policies, the Debt ledger entry
// and the LoanManager that offers, collects and penalizes them.
package finance

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/events"
)

var (
	ErrNoPendingOffer        = errors.New("no pending loan offer")
	ErrOfferPending          = errors.New("a loan offer is already pending")
	ErrLoanLimit             = errors.New("too many active loans")
	ErrTooManyDefaults       = errors.New("too many defaulted loans")
	ErrUnknownCreditor       = errors.New("unknown creditor")
	ErrUnknownLoan           = errors.New("unknown loan")
	ErrNoActiveLoans         = errors.New("no active loans")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientMaterials = errors.New("not enough materials")
)

// State is the part of the game state the loan manager reads and mutates.
type State interface {
	Oxygen() float64
	Materials() int
	TurnNumber() int
	UpdateOxygen(delta float64) bool
	ConsumeMaterials(n int) bool
	ReduceMaxOxygen(amount float64)
	UpdateRepairProgress(delta float64)
}

// Limits are the admission caps and loan term.
type Limits struct {
	MaxLoans     int
	MaxDefaulted int
	TermTurns    int
}

// Offer is a loan proposed to the player but not yet accepted.
type Offer struct {
	ID            uuid.UUID
	Creditor      CreditorKey
	CreditorName  string
	Amount        float64
	InterestRate  float64
	MaterialsOwed int
	TurnsToRepay  int
	Emergency     bool
	Greeting      string
}

// Summary aggregates the active ledger for the HUD.
type Summary struct {
	Active     int
	Defaulted  int
	TotalOwed  int
	MinimumDue int
	PaidOff    int
	NextDueIn  int // turns until the most urgent loan is due; 0 without loans
}

const (
	criticalOxygen = 20
	lowOxygen      = 50
)

const source = "loans"

// LoanManager owns the active loans and at most one pending offer.
type LoanManager struct {
	state   State
	bus     *events.Manager
	rng     *rand.Rand
	limits  Limits
	log     *zap.Logger
	active  []*Debt
	history []*Debt
	pending *Offer
}

// NewLoanManager creates a loan manager operating on state.
func NewLoanManager(state State, bus *events.Manager, rng *rand.Rand, limits Limits, log *zap.Logger) *LoanManager {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewManager(log)
	}
	return &LoanManager{
		state:  state,
		bus:    bus,
		rng:    rng,
		limits: limits,
		log:    log.Named("loans"),
	}
}

// CanTakeLoan reports whether a new loan would be admitted.
func (m *LoanManager) CanTakeLoan() bool { return m.admissionErr() == nil }

func (m *LoanManager) admissionErr() error {
	if len(m.active) >= m.limits.MaxLoans {
		return ErrLoanLimit
	}
	if m.DefaultedCount() >= m.limits.MaxDefaulted {
		return ErrTooManyDefaults
	}
	return nil
}

// CheckLoanAppearance rolls for a creditor showing up. The lower the
// oxygen, the likelier and larger the offer; below the critical level an
// offer always appears and it is always Zorvax.
func (m *LoanManager) CheckLoanAppearance() (*Offer, bool) {
	if m.pending != nil || !m.CanTakeLoan() {
		return nil, false
	}

	oxygen := m.state.Oxygen()
	critical := oxygen < criticalOxygen
	chance := 0.2
	switch {
	case critical:
		chance = 1.0
	case oxygen < lowOxygen:
		chance = 0.5
	}
	if m.rng.Float64() >= chance {
		return nil, false
	}

	key := Zorvax
	if !critical && m.rng.IntN(2) == 1 {
		key = Ktar
	}
	amount := 20 + m.rng.IntN(21)
	if critical {
		amount = 30 + m.rng.IntN(21)
	}

	offer := m.newOffer(policies[key], float64(amount), critical)
	m.pending = offer
	m.announce(offer)
	return offer, true
}

// OfferLoan proposes a specific loan, e.g. the friendly ally's.
func (m *LoanManager) OfferLoan(key CreditorKey, amount float64) (*Offer, error) {
	policy, ok := policies[key]
	if !ok {
		return nil, fmt.Errorf("offer from %q: %w", key, ErrUnknownCreditor)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if m.pending != nil {
		return nil, ErrOfferPending
	}
	if err := m.admissionErr(); err != nil {
		return nil, err
	}
	offer := m.newOffer(policy, amount, false)
	m.pending = offer
	m.announce(offer)
	return offer, nil
}

func (m *LoanManager) newOffer(policy CreditorPolicy, amount float64, emergency bool) *Offer {
	// Build the terms from a throwaway Debt so the offer shows exactly
	// what acceptance will produce.
	terms := NewDebt(policy, amount, m.limits.TermTurns, m.state.TurnNumber())
	offer := &Offer{
		ID:            uuid.New(),
		Creditor:      policy.Key(),
		CreditorName:  policy.Name(),
		Amount:        terms.Principal,
		InterestRate:  terms.InterestRate,
		MaterialsOwed: terms.MaterialsOwed(),
		TurnsToRepay:  m.limits.TermTurns,
		Emergency:     emergency,
	}
	if pool := greetingsFor(policy.Key()); len(pool) > 0 {
		offer.Greeting = pool[m.rng.IntN(len(pool))]
	}
	return offer
}

func (m *LoanManager) announce(o *Offer) {
	m.log.Debug("loan offered",
		zap.String("creditor", string(o.Creditor)),
		zap.Float64("amount", o.Amount),
		zap.Int("owed", o.MaterialsOwed),
		zap.Bool("emergency", o.Emergency))
	m.bus.Emit(events.New(events.LoanAppeared, source,
		"creditor", string(o.Creditor),
		"creditor_name", o.CreditorName,
		"amount", o.Amount,
		"interest_rate", o.InterestRate,
		"materials_owed", o.MaterialsOwed,
		"turns", o.TurnsToRepay,
		"emergency", o.Emergency,
		"greeting", o.Greeting))
}

// PendingOffer returns a copy of the pending offer.
func (m *LoanManager) PendingOffer() (Offer, bool) {
	if m.pending == nil {
		return Offer{}, false
	}
	return *m.pending, true
}

// AcceptPendingOffer turns the pending offer into an active loan and credits
// the borrowed oxygen. An offer that can no longer be admitted is withdrawn.
func (m *LoanManager) AcceptPendingOffer() (*Debt, error) {
	offer := m.pending
	if offer == nil {
		return nil, ErrNoPendingOffer
	}
	m.pending = nil
	if err := m.admissionErr(); err != nil {
		m.log.Info("loan offer withdrawn", zap.String("creditor", string(offer.Creditor)), zap.Error(err))
		return nil, err
	}

	debt := NewDebt(policies[offer.Creditor], offer.Amount, offer.TurnsToRepay, m.state.TurnNumber())
	m.active = append(m.active, debt)
	m.state.UpdateOxygen(debt.Principal)

	m.log.Info("loan accepted",
		zap.Stringer("loan", debt.ID),
		zap.String("creditor", string(debt.Creditor())),
		zap.Float64("principal", debt.Principal),
		zap.Int("owed", debt.MaterialsOwed()))
	m.bus.Emit(events.New(events.LoanAccepted, source,
		"loan_id", debt.ID.String(),
		"creditor", string(debt.Creditor()),
		"creditor_name", debt.Policy.Name(),
		"amount", debt.Principal,
		"materials_owed", debt.MaterialsOwed(),
		"turns", debt.TurnsUntilDue()))
	return debt, nil
}

// RejectPendingOffer drops the pending offer.
func (m *LoanManager) RejectPendingOffer() bool {
	offer := m.pending
	if offer == nil {
		return false
	}
	m.pending = nil
	m.bus.Emit(events.New(events.LoanRejected, source,
		"creditor", string(offer.Creditor),
		"creditor_name", offer.CreditorName,
		"amount", offer.Amount))
	return true
}

// MakePayment pays materials toward the loan with the given id. Payments
// beyond the balance are not taken from the player.
func (m *LoanManager) MakePayment(id uuid.UUID, materials int) error {
	if materials <= 0 {
		return ErrInvalidAmount
	}
	idx := m.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("pay %s: %w", id, ErrUnknownLoan)
	}
	if materials > m.state.Materials() {
		return ErrInsufficientMaterials
	}

	debt := m.active[idx]
	pay := min(materials, debt.MaterialsOwed())
	if !m.state.ConsumeMaterials(pay) {
		return ErrInsufficientMaterials
	}
	paidOff := debt.MakePayment(pay)

	m.bus.Emit(events.New(events.LoanPayment, source,
		"loan_id", debt.ID.String(),
		"creditor", string(debt.Creditor()),
		"creditor_name", debt.Policy.Name(),
		"paid", pay,
		"remaining", debt.MaterialsOwed()))

	if paidOff {
		m.active = append(m.active[:idx:idx], m.active[idx+1:]...)
		m.history = append(m.history, debt)
		m.log.Info("loan paid off", zap.Stringer("loan", debt.ID), zap.String("creditor", string(debt.Creditor())))
		m.bus.Emit(events.New(events.LoanPaidOff, source,
			"loan_id", debt.ID.String(),
			"creditor", string(debt.Creditor()),
			"creditor_name", debt.Policy.Name()))
	}
	return nil
}

// PayMostUrgent pays the minimum payment, bounded by the materials on hand,
// on the loan due soonest. It returns the loan and the amount paid.
func (m *LoanManager) PayMostUrgent() (*Debt, int, error) {
	if len(m.active) == 0 {
		return nil, 0, ErrNoActiveLoans
	}
	urgent := m.active[0]
	for _, d := range m.active[1:] {
		if d.TurnsUntilDue() < urgent.TurnsUntilDue() {
			urgent = d
		}
	}
	amount := min(urgent.MinimumPayment(), m.state.Materials())
	if amount <= 0 {
		return urgent, 0, ErrInsufficientMaterials
	}
	if err := m.MakePayment(urgent.ID, amount); err != nil {
		return urgent, 0, err
	}
	return urgent, amount, nil
}

// ProcessTurn advances every active loan. A defaulted loan is penalized on
// every turn it stays defaulted, not just the first.
func (m *LoanManager) ProcessTurn() {
	for _, debt := range append([]*Debt(nil), m.active...) {
		wasDefaulted := debt.Defaulted()
		debt.AdvanceTurn()
		if !debt.Defaulted() {
			continue
		}

		kind := events.LoanOverdue
		if !wasDefaulted {
			kind = events.LoanDefaulted
			m.log.Warn("loan defaulted",
				zap.Stringer("loan", debt.ID),
				zap.String("creditor", string(debt.Creditor())),
				zap.Int("owed", debt.MaterialsOwed()))
		}
		m.bus.Emit(events.New(kind, source,
			"loan_id", debt.ID.String(),
			"creditor", string(debt.Creditor()),
			"creditor_name", debt.Policy.Name(),
			"materials_owed", debt.MaterialsOwed(),
			"turns_overdue", -debt.TurnsUntilDue()))

		m.applyPenalty(debt, debt.ApplyPenalty())
	}
}

func (m *LoanManager) applyPenalty(debt *Debt, effect PenaltyEffect) {
	if effect.IsZero() {
		return
	}
	applied := effect.Magnitude
	switch effect.Kind {
	case PenaltyMaterialTheft:
		stolen := min(int(effect.Magnitude), m.state.Materials())
		if stolen > 0 {
			m.state.ConsumeMaterials(stolen)
		}
		applied = float64(stolen)
	case PenaltyOxygenCapacity:
		m.state.ReduceMaxOxygen(effect.Magnitude)
	case PenaltyRepairSabotage:
		m.state.UpdateRepairProgress(-effect.Magnitude)
	case PenaltyNarrativeOnly:
		applied = 0
	}

	m.log.Debug("penalty applied",
		zap.String("kind", string(effect.Kind)),
		zap.String("creditor", string(effect.Creditor)),
		zap.Float64("applied", applied))
	m.bus.Emit(events.New(events.PenaltyApplied, source,
		"loan_id", debt.ID.String(),
		"kind", string(effect.Kind),
		"creditor", string(effect.Creditor),
		"creditor_name", debt.Policy.Name(),
		"magnitude", effect.Magnitude,
		"applied", applied))
}

func (m *LoanManager) indexOf(id uuid.UUID) int {
	for i, d := range m.active {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Loan returns the active loan with the given id.
func (m *LoanManager) Loan(id uuid.UUID) (*Debt, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.active[i], true
	}
	return nil, false
}

// ActiveLoans returns the active loans in the order they were taken.
func (m *LoanManager) ActiveLoans() []*Debt { return append([]*Debt(nil), m.active...) }

// History returns the paid-off loans.
func (m *LoanManager) History() []*Debt { return append([]*Debt(nil), m.history...) }

// DefaultedCount returns the number of active loans in default.
func (m *LoanManager) DefaultedCount() int {
	n := 0
	for _, d := range m.active {
		if d.Defaulted() {
			n++
		}
	}
	return n
}

// TotalDebt returns the materials owed across active loans.
func (m *LoanManager) TotalDebt() int {
	total := 0
	for _, d := range m.active {
		total += d.MaterialsOwed()
	}
	return total
}

// MinimumPaymentDue sums the suggested payments of the active loans.
func (m *LoanManager) MinimumPaymentDue() int {
	total := 0
	for _, d := range m.active {
		total += d.MinimumPayment()
	}
	return total
}

func (m *LoanManager) Summary() Summary {
	s := Summary{
		Active:     len(m.active),
		Defaulted:  m.DefaultedCount(),
		TotalOwed:  m.TotalDebt(),
		MinimumDue: m.MinimumPaymentDue(),
		PaidOff:    len(m.history),
	}
	for i, d := range m.active {
		if i == 0 || d.TurnsUntilDue() < s.NextDueIn {
			s.NextDueIn = d.TurnsUntilDue()
		}
	}
	return s
}
