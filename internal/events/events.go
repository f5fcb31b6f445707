// Package events is the synchronous pub/sub bus between the game systems and
// their UI consumers (HUD log, narrator, telemetry).
package events

import (
	"fmt"

	"go.uber.org/zap"
)

// Kind identifies the category of a game event.
type Kind string

const (
	OxygenChanged         Kind = "oxygen_changed"
	MaterialsGained       Kind = "materials_gained"
	MaterialsGainedFail   Kind = "materials_gained_fail"
	MaterialsConsumed     Kind = "materials_consumed"
	RepairProgressChanged Kind = "repair_progress_changed"
	RepairCompleted       Kind = "repair_completed"

	LoanAppeared   Kind = "loan_appeared"
	LoanAccepted   Kind = "loan_accepted"
	LoanRejected   Kind = "loan_rejected"
	LoanPayment    Kind = "loan_payment"
	LoanPaidOff    Kind = "loan_paid_off"
	LoanOverdue    Kind = "loan_overdue"
	LoanDefaulted  Kind = "loan_defaulted"
	PenaltyApplied Kind = "penalty_applied"

	MinigameStarted   Kind = "minigame_started"
	MinigameCompleted Kind = "minigame_completed"
	MinigameFailed    Kind = "minigame_failed"
	MinigameAbandoned Kind = "minigame_abandoned"

	TurnStarted         Kind = "turn_started"
	TurnEnded           Kind = "turn_ended"
	OxygenLow           Kind = "oxygen_low"
	MaterialsDepleted   Kind = "materials_depleted"
	OxygenRescueOffered Kind = "oxygen_rescue_offered"

	GameOver     Kind = "game_over"
	Victory      Kind = "victory"
	PhaseChanged Kind = "phase_changed"

	DialogueStarted Kind = "dialogue_started"
	DialogueEnded   Kind = "dialogue_ended"
	Notification    Kind = "notification"
)

// Event is one notification on the bus.
type Event struct {
	Kind   Kind
	Data   map[string]any
	Source string
}

// New builds an event from alternating key/value pairs.
func New(kind Kind, source string, kv ...any) Event {
	e := Event{Kind: kind, Source: source, Data: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		e.Data[key] = kv[i+1]
	}
	return e
}

// Float returns a numeric payload value as float64.
func (e Event) Float(key string) float64 {
	switch v := e.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Int returns a numeric payload value as int.
func (e Event) Int(key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// String returns a payload value formatted as a string.
func (e Event) String(key string) string {
	v, ok := e.Data[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a boolean payload value.
func (e Event) Bool(key string) bool {
	b, _ := e.Data[key].(bool)
	return b
}

// Handler receives events.
type Handler func(Event)

// SubscriptionID is returned by Subscribe and used to Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

const defaultHistorySize = 100

// Manager dispatches events to subscribers. It is not safe for concurrent
// use; the frame loop is its only caller.
type Manager struct {
	subscribers map[Kind][]subscription
	wildcard    []subscription
	queue       []Event
	history     []Event
	maxHistory  int
	nextID      SubscriptionID
	log         *zap.Logger
}

// NewManager creates an empty bus.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		subscribers: make(map[Kind][]subscription),
		maxHistory:  defaultHistorySize,
		log:         log,
	}
}

// Subscribe registers h for one event kind.
func (m *Manager) Subscribe(kind Kind, h Handler) SubscriptionID {
	m.nextID++
	m.subscribers[kind] = append(m.subscribers[kind], subscription{id: m.nextID, handler: h})
	return m.nextID
}

// SubscribeAll registers h for every event kind.
func (m *Manager) SubscribeAll(h Handler) SubscriptionID {
	m.nextID++
	m.wildcard = append(m.wildcard, subscription{id: m.nextID, handler: h})
	return m.nextID
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(id SubscriptionID) {
	m.wildcard = without(m.wildcard, id)
	for kind, subs := range m.subscribers {
		m.subscribers[kind] = without(subs, id)
	}
}

// without returns a fresh slice so snapshots taken by an in-flight Emit
// keep their contents.
func without(subs []subscription, id SubscriptionID) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Emit delivers e to its subscribers immediately and records it in history.
// Handlers may subscribe or unsubscribe during delivery; changes apply from
// the next Emit.
func (m *Manager) Emit(e Event) {
	m.record(e)

	targeted := m.subscribers[e.Kind]
	snapshot := make([]subscription, 0, len(targeted)+len(m.wildcard))
	snapshot = append(snapshot, targeted...)
	snapshot = append(snapshot, m.wildcard...)

	for _, s := range snapshot {
		m.deliver(s, e)
	}
}

func (m *Manager) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("event subscriber panicked",
				zap.String("kind", string(e.Kind)),
				zap.Uint64("subscription", uint64(s.id)),
				zap.Any("panic", r))
		}
	}()
	s.handler(e)
}

func (m *Manager) record(e Event) {
	m.history = append(m.history, e)
	if over := len(m.history) - m.maxHistory; over > 0 {
		m.history = append(m.history[:0:0], m.history[over:]...)
	}
}

// Queue defers e until the next ProcessQueue.
func (m *Manager) Queue(e Event) {
	m.queue = append(m.queue, e)
}

// ProcessQueue emits queued events in FIFO order. Events queued by handlers
// during processing wait for the next call.
func (m *Manager) ProcessQueue() int {
	pending := m.queue
	m.queue = nil
	for _, e := range pending {
		m.Emit(e)
	}
	return len(pending)
}

// Pending returns the number of queued events.
func (m *Manager) Pending() int { return len(m.queue) }

// History returns recorded events, optionally filtered by kind.
func (m *Manager) History(kinds ...Kind) []Event {
	if len(kinds) == 0 {
		return append([]Event(nil), m.history...)
	}
	var out []Event
	for _, e := range m.history {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// ClearHistory drops recorded events.
func (m *Manager) ClearHistory() {
	m.history = nil
}

// Reset drops queued events and history. Subscriptions survive, so UI
// consumers stay attached across a game restart.
func (m *Manager) Reset() {
	m.queue = nil
	m.history = nil
}
