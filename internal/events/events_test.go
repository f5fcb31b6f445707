package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmitDeliversToKindAndWildcard(t *testing.T) {
	m := NewManager(zap.NewNop())
	var got []Kind
	m.Subscribe(LoanAccepted, func(e Event) { got = append(got, e.Kind) })
	m.SubscribeAll(func(e Event) { got = append(got, "all:"+e.Kind) })

	m.Emit(New(LoanAccepted, "test"))
	m.Emit(New(Victory, "test"))

	assert.Equal(t, []Kind{LoanAccepted, "all:" + LoanAccepted, "all:" + Victory}, got)
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	m := NewManager(zap.NewNop())
	calls := 0
	m.Subscribe(GameOver, func(Event) { panic("hud exploded") })
	m.Subscribe(GameOver, func(Event) { calls++ })

	require.NotPanics(t, func() { m.Emit(New(GameOver, "test")) })
	assert.Equal(t, 1, calls)
}

func TestSubscriberMutatingListDuringEmit(t *testing.T) {
	m := NewManager(zap.NewNop())
	var order []string
	var selfID SubscriptionID
	selfID = m.Subscribe(TurnStarted, func(Event) {
		order = append(order, "self")
		m.Unsubscribe(selfID)
		m.Subscribe(TurnStarted, func(Event) { order = append(order, "late") })
	})
	m.Subscribe(TurnStarted, func(Event) { order = append(order, "second") })

	m.Emit(New(TurnStarted, "test"))
	assert.Equal(t, []string{"self", "second"}, order)

	order = nil
	m.Emit(New(TurnStarted, "test"))
	assert.Equal(t, []string{"second", "late"}, order)
}

func TestQueueIsFIFOAndDeferred(t *testing.T) {
	m := NewManager(nil)
	var seen []int
	m.Subscribe(Notification, func(e Event) {
		seen = append(seen, e.Int("n"))
		if e.Int("n") == 1 {
			m.Queue(New(Notification, "test", "n", 3))
		}
	})

	m.Queue(New(Notification, "test", "n", 1))
	m.Queue(New(Notification, "test", "n", 2))
	assert.Empty(t, seen)
	assert.Equal(t, 2, m.Pending())

	assert.Equal(t, 2, m.ProcessQueue())
	assert.Equal(t, []int{1, 2}, seen)

	assert.Equal(t, 1, m.ProcessQueue())
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestHistoryIsBoundedAndFilterable(t *testing.T) {
	m := NewManager(nil)
	for i := 0; i < 150; i++ {
		m.Emit(New(OxygenChanged, "test", "n", i))
	}
	m.Emit(New(Victory, "test"))

	all := m.History()
	require.Len(t, all, defaultHistorySize)
	assert.Equal(t, 51, all[0].Int("n"))
	assert.Len(t, m.History(Victory), 1)

	m.ClearHistory()
	assert.Empty(t, m.History())
}

func TestEventAccessors(t *testing.T) {
	e := New(LoanPayment, "finance", "paid", 4, "owed", 11.5, "creditor", "K'tar", "done", true, 7, "odd")
	assert.Equal(t, 4, e.Int("paid"))
	assert.Equal(t, 4.0, e.Float("paid"))
	assert.Equal(t, 11, e.Int("owed"))
	assert.Equal(t, "K'tar", e.String("creditor"))
	assert.Equal(t, "4", e.String("paid"))
	assert.True(t, e.Bool("done"))
	assert.Equal(t, "odd", e.String("7"))
	assert.Equal(t, "", e.String("missing"))
}

func TestResetKeepsSubscribers(t *testing.T) {
	m := NewManager(nil)
	calls := 0
	m.Subscribe(Victory, func(Event) { calls++ })
	m.Queue(New(Victory, "test"))
	m.Emit(New(Victory, "test"))

	m.Reset()
	assert.Zero(t, m.Pending())
	assert.Empty(t, m.History())

	m.Emit(New(Victory, "test"))
	assert.Equal(t, 2, calls)
}
