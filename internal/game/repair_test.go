package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
)

func newTestRepair(t *testing.T, materials int) (*RepairSystem, *GameState, *events.Manager) {
	t.Helper()
	s, bus := newTestState(t, nil)
	s.AddMaterials(materials)
	res := NewResourceManager(s, bus, zap.NewNop())
	return NewRepairSystem(s, res, config.Default().Repair, bus, zap.NewNop()), s, bus
}

func TestCollectAnnouncesOutcome(t *testing.T) {
	s, bus := newTestState(t, nil)
	res := NewResourceManager(s, bus, zap.NewNop())

	assert.Equal(t, 8, res.Collect(8, true))
	assert.Equal(t, 2, res.Collect(2, false))
	assert.Equal(t, 10, res.Count())

	gained := bus.History(events.MaterialsGained)
	require.Len(t, gained, 1)
	assert.Equal(t, 8, gained[0].Int("amount"))
	failed := bus.History(events.MaterialsGainedFail)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Int("amount"))
	assert.Equal(t, 10, failed[0].Int("total"))
}

func TestCollectNearCap(t *testing.T) {
	s, bus := newTestState(t, nil)
	res := NewResourceManager(s, bus, zap.NewNop())
	res.Collect(97, true)
	assert.Equal(t, 3, res.Free())
	assert.Equal(t, 3, res.Collect(10, true))
	assert.Zero(t, res.Free())
}

func TestConsume(t *testing.T) {
	s, bus := newTestState(t, nil)
	res := NewResourceManager(s, bus, zap.NewNop())
	res.Collect(6, true)

	assert.False(t, res.Consume(7))
	assert.Empty(t, bus.History(events.MaterialsConsumed))
	assert.True(t, res.Consume(6))
	assert.True(t, res.Consume(0))
	assert.False(t, res.Consume(-1))
	assert.Len(t, bus.History(events.MaterialsConsumed), 1)
}

func TestCanStartRepair(t *testing.T) {
	r, s, _ := newTestRepair(t, 4)
	assert.False(t, r.CanStartRepair(), "needs 5 materials")

	s.AddMaterials(1)
	assert.True(t, r.CanStartRepair())

	s.UpdateOxygen(-97.5)
	assert.False(t, r.CanStartRepair(), "needs 3 oxygen")
}

func TestCanStartRepairFalseWhenDone(t *testing.T) {
	r, s, _ := newTestRepair(t, 50)
	s.UpdateRepairProgress(100)
	assert.False(t, r.CanStartRepair())
}

func TestSuccessfulRepairIsCheap(t *testing.T) {
	r, s, bus := newTestRepair(t, 10)

	out, ok := r.ProcessRepairAttempt(true)

	require.True(t, ok)
	assert.Equal(t, 5, s.Materials())
	assert.Equal(t, 15.0, s.RepairProgress())
	assert.Equal(t, RepairOutcome{MaterialsUsed: 5, ProgressGained: 15, Progress: 15, IsComplete: false}, out)
	assert.Len(t, bus.History(events.MaterialsConsumed), 1)
	assert.Len(t, bus.History(events.RepairProgressChanged), 1)
}

func TestFailedRepairIsExpensive(t *testing.T) {
	r, s, _ := newTestRepair(t, 12)

	out, ok := r.ProcessRepairAttempt(false)

	require.True(t, ok)
	assert.Equal(t, 2, s.Materials())
	assert.Zero(t, s.RepairProgress())
	assert.Equal(t, 10, out.MaterialsUsed)
	assert.Zero(t, out.ProgressGained)
}

func TestRepairRejectedWithoutMaterials(t *testing.T) {
	r, s, bus := newTestRepair(t, 7)

	_, ok := r.ProcessRepairAttempt(false)

	assert.False(t, ok)
	assert.Equal(t, 7, s.Materials())
	assert.Zero(t, s.RepairProgress())
	assert.Empty(t, bus.History(events.MaterialsConsumed))
}

func TestRepairCompletionFiresOnce(t *testing.T) {
	r, s, bus := newTestRepair(t, 100)
	s.UpdateRepairProgress(90)

	out, ok := r.ProcessRepairAttempt(true)
	require.True(t, ok)
	assert.True(t, out.IsComplete)
	assert.Equal(t, 100.0, out.Progress)
	assert.Equal(t, 10.0, out.ProgressGained)
	assert.True(t, s.Victory())

	_, _ = r.ProcessRepairAttempt(true)
	assert.Len(t, bus.History(events.RepairCompleted), 1)
	assert.Len(t, bus.History(events.Victory), 1)
}
