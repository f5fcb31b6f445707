package game

import (
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/events"
)

// ResourceManager moves materials in and out of the ship's hold and
// announces it on the bus. The count itself lives on the GameState.
type ResourceManager struct {
	state *GameState
	bus   *events.Manager
	log   *zap.Logger
}

// NewResourceManager creates a resource manager over state.
func NewResourceManager(state *GameState, bus *events.Manager, log *zap.Logger) *ResourceManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResourceManager{state: state, bus: bus, log: log.Named("resources")}
}

// Collect stores materials brought back from a run. Returns amount actually
// added, which is less than n when the hold is nearly full. A failed run
// still keeps its scraps but is announced as materials_gained_fail.
func (r *ResourceManager) Collect(n int, success bool) int {
	added := r.state.AddMaterials(n)
	kind := events.MaterialsGained
	if !success {
		kind = events.MaterialsGainedFail
	}
	r.bus.Emit(events.New(kind, "resources",
		"requested", n,
		"amount", added,
		"total", r.state.Materials()))
	if added < n {
		r.log.Debug("hold full", zap.Int("requested", n), zap.Int("added", added))
	}
	return added
}

// Consume takes n materials out of the hold, or nothing if there are fewer.
func (r *ResourceManager) Consume(n int) bool {
	if n <= 0 {
		return n == 0
	}
	if !r.state.ConsumeMaterials(n) {
		return false
	}
	r.bus.Emit(events.New(events.MaterialsConsumed, "resources",
		"amount", n,
		"total", r.state.Materials()))
	return true
}

// Count returns the materials in the hold.
func (r *ResourceManager) Count() int { return r.state.Materials() }

// Free returns the space left in the hold.
func (r *ResourceManager) Free() int { return r.state.MaxMaterials() - r.state.Materials() }
