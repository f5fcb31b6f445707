package game

import (
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
)

// RepairOutcome describes one processed repair attempt.
type RepairOutcome struct {
	MaterialsUsed  int
	ProgressGained float64
	Progress       float64
	IsComplete     bool
}

// RepairSystem converts materials into hull repair. A clean repair uses the
// minimum materials and makes progress; a botched one burns the maximum and
// makes none.
type RepairSystem struct {
	state     *GameState
	resources *ResourceManager
	cfg       config.Repair
	bus       *events.Manager
	log       *zap.Logger
	completed bool
}

// NewRepairSystem creates a repair system drawing materials through resources.
func NewRepairSystem(state *GameState, resources *ResourceManager, cfg config.Repair, bus *events.Manager, log *zap.Logger) *RepairSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &RepairSystem{
		state:     state,
		resources: resources,
		cfg:       cfg,
		bus:       bus,
		log:       log.Named("repair"),
	}
}

// CanStartRepair reports whether the player has the oxygen and materials
// for an attempt and the ship still needs work.
func (r *RepairSystem) CanStartRepair() bool {
	return r.state.Oxygen() >= r.cfg.OxygenCost &&
		r.state.Materials() >= r.cfg.MaterialsCostMin &&
		r.state.RepairProgress() < 100
}

// CostFor returns the materials an attempt with the given outcome consumes.
func (r *RepairSystem) CostFor(success bool) int {
	if success {
		return r.cfg.MaterialsCostMin
	}
	return r.cfg.MaterialsCostMax
}

// ProcessRepairAttempt applies the outcome of a repair minigame. It returns
// false, changing nothing, when the hold cannot cover the cost.
func (r *RepairSystem) ProcessRepairAttempt(success bool) (RepairOutcome, bool) {
	cost := r.CostFor(success)
	gain := 0.0
	if success {
		gain = r.cfg.ProgressPerSuccess
	}

	if r.state.Materials() < cost {
		r.log.Debug("repair rejected",
			zap.Bool("success", success),
			zap.Int("cost", cost),
			zap.Int("materials", r.state.Materials()))
		return RepairOutcome{Progress: r.state.RepairProgress(), IsComplete: r.isComplete()}, false
	}

	before := r.state.RepairProgress()
	r.resources.Consume(cost)
	r.state.UpdateRepairProgress(gain)
	after := r.state.RepairProgress()

	out := RepairOutcome{
		MaterialsUsed:  cost,
		ProgressGained: after - before,
		Progress:       after,
		IsComplete:     r.isComplete(),
	}
	if out.IsComplete && !r.completed {
		r.completed = true
		r.log.Info("repairs complete", zap.Int("turn", r.state.TurnNumber()))
		r.bus.Emit(events.New(events.RepairCompleted, "repair", "progress", after))
	}
	return out, true
}

// Progress returns the current repair percentage.
func (r *RepairSystem) Progress() float64 { return r.state.RepairProgress() }

func (r *RepairSystem) isComplete() bool {
	return r.state.RepairProgress() >= r.state.VictoryThreshold()
}
