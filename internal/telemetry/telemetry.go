// Package telemetry turns bus events into prometheus metrics and can serve
// them on /metrics.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/events"
	"github.com/astrodebt/astrodebt/internal/game"
)

const namespace = "astrodebt"

// Recorder owns a private registry so several sessions (and tests) never
// collide on the global one.
type Recorder struct {
	registry *prometheus.Registry
	bus      *events.Manager
	log      *zap.Logger
	sub      events.SubscriptionID

	turns     prometheus.Counter
	loans     *prometheus.CounterVec
	penalties *prometheus.CounterVec
	minigames *prometheus.CounterVec
	endings   *prometheus.CounterVec

	oxygen    prometheus.Gauge
	materials prometheus.Gauge
	repair    prometheus.Gauge
	debt      prometheus.Gauge
}

// New registers the collectors and subscribes to every event on bus.
func New(bus *events.Manager, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		bus:      bus,
		log:      log,
		turns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns advanced across all sessions.",
		}),
		loans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_events_total",
			Help:      "Loan lifecycle events, partitioned by creditor and event.",
		}, []string{"creditor", "event"}),
		penalties: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "penalties_total",
			Help:      "Default penalties applied, partitioned by kind.",
		}, []string{"kind"}),
		minigames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minigames_total",
			Help:      "Finished minigames, partitioned by variant and outcome.",
		}, []string{"minigame", "outcome"}),
		endings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Ended sessions, partitioned by result.",
		}, []string{"result"}),
		oxygen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "oxygen",
			Help:      "Current oxygen.",
		}),
		materials: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "materials",
			Help:      "Current materials on hand.",
		}),
		repair: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "repair_progress",
			Help:      "Current ship repair progress in percent.",
		}),
		debt: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "debt_materials",
			Help:      "Materials owed across active loans.",
		}),
	}
	r.sub = bus.SubscribeAll(r.handle)
	return r
}

// Registry exposes the collectors, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Close stops listening to the bus.
func (r *Recorder) Close() { r.bus.Unsubscribe(r.sub) }

func (r *Recorder) handle(e events.Event) {
	switch e.Kind {
	case events.TurnStarted:
		r.turns.Inc()
	case events.LoanAppeared, events.LoanAccepted, events.LoanRejected,
		events.LoanPaidOff, events.LoanDefaulted:
		r.loans.WithLabelValues(e.String("creditor"), string(e.Kind)).Inc()
	case events.PenaltyApplied:
		r.penalties.WithLabelValues(e.String("kind")).Inc()
	case events.MinigameCompleted:
		r.minigames.WithLabelValues(e.String("minigame"), "success").Inc()
	case events.MinigameFailed:
		r.minigames.WithLabelValues(e.String("minigame"), "failure").Inc()
	case events.MinigameAbandoned:
		r.minigames.WithLabelValues(e.String("minigame"), "abandoned").Inc()
	case events.GameOver:
		r.endings.WithLabelValues(e.String("reason")).Inc()
	case events.Victory:
		r.endings.WithLabelValues("victory").Inc()
	case events.OxygenChanged:
		r.oxygen.Set(e.Float("new"))
	case events.MaterialsGained, events.MaterialsGainedFail, events.MaterialsConsumed:
		r.materials.Set(float64(e.Int("total")))
	case events.RepairProgressChanged:
		r.repair.Set(e.Float("new"))
	}
}

// Observe syncs the gauges with a state snapshot. Debt has no event of its
// own, so the front end calls this once per frame.
func (r *Recorder) Observe(s game.Snapshot) {
	r.oxygen.Set(s.Oxygen)
	r.materials.Set(float64(s.Materials))
	r.repair.Set(s.RepairProgress)
	r.debt.Set(float64(s.TotalDebt))
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics and /health on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	r.log.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
