// Package metrics exposes the simulation server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the simulation loop and
// transport update. One instance is owned by the process and injected into
// the state machine and transport at construction time.
type Metrics struct {
	PhysicsStepDuration     prometheus.Histogram
	SerializationDuration   prometheus.Histogram
	CacheUpdateDuration     prometheus.Histogram
	NetworkSendDuration     prometheus.Histogram
	BroadcastsTotal         prometheus.Counter
	PhysicsStepsTotal       prometheus.Counter
	SpiralOfDeathEvents     prometheus.Counter
	QueueDepth              prometheus.Gauge
	ActiveConnections       prometheus.Gauge
	SimulationFPS           prometheus.Gauge
	ParseErrorsTotal        prometheus.Counter
	CommandsProcessedTotal  *prometheus.CounterVec
}

// New constructs a Metrics value with every collector registered.
func New() *Metrics {
	m := &Metrics{
		PhysicsStepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellsim_physics_step_duration_seconds",
			Help:    "Duration of a single fixed-timestep physics advance call",
			Buckets: prometheus.DefBuckets,
		}),
		SerializationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellsim_serialization_duration_seconds",
			Help:    "Duration of encoding a world snapshot to the binary wire format",
			Buckets: prometheus.DefBuckets,
		}),
		CacheUpdateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellsim_cache_update_duration_seconds",
			Help:    "Duration of copying world.data into the cached snapshot",
			Buckets: prometheus.DefBuckets,
		}),
		NetworkSendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellsim_network_send_duration_seconds",
			Help:    "Duration of a broadcast_binary call across all connected clients",
			Buckets: prometheus.DefBuckets,
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_broadcasts_total",
			Help: "Total number of binary world-data frames broadcast",
		}),
		PhysicsStepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_physics_steps_total",
			Help: "Total number of fixed-timestep physics steps advanced",
		}),
		SpiralOfDeathEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_spiral_of_death_total",
			Help: "Total number of ticks that hit the steps-per-frame catch-up bound",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellsim_event_queue_depth",
			Help: "Number of events currently queued for the simulation thread",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellsim_active_connections",
			Help: "Number of currently connected websocket clients",
		}),
		SimulationFPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellsim_simulation_fps",
			Help: "Observed frame rate: simulation ticks that advanced physics, per second",
		}),
		ParseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_parse_errors_total",
			Help: "Total number of command frames that failed to parse",
		}),
		CommandsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellsim_commands_processed_total",
			Help: "Total number of commands processed, by command name and outcome",
		}, []string{"command", "outcome"}),
	}

	m.Register(prometheus.DefaultRegisterer)
	return m
}

// Register registers every collector with reg. Exposed separately so tests
// can use a private registry and avoid duplicate-registration panics.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.PhysicsStepDuration,
		m.SerializationDuration,
		m.CacheUpdateDuration,
		m.NetworkSendDuration,
		m.BroadcastsTotal,
		m.PhysicsStepsTotal,
		m.SpiralOfDeathEvents,
		m.QueueDepth,
		m.ActiveConnections,
		m.SimulationFPS,
		m.ParseErrorsTotal,
		m.CommandsProcessedTotal,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
