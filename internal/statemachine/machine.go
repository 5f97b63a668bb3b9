// Package statemachine implements the lifecycle state machine that
// sequences Startup -> Idle -> SimRunning <-> SimPaused -> Shutdown and
// dispatches the command variant to per-state handlers: a single-threaded
// main loop draining a synchronized event queue, with OnEnter/OnExit hooks
// fired only when the concrete state type changes.
package statemachine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aortez/cellsim-server/internal/apperrors"
	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
	"github.com/aortez/cellsim-server/internal/metrics"
	"github.com/aortez/cellsim-server/internal/queue"
	"github.com/aortez/cellsim-server/internal/telemetry"
)

// FixedDT is the constant fixed-timestep physics step quantum.
const FixedDT = 16 * time.Millisecond

// Broadcaster is transport's binary-frame push surface, injected so the
// state machine never knows the wire format. Broadcast reports the time
// spent encoding so the simulation loop can fold it into perf stats.
type Broadcaster interface {
	Broadcast(data *cellworld.WorldData) (encodeDuration time.Duration)
	HasClients() bool
}

// noopBroadcaster lets Machine run (e.g. in tests) with no transport wired.
type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(*cellworld.WorldData) time.Duration { return 0 }
func (noopBroadcaster) HasClients() bool { return false }

// State is implemented by every lifecycle state. HandleEvent returns the
// next state and whether this state recognized the event's concrete type;
// OnEnter/OnExit fire only when the concrete type changes across a
// transition.
type State interface {
	HandleEvent(e event.Event, m *Machine) (State, bool)
	OnEnter(m *Machine)
	OnExit(m *Machine)
	String() string
}

// baseState supplies no-op OnEnter/OnExit so concrete states only override
// what they need.
type baseState struct{}

func (baseState) OnEnter(*Machine) {}
func (baseState) OnExit(*Machine)  {}

// Machine owns the state variant and the event queue feeding it.
type Machine struct {
	q           *queue.Queue
	registry    *cellworld.Registry
	metrics     *metrics.Metrics
	telemetry   *telemetry.Publisher
	broadcaster Broadcaster

	defaultWidth    int
	defaultHeight   int
	defaultScenario string

	mu    sync.Mutex
	state State

	snapshot atomic.Pointer[cellworld.WorldData]

	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithBroadcaster injects the transport's binary-frame broadcaster.
func WithBroadcaster(b Broadcaster) Option {
	return func(m *Machine) { m.broadcaster = b }
}

// WithTelemetry injects an optional lifecycle telemetry publisher.
func WithTelemetry(t *telemetry.Publisher) Option {
	return func(m *Machine) { m.telemetry = t }
}

// WithDefaultWorldSize sets the dimensions used when SimRunning lazily
// constructs a World on the Idle->SimRunning transition.
func WithDefaultWorldSize(width, height int) Option {
	return func(m *Machine) { m.defaultWidth, m.defaultHeight = width, height }
}

// WithDefaultScenario sets the scenario id applied when SimRun doesn't
// specify one.
func WithDefaultScenario(id string) Option {
	return func(m *Machine) { m.defaultScenario = id }
}

// New constructs a Machine in Startup, wired to registry/metrics and ready
// for MainLoop to be run on its own goroutine.
func New(registry *cellworld.Registry, m *metrics.Metrics, opts ...Option) *Machine {
	machine := &Machine{
		q:               queue.New(),
		registry:        registry,
		metrics:         m,
		broadcaster:     noopBroadcaster{},
		defaultWidth:    64,
		defaultHeight:   64,
		defaultScenario: "sandbox",
		state:           &Startup{},
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(machine)
	}
	return machine
}

// QueueEvent is the thread-safe forwarder used by transport connections to
// submit commands.
func (m *Machine) QueueEvent(e event.Event) {
	if m.metrics != nil {
		m.metrics.QueueDepth.Set(float64(m.q.Len() + 1))
	}
	m.q.Push(e)
}

// Snapshot returns the most recently cached immutable world snapshot, or
// nil if the simulation has never produced one (Startup/Idle).
func (m *Machine) Snapshot() *cellworld.WorldData {
	return m.snapshot.Load()
}

// SetBroadcaster wires the transport broadcaster after construction, for
// callers where the broadcaster's own constructor needs the Machine (e.g.
// a Hub that dispatches to it). Must be called before MainLoop starts.
func (m *Machine) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// CurrentStateName reports the current state's name, for diagnostics.
func (m *Machine) CurrentStateName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.String()
}

// Done reports whether the machine has reached Shutdown and MainLoop has
// exited (or is about to).
func (m *Machine) Done() <-chan struct{} { return m.done }

// MainLoop runs on its own goroutine: pushes InitComplete once, then loops
// draining pending events, issuing a synthetic AdvanceTick when SimRunning,
// and sleeping tickInterval as a pacing primitive (not the physics
// timestep itself).
func (m *Machine) MainLoop(tickInterval time.Duration) {
	m.QueueEvent(event.InitComplete{})
	for {
		select {
		case <-m.done:
			return
		default:
		}

		for _, e := range m.q.DrainAll() {
			m.HandleEvent(e)
		}

		m.mu.Lock()
		_, running := m.state.(*SimRunning)
		m.mu.Unlock()
		if running {
			m.HandleEvent(event.AdvanceTick{})
		}

		select {
		case <-m.done:
			return
		case <-time.After(tickInterval):
		}
	}
}

// HandleEvent dispatches e with a two-lookup rule: the current state's
// handler first, then a global handler, else a silent debug-logged drop.
func (m *Machine) HandleEvent(e event.Event) {
	m.mu.Lock()
	cur := m.state
	next, handled := cur.HandleEvent(e, m)
	if handled {
		m.transitionLocked(cur, next)
		m.mu.Unlock()
		m.recordCommandProcessed(e, "handled")
		return
	}
	m.mu.Unlock()

	if m.handleGlobal(e) {
		m.recordCommandProcessed(e, "handled")
		return
	}
	m.recordCommandProcessed(e, "dropped")
	log.Debug().Str("event", e.Name()).Msg("dropped event with no handler")
}

// recordCommandProcessed increments the per-command/outcome counter used
// by the /metrics command-throughput breakdown.
func (m *Machine) recordCommandProcessed(e event.Event, outcome string) {
	if m.metrics != nil {
		m.metrics.CommandsProcessedTotal.WithLabelValues(e.Name(), outcome).Inc()
	}
}

// handleGlobal implements the global handlers that apply regardless of
// current state: QuitApplication/Exit always shut down; ScenarioList and
// PerfStatsGet fall through to a benign default outside SimRunning.
func (m *Machine) handleGlobal(e event.Event) bool {
	switch ev := e.(type) {
	case event.QuitApplication:
		m.mu.Lock()
		cur := m.state
		m.transitionLocked(cur, &Shutdown{})
		m.mu.Unlock()
		m.stopOnce.Do(func() { close(m.done) })
		return true

	case event.Exit:
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		m.QueueEvent(event.QuitApplication{})
		return true

	case event.ScenarioList:
		if ev.Respond != nil {
			ev.Respond(event.OK(event.ScenarioListOk{Scenarios: m.registry.List()}))
		}
		return true

	case event.PerfStatsGet:
		if ev.Respond != nil {
			ev.Respond(event.OK(event.PerfStats{}))
		}
		return true
	}
	return false
}

// transitionLocked assigns next as the current state, firing OnExit/OnEnter
// only when the concrete type differs from cur. Caller must hold m.mu.
func (m *Machine) transitionLocked(cur, next State) {
	if sameType(cur, next) {
		m.state = next
		return
	}
	cur.OnExit(m)
	next.OnEnter(m)
	m.state = next
}

func sameType(a, b State) bool {
	return typeName(a) == typeName(b)
}

func typeName(s State) string {
	switch s.(type) {
	case *Startup:
		return "startup"
	case *Idle:
		return "idle"
	case *SimRunning:
		return "sim_running"
	case *SimPaused:
		return "sim_paused"
	case *Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// stateErrorRespond fails respond with a typed State-class error, used by
// states that reject a command referring to a world they don't own.
func stateErrorRespond[T any](respond func(event.Result[T]), msg string) {
	if respond != nil {
		respond(event.Fail[T](apperrors.NewState("%s", msg)))
	}
}
