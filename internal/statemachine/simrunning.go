package statemachine

import (
	"time"

	"github.com/aortez/cellsim-server/internal/apperrors"
	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
)

// SimRunning is the only state that owns a World. It implements the
// fixed-timestep physics pacing loop, per-command mutations, and frame
// broadcasting with backpressure.
type SimRunning struct {
	baseState

	world *cellworld.World

	stepCount   int
	targetSteps int
	timestepS   float64
	scenarioID  string

	physicsAccumulator  time.Duration
	lastPhysicsTime     time.Time
	hasLastPhysicsTime  bool
	lastFrameTime       time.Time
	fps                 float64
	uiReadyForNextFrame bool

	history *cellworld.History

	broadcastsTotal     uint64
	spiralOfDeathEvents uint64

	// Per-run duration accumulators feeding perf_stats_get averages.
	stepsSampled     uint64
	cacheUpdates     uint64
	physicsTimeTotal time.Duration
	cacheTimeTotal   time.Duration
	encodeTimeTotal  time.Duration
	sendTimeTotal    time.Duration
}

func (s *SimRunning) String() string { return "sim_running" }

// OnEnter lazily constructs the World only if one was never assigned (the
// Idle->SimRunning path); a Resume from SimPaused preserves the existing
// World value entirely.
func (s *SimRunning) OnEnter(m *Machine) {
	if s.history == nil {
		s.history = cellworld.NewHistory()
	}
	if s.world != nil {
		return
	}
	s.world = cellworld.New(m.defaultWidth, m.defaultHeight)

	id := s.scenarioID
	if id == "" {
		id = m.defaultScenario
	}
	gen, err := m.registry.Get(id)
	if err != nil {
		gen, _ = m.registry.Get(m.defaultScenario)
		id = m.defaultScenario
	}
	s.scenarioID = id
	s.world.SetScenario(id, nil, gen)
	s.world.Setup()

	if m.telemetry != nil {
		m.telemetry.Publish("sim_started", id)
	}
}

func (s *SimRunning) HandleEvent(e event.Event, m *Machine) (State, bool) {
	switch ev := e.(type) {
	case event.AdvanceTick:
		return s.advanceTick(m)

	case event.Pause:
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return &SimPaused{previous: s}, true

	case event.Resume:
		stateErrorRespond(ev.Respond, "simulation is already running")
		return s, true

	case event.SimRun:
		if ev.Respond != nil {
			ev.Respond(event.Fail[event.SimRunOk](apperrors.ErrAlreadyRunning))
		}
		return s, true

	case event.Reset:
		s.reset()
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s, true

	case event.FrameReady:
		s.uiReadyForNextFrame = true
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s, true
	}

	if s.handleWorldCommand(e, m) {
		return s, true
	}
	return s, false
}

// reset re-seeds the world from its bound scenario and zeroes the run
// counters.
func (s *SimRunning) reset() {
	s.world.Clear()
	s.world.Setup()
	s.stepCount = 0
	s.hasLastPhysicsTime = false
	s.history.Clear()
}

// handleWorldCommand dispatches every command addressed at the World
// itself. SimRunning and SimPaused share it, so a paused simulation still
// answers queries and accepts mutations; only pacing differs between the
// two states. Returns false for events it does not recognize.
func (s *SimRunning) handleWorldCommand(e event.Event, m *Machine) bool {
	switch ev := e.(type) {
	case event.StateGet:
		data := m.Snapshot()
		if data == nil {
			data = s.world.Data()
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(data))
		}
		return true

	case event.CellGet:
		cd, ok := s.world.CellDataAt(ev.X, ev.Y)
		if !ok {
			if ev.Respond != nil {
				ev.Respond(event.Fail[event.CellGetOk](apperrors.NewArgument("coordinate (%d,%d) out of range", ev.X, ev.Y)))
			}
			return true
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(event.CellGetOk{Cell: cd}))
		}
		return true

	case event.CellSet:
		mat, ok := cellworld.ParseMaterial(ev.Material)
		if !ok {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewArgument("unknown material %q", ev.Material)))
			}
			return true
		}
		if ev.Fill < 0 || ev.Fill > 1 {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.ErrInvalidFill))
			}
			return true
		}
		if err := s.world.AddMaterialAt(ev.X, ev.Y, mat, ev.Fill); err != nil {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewArgument("%v", err)))
			}
			return true
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.SeedAdd:
		if err := s.world.AddMaterialAt(ev.X, ev.Y, cellworld.Seed, 1.0); err != nil {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewArgument("%v", err)))
			}
			return true
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.SpawnBall:
		mat, ok := cellworld.ParseMaterial(ev.Material)
		if !ok {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewArgument("unknown material %q", ev.Material)))
			}
			return true
		}
		s.world.SpawnMaterialBall(cellworld.Vec2{X: ev.CenterX, Y: ev.CenterY}, ev.Radius, mat)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.MaterialSelect:
		mat, ok := cellworld.ParseMaterial(ev.Material)
		if !ok {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewArgument("unknown material %q", ev.Material)))
			}
			return true
		}
		s.world.SetSelectedMaterial(mat)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.GravitySet:
		settings := s.world.Settings()
		settings.Gravity = ev.Gravity
		s.world.SetSettings(settings)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.PhysicsSettingsGet:
		if ev.Respond != nil {
			ev.Respond(event.OK(s.world.Settings()))
		}
		return true

	case event.PhysicsSettingsSet:
		s.world.SetSettings(ev.Settings)
		if ev.Respond != nil {
			ev.Respond(event.OK(s.world.Settings()))
		}
		return true

	case event.ScenarioConfigSet:
		gen, err := m.registry.Get(s.scenarioID)
		if err == nil {
			s.world.SetScenario(s.scenarioID, ev.Config, gen)
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(event.ScenarioConfigSetOk{Applied: true}))
		}
		return true

	case event.RainRateSet:
		settings := s.world.Settings()
		settings.RainRate = ev.Rate
		s.world.SetSettings(settings)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.Toggle:
		s.applyToggle(ev)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.PressureModeSet:
		settings := s.world.Settings()
		settings.PressureMode = ev.Mode
		s.world.SetSettings(settings)
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.StepBackward:
		if !s.world.Settings().TimeReversalEnabled {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewState("time reversal is not enabled")))
			}
			return true
		}
		if !s.history.StepBack(s.world) {
			if ev.Respond != nil {
				ev.Respond(event.Fail[struct{}](apperrors.NewState("no history available to step back into")))
			}
			return true
		}
		if s.stepCount > 0 {
			s.stepCount--
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return true

	case event.DiagramGet:
		if ev.Respond != nil {
			ev.Respond(event.OK(event.DiagramGetOk{Diagram: s.world.ToAsciiDiagram()}))
		}
		return true

	case event.PerfStatsGet:
		if ev.Respond != nil {
			ev.Respond(event.OK(event.PerfStats{
				StepCount:           uint64(s.stepCount),
				FPSServer:           s.fps,
				PhysicsStepAvgMs:    avgMs(s.physicsTimeTotal, s.stepsSampled),
				SerializationAvgMs:  avgMs(s.encodeTimeTotal, s.broadcastsTotal),
				CacheUpdateAvgMs:    avgMs(s.cacheTimeTotal, s.cacheUpdates),
				NetworkSendAvgMs:    avgMs(s.sendTimeTotal, s.broadcastsTotal),
				BroadcastsTotal:     s.broadcastsTotal,
				SpiralOfDeathEvents: s.spiralOfDeathEvents,
			}))
		}
		return true
	}
	return false
}

func avgMs(total time.Duration, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return total.Seconds() * 1000 / float64(n)
}

func (s *SimRunning) applyToggle(ev event.Toggle) {
	settings := s.world.Settings()
	switch ev.Field {
	case event.ToggleWalls:
		settings.WallsEnabled = ev.Enabled
	case event.ToggleLeftThrow:
		settings.LeftThrowEnabled = ev.Enabled
	case event.ToggleRightThrow:
		settings.RightThrowEnabled = ev.Enabled
	case event.ToggleWaterColumn:
		settings.WaterColumnEnabled = ev.Enabled
	case event.ToggleDirtQuadrant:
		settings.DirtQuadrantEnabled = ev.Enabled
	case event.ToggleCohesion:
		settings.CohesionEnabled = ev.Enabled
	case event.ToggleFrameLimit:
		settings.FrameLimitEnabled = ev.Enabled
	case event.ToggleTimeReversal:
		settings.TimeReversalEnabled = ev.Enabled
	}
	s.world.SetSettings(settings)
}

// advanceTick runs the fixed-timestep accumulator for one pacing tick. Up
// to five physics steps run per tick (spiral-of-death bound); if
// target_steps is reached mid-loop, it transitions to SimPaused
// immediately.
func (s *SimRunning) advanceTick(m *Machine) (State, bool) {
	now := time.Now()
	var elapsed time.Duration
	if s.hasLastPhysicsTime {
		elapsed = now.Sub(s.lastPhysicsTime)
	} else {
		elapsed = FixedDT
	}
	s.lastPhysicsTime = now
	s.hasLastPhysicsTime = true
	s.physicsAccumulator += elapsed

	dtSeconds := FixedDT.Seconds()
	if s.timestepS > 0 {
		dtSeconds = s.timestepS
	}

	var next State = s
	stepsThisFrame := 0

	for s.physicsAccumulator >= FixedDT {
		if s.world.Settings().TimeReversalEnabled {
			s.history.Record(s.world)
		}
		stepStart := time.Now()
		s.world.Advance(dtSeconds)
		stepDuration := time.Since(stepStart)
		s.physicsTimeTotal += stepDuration
		s.stepsSampled++
		if m.metrics != nil {
			m.metrics.PhysicsStepDuration.Observe(stepDuration.Seconds())
			m.metrics.PhysicsStepsTotal.Inc()
		}
		s.stepCount++
		stepsThisFrame++
		s.physicsAccumulator -= FixedDT

		if s.targetSteps > 0 && s.stepCount >= s.targetSteps {
			next = &SimPaused{previous: s}
			break
		}
		if stepsThisFrame >= 5 {
			s.spiralOfDeathEvents++
			if m.metrics != nil {
				m.metrics.SpiralOfDeathEvents.Inc()
			}
			s.physicsAccumulator = 0
			break
		}
	}

	if stepsThisFrame > 0 {
		s.updateFPS(now)
		if m.metrics != nil {
			m.metrics.SimulationFPS.Set(s.fps)
		}

		cacheStart := time.Now()
		data := s.world.Data()
		data.FPSServer = s.fps
		m.snapshot.Store(data)
		cacheDuration := time.Since(cacheStart)
		s.cacheTimeTotal += cacheDuration
		s.cacheUpdates++
		if m.metrics != nil {
			m.metrics.CacheUpdateDuration.Observe(cacheDuration.Seconds())
		}

		if s.uiReadyForNextFrame && m.broadcaster.HasClients() {
			sendStart := time.Now()
			encodeDuration := m.broadcaster.Broadcast(data)
			sendDuration := time.Since(sendStart)
			s.encodeTimeTotal += encodeDuration
			s.sendTimeTotal += sendDuration
			if m.metrics != nil {
				m.metrics.NetworkSendDuration.Observe(sendDuration.Seconds())
				m.metrics.BroadcastsTotal.Inc()
			}
			s.broadcastsTotal++
			s.uiReadyForNextFrame = false
		}
	}

	return next, true
}

func (s *SimRunning) updateFPS(now time.Time) {
	if s.lastFrameTime.IsZero() {
		s.lastFrameTime = now
		return
	}
	dt := now.Sub(s.lastFrameTime).Seconds()
	s.lastFrameTime = now
	if dt <= 0 {
		return
	}
	instantaneous := 1.0 / dt
	if s.fps == 0 {
		s.fps = instantaneous
	} else {
		s.fps = s.fps*0.9 + instantaneous*0.1
	}
}

// SimPaused preserves the entire previous SimRunning value. World-addressed
// commands keep working against the frozen world; only the pacing loop is
// suspended.
type SimPaused struct {
	baseState
	previous *SimRunning
}

func (s *SimPaused) String() string { return "sim_paused" }

func (s *SimPaused) HandleEvent(e event.Event, m *Machine) (State, bool) {
	switch ev := e.(type) {
	case event.Resume:
		// last_physics_time is reset so the pause duration does not
		// accumulate into the physics accumulator on the next tick.
		s.previous.hasLastPhysicsTime = false
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s.previous, true

	case event.Pause:
		stateErrorRespond(ev.Respond, "simulation is already paused")
		return s, true

	case event.SimRun:
		s.previous.targetSteps = ev.MaxSteps
		if ev.TimestepS > 0 {
			s.previous.timestepS = ev.TimestepS
		}
		s.previous.stepCount = 0
		s.previous.hasLastPhysicsTime = false
		if ev.Respond != nil {
			ev.Respond(event.OK(event.SimRunOk{Running: true, CurrentStep: s.previous.stepCount}))
		}
		return s.previous, true

	case event.Reset:
		s.previous.reset()
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s, true

	case event.FrameReady:
		// Nothing to broadcast while paused; remember the readiness so the
		// first post-resume frame goes out immediately.
		s.previous.uiReadyForNextFrame = true
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s, true

	case event.AdvanceTick:
		// Wall time passing while paused must not accumulate physics.
		return s, true
	}

	if s.previous.handleWorldCommand(e, m) {
		return s, true
	}
	return s, false
}
