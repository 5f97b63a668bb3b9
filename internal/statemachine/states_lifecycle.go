package statemachine

import (
	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
)

// Startup is the machine's initial state; its only job is to transition to
// Idle once the main loop has pushed InitComplete.
type Startup struct{ baseState }

func (s *Startup) String() string { return "startup" }

func (s *Startup) HandleEvent(e event.Event, m *Machine) (State, bool) {
	switch e.(type) {
	case event.InitComplete:
		return &Idle{}, true
	}
	return s, false
}

// Idle has no World. Every command referring to a world is a state error;
// scenario discovery and perf stats still work via the Machine's global
// handlers.
type Idle struct{ baseState }

func (s *Idle) String() string { return "idle" }

func (s *Idle) HandleEvent(e event.Event, m *Machine) (State, bool) {
	switch ev := e.(type) {
	case event.SimRun:
		next := &SimRunning{
			targetSteps:         ev.MaxSteps,
			timestepS:           ev.TimestepS,
			scenarioID:          ev.ScenarioID,
			uiReadyForNextFrame: true,
		}
		if ev.Respond != nil {
			ev.Respond(event.OK(event.SimRunOk{Running: true, CurrentStep: 0}))
		}
		return next, true

	case event.StateGet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.CellGet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.DiagramGet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.CellSet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.SeedAdd:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.SpawnBall:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.GravitySet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.MaterialSelect:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.PhysicsSettingsGet:
		if ev.Respond != nil {
			ev.Respond(event.OK(cellworld.DefaultPhysicsSettings()))
		}
		return s, true
	case event.PhysicsSettingsSet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.ScenarioConfigSet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.RainRateSet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.Toggle:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.PressureModeSet:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.StepBackward:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.Pause:
		stateErrorRespond(ev.Respond, "not currently running")
		return s, true
	case event.Resume:
		stateErrorRespond(ev.Respond, "not currently paused")
		return s, true
	case event.Reset:
		stateErrorRespond(ev.Respond, "no simulation is running")
		return s, true
	case event.FrameReady:
		// Harmless before a simulation exists; just acknowledge.
		if ev.Respond != nil {
			ev.Respond(event.OK(struct{}{}))
		}
		return s, true
	}
	return s, false
}

// Shutdown is terminal: it drops everything. Any goroutine observing the
// shutdown flag exits promptly.
type Shutdown struct{ baseState }

func (s *Shutdown) String() string { return "shutdown" }

func (s *Shutdown) HandleEvent(e event.Event, m *Machine) (State, bool) {
	return s, false
}
