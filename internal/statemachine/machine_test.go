package statemachine

import (
	"testing"
	"time"

	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
)

func newTestMachine(width, height int) *Machine {
	reg := cellworld.NewDefaultRegistry()
	m := New(reg, nil, WithDefaultWorldSize(width, height), WithDefaultScenario("empty"))
	m.HandleEvent(event.InitComplete{})
	return m
}

func TestStartupTransitionsToIdleOnInitComplete(t *testing.T) {
	m := newTestMachine(4, 4)
	if m.CurrentStateName() != "idle" {
		t.Fatalf("expected idle after InitComplete, got %s", m.CurrentStateName())
	}
}

func TestSimRunTransitionsToSimRunningAndRespondsImmediately(t *testing.T) {
	m := newTestMachine(4, 4)
	var got event.Result[event.SimRunOk]
	m.HandleEvent(event.SimRun{
		TimestepS: 0.016, MaxSteps: 10,
		Respond: func(r event.Result[event.SimRunOk]) { got = r },
	})
	if m.CurrentStateName() != "sim_running" {
		t.Fatalf("expected sim_running, got %s", m.CurrentStateName())
	}
	if got.Ok == nil || !got.Ok.Running || got.Ok.CurrentStep != 0 {
		t.Fatalf("expected immediate {running:true, current_step:0}, got %+v", got)
	}
}

func TestAdvanceTicksUntilTargetStepsThenPauses(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 3})

	for i := 0; i < 20 && m.CurrentStateName() != "sim_paused"; i++ {
		time.Sleep(20 * time.Millisecond)
		m.HandleEvent(event.AdvanceTick{})
	}

	if m.CurrentStateName() != "sim_paused" {
		t.Fatalf("expected sim_paused after reaching target steps, got %s", m.CurrentStateName())
	}
}

func TestPauseThenResumePreservesStepCount(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.AdvanceTick{})
	m.HandleEvent(event.Pause{})
	if m.CurrentStateName() != "sim_paused" {
		t.Fatal("expected sim_paused after pause")
	}

	var resumed bool
	m.HandleEvent(event.Resume{Respond: func(r event.Result[struct{}]) { resumed = r.Ok != nil }})
	if !resumed {
		t.Fatal("expected resume to succeed")
	}
	if m.CurrentStateName() != "sim_running" {
		t.Fatalf("expected sim_running after resume, got %s", m.CurrentStateName())
	}
	running, ok := m.state.(*SimRunning)
	if !ok || running.stepCount != 1 {
		t.Fatalf("expected step count 1 preserved across pause/resume, got %+v", m.state)
	}
}

func TestStateGetInIdleIsStateError(t *testing.T) {
	m := newTestMachine(4, 4)
	var got event.Result[*cellworld.WorldData]
	m.HandleEvent(event.StateGet{Respond: func(r event.Result[*cellworld.WorldData]) { got = r }})
	if got.Err == nil {
		t.Fatal("expected state error for state_get in idle")
	}
}

func TestCellSetRoundTrip(t *testing.T) {
	m := newTestMachine(8, 8)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.AdvanceTick{})

	m.HandleEvent(event.CellSet{X: 3, Y: 3, Material: "DIRT", Fill: 0.75})

	var got event.Result[event.CellGetOk]
	m.HandleEvent(event.CellGet{X: 3, Y: 3, Respond: func(r event.Result[event.CellGetOk]) { got = r }})
	if got.Ok == nil {
		t.Fatal("expected successful cell_get")
	}
	if got.Ok.Cell.MaterialTag != "DIRT" {
		t.Fatalf("expected DIRT, got %v", got.Ok.Cell.MaterialTag)
	}
	const eps = 1e-9
	if got.Ok.Cell.Fill < 0.75-eps {
		t.Fatalf("expected fill >= 0.75-eps, got %v", got.Ok.Cell.Fill)
	}
}

func TestUnknownMaterialIsArgumentError(t *testing.T) {
	m := newTestMachine(8, 8)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})

	var got event.Result[struct{}]
	m.HandleEvent(event.CellSet{
		X: 0, Y: 0, Material: "LAVA", Fill: 1.0,
		Respond: func(r event.Result[struct{}]) { got = r },
	})
	if got.Err == nil {
		t.Fatal("expected argument error for unknown material")
	}
}

func TestQuitApplicationAlwaysTransitionsToShutdown(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.QuitApplication{})
	if m.CurrentStateName() != "shutdown" {
		t.Fatalf("expected shutdown, got %s", m.CurrentStateName())
	}
	select {
	case <-m.Done():
	default:
		t.Fatal("expected Done() to be closed after shutdown")
	}
}

func TestExitCommandTriggersShutdown(t *testing.T) {
	m := newTestMachine(4, 4)
	var got event.Result[struct{}]
	m.HandleEvent(event.Exit{Respond: func(r event.Result[struct{}]) { got = r }})
	if got.Ok == nil {
		t.Fatal("expected exit to respond ok immediately")
	}
	// Exit queues QuitApplication; the main loop would drain it. Drive it
	// directly here since this test doesn't run MainLoop.
	queued := m.q.DrainAll()
	if len(queued) != 1 || queued[0].Name() != "quit_application" {
		t.Fatalf("expected queued quit_application, got %v", queued)
	}
	m.HandleEvent(queued[0])
	if m.CurrentStateName() != "shutdown" {
		t.Fatalf("expected shutdown after quit_application, got %s", m.CurrentStateName())
	}
}

func TestScenarioListWorksFromIdle(t *testing.T) {
	m := newTestMachine(4, 4)
	var got event.Result[event.ScenarioListOk]
	m.HandleEvent(event.ScenarioList{Respond: func(r event.Result[event.ScenarioListOk]) { got = r }})
	if got.Ok == nil || len(got.Ok.Scenarios) == 0 {
		t.Fatal("expected non-empty scenario list from idle")
	}
}

func TestPausedWorldStillAnswersCommands(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.Pause{})

	var gravityOK bool
	m.HandleEvent(event.GravitySet{Gravity: 4.9, Respond: func(r event.Result[struct{}]) { gravityOK = r.Ok != nil }})
	if !gravityOK {
		t.Fatal("expected gravity_set to succeed while paused")
	}

	var got event.Result[cellworld.PhysicsSettings]
	m.HandleEvent(event.PhysicsSettingsGet{Respond: func(r event.Result[cellworld.PhysicsSettings]) { got = r }})
	if got.Ok == nil || got.Ok.Gravity != 4.9 {
		t.Fatalf("expected paused physics_settings_get to see gravity 4.9, got %+v", got)
	}
	if m.CurrentStateName() != "sim_paused" {
		t.Fatalf("expected mutations to leave the machine paused, got %s", m.CurrentStateName())
	}
}

func TestStepBackwardRequiresTimeReversalEnabled(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})

	var got event.Result[struct{}]
	m.HandleEvent(event.StepBackward{Respond: func(r event.Result[struct{}]) { got = r }})
	if got.Err == nil {
		t.Fatal("expected state error without time reversal enabled")
	}
}

func TestStepBackwardWhilePausedRewindsHistory(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.Toggle{Field: event.ToggleTimeReversal, Enabled: true})

	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		m.HandleEvent(event.AdvanceTick{})
	}
	m.HandleEvent(event.Pause{})
	paused := m.state.(*SimPaused)
	before := paused.previous.world.Timestep()

	var got event.Result[struct{}]
	m.HandleEvent(event.StepBackward{Respond: func(r event.Result[struct{}]) { got = r }})
	if got.Ok == nil {
		t.Fatalf("expected step_backward to succeed while paused, got %+v", got.Err)
	}
	if after := paused.previous.world.Timestep(); after != before-1 {
		t.Fatalf("expected step_backward to rewind timestep %d to %d, got %d", before, before-1, after)
	}
}

func TestWallCellImmuneToCellSet(t *testing.T) {
	m := newTestMachine(4, 4)
	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})
	m.HandleEvent(event.CellSet{X: 1, Y: 1, Material: "WALL", Fill: 1.0})
	m.HandleEvent(event.CellSet{X: 1, Y: 1, Material: "WATER", Fill: 1.0})

	var got event.Result[event.CellGetOk]
	m.HandleEvent(event.CellGet{X: 1, Y: 1, Respond: func(r event.Result[event.CellGetOk]) { got = r }})
	if got.Ok.Cell.MaterialTag != "WALL" {
		t.Fatalf("expected wall to remain immune to non-wall cell_set, got %v", got.Ok.Cell.MaterialTag)
	}
}
