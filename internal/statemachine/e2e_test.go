package statemachine

import (
	"testing"
	"time"

	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
)

// TestDamBreakEndToEndThroughMachine drives the dam-break scenario through
// the public command surface rather than the cellworld package directly: a
// 6x6 world, water held back by a wall, breached at timestep 30, water
// reaching the far bank by step 200.
func TestDamBreakEndToEndThroughMachine(t *testing.T) {
	m := newTestMachine(6, 6)

	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 30})

	for y := 0; y <= 5; y++ {
		m.HandleEvent(event.CellSet{X: 0, Y: y, Material: "WATER", Fill: 1.0})
		m.HandleEvent(event.CellSet{X: 1, Y: y, Material: "WATER", Fill: 1.0})
		m.HandleEvent(event.CellSet{X: 2, Y: y, Material: "WALL", Fill: 1.0})
	}

	for i := 0; i < 40 && m.CurrentStateName() != "sim_paused"; i++ {
		time.Sleep(20 * time.Millisecond)
		m.HandleEvent(event.AdvanceTick{})
	}
	if m.CurrentStateName() != "sim_paused" {
		t.Fatalf("expected sim_paused after 30 steps, got %s", m.CurrentStateName())
	}

	m.HandleEvent(event.CellSet{X: 2, Y: 5, Material: "AIR", Fill: 0})

	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 170})
	for i := 0; i < 220 && m.CurrentStateName() != "sim_paused"; i++ {
		time.Sleep(20 * time.Millisecond)
		m.HandleEvent(event.AdvanceTick{})
	}
	if m.CurrentStateName() != "sim_paused" {
		t.Fatalf("expected sim_paused after resumed run, got %s", m.CurrentStateName())
	}

	var got event.Result[event.CellGetOk]
	m.HandleEvent(event.CellGet{X: 5, Y: 5, Respond: func(r event.Result[event.CellGetOk]) { got = r }})
	if got.Ok == nil {
		t.Fatal("expected successful cell_get in sim_paused")
	}
	if got.Ok.Cell.MaterialTag != "WATER" {
		t.Fatalf("expected WATER at (5,5), got %v", got.Ok.Cell.MaterialTag)
	}
	if got.Ok.Cell.Fill <= 0.1 {
		t.Fatalf("expected fill > 0.1 at (5,5), got %v", got.Ok.Cell.Fill)
	}
}

func TestFrameReadyBackpressureCoalescesBroadcasts(t *testing.T) {
	m := newTestMachine(4, 4)
	bc := &countingBroadcaster{hasClients: true}
	m.broadcaster = bc

	m.HandleEvent(event.SimRun{TimestepS: 0.016, MaxSteps: 0})

	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		m.HandleEvent(event.AdvanceTick{})
	}

	if bc.count != 1 {
		t.Fatalf("expected exactly 1 broadcast without frame_ready, got %d", bc.count)
	}

	m.HandleEvent(event.FrameReady{})
	time.Sleep(20 * time.Millisecond)
	m.HandleEvent(event.AdvanceTick{})

	if bc.count != 2 {
		t.Fatalf("expected a second broadcast after frame_ready, got %d", bc.count)
	}
}

type countingBroadcaster struct {
	count      int
	hasClients bool
}

func (b *countingBroadcaster) Broadcast(*cellworld.WorldData) time.Duration {
	b.count++
	return 0
}

func (b *countingBroadcaster) HasClients() bool { return b.hasClients }
