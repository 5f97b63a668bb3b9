package event

import "github.com/aortez/cellsim-server/internal/cellworld"

// --- Internal events ----------------------------------------------------

// InitComplete is pushed by the state machine's main loop once at startup.
type InitComplete struct{}

func (InitComplete) Name() string { return "init_complete" }

// AdvanceTick is the synthetic pacing event driving the fixed-timestep
// accumulator in SimRunning.
type AdvanceTick struct{}

func (AdvanceTick) Name() string { return "advance_tick" }

// QuitApplication is the global event that always transitions to Shutdown.
type QuitApplication struct{}

func (QuitApplication) Name() string { return "quit_application" }

// --- Lifecycle commands --------------------------------------------------

type Exit struct {
	Respond func(Result[struct{}])
}

func (Exit) Name() string { return "exit" }

type SimRunOk struct {
	Running     bool `json:"running"`
	CurrentStep int  `json:"current_step"`
}

type SimRun struct {
	TimestepS  float64
	MaxSteps   int
	ScenarioID string
	Respond    func(Result[SimRunOk])
}

func (SimRun) Name() string { return "sim_run" }

type Reset struct {
	Respond func(Result[struct{}])
}

func (Reset) Name() string { return "reset" }

type Pause struct {
	Respond func(Result[struct{}])
}

func (Pause) Name() string { return "pause" }

type Resume struct {
	Respond func(Result[struct{}])
}

func (Resume) Name() string { return "resume" }

type FrameReady struct {
	Respond func(Result[struct{}])
}

func (FrameReady) Name() string { return "frame_ready" }

// --- Query commands --------------------------------------------------

type StateGet struct {
	Respond func(Result[*cellworld.WorldData])
}

func (StateGet) Name() string { return "state_get" }

type CellGetOk struct {
	Cell cellworld.CellData `json:"cell"`
}

type CellGet struct {
	X, Y    int
	Respond func(Result[CellGetOk])
}

func (CellGet) Name() string { return "cell_get" }

type DiagramGetOk struct {
	Diagram string `json:"diagram"`
}

type DiagramGet struct {
	Respond func(Result[DiagramGetOk])
}

func (DiagramGet) Name() string { return "diagram_get" }

// PerfStats is the metrics record returned by perf_stats_get.
type PerfStats struct {
	StepCount           uint64  `json:"step_count"`
	FPSServer           float64 `json:"fps_server"`
	PhysicsStepAvgMs    float64 `json:"physics_step_avg_ms"`
	SerializationAvgMs  float64 `json:"serialization_avg_ms"`
	CacheUpdateAvgMs    float64 `json:"cache_update_avg_ms"`
	NetworkSendAvgMs    float64 `json:"network_send_avg_ms"`
	BroadcastsTotal     uint64  `json:"broadcasts_total"`
	SpiralOfDeathEvents uint64  `json:"spiral_of_death_events"`
}

type PerfStatsGet struct {
	Respond func(Result[PerfStats])
}

func (PerfStatsGet) Name() string { return "perf_stats_get" }

type ScenarioListOk struct {
	Scenarios []cellworld.ScenarioMetadata `json:"scenarios"`
}

// ScenarioList lets clients discover registered scenarios before
// selecting one.
type ScenarioList struct {
	Respond func(Result[ScenarioListOk])
}

func (ScenarioList) Name() string { return "scenario_list" }

// --- Mutation commands --------------------------------------------------

type CellSet struct {
	X, Y     int
	Material string
	Fill     float64
	Respond  func(Result[struct{}])
}

func (CellSet) Name() string { return "cell_set" }

type SeedAdd struct {
	X, Y    int
	Respond func(Result[struct{}])
}

func (SeedAdd) Name() string { return "seed_add" }

type SpawnBall struct {
	Material string
	CenterX  float64
	CenterY  float64
	Radius   float64
	Respond  func(Result[struct{}])
}

func (SpawnBall) Name() string { return "spawn_ball" }

// MaterialSelect updates the world's selected material: the UI hint echoed
// in every snapshot and used by generic add-material operations.
type MaterialSelect struct {
	Material string
	Respond  func(Result[struct{}])
}

func (MaterialSelect) Name() string { return "material_select" }

type GravitySet struct {
	Gravity float64
	Respond func(Result[struct{}])
}

func (GravitySet) Name() string { return "gravity_set" }

type PhysicsSettingsGet struct {
	Respond func(Result[cellworld.PhysicsSettings])
}

func (PhysicsSettingsGet) Name() string { return "physics_settings_get" }

type PhysicsSettingsSet struct {
	Settings cellworld.PhysicsSettings
	Respond  func(Result[cellworld.PhysicsSettings])
}

func (PhysicsSettingsSet) Name() string { return "physics_settings_set" }

type ScenarioConfigSetOk struct {
	Applied bool `json:"applied"`
}

type ScenarioConfigSet struct {
	Config  map[string]float64
	Respond func(Result[ScenarioConfigSetOk])
}

func (ScenarioConfigSet) Name() string { return "scenario_config_set" }

type RainRateSet struct {
	Rate    float64
	Respond func(Result[struct{}])
}

func (RainRateSet) Name() string { return "rain_rate_set" }

// --- Toggle commands --------------------------------------------------

// Toggle carries a single boolean flip and is reused for every binary
// physics-setting toggle: walls, throws, water column, dirt quadrant,
// cohesion, frame-limiting, and time-reversal. The Field discriminates
// which PhysicsSettings flag it addresses.
type Toggle struct {
	Field   ToggleField
	Enabled bool
	Respond func(Result[struct{}])
}

func (Toggle) Name() string { return "toggle" }

type ToggleField string

const (
	ToggleWalls        ToggleField = "walls_enabled"
	ToggleLeftThrow    ToggleField = "left_throw_enabled"
	ToggleRightThrow   ToggleField = "right_throw_enabled"
	ToggleWaterColumn  ToggleField = "water_column_enabled"
	ToggleDirtQuadrant ToggleField = "dirt_quadrant_enabled"
	ToggleCohesion     ToggleField = "cohesion_enabled"
	ToggleFrameLimit   ToggleField = "frame_limit_enabled"
	ToggleTimeReversal ToggleField = "time_reversal_enabled"
)

// PressureModeSet selects among the pressure system variants.
type PressureModeSet struct {
	Mode    cellworld.PressureMode
	Respond func(Result[struct{}])
}

func (PressureModeSet) Name() string { return "pressure_mode_set" }

// StepBackward rewinds the world to the previous recorded snapshot. It
// only works while time reversal is enabled.
type StepBackward struct {
	Respond func(Result[struct{}])
}

func (StepBackward) Name() string { return "step_backward" }
