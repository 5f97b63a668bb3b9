package cellworld

// EventGenerator is the polymorphic scenario hook: Setup seeds initial
// cells and AddParticles perturbs the world each tick.
type EventGenerator interface {
	Setup(w *World)
	AddParticles(w *World, timestep uint64, dtSeconds float64)
}

// SetupFunc/UpdateFunc are the functional building blocks for scenarios
// that don't need a dedicated type: most are just a pair of closures.
type SetupFunc func(w *World)
type UpdateFunc func(w *World, timestep uint64, dtSeconds float64)

// FuncGenerator adapts SetupFunc/UpdateFunc closures to the EventGenerator
// interface.
type FuncGenerator struct {
	SetupFn  SetupFunc
	UpdateFn UpdateFunc
}

func (g *FuncGenerator) Setup(w *World) {
	if g.SetupFn != nil {
		g.SetupFn(w)
	}
}

func (g *FuncGenerator) AddParticles(w *World, timestep uint64, dt float64) {
	if g.UpdateFn != nil {
		g.UpdateFn(w, timestep, dt)
	}
}

// ScenarioMetadata describes a scenario for the scenario_list query.
type ScenarioMetadata struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	RequiredWidth   int    `json:"required_width,omitempty"`
	RequiredHeight  int    `json:"required_height,omitempty"`
}

// ScenarioFactory constructs a fresh EventGenerator instance per request,
// so per-scenario mutable state (e.g. "has the dam broken yet") never
// leaks across resets.
type ScenarioFactory func() EventGenerator
