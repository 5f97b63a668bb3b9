package cellworld

import (
	"math"
)

// World is the grid-based simulation state: a
// width*height array of Cells, the physics knobs that govern Advance, and
// the currently-bound scenario event generator.
type World struct {
	Width  int
	Height int

	cells    []Cell
	timestep uint64

	settings PhysicsSettings

	scenarioID     string
	scenarioConfig map[string]float64
	generator      EventGenerator

	selectedMaterial Material
	removedMass      float64
}

// New constructs an empty width x height World with default physics
// settings. Width and height must be positive; callers validate request
// bounds before reaching here.
func New(width, height int) *World {
	return &World{
		Width:            width,
		Height:           height,
		cells:            make([]Cell, width*height),
		settings:         DefaultPhysicsSettings(),
		scenarioConfig:   make(map[string]float64),
		selectedMaterial: Dirt,
	}
}

func (w *World) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= w.Width || y >= w.Height {
		return 0, false
	}
	return y*w.Width + x, true
}

// At returns a copy of the cell at (x,y).
func (w *World) At(x, y int) (Cell, bool) {
	i, ok := w.index(x, y)
	if !ok {
		return Cell{}, false
	}
	return w.cells[i], true
}

// AtMut returns a pointer to the live cell at (x,y) for in-place mutation.
func (w *World) AtMut(x, y int) *Cell {
	i, ok := w.index(x, y)
	if !ok {
		return nil
	}
	return &w.cells[i]
}

// Timestep returns the number of physics steps advanced so far.
func (w *World) Timestep() uint64 { return w.timestep }

// Settings returns a copy of the current physics settings.
func (w *World) Settings() PhysicsSettings { return w.settings }

// SetSettings replaces the physics settings wholesale (physics_settings_set).
func (w *World) SetSettings(s PhysicsSettings) { w.settings = s }

// SelectedMaterial returns the material used by default-fill operations.
func (w *World) SelectedMaterial() Material { return w.selectedMaterial }

// SetSelectedMaterial updates the default material.
func (w *World) SetSelectedMaterial(m Material) { w.selectedMaterial = m }

// SetScenario binds a scenario id/config/generator triple, as installed by
// the state machine when handling sim_run with a scenario selection.
func (w *World) SetScenario(id string, config map[string]float64, gen EventGenerator) {
	w.scenarioID = id
	w.scenarioConfig = config
	if w.scenarioConfig == nil {
		w.scenarioConfig = make(map[string]float64)
	}
	w.generator = gen
}

// ScenarioID returns the currently bound scenario id, or "" if none.
func (w *World) ScenarioID() string { return w.scenarioID }

// Clear resets every non-wall cell to empty Air and zeros the timestep and
// removed-mass counters, but leaves the bound scenario generator in place
// (reset re-invokes Setup immediately after Clear).
func (w *World) Clear() {
	for i := range w.cells {
		w.cells[i].Clear()
	}
	w.timestep = 0
	w.removedMass = 0
}

// Setup invokes the bound scenario's Setup hook, seeding initial cells. A
// no-op if no scenario is bound.
func (w *World) Setup() {
	if w.generator != nil {
		w.generator.Setup(w)
	}
}

// AddMaterialAt paints material/fill at (x,y), accounting any destroyed
// fill into the removed-mass aggregate. Returns ErrCoordOutOfRange if the
// coordinate is out of range.
func (w *World) AddMaterialAt(x, y int, m Material, fill float64) error {
	c := w.AtMut(x, y)
	if c == nil {
		return ErrCoordOutOfRange
	}
	before := c.FillRatio
	if err := c.SetMaterial(m, fill); err != nil {
		return err
	}
	if c.FillRatio < before {
		w.removedMass += before - c.FillRatio
	}
	return nil
}

// SpawnMaterialBall fills every cell within radius of center with the given
// material at full fill.
func (w *World) SpawnMaterialBall(center Vec2, radius float64, m Material) {
	minX := int(math.Floor(center.X - radius))
	maxX := int(math.Ceil(center.X + radius))
	minY := int(math.Floor(center.Y - radius))
	maxY := int(math.Ceil(center.Y + radius))
	r2 := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - center.X
			dy := float64(y) - center.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			c := w.AtMut(x, y)
			if c == nil || c.IsWall() {
				continue
			}
			_ = c.SetMaterial(m, 1.0)
		}
	}
}

// Advance runs one fixed-timestep physics step of dtSeconds, invoking the
// bound scenario's AddParticles hook first (so newly spawned material
// participates in this tick's physics), then the deterministic cellular
// physics pass.
func (w *World) Advance(dtSeconds float64) {
	if w.generator != nil {
		w.generator.AddParticles(w, w.timestep, dtSeconds)
	}
	w.step(dtSeconds)
	w.timestep++
}

// TotalMass sums FillRatio over every non-wall cell.
func (w *World) TotalMass() float64 {
	total := 0.0
	for _, c := range w.cells {
		if c.IsWall() {
			continue
		}
		total += c.FillRatio
	}
	return total
}

// Data produces an immutable WorldData snapshot suitable for caching and
// broadcast.
func (w *World) Data() *WorldData {
	cfgCopy := make(map[string]float64, len(w.scenarioConfig))
	for k, v := range w.scenarioConfig {
		cfgCopy[k] = v
	}
	cells := make([]CellData, len(w.cells))
	for i, c := range w.cells {
		cells[i] = cellToData(c)
	}
	return &WorldData{
		Width:            w.Width,
		Height:           w.Height,
		Timestep:         w.timestep,
		ScenarioID:       w.scenarioID,
		ScenarioConfig:   cfgCopy,
		SelectedMaterial: w.selectedMaterial,
		TotalMass:        w.TotalMass(),
		RemovedMass:      w.removedMass,
		Cells:            cells,
	}
}
