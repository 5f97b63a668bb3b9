package cellworld

import (
	"github.com/aortez/cellsim-server/internal/worldgen/geography"
)

// registerBuiltinScenarios installs the built-in scenario set. Each is a
// Setup/AddParticles pair; the generative ones draw from seeded Perlin
// noise so runs are reproducible.
func registerBuiltinScenarios(r *Registry) {
	r.Register("empty", ScenarioMetadata{
		Name:        "Empty",
		Description: "A blank grid with no material and no ongoing events.",
		Category:    "basic",
	}, func() EventGenerator {
		return &FuncGenerator{}
	})

	r.Register("sandbox", ScenarioMetadata{
		Name:          "Sandbox",
		Description:   "Dirt quadrant, water column and optional throws for free experimentation.",
		Category:      "interactive",
		RequiredWidth: 20,
		RequiredHeight: 20,
	}, newSandboxScenario)

	r.Register("dam_break", ScenarioMetadata{
		Name:           "Dam Break",
		Description:    "A wall holds back a water column until a breach cell is cleared at timestep 30.",
		Category:       "fluid",
		RequiredWidth:  6,
		RequiredHeight: 6,
	}, newDamBreakScenario)

	r.Register("falling_dirt", ScenarioMetadata{
		Name:        "Falling Dirt",
		Description: "A suspended dirt block drops onto the floor under gravity alone.",
		Category:    "granular",
	}, newFallingDirtScenario)

	r.Register("water_equalization", ScenarioMetadata{
		Name:        "Water Equalization",
		Description: "Two uneven water columns separated by a gap settle to a common level.",
		Category:    "fluid",
	}, newWaterEqualizationScenario)

	r.Register("raining", ScenarioMetadata{
		Name:        "Raining",
		Description: "Water droplets spawn continuously across the top row at noise-perturbed rates.",
		Category:    "generative",
	}, newRainingScenario)

	r.Register("tree_germination", ScenarioMetadata{
		Name:        "Tree Germination",
		Description: "Seeds scattered via Perlin noise sprout into wood/leaf structures over time.",
		Category:    "generative",
	}, newTreeGerminationScenario)
}

// --- sandbox ---------------------------------------------------------

func newSandboxScenario() EventGenerator {
	return &FuncGenerator{
		SetupFn: func(w *World) {
			if w.settings.WallsEnabled {
				paintBorderWalls(w)
			}
			if w.settings.DirtQuadrantEnabled {
				fillQuadrant(w, Dirt, 0.8)
			}
			if w.settings.WaterColumnEnabled {
				fillColumn(w, w.Width/2, 0, w.Height/2, Water, 1.0)
			}
		},
		UpdateFn: func(w *World, timestep uint64, dt float64) {
			if w.settings.LeftThrowEnabled && timestep%40 == 0 {
				w.SpawnMaterialBall(Vec2{X: 1, Y: 1}, 1.5, Water)
			}
			if w.settings.RightThrowEnabled && timestep%40 == 20 {
				w.SpawnMaterialBall(Vec2{X: float64(w.Width - 2), Y: 1}, 1.5, Dirt)
			}
		},
	}
}

func paintBorderWalls(w *World) {
	for x := 0; x < w.Width; x++ {
		_ = w.AddMaterialAt(x, 0, Wall, 1.0)
		_ = w.AddMaterialAt(x, w.Height-1, Wall, 1.0)
	}
	for y := 0; y < w.Height; y++ {
		_ = w.AddMaterialAt(0, y, Wall, 1.0)
		_ = w.AddMaterialAt(w.Width-1, y, Wall, 1.0)
	}
}

func fillQuadrant(w *World, m Material, fill float64) {
	for y := 0; y < w.Height/2; y++ {
		for x := 0; x < w.Width/2; x++ {
			_ = w.AddMaterialAt(x, y, m, fill)
		}
	}
}

func fillColumn(w *World, x, yTop, yBottom int, m Material, fill float64) {
	for y := yTop; y <= yBottom; y++ {
		_ = w.AddMaterialAt(x, y, m, fill)
	}
}

// --- dam_break ---------------------------------------------------------

// damBreakScenario holds the mutable "has the dam broken" state so it
// doesn't leak across resets, per ScenarioFactory's per-call contract.
type damBreakScenario struct {
	breached bool
}

func newDamBreakScenario() EventGenerator {
	s := &damBreakScenario{}
	return &FuncGenerator{
		SetupFn: func(w *World) {
			s.breached = false
			for y := 0; y <= 5 && y < w.Height; y++ {
				_ = w.AddMaterialAt(0, y, Water, 1.0)
				_ = w.AddMaterialAt(1, y, Water, 1.0)
			}
			for y := 0; y <= 5 && y < w.Height; y++ {
				_ = w.AddMaterialAt(2, y, Wall, 1.0)
			}
		},
		UpdateFn: func(w *World, timestep uint64, dt float64) {
			if !s.breached && timestep >= 30 {
				// Air placement is the erase operation that can clear a
				// wall cell; Clear() deliberately cannot.
				_ = w.AddMaterialAt(2, 5, Air, 0)
				s.breached = true
			}
		},
	}
}

// --- falling_dirt ---------------------------------------------------------

func newFallingDirtScenario() EventGenerator {
	return &FuncGenerator{
		SetupFn: func(w *World) {
			midX := w.Width / 2
			for dx := -1; dx <= 1; dx++ {
				_ = w.AddMaterialAt(midX+dx, 0, Dirt, 1.0)
			}
		},
	}
}

// --- water_equalization ---------------------------------------------------------

func newWaterEqualizationScenario() EventGenerator {
	return &FuncGenerator{
		SetupFn: func(w *World) {
			leftX := w.Width / 4
			rightX := 3 * w.Width / 4
			for y := w.Height - 1; y >= w.Height-2 && y >= 0; y-- {
				_ = w.AddMaterialAt(leftX, y, Water, 1.0)
			}
			_ = w.AddMaterialAt(rightX, w.Height-1, Water, 0.3)
		},
	}
}

// --- raining ---------------------------------------------------------

func newRainingScenario() EventGenerator {
	noise := geography.NewPerlinGenerator(42)
	return &FuncGenerator{
		UpdateFn: func(w *World, timestep uint64, dt float64) {
			rate := w.settings.RainRate
			if rate <= 0 {
				rate = 0.1
			}
			for x := 0; x < w.Width; x++ {
				n := noise.Noise2D(float64(x)*0.3, float64(timestep)*0.05)
				if n > 1.0-rate*2 {
					_ = w.AddMaterialAt(x, 0, Water, 0.5)
				}
			}
		},
	}
}

// --- tree_germination ---------------------------------------------------------

type treeGerminationScenario struct {
	sprouted map[int]bool
}

func newTreeGerminationScenario() EventGenerator {
	s := &treeGerminationScenario{sprouted: make(map[int]bool)}
	noise := geography.NewPerlinGenerator(7)
	return &FuncGenerator{
		SetupFn: func(w *World) {
			for x := 0; x < w.Width; x++ {
				n := noise.Noise2D(float64(x)*0.5, 0)
				if n > 0.6 {
					_ = w.AddMaterialAt(x, w.Height-1, Seed, 1.0)
				}
			}
		},
		UpdateFn: func(w *World, timestep uint64, dt float64) {
			if timestep%50 != 0 {
				return
			}
			for x := 0; x < w.Width; x++ {
				if s.sprouted[x] {
					continue
				}
				c := w.AtMut(x, w.Height-1)
				if c == nil || c.Material != Seed {
					continue
				}
				s.sprouted[x] = true
				height := 3 + (x % 3)
				for h := 0; h < height && w.Height-1-h >= 0; h++ {
					_ = w.AddMaterialAt(x, w.Height-1-h, Wood, 1.0)
				}
				top := w.Height - 1 - height
				if top >= 0 {
					_ = w.AddMaterialAt(x, top, Leaf, 0.8)
				}
			}
		},
	}
}
