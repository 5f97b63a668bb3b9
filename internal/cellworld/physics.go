package cellworld

// step runs one deterministic physics pass over the grid. It is a
// cellular-automaton style reference solver: gravity-driven vertical
// transfer, sideways spread for water only, and material-specific
// behavior (rigid wood/metal, slower-settling leaf, inert seed, immutable
// wall). It favors determinism and auditability over continuous fluid
// dynamics.
//
// Cells are processed bottom-to-top, so room opened by a lower cell in
// this pass is taken up by the cell above it in the same pass: a falling
// column shifts down together, while any one unit of fill moves at most
// one row per tick.
func (w *World) step(dt float64) {
	g := w.settings.Gravity * w.settings.Timescale
	if g == 0 {
		g = 9.81
	}

	for y := w.Height - 1; y >= 0; y-- {
		for x := 0; x < w.Width; x++ {
			c := w.AtMut(x, y)
			if c == nil || c.IsWall() || c.IsEmpty() {
				continue
			}
			switch c.Material {
			case Wood, Metal:
				// Rigid/structural: no self-motion, but can still be buried
				// or exposed by neighbors moving around it.
				continue
			case Seed:
				// Inert until a scenario converts it (tree_germination).
				continue
			case Leaf:
				w.settleVertical(x, y, g, dt, 0.6)
			case Water:
				if !w.settleVertical(x, y, g, dt, 1.0) {
					w.spreadLiquid(x, y)
				}
			case Dirt, Sand:
				w.settleVertical(x, y, g, dt, 0.9)
			}
		}
	}

	w.computePressure()
}

// settleVertical attempts to move a cell's fill straight down one row,
// transferring into empty space or partially merging with compatible
// material below. Returns true if any transfer happened.
func (w *World) settleVertical(x, y int, g, dt, transferRate float64) bool {
	below := w.AtMut(x, y+1)
	if below == nil {
		return false // floor: nothing below, cell rests in place
	}
	if below.IsWall() {
		return false
	}
	cur := w.AtMut(x, y)

	if below.IsEmpty() {
		amount := cur.FillRatio * transferRate
		if amount > cur.FillRatio {
			amount = cur.FillRatio
		}
		below.Material = cur.Material
		below.FillRatio += amount
		below.Velocity = Vec2{0, g * dt}
		cur.FillRatio -= amount
		if cur.IsEmpty() {
			cur.Clear()
		}
		return true
	}

	if below.Material == cur.Material && below.FillRatio < 1.0 {
		room := 1.0 - below.FillRatio
		amount := cur.FillRatio
		if amount > room {
			amount = room
		}
		if amount <= 0 {
			return false
		}
		below.FillRatio += amount
		cur.FillRatio -= amount
		if cur.IsEmpty() {
			cur.Clear()
		}
		return true
	}

	return false
}

// spreadLiquid distributes water sideways when it cannot fall further,
// modeling hydrostatic equalization: a cell spreads into a less-full
// horizontal neighbor until levels equalize.
func (w *World) spreadLiquid(x, y int) {
	cur := w.AtMut(x, y)
	if cur == nil || cur.FillRatio <= emptyEpsilon {
		return
	}

	for _, dx := range [...]int{-1, 1} {
		nb := w.AtMut(x+dx, y)
		if nb == nil || nb.IsWall() {
			continue
		}
		if !(nb.IsEmpty() || nb.Material == Water) {
			continue
		}
		diff := cur.FillRatio - nb.FillRatio
		if diff <= emptyEpsilon {
			continue
		}
		amount := diff * 0.25 * w.settings.Viscosity25()
		if amount <= 0 {
			continue
		}
		if nb.IsEmpty() {
			nb.Material = Water
		}
		nb.FillRatio += amount
		cur.FillRatio -= amount
		if cur.IsEmpty() {
			cur.Clear()
			return
		}
	}
}

// computePressure sets each non-wall, non-empty cell's pressure to the fill
// summed down its column from the top (restarting below each wall), scaled
// by PressureStrength (1.0 when unset). Every PressureMode yields the same
// values: IterativeSettling runs the identical pass twice, and Original
// and TopDown are not told apart.
func (w *World) computePressure() {
	passes := 1
	if w.settings.PressureMode == PressureIterativeSettling {
		passes = 2
	}
	strength := w.settings.PressureStrength
	if strength == 0 {
		strength = 1.0
	}

	for pass := 0; pass < passes; pass++ {
		for x := 0; x < w.Width; x++ {
			accum := 0.0
			for y := 0; y < w.Height; y++ {
				c := w.AtMut(x, y)
				if c == nil || c.IsWall() {
					accum = 0
					continue
				}
				if c.IsEmpty() {
					c.Pressure = 0
					continue
				}
				accum += c.FillRatio
				c.Pressure = accum * strength
			}
		}
	}
}

// Viscosity25 scales the 0.25 base sideways-spread fraction by how little
// the liquid resists flow: higher viscosity settings slow equalization.
func (s PhysicsSettings) Viscosity25() float64 {
	resist := s.Viscosity
	if resist < 0 {
		resist = 0
	}
	if resist > 1 {
		resist = 1
	}
	return 1.0 - 0.75*resist
}
