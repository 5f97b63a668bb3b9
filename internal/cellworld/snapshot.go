package cellworld

// CellData is the serializable, read-only view of a Cell used in snapshots
// and query responses. Material carries the typed enum for internal/binary
// callers and is left out of JSON; MaterialTag carries the stable wire
// string that JSON responses emit under "material".
type CellData struct {
	Material    Material `json:"-"`
	MaterialTag string   `json:"material"`
	Fill        float64  `json:"fill"`
	ComX        float64  `json:"com_x"`
	ComY        float64  `json:"com_y"`
	VelX        float64  `json:"vel_x"`
	VelY        float64  `json:"vel_y"`
	Pressure    float64  `json:"pressure"`
}

// CellDataAt returns the serializable view of the cell at (x,y).
func (w *World) CellDataAt(x, y int) (CellData, bool) {
	c, ok := w.At(x, y)
	if !ok {
		return CellData{}, false
	}
	return cellToData(c), true
}

func cellToData(c Cell) CellData {
	return CellData{
		Material:    c.Material,
		MaterialTag: c.Material.Tag(),
		Fill:        c.FillRatio,
		ComX:        c.COM.X,
		ComY:        c.COM.Y,
		VelX:        c.Velocity.X,
		VelY:        c.Velocity.Y,
		Pressure:    c.Pressure,
	}
}

// WorldData is an immutable copy of a World's observable state: the cached
// snapshot swapped atomically by the simulation thread and read wait-free
// by StateGet and the broadcaster.
type WorldData struct {
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	Timestep         uint64             `json:"timestep"`
	ScenarioID       string             `json:"scenario_id"`
	ScenarioConfig   map[string]float64 `json:"scenario_config"`
	SelectedMaterial Material           `json:"selected_material"`
	TotalMass        float64            `json:"total_mass"`
	RemovedMass      float64            `json:"removed_mass"`
	FPSServer        float64            `json:"fps_server"`
	Cells            []CellData         `json:"cells"`
}

// At returns the cell at (x,y) in a WorldData snapshot.
func (d *WorldData) At(x, y int) (CellData, bool) {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return CellData{}, false
	}
	return d.Cells[y*d.Width+x], true
}
