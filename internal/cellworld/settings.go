package cellworld

// PressureMode selects among the pressure solver variants.
type PressureMode string

const (
	PressureOriginal          PressureMode = "original"
	PressureTopDown           PressureMode = "top_down"
	PressureIterativeSettling PressureMode = "iterative_settling"
)

// PhysicsSettings is the opaque bag of physics knobs owned by the World.
// Every field has a sensible default so a freshly
// constructed World behaves reasonably with no configuration.
type PhysicsSettings struct {
	Gravity             float64      `json:"gravity"`
	Elasticity          float64      `json:"elasticity"`
	Timescale           float64      `json:"timescale"`
	Friction            float64      `json:"friction"`
	Cohesion            float64      `json:"cohesion"`
	Adhesion            float64      `json:"adhesion"`
	Viscosity           float64      `json:"viscosity"`
	AirResistance       float64      `json:"air_resistance"`
	PressureMode        PressureMode `json:"pressure_mode"`
	PressureStrength    float64      `json:"pressure_strength"`
	RainRate            float64      `json:"rain_rate"`
	WallsEnabled        bool         `json:"walls_enabled"`
	LeftThrowEnabled    bool         `json:"left_throw_enabled"`
	RightThrowEnabled   bool         `json:"right_throw_enabled"`
	WaterColumnEnabled  bool         `json:"water_column_enabled"`
	DirtQuadrantEnabled bool         `json:"dirt_quadrant_enabled"`
	CohesionEnabled     bool         `json:"cohesion_enabled"`
	FrameLimitEnabled   bool         `json:"frame_limit_enabled"`
	TimeReversalEnabled bool         `json:"time_reversal_enabled"`
}

// DefaultPhysicsSettings returns the baseline physics configuration applied
// to a freshly constructed World.
func DefaultPhysicsSettings() PhysicsSettings {
	return PhysicsSettings{
		Gravity:             9.81,
		Elasticity:          0.3,
		Timescale:           1.0,
		Friction:            0.1,
		Cohesion:            0.2,
		Adhesion:            0.1,
		Viscosity:           0.1,
		AirResistance:       0.01,
		PressureMode:        PressureTopDown,
		PressureStrength:    1.0,
		RainRate:            0.0,
		WallsEnabled:        true,
		LeftThrowEnabled:    false,
		RightThrowEnabled:   false,
		WaterColumnEnabled:  false,
		DirtQuadrantEnabled: false,
		CohesionEnabled:     true,
		FrameLimitEnabled:   false,
		TimeReversalEnabled: false,
	}
}
