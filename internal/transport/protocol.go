package transport

import (
	"encoding/json"
	"fmt"

	"github.com/aortez/cellsim-server/internal/apperrors"
	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/event"
)

// inboundFrame is the self-describing text command envelope: a tag
// identifying the command plus an opaque payload.
type inboundFrame struct {
	Tag     string          `json:"tag"`
	Payload json.RawMessage `json:"payload"`
}

// errorFrame is the wire shape of a parse/argument/state error response.
type errorFrame struct {
	Error string `json:"error"`
}

// okFrame wraps a successful payload for the text response channel.
type okFrame struct {
	Tag     string `json:"tag"`
	Payload any    `json:"payload,omitempty"`
}

// decodeCommand parses an inbound text frame into the concrete event.Event
// it names, attaching respond as the command's one-shot callback. A parse
// failure (malformed JSON or unknown tag) is reported via apperrors rather
// than enqueued.
func decodeCommand(raw []byte, respond func(tag string, result any, err *apperrors.AppError)) (event.Event, *apperrors.AppError) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMalformedFrame, "malformed command frame", err)
	}

	switch frame.Tag {
	case "sim_run":
		var p struct {
			TimestepSeconds float64 `json:"timestep_seconds"`
			MaxSteps        int     `json:"max_steps"`
			ScenarioID      string  `json:"scenario_id"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.SimRun{
			TimestepS: p.TimestepSeconds, MaxSteps: p.MaxSteps, ScenarioID: p.ScenarioID,
			Respond: respondOK[event.SimRunOk](frame.Tag, respond),
		}, nil

	case "pause":
		return event.Pause{Respond: respondEmpty(frame.Tag, respond)}, nil
	case "resume":
		return event.Resume{Respond: respondEmpty(frame.Tag, respond)}, nil
	case "reset":
		return event.Reset{Respond: respondEmpty(frame.Tag, respond)}, nil
	case "exit":
		return event.Exit{Respond: respondEmpty(frame.Tag, respond)}, nil
	case "frame_ready":
		return event.FrameReady{Respond: respondEmpty(frame.Tag, respond)}, nil

	case "state_get":
		return event.StateGet{Respond: respondOK[*cellworld.WorldData](frame.Tag, respond)}, nil

	case "cell_get":
		var p struct{ X, Y int }
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.CellGet{X: p.X, Y: p.Y, Respond: respondOK[event.CellGetOk](frame.Tag, respond)}, nil

	case "cell_set":
		var p struct {
			X        int     `json:"x"`
			Y        int     `json:"y"`
			Material string  `json:"material"`
			Fill     float64 `json:"fill"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.CellSet{X: p.X, Y: p.Y, Material: p.Material, Fill: p.Fill, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "seed_add":
		var p struct{ X, Y int }
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.SeedAdd{X: p.X, Y: p.Y, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "spawn_dirt_ball", "spawn_ball":
		var p struct {
			Material string  `json:"material"`
			CenterX  float64 `json:"center_x"`
			CenterY  float64 `json:"center_y"`
			Radius   float64 `json:"radius"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		if p.Material == "" {
			p.Material = "DIRT"
		}
		return event.SpawnBall{Material: p.Material, CenterX: p.CenterX, CenterY: p.CenterY, Radius: p.Radius, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "material_select":
		var p struct {
			Material string `json:"material"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.MaterialSelect{Material: p.Material, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "gravity_set":
		var p struct {
			Gravity float64 `json:"gravity"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.GravitySet{Gravity: p.Gravity, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "physics_settings_get":
		return event.PhysicsSettingsGet{Respond: respondOK[cellworld.PhysicsSettings](frame.Tag, respond)}, nil

	case "physics_settings_set":
		var p cellworld.PhysicsSettings
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.PhysicsSettingsSet{Settings: p, Respond: respondOK[cellworld.PhysicsSettings](frame.Tag, respond)}, nil

	case "scenario_config_set":
		var p struct {
			Config map[string]float64 `json:"config"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.ScenarioConfigSet{Config: p.Config, Respond: respondOK[event.ScenarioConfigSetOk](frame.Tag, respond)}, nil

	case "rain_rate_set":
		var p struct {
			Rate float64 `json:"rate"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.RainRateSet{Rate: p.Rate, Respond: respondEmpty(frame.Tag, respond)}, nil

	case "pressure_mode_set":
		var p struct {
			Mode string `json:"mode"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.PressureModeSet{Mode: cellworld.PressureMode(p.Mode), Respond: respondEmpty(frame.Tag, respond)}, nil

	case "step_backward":
		return event.StepBackward{Respond: respondEmpty(frame.Tag, respond)}, nil

	case "perf_stats_get":
		return event.PerfStatsGet{Respond: respondOK[event.PerfStats](frame.Tag, respond)}, nil

	case "scenario_list":
		return event.ScenarioList{Respond: respondOK[event.ScenarioListOk](frame.Tag, respond)}, nil

	case "diagram_get":
		return event.DiagramGet{Respond: respondOK[event.DiagramGetOk](frame.Tag, respond)}, nil

	case "toggle_walls", "toggle_left_throw", "toggle_right_throw", "toggle_water_column",
		"toggle_dirt_quadrant", "toggle_cohesion", "toggle_frame_limit", "toggle_time_reversal":
		var p struct {
			Enabled bool `json:"enabled"`
		}
		if err := unmarshalPayload(frame.Payload, &p); err != nil {
			return nil, err
		}
		return event.Toggle{Field: toggleFieldForTag(frame.Tag), Enabled: p.Enabled, Respond: respondEmpty(frame.Tag, respond)}, nil
	}

	return nil, apperrors.Wrap(apperrors.ErrUnknownCommand, fmt.Sprintf("unknown command tag %q", frame.Tag), nil)
}

func toggleFieldForTag(tag string) event.ToggleField {
	switch tag {
	case "toggle_walls":
		return event.ToggleWalls
	case "toggle_left_throw":
		return event.ToggleLeftThrow
	case "toggle_right_throw":
		return event.ToggleRightThrow
	case "toggle_water_column":
		return event.ToggleWaterColumn
	case "toggle_dirt_quadrant":
		return event.ToggleDirtQuadrant
	case "toggle_cohesion":
		return event.ToggleCohesion
	case "toggle_frame_limit":
		return event.ToggleFrameLimit
	case "toggle_time_reversal":
		return event.ToggleTimeReversal
	}
	return ""
}

func unmarshalPayload(raw json.RawMessage, dst any) *apperrors.AppError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Wrap(apperrors.ErrMalformedFrame, "malformed command payload", err)
	}
	return nil
}

// respondOK/respondEmpty adapt the generic event.Result[T] callback shape
// into the untyped (tag, payload, err) shape the connection's write path
// understands, so protocol.go stays the single place that knows both the
// typed command API and the JSON wire shape.

func respondOK[T any](tag string, respond func(tag string, result any, err *apperrors.AppError)) func(event.Result[T]) {
	return func(r event.Result[T]) {
		if r.Err != nil {
			respond(tag, nil, r.Err)
			return
		}
		var payload any
		if r.Ok != nil {
			payload = *r.Ok
		}
		respond(tag, payload, nil)
	}
}

func respondEmpty(tag string, respond func(tag string, result any, err *apperrors.AppError)) func(event.Result[struct{}]) {
	return func(r event.Result[struct{}]) {
		if r.Err != nil {
			respond(tag, nil, r.Err)
			return
		}
		respond(tag, struct{}{}, nil)
	}
}
