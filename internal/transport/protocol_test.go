package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aortez/cellsim-server/internal/apperrors"
	"github.com/aortez/cellsim-server/internal/event"
)

func noopRespond(tag string, result any, err *apperrors.AppError) {}

func TestDecodeCommand_SimRun(t *testing.T) {
	raw := []byte(`{"tag":"sim_run","payload":{"timestep_seconds":0.016,"max_steps":30,"scenario_id":"dam_break"}}`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, err)

	simRun, ok := cmd.(event.SimRun)
	require.True(t, ok)
	assert.Equal(t, 0.016, simRun.TimestepS)
	assert.Equal(t, 30, simRun.MaxSteps)
	assert.Equal(t, "dam_break", simRun.ScenarioID)
}

func TestDecodeCommand_CellSet(t *testing.T) {
	raw := []byte(`{"tag":"cell_set","payload":{"x":1,"y":2,"material":"WATER","fill":1}}`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, err)

	cellSet, ok := cmd.(event.CellSet)
	require.True(t, ok)
	assert.Equal(t, 1, cellSet.X)
	assert.Equal(t, 2, cellSet.Y)
	assert.Equal(t, "WATER", cellSet.Material)
	assert.Equal(t, 1.0, cellSet.Fill)
}

func TestDecodeCommand_NoPayloadCommands(t *testing.T) {
	for _, tag := range []string{"pause", "resume", "reset", "exit", "frame_ready", "state_get", "scenario_list", "diagram_get", "perf_stats_get", "step_backward"} {
		raw := []byte(`{"tag":"` + tag + `"}`)
		cmd, err := decodeCommand(raw, noopRespond)
		require.Nil(t, err, "tag %q", tag)
		assert.NotNil(t, cmd, "tag %q", tag)
	}
}

func TestDecodeCommand_MaterialSelect(t *testing.T) {
	raw := []byte(`{"tag":"material_select","payload":{"material":"SAND"}}`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, err)

	sel, ok := cmd.(event.MaterialSelect)
	require.True(t, ok)
	assert.Equal(t, "SAND", sel.Material)
}

func TestDecodeCommand_UnknownTagIsParseError(t *testing.T) {
	raw := []byte(`{"tag":"not_a_real_command"}`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, cmd)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ClassParse, err.Class)
}

func TestDecodeCommand_MalformedJSONIsParseError(t *testing.T) {
	raw := []byte(`{not json`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, cmd)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ClassParse, err.Class)
}

func TestDecodeCommand_MalformedPayloadIsParseError(t *testing.T) {
	raw := []byte(`{"tag":"cell_set","payload":{"x":"not-an-int"}}`)

	cmd, err := decodeCommand(raw, noopRespond)
	require.Nil(t, cmd)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ClassParse, err.Class)
}

func TestDecodeCommand_ToggleFields(t *testing.T) {
	cases := map[string]event.ToggleField{
		"toggle_walls":          event.ToggleWalls,
		"toggle_left_throw":     event.ToggleLeftThrow,
		"toggle_right_throw":    event.ToggleRightThrow,
		"toggle_water_column":   event.ToggleWaterColumn,
		"toggle_dirt_quadrant":  event.ToggleDirtQuadrant,
		"toggle_cohesion":       event.ToggleCohesion,
		"toggle_frame_limit":    event.ToggleFrameLimit,
		"toggle_time_reversal":  event.ToggleTimeReversal,
	}
	for tag, want := range cases {
		raw := []byte(`{"tag":"` + tag + `","payload":{"enabled":true}}`)
		cmd, err := decodeCommand(raw, noopRespond)
		require.Nil(t, err, "tag %q", tag)
		toggle, ok := cmd.(event.Toggle)
		require.True(t, ok, "tag %q", tag)
		assert.Equal(t, want, toggle.Field)
		assert.True(t, toggle.Enabled)
	}
}

func TestRespondOK_PropagatesErrAndOk(t *testing.T) {
	var gotTag string
	var gotResult any
	var gotErr *apperrors.AppError
	capture := func(tag string, result any, err *apperrors.AppError) {
		gotTag, gotResult, gotErr = tag, result, err
	}

	fn := respondOK[event.SimRunOk]("sim_run", capture)
	fn(event.OK(event.SimRunOk{Running: true, CurrentStep: 3}))
	assert.Equal(t, "sim_run", gotTag)
	assert.Equal(t, event.SimRunOk{Running: true, CurrentStep: 3}, gotResult)
	assert.Nil(t, gotErr)

	fn(event.Fail[event.SimRunOk](apperrors.ErrAlreadyRunning))
	assert.Equal(t, apperrors.ErrAlreadyRunning, gotErr)
}
