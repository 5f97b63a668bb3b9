package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultSteps, cfg.Steps)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.PrintStats)
	assert.Equal(t, DefaultFixedDTMs, cfg.FixedDTMs)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
	assert.Equal(t, DefaultScenario, cfg.Scenario)
}

func TestLoad_WidthHeightFlags(t *testing.T) {
	cfg, err := Load([]string{"--width=6", "--height=6", "--scenario=dam_break"})
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, 6, cfg.Height)
	assert.Equal(t, "dam_break", cfg.Scenario)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{"--port=9090", "--steps=100", "--log-level=debug", "--print-stats"})
	require.NoError(t, err)

	assert.EqualValues(t, 9090, cfg.Port)
	assert.Equal(t, 100, cfg.Steps)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.PrintStats)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	_, err := Load([]string{"--log-level=verbose"})
	assert.Error(t, err)
}

func TestLoad_InvalidFlag(t *testing.T) {
	_, err := Load([]string{"--not-a-flag"})
	assert.Error(t, err)
}
