// Package config resolves the server's CLI/env configuration: pflag flags
// bound through viper, so every flag is also settable as a CELLSIM_*
// environment variable.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig is the fully resolved configuration for a server process,
// bound from CLI flags with environment-variable fallback (CELLSIM_* prefix).
type ServerConfig struct {
	Port         uint16 `mapstructure:"port"`
	Steps        int    `mapstructure:"steps"`
	LogLevel     string `mapstructure:"log_level"`
	PrintStats   bool   `mapstructure:"print_stats"`
	NATSURL      string `mapstructure:"nats_url"`
	TickInterval int    `mapstructure:"tick_interval_ms"`
	FixedDTMs    int    `mapstructure:"fixed_dt_ms"` // test-only override of FIXED_DT
	Width        int    `mapstructure:"width"`
	Height       int    `mapstructure:"height"`
	Scenario     string `mapstructure:"scenario"`
}

// Default values for the CLI surface.
const (
	DefaultPort         = uint16(8080)
	DefaultSteps        = 0 // 0 = unlimited
	DefaultLogLevel     = "info"
	DefaultTickInterval = 10 // ms; pacing primitive, not the physics timestep
	DefaultFixedDTMs    = 16
	DefaultWidth        = 64
	DefaultHeight       = 64
	DefaultScenario     = "sandbox"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "critical": true, "off": true,
}

// ErrHelp is returned when --help was requested. It is not a parse
// failure: callers should print usage and exit 0; genuine parse failures
// exit 1.
var ErrHelp = pflag.ErrHelp

// Load parses args (typically os.Args[1:]) and environment variables into a
// ServerConfig. Returns ErrHelp on --help (clean exit), or a parse error
// (exit code 1 per §6) on bad flags or an invalid --log-level.
func Load(args []string) (*ServerConfig, error) {
	fs := pflag.NewFlagSet("cellsim-server", pflag.ContinueOnError)
	fs.Uint16("port", DefaultPort, "TCP port to listen on")
	fs.Int("steps", DefaultSteps, "initial step budget (0 = unlimited)")
	fs.String("log-level", DefaultLogLevel, "trace|debug|info|warn|error|critical|off")
	fs.Bool("print-stats", false, "periodically log performance stats")
	fs.String("nats-url", "", "optional NATS URL for telemetry publishing")
	fs.Int("width", DefaultWidth, "world grid width, in cells")
	fs.Int("height", DefaultHeight, "world grid height, in cells")
	fs.String("scenario", DefaultScenario, "default scenario applied when sim_run omits one")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}

	vp := viper.New()
	vp.SetEnvPrefix("CELLSIM")
	vp.AutomaticEnv()
	if err := vp.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("steps", fs.Lookup("steps")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("log_level", fs.Lookup("log-level")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("print_stats", fs.Lookup("print-stats")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("nats_url", fs.Lookup("nats-url")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("width", fs.Lookup("width")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("height", fs.Lookup("height")); err != nil {
		return nil, err
	}
	if err := vp.BindPFlag("scenario", fs.Lookup("scenario")); err != nil {
		return nil, err
	}
	vp.SetDefault("tick_interval_ms", DefaultTickInterval)
	vp.SetDefault("fixed_dt_ms", DefaultFixedDTMs)

	cfg := &ServerConfig{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if !validLogLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("config: invalid --log-level %q", cfg.LogLevel)
	}

	return cfg, nil
}
