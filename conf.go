// Package aim wires user configuration into a runnable flow simulation.
// Scenario code builds a sim.Simulator from a Config, constructs blocks and
// spaces against it and calls Run.
package aim

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aim-sim/aim/sim"
	"github.com/pelletier/go-toml"
)

// UserConfig is the user configuration for a simulation. It holds settings
// that affect a full run, such as the seed and the tick budget. UserConfig
// may be serialised to TOML and can be converted to a sim.Config by calling
// UserConfig.Config().
type UserConfig struct {
	Simulation struct {
		// Seed seeds the simulator's random source. Two runs of the same
		// scenario with the same seed produce identical trajectories.
		Seed int64
		// MaxTicks is the number of ticks a run executes.
		MaxTicks int64
	}
	Metrics struct {
		// Enabled controls whether the simulator collects per-block and
		// per-space counters.
		Enabled bool
	}
}

// Config converts a UserConfig to a sim.Config using the logger passed.
func (uc UserConfig) Config(log *slog.Logger) (sim.Config, error) {
	if uc.Simulation.MaxTicks < 0 {
		return sim.Config{}, fmt.Errorf("aim: max ticks must not be negative, got %d", uc.Simulation.MaxTicks)
	}
	conf := sim.Config{
		Log:      log,
		Seed:     uc.Simulation.Seed,
		MaxTicks: uc.Simulation.MaxTicks,
	}
	if uc.Metrics.Enabled {
		conf.Metrics = sim.NewMetrics()
	}
	return conf, nil
}

// DefaultConfig returns a UserConfig with reasonable defaults filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Simulation.MaxTicks = 1000
	c.Metrics.Enabled = true
	return c
}

// ReadUserConfig reads a UserConfig from the TOML file at the path passed.
// If the file does not exist yet, it is created holding DefaultConfig.
func ReadUserConfig(path string) (UserConfig, error) {
	if path == "" {
		return UserConfig{}, errors.New("aim: config path must not be empty")
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c := DefaultConfig()
		if err := WriteUserConfig(path, c); err != nil {
			return UserConfig{}, err
		}
		return c, nil
	}
	if err != nil {
		return UserConfig{}, fmt.Errorf("aim: read config: %w", err)
	}
	var c UserConfig
	if err := toml.Unmarshal(data, &c); err != nil {
		return UserConfig{}, fmt.Errorf("aim: decode config: %w", err)
	}
	return c, nil
}

// WriteUserConfig writes a UserConfig to the TOML file at the path passed.
func WriteUserConfig(path string, c UserConfig) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("aim: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("aim: write config: %w", err)
	}
	return nil
}
