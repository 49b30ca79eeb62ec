package aim

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	conf, err := c.Config(slog.Default())
	if err != nil {
		t.Fatalf("expected the default config to convert, got %v", err)
	}
	if conf.MaxTicks != 1000 {
		t.Fatalf("expected a default tick budget of 1000, got %d", conf.MaxTicks)
	}
	if conf.Metrics == nil {
		t.Fatalf("expected metrics enabled by default")
	}
}

func TestConfigRejectsNegativeMaxTicks(t *testing.T) {
	c := DefaultConfig()
	c.Simulation.MaxTicks = -1
	if _, err := c.Config(slog.Default()); err == nil {
		t.Fatalf("expected an error for a negative tick budget")
	}
}

func TestReadUserConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aim.toml")
	c, err := ReadUserConfig(path)
	if err != nil {
		t.Fatalf("expected a default config to be created, got %v", err)
	}
	if c.Simulation.MaxTicks != DefaultConfig().Simulation.MaxTicks {
		t.Fatalf("expected the created file to hold the default config")
	}

	c.Simulation.Seed = 1234
	c.Simulation.MaxTicks = 77
	if err := WriteUserConfig(path, c); err != nil {
		t.Fatalf("expected the config to round-trip, got %v", err)
	}
	read, err := ReadUserConfig(path)
	if err != nil {
		t.Fatalf("expected the config to read back, got %v", err)
	}
	if read.Simulation.Seed != 1234 || read.Simulation.MaxTicks != 77 {
		t.Fatalf("expected seed 1234 and 77 ticks after the round-trip, got %+v", read.Simulation)
	}
}
