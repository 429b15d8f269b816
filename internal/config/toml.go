// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/cubetui/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer    TimerConfig    `toml:"timer"`
	Training TrainingConfig `toml:"training"`
	Stats    StatsConfig    `toml:"stats"`
}

// TimerConfig maps timer settings. Unset keys leave stored settings alone.
type TimerConfig struct {
	HoldTime          *int    `toml:"hold-time"`
	Precision         *int    `toml:"precision"`
	Visualization     *string `toml:"visualization"`
	ShowVisualization *bool   `toml:"show-visualization"`
	ShowScramble      *bool   `toml:"show-scramble"`
	HideTime          *bool   `toml:"hide-time"`
	ScrambleLength    *int    `toml:"scramble-length"`
}

// TrainingConfig maps trainer settings.
type TrainingConfig struct {
	Catalog  *string `toml:"catalog"`
	Category *string `toml:"category"`
}

// StatsConfig maps stats settings.
type StatsConfig struct {
	Range *string `toml:"range"`
	Last  *int    `toml:"last"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplySettings overlays the values set in the [timer] section onto s.
func (t TimerConfig) ApplySettings(s model.Settings) model.Settings {
	if t.HoldTime != nil {
		s.HoldTimeMs = *t.HoldTime
	}
	if t.Precision != nil {
		s.DisplayPrecision = *t.Precision
	}
	if t.Visualization != nil {
		s.VisualizationMode = *t.Visualization
	}
	if t.ShowVisualization != nil {
		s.ShowVisualization = *t.ShowVisualization
	}
	if t.ShowScramble != nil {
		s.ShowScramble = *t.ShowScramble
	}
	if t.HideTime != nil {
		s.HideTimeWhileRunning = *t.HideTime
	}
	return s
}

// Template returns the commented config file written by `cubetui config`.
func Template(defaults model.Settings, scrambleLength int) string {
	return fmt.Sprintf(`# cubetui configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# hold-time = %d              # Milliseconds to hold space before the timer arms (%d-%d)
# precision = %d               # Decimal places shown (2 or 3)
# visualization = %q      # Scramble preview: "2d-net" or "3d"
# show-visualization = %t
# show-scramble = %t
# hide-time = %t              # Hide the running time
# scramble-length = %d

[training]
# catalog = ""                # Path to a YAML case set; empty uses the built-in F2L set
# category = ""               # Only train cases in this category

[stats]
# range = "all"               # 7d, 30d or all
# last = 0                    # Limit to the last N solves (0 = all)
`,
		defaults.HoldTimeMs,
		model.MinHoldTimeMs,
		model.MaxHoldTimeMs,
		defaults.DisplayPrecision,
		defaults.VisualizationMode,
		defaults.ShowVisualization,
		defaults.ShowScramble,
		defaults.HideTimeWhileRunning,
		scrambleLength,
	)
}
