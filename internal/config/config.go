// Package config loads the game balance and runtime settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// ASTRODEBT_* environment overrides (a .env file in the working directory
// is merged into the environment first). The result is read once when a session
// is built; a restart reuses the same Config.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides (ASTRODEBT_GAMEPLAY_INITIAL_OXYGEN, ...).
const EnvPrefix = "ASTRODEBT"

// DotEnvFile is read before environment overrides when it exists.
// Variables already set in the process win.
var DotEnvFile = ".env"

// Game holds window and session settings.
type Game struct {
	Title        string `yaml:"title" split_words:"true"`
	ScreenWidth  int    `yaml:"screen_width" split_words:"true"`
	ScreenHeight int    `yaml:"screen_height" split_words:"true"`
	FPS          int    `yaml:"fps" split_words:"true"`
	Seed         uint64 `yaml:"seed" split_words:"true"` // 0 = seed from the clock
}

// Gameplay holds the resource and loan balance.
type Gameplay struct {
	InitialOxygen            float64 `yaml:"initial_oxygen" split_words:"true"`
	MaxOxygen                float64 `yaml:"max_oxygen" split_words:"true"`
	InitialMaterials         int     `yaml:"initial_materials" split_words:"true"`
	MaxMaterials             int     `yaml:"max_materials" split_words:"true"`
	OxygenConsumptionPerTurn float64 `yaml:"oxygen_consumption_per_turn" split_words:"true"`
	VictoryRepairThreshold   float64 `yaml:"victory_repair_threshold" split_words:"true"`
	MaxActiveLoans           int     `yaml:"max_active_loans" split_words:"true"`
	MaxDefaultedLoans        int     `yaml:"max_defaulted_loans" split_words:"true"`
	LoanTermTurns            int     `yaml:"loan_term_turns" split_words:"true"`
}

// Repair holds the repair attempt costs.
type Repair struct {
	OxygenCost         float64 `yaml:"oxygen_cost" split_words:"true"`
	MaterialsCostMin   int     `yaml:"materials_cost_min" split_words:"true"`
	MaterialsCostMax   int     `yaml:"materials_cost_max" split_words:"true"`
	ProgressPerSuccess float64 `yaml:"progress_per_success" split_words:"true"`
}

// Actions holds the randomized oxygen cost of starting a mining or repair run.
type Actions struct {
	OxygenCostMin int `yaml:"oxygen_cost_min" split_words:"true"`
	OxygenCostMax int `yaml:"oxygen_cost_max" split_words:"true"`
}

// Log configures the zap logger.
type Log struct {
	Level      string `yaml:"level" split_words:"true"`
	Encoding   string `yaml:"encoding" split_words:"true"`
	OutputPath string `yaml:"output_path" split_words:"true"`
}

// Metrics configures the optional prometheus exporter.
type Metrics struct {
	Addr string `yaml:"addr" split_words:"true"` // empty = disabled
}

// Config is the root configuration, mapping to the whole config file.
type Config struct {
	Game     Game     `yaml:"game"`
	Gameplay Gameplay `yaml:"gameplay"`
	Repair   Repair   `yaml:"repair"`
	Actions  Actions  `yaml:"actions"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Default returns the built-in balance.
func Default() Config {
	return Config{
		Game: Game{
			Title:        "AstroDebt - Stranded Ship",
			ScreenWidth:  1280,
			ScreenHeight: 720,
			FPS:          60,
		},
		Gameplay: Gameplay{
			InitialOxygen:            100,
			MaxOxygen:                100,
			InitialMaterials:         0,
			MaxMaterials:             100,
			OxygenConsumptionPerTurn: 1,
			VictoryRepairThreshold:   100,
			MaxActiveLoans:           3,
			MaxDefaultedLoans:        2,
			LoanTermTurns:            5,
		},
		Repair: Repair{
			OxygenCost:         3,
			MaterialsCostMin:   5,
			MaterialsCostMax:   10,
			ProgressPerSuccess: 15,
		},
		Actions: Actions{
			OxygenCostMin: 12,
			OxygenCostMax: 15,
		},
		Log: Log{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := Parse(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Parse overlays YAML (or JSON) data onto cfg. Keys missing from data keep
// their current values.
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Game.FPS <= 0 {
		return fmt.Errorf("game.fps must be positive, got %d", c.Game.FPS)
	}

	g := c.Gameplay
	switch {
	case g.MaxOxygen <= 0:
		return fmt.Errorf("gameplay.max_oxygen must be positive, got %v", g.MaxOxygen)
	case g.InitialOxygen <= 0 || g.InitialOxygen > g.MaxOxygen:
		return fmt.Errorf("gameplay.initial_oxygen must be in (0, %v], got %v", g.MaxOxygen, g.InitialOxygen)
	case g.MaxMaterials <= 0:
		return fmt.Errorf("gameplay.max_materials must be positive, got %d", g.MaxMaterials)
	case g.InitialMaterials < 0 || g.InitialMaterials > g.MaxMaterials:
		return fmt.Errorf("gameplay.initial_materials must be in [0, %d], got %d", g.MaxMaterials, g.InitialMaterials)
	case g.OxygenConsumptionPerTurn < 0:
		return fmt.Errorf("gameplay.oxygen_consumption_per_turn must not be negative")
	case g.VictoryRepairThreshold <= 0 || g.VictoryRepairThreshold > 100:
		return fmt.Errorf("gameplay.victory_repair_threshold must be in (0, 100], got %v", g.VictoryRepairThreshold)
	case g.MaxActiveLoans <= 0:
		return fmt.Errorf("gameplay.max_active_loans must be positive, got %d", g.MaxActiveLoans)
	case g.MaxDefaultedLoans <= 0:
		return fmt.Errorf("gameplay.max_defaulted_loans must be positive, got %d", g.MaxDefaultedLoans)
	case g.LoanTermTurns <= 0:
		return fmt.Errorf("gameplay.loan_term_turns must be positive, got %d", g.LoanTermTurns)
	}

	r := c.Repair
	if r.MaterialsCostMin <= 0 || r.MaterialsCostMax < r.MaterialsCostMin {
		return fmt.Errorf("repair materials cost range [%d, %d] is invalid", r.MaterialsCostMin, r.MaterialsCostMax)
	}
	if r.OxygenCost < 0 || r.ProgressPerSuccess <= 0 {
		return fmt.Errorf("repair.oxygen_cost and repair.progress_per_success are invalid")
	}

	a := c.Actions
	if a.OxygenCostMin < 0 || a.OxygenCostMax < a.OxygenCostMin {
		return fmt.Errorf("actions oxygen cost range [%d, %d] is invalid", a.OxygenCostMin, a.OxygenCostMax)
	}
	return nil
}
