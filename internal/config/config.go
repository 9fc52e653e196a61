package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// WizardStages is how many stage timeouts a single request may span: the A2A
// endpoint runs every stage within one HTTP response.
const WizardStages = 4

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvIdeagenEnv = "IDEAGEN_ENV"
)

// Config is the root configuration for the idea wizard service.
type Config struct {
	Server ServerConfig `toml:"server"`
	Gemini GeminiConfig `toml:"gemini"`
	Wizard WizardConfig `toml:"wizard"`
	Export ExportConfig `toml:"export"`
	Log    LogConfig    `toml:"log"`
}

// Env returns the IDEAGEN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvIdeagenEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads .env into the process environment, then the base config (if
// present), applies any environment overlay, and finalizes all values. If no
// config.toml exists, defaults and environment variables provide all
// configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Gemini.Merge(&overlay.Gemini)
	c.Wizard.Merge(&overlay.Wizard)
	c.Export.Merge(&overlay.Export)
	c.Log.Merge(&overlay.Log)
}

func (c *Config) finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Gemini.Finalize(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := c.Wizard.Finalize(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	if err := c.Export.Finalize(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return c.validateTimeouts()
}

// validateTimeouts rejects a server write timeout that would cut off a
// request running every stage to its timeout. Zero disables the write
// timeout and is always accepted.
func (c *Config) validateTimeouts() error {
	write := c.Server.WriteTimeoutDuration()
	need := WizardStages * c.Wizard.StageTimeoutDuration()
	if write > 0 && write < need {
		return fmt.Errorf("server: write_timeout %s is shorter than %d x wizard.stage_timeout (%s)", write, WizardStages, need)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvIdeagenEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
