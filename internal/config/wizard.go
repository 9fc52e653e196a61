package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWizardStageTimeout = "IDEAGEN_WIZARD_STAGE_TIMEOUT"
	EnvWizardMaxSessions  = "IDEAGEN_WIZARD_MAX_SESSIONS"
	EnvWizardSessionTTL   = "IDEAGEN_WIZARD_SESSION_TTL"
	EnvWizardLanguage     = "IDEAGEN_WIZARD_LANGUAGE"
	EnvWizardPromptsFile  = "IDEAGEN_WIZARD_PROMPTS_FILE"
)

// WizardConfig controls stage execution and session lifetime.
type WizardConfig struct {
	StageTimeout string `toml:"stage_timeout"`
	MaxSessions  int    `toml:"max_sessions"`
	SessionTTL   string `toml:"session_ttl"`
	Language     string `toml:"language"`
	PromptsFile  string `toml:"prompts_file"`
}

func (c *WizardConfig) StageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StageTimeout)
	return d
}

func (c *WizardConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

func (c *WizardConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *WizardConfig) Merge(overlay *WizardConfig) {
	if overlay.StageTimeout != "" {
		c.StageTimeout = overlay.StageTimeout
	}
	if overlay.MaxSessions != 0 {
		c.MaxSessions = overlay.MaxSessions
	}
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.Language != "" {
		c.Language = overlay.Language
	}
	if overlay.PromptsFile != "" {
		c.PromptsFile = overlay.PromptsFile
	}
}

func (c *WizardConfig) loadDefaults() {
	if c.StageTimeout == "" {
		c.StageTimeout = "3m"
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = 1000
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "24h"
	}
	if c.Language == "" {
		c.Language = "English"
	}
}

func (c *WizardConfig) loadEnv() {
	if v := os.Getenv(EnvWizardStageTimeout); v != "" {
		c.StageTimeout = v
	}
	if v := os.Getenv(EnvWizardMaxSessions); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSessions = n
		}
	}
	if v := os.Getenv(EnvWizardSessionTTL); v != "" {
		c.SessionTTL = v
	}
	if v := os.Getenv(EnvWizardLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvWizardPromptsFile); v != "" {
		c.PromptsFile = v
	}
}

func (c *WizardConfig) validate() error {
	d, err := time.ParseDuration(c.StageTimeout)
	if err != nil {
		return fmt.Errorf("invalid stage_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid stage_timeout: %s", c.StageTimeout)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("invalid max_sessions: %d", c.MaxSessions)
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	return nil
}
