package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvGeminiAPIKey          = "GEMINI_API_KEY"
	EnvGeminiFastModel       = "IDEAGEN_GEMINI_FAST_MODEL"
	EnvGeminiDeepModel       = "IDEAGEN_GEMINI_DEEP_MODEL"
	EnvGeminiTopP            = "IDEAGEN_GEMINI_TOP_P"
	EnvGeminiMaxOutputTokens = "IDEAGEN_GEMINI_MAX_OUTPUT_TOKENS"
)

// GeminiConfig selects the models used by the stages. An empty APIKey is
// valid: the service starts and every stage request fails.
type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`
	FastModel       string  `toml:"fast_model"`
	DeepModel       string  `toml:"deep_model"`
	TopP            float32 `toml:"top_p"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
}

func (c *GeminiConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *GeminiConfig) Merge(overlay *GeminiConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.FastModel != "" {
		c.FastModel = overlay.FastModel
	}
	if overlay.DeepModel != "" {
		c.DeepModel = overlay.DeepModel
	}
	if overlay.TopP != 0 {
		c.TopP = overlay.TopP
	}
	if overlay.MaxOutputTokens != 0 {
		c.MaxOutputTokens = overlay.MaxOutputTokens
	}
}

func (c *GeminiConfig) loadDefaults() {
	if c.FastModel == "" {
		c.FastModel = "gemini-2.5-flash"
	}
	if c.DeepModel == "" {
		c.DeepModel = "gemini-2.5-pro"
	}
	if c.TopP == 0 {
		c.TopP = 0.95
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = 8192
	}
}

func (c *GeminiConfig) loadEnv() {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvGeminiFastModel); v != "" {
		c.FastModel = v
	}
	if v := os.Getenv(EnvGeminiDeepModel); v != "" {
		c.DeepModel = v
	}
	if v := os.Getenv(EnvGeminiTopP); v != "" {
		if p, err := strconv.ParseFloat(v, 32); err == nil {
			c.TopP = float32(p)
		}
	}
	if v := os.Getenv(EnvGeminiMaxOutputTokens); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			c.MaxOutputTokens = int32(n)
		}
	}
}

func (c *GeminiConfig) validate() error {
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("invalid top_p: %v", c.TopP)
	}
	if c.MaxOutputTokens < 1 {
		return fmt.Errorf("invalid max_output_tokens: %d", c.MaxOutputTokens)
	}
	return nil
}
