package config

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
)

const (
	EnvExportTitle  = "IDEAGEN_EXPORT_TITLE"
	EnvExportLocale = "IDEAGEN_EXPORT_LOCALE"
)

// ExportConfig controls report rendering.
type ExportConfig struct {
	Title  string `toml:"title"`
	Locale string `toml:"locale"`
}

func (c *ExportConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *ExportConfig) Merge(overlay *ExportConfig) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Locale != "" {
		c.Locale = overlay.Locale
	}
}

func (c *ExportConfig) loadDefaults() {
	if c.Title == "" {
		c.Title = "Product Idea Report"
	}
	if c.Locale == "" {
		c.Locale = "id"
	}
}

func (c *ExportConfig) loadEnv() {
	if v := os.Getenv(EnvExportTitle); v != "" {
		c.Title = v
	}
	if v := os.Getenv(EnvExportLocale); v != "" {
		c.Locale = v
	}
}

func (c *ExportConfig) validate() error {
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return nil
}
