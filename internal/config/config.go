// Package config loads and validates the environment-driven settings for
// the audit pipeline.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config holds API credentials and tool paths resolved from the environment.
type Config struct {
	SemrushAPIKey   string
	AnthropicAPIKey string

	// ScreamingFrogPath is the crawler CLI executable. It may also be a bare
	// binary name resolved through PATH.
	ScreamingFrogPath string

	// SemrushDatabase selects the regional Semrush database (e.g. "us").
	SemrushDatabase string

	// Model is the Anthropic model id used for copy generation.
	Model string
}

const (
	defaultDatabase = "us"
	defaultModel    = "claude-sonnet-4-5-20250929"
)

// Load reads an optional .env file and resolves the configuration from the
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		SemrushAPIKey:     os.Getenv("SEMRUSH_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		ScreamingFrogPath: os.Getenv("SCREAMING_FROG_PATH"),
		SemrushDatabase:   os.Getenv("SEMRUSH_DATABASE"),
		Model:             os.Getenv("SEOAUDIT_MODEL"),
	}

	if cfg.ScreamingFrogPath == "" {
		cfg.ScreamingFrogPath = defaultFrogPath()
	}
	if cfg.SemrushDatabase == "" {
		cfg.SemrushDatabase = defaultDatabase
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	return cfg, nil
}

// Validate checks that the required credentials are present. A missing
// crawler binary is only a warning since it may still be on PATH.
func (c *Config) Validate() error {
	var missing []string
	if c.SemrushAPIKey == "" {
		missing = append(missing, "SEMRUSH_API_KEY")
	}
	if c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}

	if _, err := os.Stat(c.ScreamingFrogPath); err != nil {
		log.Warn("Screaming Frog executable not found, relying on PATH",
			"path", c.ScreamingFrogPath)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	return nil
}

// defaultFrogPath returns the usual Screaming Frog install location for the
// current platform.
func defaultFrogPath() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Program Files (x86)\Screaming Frog SEO Spider\ScreamingFrogSEOSpiderCli.exe`
	case "darwin":
		return "/Applications/Screaming Frog SEO Spider.app/Contents/MacOS/ScreamingFrogSEOSpiderLauncher"
	default:
		return "screamingfrogseospider"
	}
}
