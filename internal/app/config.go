package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"devopsplayground/internal/engine"
	"devopsplayground/internal/state"
	"devopsplayground/internal/ui"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

const EnvPrefix = "PLAYGROUND_"

// Config controls runtime behavior for the playground.
type Config struct {
	CatalogPath string        `env:"CATALOG"`
	LogPath     string        `env:"LOG"`
	LogLevel    string        `env:"LOG_LEVEL"`
	DataDir     string        `env:"DATA_DIR"`
	ASCIIOnly   bool          `env:"ASCII"`
	Debug       bool          `env:"DEBUG"`
	RevealDelay time.Duration `env:"REVEAL_DELAY"`
	UI          UIConfig
}

type UIConfig struct {
	// StyleVariant left empty falls back to the stored setting, then modern_arcade.
	StyleVariant string `env:"STYLE"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		RevealDelay: engine.DefaultRevealDelay,
	}
}

// LoadEnv overlays PLAYGROUND_* environment variables on c. Unset variables
// leave the current values alone.
func LoadEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	c.UI.StyleVariant = strings.ToLower(strings.TrimSpace(c.UI.StyleVariant))
	if c.UI.StyleVariant != "" && !ui.ValidStyleVariant(c.UI.StyleVariant) {
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}

	if c.RevealDelay < 0 {
		return fmt.Errorf("invalid reveal delay %s", c.RevealDelay)
	}
	if c.RevealDelay == 0 {
		c.RevealDelay = engine.DefaultRevealDelay
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "devops-playground")
	}
	return nil
}

func (c Config) Level() log.Level {
	if c.Debug {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// applyPreferences fills values the user did not set from stored preferences.
func (c *Config) applyPreferences(p state.Preferences) {
	if c.UI.StyleVariant == "" && ui.ValidStyleVariant(p.StyleVariant) {
		c.UI.StyleVariant = ui.NormalizeStyleVariant(p.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	if !c.ASCIIOnly && p.ASCIIOnly != nil {
		c.ASCIIOnly = *p.ASCIIOnly
	}
}
