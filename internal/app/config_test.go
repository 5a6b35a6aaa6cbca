package app

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devopsplayground/internal/state"

	"github.com/charmbracelet/log"
)

func TestValidateNormalizesDefaults(t *testing.T) {
	cfg := Config{DataDir: t.TempDir()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.RevealDelay != time.Second {
		t.Fatalf("expected default reveal delay, got %s", cfg.RevealDelay)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if cfg.UI.StyleVariant != "" {
		t.Fatalf("expected style to stay unset until settings load, got %q", cfg.UI.StyleVariant)
	}
}

func TestValidateDefaultsDataDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.HasSuffix(cfg.DataDir, filepath.Join(".local", "share", "devops-playground")) {
		t.Fatalf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.SettingsPath() != filepath.Join(cfg.DataDir, "settings.db") {
		t.Fatalf("unexpected settings path %q", cfg.SettingsPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []Config{
		{DataDir: "x", UI: UIConfig{StyleVariant: "neon"}},
		{DataDir: "x", RevealDelay: -time.Second},
		{DataDir: "x", LogLevel: "loud"},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestValidateLowercasesStyle(t *testing.T) {
	cfg := Config{DataDir: "x", UI: UIConfig{StyleVariant: " Retro_Terminal "}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.UI.StyleVariant != "retro_terminal" {
		t.Fatalf("unexpected style %q", cfg.UI.StyleVariant)
	}
}

func TestLoadEnvOverlaysDefaults(t *testing.T) {
	t.Setenv("PLAYGROUND_CATALOG", "/tmp/lessons")
	t.Setenv("PLAYGROUND_ASCII", "true")
	t.Setenv("PLAYGROUND_STYLE", "cozy_clean")
	t.Setenv("PLAYGROUND_REVEAL_DELAY", "250ms")

	cfg := DefaultConfig()
	cfg.LogPath = "/tmp/keep.log"
	if err := LoadEnv(&cfg); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.CatalogPath != "/tmp/lessons" || !cfg.ASCIIOnly {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.UI.StyleVariant != "cozy_clean" {
		t.Fatalf("expected nested style from env, got %q", cfg.UI.StyleVariant)
	}
	if cfg.RevealDelay != 250*time.Millisecond {
		t.Fatalf("unexpected reveal delay %s", cfg.RevealDelay)
	}
	if cfg.LogPath != "/tmp/keep.log" {
		t.Fatalf("expected unset env to keep existing value, got %q", cfg.LogPath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level to survive, got %q", cfg.LogLevel)
	}
}

func TestLoadEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("PLAYGROUND_REVEAL_DELAY", "soon")
	cfg := DefaultConfig()
	if err := LoadEnv(&cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyPreferencesFillsOnlyUnsetValues(t *testing.T) {
	ascii := true
	prefs := state.Preferences{StyleVariant: "retro_terminal", ASCIIOnly: &ascii}

	cfg := Config{}
	cfg.applyPreferences(prefs)
	if cfg.UI.StyleVariant != "retro_terminal" || !cfg.ASCIIOnly {
		t.Fatalf("expected stored settings to apply, got %+v", cfg)
	}

	cfg = Config{UI: UIConfig{StyleVariant: "cozy_clean"}}
	cfg.applyPreferences(prefs)
	if cfg.UI.StyleVariant != "cozy_clean" {
		t.Fatalf("expected explicit style to win, got %q", cfg.UI.StyleVariant)
	}

	cfg = Config{}
	cfg.applyPreferences(state.Preferences{StyleVariant: "bogus"})
	if cfg.UI.StyleVariant != "modern_arcade" {
		t.Fatalf("expected fallback style, got %q", cfg.UI.StyleVariant)
	}
}

func TestLevel(t *testing.T) {
	if got := (Config{LogLevel: "warn"}).Level(); got != log.WarnLevel {
		t.Fatalf("expected warn, got %v", got)
	}
	if got := (Config{LogLevel: "warn", Debug: true}).Level(); got != log.DebugLevel {
		t.Fatalf("expected debug override, got %v", got)
	}
}
