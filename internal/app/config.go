package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls runtime behavior for the TUI app. Flags fill it first,
// then CODECOACH_* environment variables override via LoadEnv.
type Config struct {
	Dev          bool   `env:"CODECOACH_DEV"`
	DevHTTP      string `env:"CODECOACH_DEV_HTTP"`
	LogPath      string `env:"CODECOACH_LOG"`
	LogLevel     string `env:"CODECOACH_LOG_LEVEL"`
	DebugLayout  bool
	DemoScenario string
	ASCIIOnly    bool   `env:"CODECOACH_ASCII"`
	ContentDir   string `env:"CODECOACH_CONTENT_DIR"`
	Language     string `env:"CODECOACH_LANGUAGE"`
	Coach        CoachConfig
	UI           UIConfig
}

type CoachConfig struct {
	AnalysisDelayMS int   `env:"CODECOACH_ANALYSIS_DELAY_MS"`
	DebugDelayMS    int   `env:"CODECOACH_DEBUG_DELAY_MS"`
	RandomSeed      int64 `env:"CODECOACH_RANDOM_SEED"`
}

type UIConfig struct {
	StyleVariant string `env:"CODECOACH_STYLE"`
	MotionLevel  string `env:"CODECOACH_MOTION"`
	MouseScope   string `env:"CODECOACH_MOUSE"`
}

func DefaultConfig() Config {
	return Config{
		DevHTTP:    "127.0.0.1:17821",
		LogLevel:   "info",
		ContentDir: "content",
		Language:   "javascript",
		Coach: CoachConfig{
			AnalysisDelayMS: 1500,
			DebugDelayMS:    1000,
		},
		UI: UIConfig{
			StyleVariant: "studio_dark",
			MotionLevel:  "full",
			MouseScope:   "scoped",
		},
	}
}

func (c *Config) LoadEnv() error {
	return env.Parse(c)
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.UI.StyleVariant {
	case "", "studio_dark", "paper_light", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "studio_dark"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	switch c.UI.MouseScope {
	case "", "off", "scoped", "full":
	default:
		return fmt.Errorf("invalid ui mouse scope %q", c.UI.MouseScope)
	}
	if c.UI.MouseScope == "" {
		c.UI.MouseScope = "scoped"
	}
	if c.Coach.AnalysisDelayMS < 0 {
		return fmt.Errorf("analysis delay must be >= 0, got %d", c.Coach.AnalysisDelayMS)
	}
	if c.Coach.DebugDelayMS < 0 {
		return fmt.Errorf("debug delay must be >= 0, got %d", c.Coach.DebugDelayMS)
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	c.Language = normalizeLanguage(c.Language)
	return nil
}
