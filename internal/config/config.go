// Package config loads the bot configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the bot reads at startup.
type Config struct {
	// CommandPrefix is the literal a message must start with to address the bot.
	CommandPrefix string

	// SessionPath is where the opaque session blob lives. Empty disables
	// persistence entirely.
	SessionPath string

	// SelectorPath optionally overrides the built-in selector mapping.
	SelectorPath string

	// LogLevel is debug/info/warn/error.
	LogLevel string

	// SimulationMode disables outbound submission while keeping the rest of
	// the pipeline live.
	SimulationMode bool

	// GoogleAPIKey enables AI-backed replies; empty disables them.
	GoogleAPIKey string

	// PollInterval is the cadence of the scan loop.
	PollInterval time.Duration

	// Headless runs the browser without a window. Off by default: the QR
	// challenge needs a human in front of the screen.
	Headless bool
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		CommandPrefix: "/bot",
		LogLevel:      "info",
		PollInterval:  2 * time.Second,
	}
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Default()
	if v := os.Getenv("BOT_COMMAND_PREFIX"); v != "" {
		cfg.CommandPrefix = v
	}
	cfg.SessionPath = os.Getenv("SESSION_PATH")
	cfg.SelectorPath = os.Getenv("SELECTOR_PATH")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.SimulationMode = parseBool(os.Getenv("SIMULATION_MODE"))
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.Headless = parseBool(os.Getenv("HEADLESS"))

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs <= 0 {
			return cfg, fmt.Errorf("POLL_INTERVAL must be a positive number of seconds, got %q", v)
		}
		cfg.PollInterval = time.Duration(secs * float64(time.Second))
	}

	if strings.TrimSpace(cfg.CommandPrefix) == "" {
		return cfg, fmt.Errorf("BOT_COMMAND_PREFIX must not be blank")
	}
	return cfg, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
