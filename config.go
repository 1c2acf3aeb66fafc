package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"gotap/card"
	"gotap/eventpipe"
	"gotap/feedback"
	"gotap/motion"
	"gotap/mqtt"
	"gotap/report"
)

// Config is the terminal's configuration file structure.
type Config struct {
	// ClientID names this terminal in MQTT topics.
	ClientID string `yaml:"client_id"`

	// Endpoint is the report URL prefix; the card token is appended to
	// it verbatim.
	Endpoint string `yaml:"endpoint"`

	// Block is the card data block holding the identity.
	Block int `yaml:"block"`

	MotionTimeoutSecs int    `yaml:"motion_timeout_secs"`
	HoldSecs          int    `yaml:"hold_secs"`
	TickMS            int    `yaml:"tick_ms"`
	LogLevel          string `yaml:"log_level"`

	Reader    card.Config      `yaml:"reader"`
	Motion    motion.Config    `yaml:"motion"`
	Feedback  feedback.Config  `yaml:"feedback"`
	Report    report.Config    `yaml:"report"`
	MQTT      mqtt.Config      `yaml:"mqtt"`
	EventPipe eventpipe.Config `yaml:"event_pipe"`
}

// loadConfig reads and validates the configuration file.
func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client_id missing in config file")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint missing in config file")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Block == 0 {
		c.Block = 4
	}
	if c.MotionTimeoutSecs == 0 {
		c.MotionTimeoutSecs = 10
	}
	if c.HoldSecs == 0 {
		c.HoldSecs = 3
	}
	if c.TickMS == 0 {
		c.TickMS = 100
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
