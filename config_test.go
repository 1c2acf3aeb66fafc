package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gotap.cfg")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
client_id: lab-door-2
endpoint: "https://logs.example/attend.php?tag="
block: 8
motion_timeout_secs: 15
log_level: debug
reader:
  type: serial
  device: /dev/ttyUSB0
  baud: 115200
motion:
  type: gpiocdev
  pin: 17
  invert: true
feedback:
  console: true
  buzzer:
    pin: 13
    mode: pwm
mqtt:
  host: broker.example
  port: 8883
event_pipe:
  path: /tmp/gotap-events
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.ClientID != "lab-door-2" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if cfg.Endpoint != "https://logs.example/attend.php?tag=" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Block != 8 {
		t.Errorf("Block = %d, want 8", cfg.Block)
	}
	if cfg.MotionTimeoutSecs != 15 {
		t.Errorf("MotionTimeoutSecs = %d, want 15", cfg.MotionTimeoutSecs)
	}
	if cfg.Reader.Type != "serial" || cfg.Reader.Device != "/dev/ttyUSB0" || cfg.Reader.Baud != 115200 {
		t.Errorf("Reader = %+v", cfg.Reader)
	}
	if cfg.Motion.Pin != 17 || !cfg.Motion.Invert {
		t.Errorf("Motion = %+v", cfg.Motion)
	}
	if !cfg.Feedback.Console || cfg.Feedback.Buzzer.Pin != 13 || cfg.Feedback.Buzzer.Mode != "pwm" {
		t.Errorf("Feedback = %+v", cfg.Feedback)
	}
	if cfg.MQTT.Host != "broker.example" || cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.EventPipe.Path != "/tmp/gotap-events" {
		t.Errorf("EventPipe = %+v", cfg.EventPipe)
	}

	// Unset fields pick up defaults.
	if cfg.HoldSecs != 3 {
		t.Errorf("HoldSecs default = %d, want 3", cfg.HoldSecs)
	}
	if cfg.TickMS != 100 {
		t.Errorf("TickMS default = %d, want 100", cfg.TickMS)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
client_id: t1
endpoint: "http://x/a?tag="
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Block != 4 || cfg.MotionTimeoutSecs != 10 || cfg.HoldSecs != 3 || cfg.TickMS != 100 {
		t.Errorf("defaults = block %d, window %ds, hold %ds, tick %dms",
			cfg.Block, cfg.MotionTimeoutSecs, cfg.HoldSecs, cfg.TickMS)
	}
}

func TestLoadConfigRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing client_id", "endpoint: http://x/\n"},
		{"missing endpoint", "client_id: t1\n"},
		{"not yaml", "{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cfg, err := loadConfig(writeConfig(t, tt.body)); err == nil {
				t.Errorf("loadConfig accepted %s: %+v", tt.name, cfg)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.cfg")); err == nil {
		t.Error("loadConfig accepted a missing file")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := logLevel(tt.in); got != tt.want {
			t.Errorf("logLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
