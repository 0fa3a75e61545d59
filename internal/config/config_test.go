package config

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/ptyterm/internal/terminal"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Terminal.Scrollback != terminal.DefaultScrollback {
		t.Errorf("Scrollback = %d, want %d", cfg.Terminal.Scrollback, terminal.DefaultScrollback)
	}
	if cfg.Terminal.TabWidth != 8 {
		t.Errorf("TabWidth = %d, want 8", cfg.Terminal.TabWidth)
	}
	if cfg.Process.GracePeriod.Std() != 500*time.Millisecond {
		t.Errorf("GracePeriod = %v, want 500ms", cfg.Process.GracePeriod)
	}
	if cfg.Shell.Term != "xterm-256color" {
		t.Errorf("Term = %q, want xterm-256color", cfg.Shell.Term)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"bad env", func(c *Config) { c.Shell.Env = []string{"NOPE"} }, "shell.env"},
		{"negative cols", func(c *Config) { c.Terminal.Cols = -1 }, "terminal.cols"},
		{"huge rows", func(c *Config) { c.Terminal.Rows = 70000 }, "terminal.rows"},
		{"negative scrollback", func(c *Config) { c.Terminal.Scrollback = -5 }, "terminal.scrollback"},
		{"zero tab width", func(c *Config) { c.Terminal.TabWidth = 0 }, "terminal.tab_width"},
		{"unknown backend", func(c *Config) { c.Terminal.Backend = "xterm" }, "terminal.backend"},
		{"bad foreground", func(c *Config) { c.Theme.Foreground = "red" }, "theme.foreground"},
		{"bad palette entry", func(c *Config) { c.Theme.Palette = []string{"#000000", "#zzzzzz"} }, "theme.palette[1]"},
		{"long palette", func(c *Config) { c.Theme.Palette = make([]string, 17) }, "theme.palette"},
		{"negative grace", func(c *Config) { c.Process.GracePeriod = -1 }, "process.grace_period"},
		{"zero frame rate", func(c *Config) { c.UI.FrameRate = 0 }, "ui.frame_rate"},
		{"zero frame bytes", func(c *Config) { c.UI.MaxBytesPerFrame = 0 }, "ui.max_bytes_per_frame"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not *ValidationError", err)
			}
			if verr.Key != tt.key {
				t.Errorf("Key = %q, want %q", verr.Key, tt.key)
			}
		})
	}
}

func TestValidateBackendCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Terminal.Backend = "VT10X"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestThemeToPalette(t *testing.T) {
	theme := ThemeConfig{
		Foreground: "#ffffff",
		Background: "101010",
		Palette:    []string{"", "#ff0000"},
	}

	p, err := theme.ToPalette()
	if err != nil {
		t.Fatalf("ToPalette: %v", err)
	}

	def := terminal.DefaultPalette()
	if p.Foreground != (terminal.RGB{R: 255, G: 255, B: 255}) {
		t.Errorf("Foreground = %v", p.Foreground.Hex())
	}
	if p.Background != (terminal.RGB{R: 0x10, G: 0x10, B: 0x10}) {
		t.Errorf("Background = %v", p.Background.Hex())
	}
	if p.ANSI[0] != def.ANSI[0] {
		t.Errorf("ANSI[0] = %v, want default %v", p.ANSI[0].Hex(), def.ANSI[0].Hex())
	}
	if p.ANSI[1] != (terminal.RGB{R: 255}) {
		t.Errorf("ANSI[1] = %v, want #ff0000", p.ANSI[1].Hex())
	}
	if p.ANSI[15] != def.ANSI[15] {
		t.Errorf("ANSI[15] = %v, want default", p.ANSI[15].Hex())
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Shell.Command = []string{"bash", "-l"}
	cfg.Theme.Palette = []string{"#000000"}

	clone := cfg.Clone()
	clone.Shell.Command[0] = "zsh"
	clone.Theme.Palette[0] = "#ffffff"

	if cfg.Shell.Command[0] != "bash" {
		t.Errorf("clone shares Shell.Command")
	}
	if cfg.Theme.Palette[0] != "#000000" {
		t.Errorf("clone shares Theme.Palette")
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1.5s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Std() != 1500*time.Millisecond {
		t.Errorf("Std() = %v, want 1.5s", d.Std())
	}

	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "1.5s" {
		t.Errorf("MarshalText = %q, want 1.5s", text)
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected error for invalid duration")
	}
}
