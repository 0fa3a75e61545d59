package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/ptyterm/internal/terminal"
)

// Config is the complete ptyterm configuration.
type Config struct {
	Shell    ShellConfig    `toml:"shell" yaml:"shell"`
	Terminal TerminalConfig `toml:"terminal" yaml:"terminal"`
	Theme    ThemeConfig    `toml:"theme" yaml:"theme"`
	Process  ProcessConfig  `toml:"process" yaml:"process"`
	UI       UIConfig       `toml:"ui" yaml:"ui"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// ShellConfig selects the program started in a new session.
type ShellConfig struct {
	// Command is the argv to run. Empty falls back to $SHELL, then /bin/sh.
	Command []string `toml:"command" yaml:"command"`

	// Env holds extra KEY=VALUE entries added to the inherited environment.
	Env []string `toml:"env" yaml:"env"`

	// WorkDir is the child's working directory. Empty inherits ours.
	WorkDir string `toml:"workdir" yaml:"workdir"`

	// Term is exported to the child as TERM.
	Term string `toml:"term" yaml:"term"`
}

// TerminalConfig controls the emulator.
type TerminalConfig struct {
	// Cols and Rows fix the geometry. Zero follows the host window.
	Cols int `toml:"cols" yaml:"cols"`
	Rows int `toml:"rows" yaml:"rows"`

	Scrollback int    `toml:"scrollback" yaml:"scrollback"`
	TabWidth   int    `toml:"tab_width" yaml:"tab_width"`
	Backend    string `toml:"backend" yaml:"backend"`
}

// ThemeConfig overrides the default colors. Values are #rrggbb strings;
// empty entries keep the built-in color.
type ThemeConfig struct {
	Foreground string `toml:"foreground" yaml:"foreground"`
	Background string `toml:"background" yaml:"background"`

	// Palette replaces the 16 ANSI colors in order, black first.
	Palette []string `toml:"palette" yaml:"palette"`
}

// ProcessConfig controls child lifecycle.
type ProcessConfig struct {
	GracePeriod  Duration `toml:"grace_period" yaml:"grace_period"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`

	// MaxProcesses caps concurrent sessions (0 = unlimited).
	MaxProcesses int `toml:"max_processes" yaml:"max_processes"`
}

// UIConfig controls the interactive window.
type UIConfig struct {
	FrameRate        int  `toml:"frame_rate" yaml:"frame_rate"`
	MaxBytesPerFrame int  `toml:"max_bytes_per_frame" yaml:"max_bytes_per_frame"`
	StatusLine       bool `toml:"status_line" yaml:"status_line"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// File receives log output. Empty means the caller's fallback writer.
	File string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Term: "xterm-256color",
		},
		Terminal: TerminalConfig{
			Scrollback: terminal.DefaultScrollback,
			TabWidth:   terminal.DefaultTabWidth,
			Backend:    terminal.BackendBuiltin,
		},
		Process: ProcessConfig{
			GracePeriod:  Duration(500 * time.Millisecond),
			PollInterval: Duration(10 * time.Millisecond),
		},
		UI: UIConfig{
			FrameRate:        60,
			MaxBytesPerFrame: 64 * 1024,
			StatusLine:       true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Shell.Command = append([]string(nil), c.Shell.Command...)
	out.Shell.Env = append([]string(nil), c.Shell.Env...)
	out.Theme.Palette = append([]string(nil), c.Theme.Palette...)
	return &out
}

// Validate checks every setting and returns the first problem found as a
// *ValidationError.
func (c *Config) Validate() error {
	for _, kv := range c.Shell.Env {
		if i := strings.IndexByte(kv, '='); i <= 0 {
			return &ValidationError{Key: "shell.env", Message: fmt.Sprintf("%q is not KEY=VALUE", kv)}
		}
	}

	if c.Terminal.Cols < 0 || c.Terminal.Cols > math.MaxUint16 {
		return &ValidationError{Key: "terminal.cols", Message: fmt.Sprintf("%d out of range", c.Terminal.Cols)}
	}
	if c.Terminal.Rows < 0 || c.Terminal.Rows > math.MaxUint16 {
		return &ValidationError{Key: "terminal.rows", Message: fmt.Sprintf("%d out of range", c.Terminal.Rows)}
	}
	if c.Terminal.Scrollback < 0 {
		return &ValidationError{Key: "terminal.scrollback", Message: "must not be negative"}
	}
	if c.Terminal.TabWidth < 1 {
		return &ValidationError{Key: "terminal.tab_width", Message: "must be at least 1"}
	}
	if !knownBackend(c.Terminal.Backend) {
		return &ValidationError{
			Key:     "terminal.backend",
			Message: fmt.Sprintf("%q is not one of %s", c.Terminal.Backend, strings.Join(terminal.Backends(), ", ")),
		}
	}

	if _, err := c.Theme.ToPalette(); err != nil {
		return err
	}

	if c.Process.GracePeriod < 0 {
		return &ValidationError{Key: "process.grace_period", Message: "must not be negative"}
	}
	if c.Process.PollInterval < 0 {
		return &ValidationError{Key: "process.poll_interval", Message: "must not be negative"}
	}
	if c.Process.MaxProcesses < 0 {
		return &ValidationError{Key: "process.max_processes", Message: "must not be negative"}
	}

	if c.UI.FrameRate < 1 || c.UI.FrameRate > 1000 {
		return &ValidationError{Key: "ui.frame_rate", Message: fmt.Sprintf("%d out of range 1-1000", c.UI.FrameRate)}
	}
	if c.UI.MaxBytesPerFrame < 1 {
		return &ValidationError{Key: "ui.max_bytes_per_frame", Message: "must be positive"}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Key: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	return nil
}

func knownBackend(name string) bool {
	if name == "" {
		return true
	}
	for _, b := range terminal.Backends() {
		if strings.EqualFold(name, b) {
			return true
		}
	}
	return false
}

// ToPalette applies the theme on top of the default palette.
func (t ThemeConfig) ToPalette() (terminal.Palette, error) {
	p := terminal.DefaultPalette()
	if len(t.Palette) > len(p.ANSI) {
		return p, &ValidationError{Key: "theme.palette", Message: fmt.Sprintf("%d entries, at most %d allowed", len(t.Palette), len(p.ANSI))}
	}

	if t.Foreground != "" {
		rgb, err := terminal.ParseHex(t.Foreground)
		if err != nil {
			return p, &ValidationError{Key: "theme.foreground", Message: err.Error()}
		}
		p.Foreground = rgb
	}
	if t.Background != "" {
		rgb, err := terminal.ParseHex(t.Background)
		if err != nil {
			return p, &ValidationError{Key: "theme.background", Message: err.Error()}
		}
		p.Background = rgb
	}
	for i, s := range t.Palette {
		if s == "" {
			continue
		}
		rgb, err := terminal.ParseHex(s)
		if err != nil {
			return p, &ValidationError{Key: fmt.Sprintf("theme.palette[%d]", i), Message: err.Error()}
		}
		p.ANSI[i] = rgb
	}
	return p, nil
}

// Duration is a time.Duration written as a Go duration string ("500ms")
// in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in Go syntax.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	if err := d.UnmarshalText([]byte(node.Value)); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}
