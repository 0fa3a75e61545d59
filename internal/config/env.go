package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PTYTERM_"

// envAliases maps short variable names to setting paths. Variables not
// listed here are mapped by envToPath.
var envAliases = map[string]string{
	"PTYTERM_SHELL":      "shell.command",
	"PTYTERM_TERM":       "shell.term",
	"PTYTERM_WORKDIR":    "shell.workdir",
	"PTYTERM_COLS":       "terminal.cols",
	"PTYTERM_ROWS":       "terminal.rows",
	"PTYTERM_SCROLLBACK": "terminal.scrollback",
	"PTYTERM_BACKEND":    "terminal.backend",
	"PTYTERM_FOREGROUND": "theme.foreground",
	"PTYTERM_BACKGROUND": "theme.background",
	"PTYTERM_LOG_LEVEL":  "log.level",
	"PTYTERM_LOG_FILE":   "log.file",
}

// envSetters applies a raw string to the setting at a path.
var envSetters = map[string]func(c *Config, v string) error{
	"shell.command": func(c *Config, v string) error { c.Shell.Command = strings.Fields(v); return nil },
	"shell.term":    func(c *Config, v string) error { c.Shell.Term = v; return nil },
	"shell.workdir": func(c *Config, v string) error { c.Shell.WorkDir = v; return nil },

	"terminal.cols":       intSetter(func(c *Config) *int { return &c.Terminal.Cols }),
	"terminal.rows":       intSetter(func(c *Config) *int { return &c.Terminal.Rows }),
	"terminal.scrollback": intSetter(func(c *Config) *int { return &c.Terminal.Scrollback }),
	"terminal.tab_width":  intSetter(func(c *Config) *int { return &c.Terminal.TabWidth }),
	"terminal.backend":    func(c *Config, v string) error { c.Terminal.Backend = v; return nil },

	"theme.foreground": func(c *Config, v string) error { c.Theme.Foreground = v; return nil },
	"theme.background": func(c *Config, v string) error { c.Theme.Background = v; return nil },

	"process.grace_period":  durationSetter(func(c *Config) *Duration { return &c.Process.GracePeriod }),
	"process.poll_interval": durationSetter(func(c *Config) *Duration { return &c.Process.PollInterval }),
	"process.max_processes": intSetter(func(c *Config) *int { return &c.Process.MaxProcesses }),

	"ui.frame_rate":          intSetter(func(c *Config) *int { return &c.UI.FrameRate }),
	"ui.max_bytes_per_frame": intSetter(func(c *Config) *int { return &c.UI.MaxBytesPerFrame }),
	"ui.status_line": func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		c.UI.StatusLine = b
		return nil
	},

	"log.level": func(c *Config, v string) error { c.Log.Level = v; return nil },
	"log.file":  func(c *Config, v string) error { c.Log.File = v; return nil },
}

// ApplyEnv overrides settings from KEY=VALUE entries carrying EnvPrefix,
// as returned by os.Environ. Unrecognized PTYTERM_ variables are ignored.
// Empty values are applied as given, not treated as unset.
func (c *Config) ApplyEnv(environ []string) error {
	var errs []error
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}

		path, ok := envAliases[name]
		if !ok {
			path = envToPath(name)
		}
		set, ok := envSetters[path]
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// envToPath converts PTYTERM_TERMINAL_TAB_WIDTH to terminal.tab_width.
func envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, EnvPrefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok {
		return name
	}
	return section + "." + setting
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*field(c) = Duration(d)
		return nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
