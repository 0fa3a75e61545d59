package app

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/ptyterm/internal/config"
	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// newTestApp builds an App that ignores any real user config.
func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if opts.Environ == nil {
		opts.Environ = []string{"PATH=" + os.Getenv("PATH")}
	}
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	app, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// pumpUntil feeds child output into the session until cond holds.
func pumpUntil(t *testing.T, s *Session, cond func(terminal.Snapshot) bool) terminal.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err := s.Pump(0)
		snap := s.Emulator().Snapshot()
		if cond(snap) {
			return snap
		}
		if err != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := s.Emulator().Snapshot()
	t.Fatalf("condition not met, screen:\n%s", snap.Text())
	return snap
}

func screenContains(text string) func(terminal.Snapshot) bool {
	return func(s terminal.Snapshot) bool { return strings.Contains(s.Text(), text) }
}

func TestNewDefaults(t *testing.T) {
	app := newTestApp(t, Options{})

	cfg := app.Config()
	assert.Equal(t, "", app.ConfigPath())
	assert.Equal(t, terminal.BackendBuiltin, cfg.Terminal.Backend)
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Supervisor())
	assert.Equal(t, 0, app.SessionCount())
}

func TestNewWithConfigAndOverrides(t *testing.T) {
	path := writeConfig(t, "[terminal]\ncols = 100\nbackend = \"builtin\"\n")
	app := newTestApp(t, Options{
		ConfigPath: path,
		Backend:    "vt10x",
		LogLevel:   "debug",
		Environ:    []string{"PTYTERM_ROWS=30"},
	})

	cfg := app.Config()
	assert.Equal(t, path, app.ConfigPath())
	assert.Equal(t, 100, cfg.Terminal.Cols)
	assert.Equal(t, 30, cfg.Terminal.Rows)
	assert.Equal(t, "vt10x", cfg.Terminal.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestNewErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("parse error", func(t *testing.T) {
		_, err := New(Options{ConfigPath: writeConfig(t, "[terminal\n")})

		var compErr *ComponentError
		require.ErrorAs(t, err, &compErr)
		assert.Equal(t, "config", compErr.Component)
		var parseErr *config.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("bad backend", func(t *testing.T) {
		_, err := New(Options{Backend: "teletype", Environ: []string{}})
		assert.ErrorIs(t, err, config.ErrValidationFailed)
	})

	t.Run("bad log file", func(t *testing.T) {
		_, err := New(Options{Environ: []string{"PTYTERM_LOG_FILE=" + filepath.Join(t.TempDir(), "no", "log")}})

		var compErr *ComponentError
		require.ErrorAs(t, err, &compErr)
		assert.Equal(t, "logging", compErr.Component)
	})
}

func TestSessionOutputAndTitle(t *testing.T) {
	requireShell(t)
	app := newTestApp(t, Options{})

	s, err := app.OpenSession(SessionRequest{
		Argv: []string{"sh", "-c", `printf '\033]0;demo\007hello\033[31mred'; sleep 5`},
		Cols: 40,
		Rows: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, app.SessionCount())
	assert.True(t, s.Running())
	assert.Equal(t, -1, s.ExitStatus())

	snap := pumpUntil(t, s, screenContains("hellored"))
	assert.Equal(t, 40, snap.Cols)
	assert.Equal(t, 10, snap.Rows)
	assert.Equal(t, terminal.ColorRed, snap.Cell(0, 5).Fg)
	assert.Equal(t, "demo", s.Title())
}

func TestSessionAnswersCursorReport(t *testing.T) {
	requireShell(t)
	for _, tool := range []string{"stty", "head", "tr"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
	app := newTestApp(t, Options{})

	// The reply is read back by the child and echoed with ESC shown as E.
	s, err := app.OpenSession(SessionRequest{Argv: []string{"sh", "-c",
		`stty -icanon -echo min 1; printf '\033[6n'; head -c 6 | tr '\033' E; sleep 5`}})
	require.NoError(t, err)

	pumpUntil(t, s, screenContains("E[1;1R"))
}

func TestSessionKeysAndResize(t *testing.T) {
	requireShell(t)
	app := newTestApp(t, Options{})

	s, err := app.OpenSession(SessionRequest{Argv: []string{"cat"}})
	require.NoError(t, err)

	cols, rows := s.Emulator().Size()
	assert.Equal(t, process.DefaultCols, cols)
	assert.Equal(t, process.DefaultRows, rows)

	require.NoError(t, s.SendKey(terminal.KeyRune, 'z', 0))
	require.NoError(t, s.SendKey(terminal.KeyEnter, 0, 0))
	require.NoError(t, s.SendKey(terminal.KeyNone, 0, 0))
	pumpUntil(t, s, screenContains("z"))

	require.NoError(t, s.Resize(100, 40))
	cols, rows = s.Emulator().Size()
	assert.Equal(t, 100, cols)
	assert.Equal(t, 40, rows)

	assert.ErrorIs(t, s.Resize(0, 10), process.ErrInvalidSize)
}

func TestSessionExitAndClose(t *testing.T) {
	requireShell(t)
	app := newTestApp(t, Options{})

	s, err := app.OpenSession(SessionRequest{Argv: []string{"sh", "-c", "printf bye; exit 4"}})
	require.NoError(t, err)

	var pumpErr error
	require.Eventually(t, func() bool {
		_, pumpErr = s.Pump(0)
		return pumpErr != nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, pumpErr, process.ErrExited)
	assert.Contains(t, s.Emulator().Snapshot().Text(), "bye")
	assert.False(t, s.Running())
	assert.Equal(t, 4, s.ExitStatus())

	// Resizing a finished session still updates the emulator.
	require.NoError(t, s.Close())
	require.NoError(t, s.Resize(20, 5))
	cols, _ := s.Emulator().Size()
	assert.Equal(t, 20, cols)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, app.SessionCount())
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionVT10xBackend(t *testing.T) {
	requireShell(t)
	app := newTestApp(t, Options{Backend: terminal.BackendVT10x})

	s, err := app.OpenSession(SessionRequest{Argv: []string{"sh", "-c", "printf vt10x; sleep 5"}})
	require.NoError(t, err)
	pumpUntil(t, s, screenContains("vt10x"))
}

func TestApplyConfigRecolorsSessions(t *testing.T) {
	requireShell(t)
	app := newTestApp(t, Options{})

	s, err := app.OpenSession(SessionRequest{Argv: []string{"cat"}})
	require.NoError(t, err)

	cfg := app.Config()
	cfg.Theme.Background = "#102030"
	app.applyConfig(cfg)
	assert.Equal(t, "#102030", app.Config().Theme.Background)

	// The palette lands on the next Pump; cells written after it use it.
	_, err = s.Pump(0)
	require.NoError(t, err)
	_, err = s.Write([]byte("q"))
	require.NoError(t, err)

	snap := pumpUntil(t, s, screenContains("q"))
	assert.Equal(t, terminal.RGB{R: 0x10, G: 0x20, B: 0x30}, snap.Cell(0, 0).Bg)

	bad := app.Config()
	bad.Theme.Background = "nope"
	app.applyConfig(bad)
	assert.Equal(t, "#102030", app.Config().Theme.Background)
}

func TestWatchConfigReload(t *testing.T) {
	path := writeConfig(t, "[theme]\nbackground = \"#000000\"\n")
	app := newTestApp(t, Options{ConfigPath: path, Watch: true})

	require.NoError(t, os.WriteFile(path, []byte("[theme]\nbackground = \"#abcdef\"\n"), 0o600))
	require.Eventually(t, func() bool {
		return app.Config().Theme.Background == "#abcdef"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCloseTerminatesSessions(t *testing.T) {
	requireShell(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	app, err := New(Options{
		Environ: []string{"PATH=" + os.Getenv("PATH"), "PTYTERM_PROCESS_GRACE_PERIOD=200ms"},
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	var sessions []*Session
	for i := 0; i < 2; i++ {
		s, err := app.OpenSession(SessionRequest{Argv: []string{"sleep", "30"}})
		require.NoError(t, err)
		sessions = append(sessions, s)
	}

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
	for _, s := range sessions {
		assert.False(t, s.Running())
		assert.NoError(t, s.Close())
	}

	_, err = app.OpenSession(SessionRequest{Argv: []string{"sleep", "1"}})
	assert.True(t, errors.Is(err, ErrClosed))
}
