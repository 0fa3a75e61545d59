package process

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Defaults applied by Launch.
const (
	DefaultCols         = 80
	DefaultRows         = 24
	DefaultGracePeriod  = 500 * time.Millisecond
	DefaultPollInterval = 10 * time.Millisecond
)

// Options describes a child to launch.
type Options struct {
	// Argv is the program and its arguments. Argv[0] is resolved via PATH.
	Argv []string

	// Env is the complete environment as KEY=VALUE entries. When nil the
	// current process environment is inherited.
	Env []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Cols and Rows set the initial window size. Zero selects 80x24;
	// negative values or values above 65535 fail with ErrInvalidSize.
	// terminal.New clamps the same inputs to 1x1 instead, so callers that
	// size both the pty and an emulator should validate once up front.
	Cols int
	Rows int

	// GracePeriod is how long Terminate waits after SIGTERM before
	// SIGKILL (default 500ms).
	GracePeriod time.Duration

	// PollInterval is the Terminate polling step (default 10ms).
	PollInterval time.Duration

	// Logger receives lifecycle events. Nil disables logging.
	Logger *zap.Logger
}

// Launch starts opts.Argv on a new pty. The child becomes leader of a new
// session and process group with the pty as its controlling terminal.
//
// All failures are returned as *LaunchError.
func Launch(opts Options) (*Handle, error) {
	return launch(uuid.New().String(), opts)
}

func launch(id string, opts Options) (*Handle, error) {
	fail := func(err error) (*Handle, error) {
		return nil, &LaunchError{Argv: opts.Argv, Dir: opts.Dir, Err: err}
	}

	if len(opts.Argv) == 0 || opts.Argv[0] == "" {
		return fail(ErrNoCommand)
	}
	for _, kv := range opts.Env {
		if i := strings.IndexByte(kv, '='); i <= 0 {
			return fail(fmt.Errorf("%w: %q", ErrInvalidEnv, kv))
		}
	}
	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil {
			return fail(err)
		}
		if !info.IsDir() {
			return fail(fmt.Errorf("%s: %w", opts.Dir, ErrNotDirectory))
		}
	}

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = DefaultCols
	}
	if rows == 0 {
		rows = DefaultRows
	}
	if err := validateSize(cols, rows); err != nil {
		return fail(err)
	}

	path, err := exec.LookPath(opts.Argv[0])
	if err != nil {
		return fail(err)
	}

	cmd := exec.Command(path, opts.Argv[1:]...)
	cmd.Args[0] = opts.Argv[0]
	cmd.Env = opts.Env
	cmd.Dir = opts.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return fail(err)
	}

	fd, err := rawFD(master)
	if err == nil {
		err = unix.SetNonblock(fd, true)
	}
	if err != nil {
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		_ = master.Close()
		_, _ = cmd.Process.Wait()
		return fail(fmt.Errorf("configure pty: %w", err))
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handle{
		id:      id,
		argv:    append([]string(nil), opts.Argv...),
		pid:     cmd.Process.Pid,
		started: time.Now(),
		master:  master,
		fd:      fd,
		proc:    cmd.Process,
		grace:   opts.GracePeriod,
		poll:    opts.PollInterval,
		logger:  logger.With(zap.String("process", id)),
		state:   StateRunning,
	}
	if h.grace <= 0 {
		h.grace = DefaultGracePeriod
	}
	if h.poll <= 0 {
		h.poll = DefaultPollInterval
	}

	h.logger.Info("process launched",
		zap.Int("pid", h.pid),
		zap.Strings("argv", h.argv),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
	)
	return h, nil
}

// rawFD extracts the descriptor without File.Fd, which would switch the
// file back to blocking mode.
func rawFD(f *os.File) (int, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	if err := sc.Control(func(u uintptr) { fd = int(u) }); err != nil {
		return -1, err
	}
	return fd, nil
}

func validateSize(cols, rows int) error {
	if cols <= 0 || rows <= 0 || cols > math.MaxUint16 || rows > math.MaxUint16 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	return nil
}
