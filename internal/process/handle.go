package process

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// State represents the state of a child process.
type State int32

const (
	// StateRunning indicates the child has not been reaped yet.
	StateRunning State = iota
	// StateExited indicates the child exited on its own.
	StateExited
	// StateKilled indicates the child was terminated by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Handle is a live child attached to a pty master.
//
// The child leads its own process group, so signals sent by Terminate reach
// every descendant that did not move to another group.
type Handle struct {
	id      string
	argv    []string
	pid     int
	started time.Time

	master *os.File
	fd     int
	proc   *os.Process

	grace  time.Duration
	poll   time.Duration
	logger *zap.Logger

	// ioMu is held shared by Read/Write/Resize and exclusively while the
	// master is closed.
	ioMu    sync.RWMutex
	closing atomic.Bool
	closed  bool

	// mu guards the reaping state.
	mu         sync.Mutex
	state      State
	exitStatus int
	reaper     bool

	termOnce sync.Once
	termErr  error
}

// ID returns the handle identifier.
func (h *Handle) ID() string {
	return h.id
}

// PID returns the child's process ID, which is also its process group ID.
func (h *Handle) PID() int {
	return h.pid
}

// Argv returns the command line the child was started with.
func (h *Handle) Argv() []string {
	return append([]string(nil), h.argv...)
}

// Started returns the launch time.
func (h *Handle) Started() time.Time {
	return h.started
}

// State returns the last observed state without polling the child.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsRunning reports whether the child is still alive, reaping it if it
// has exited.
func (h *Handle) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return false
	}
	if h.reaper {
		// The background reaper owns the wait.
		return true
	}
	h.pollLocked()
	return h.state == StateRunning
}

// ExitStatus returns the exit code, or 128+signal for a signalled child.
// It returns -1 while the child is running or when the status was lost.
func (h *Handle) ExitStatus() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateRunning {
		return -1
	}
	return h.exitStatus
}

// pollLocked performs a non-blocking wait on the child.
func (h *Handle) pollLocked() {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(h.pid, &ws, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			// Already reaped elsewhere; the status is gone.
			h.recordLocked(StateExited, -1)
		case err != nil:
			h.logger.Debug("wait4 failed", zap.Int("pid", h.pid), zap.Error(err))
		case pid == h.pid:
			h.recordStatusLocked(ws)
		}
		return
	}
}

func (h *Handle) recordStatusLocked(ws unix.WaitStatus) {
	switch {
	case ws.Signaled():
		h.recordLocked(StateKilled, 128+int(ws.Signal()))
	case ws.Exited():
		h.recordLocked(StateExited, ws.ExitStatus())
	}
}

func (h *Handle) recordLocked(state State, status int) {
	h.state = state
	h.exitStatus = status
	_ = h.proc.Release()
	h.logger.Info("process exited",
		zap.Int("pid", h.pid),
		zap.Stringer("state", state),
		zap.Int("status", status),
		zap.Duration("uptime", time.Since(h.started)),
	)
}
