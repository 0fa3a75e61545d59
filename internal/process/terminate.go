package process

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// reapWindow is how long Terminate waits for the leader after SIGKILL
// before handing the wait to a background goroutine.
const reapWindow = 100 * time.Millisecond

// Terminate tears the child's process group down and closes the pty master:
//
//  1. SIGHUP to the process group
//  2. SIGTERM to the process group
//  3. poll for the group to empty for up to the grace period
//  4. SIGKILL to the process group
//  5. reap the leader for up to 100ms, then leave the wait to a background
//     goroutine
//
// The group is signalled even when the leader has already exited, so
// descendants left behind by the leader are torn down too.
//
// Terminate is idempotent and bounded by the grace period plus the reap
// window. Signal delivery failures are absorbed; the returned error only
// reports a failure to close the master.
func (h *Handle) Terminate() error {
	h.termOnce.Do(func() {
		h.termErr = h.terminate()
	})
	return h.termErr
}

func (h *Handle) terminate() error {
	h.closing.Store(true)
	start := time.Now()

	if h.signalGroup(unix.SIGHUP) {
		h.signalGroup(unix.SIGTERM)

		if !h.waitGroupExit(h.grace) {
			h.logger.Warn("grace period elapsed, killing process group",
				zap.Int("pid", h.pid),
				zap.Duration("grace", h.grace),
			)
			h.signalGroup(unix.SIGKILL)
		}
	}
	if !h.waitExit(reapWindow) {
		h.detachReaper()
	}

	h.ioMu.Lock()
	err := h.master.Close()
	h.closed = true
	h.ioMu.Unlock()

	h.logger.Debug("process terminated",
		zap.Int("pid", h.pid),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("close pty master: %w", err)
	}
	return nil
}

// signalGroup signals the whole process group, falling back to the leader
// while it is still unreaped. It reports whether any process was signalled.
func (h *Handle) signalGroup(sig unix.Signal) bool {
	err := unix.Kill(-h.pid, sig)
	if err == unix.ESRCH && h.IsRunning() {
		err = unix.Kill(h.pid, sig)
	}
	switch err {
	case nil:
		return true
	case unix.ESRCH:
		return false
	default:
		h.logger.Debug("signal failed", zap.Int("pid", h.pid), zap.Stringer("signal", sig), zap.Error(err))
		return false
	}
}

// groupAlive reports whether the leader or any other member of its process
// group still exists. The pgid cannot be reused while the group has members.
func (h *Handle) groupAlive() bool {
	if h.IsRunning() {
		return true
	}
	return unix.Kill(-h.pid, 0) == nil
}

// waitGroupExit polls groupAlive until the group is empty or d elapses.
func (h *Handle) waitGroupExit(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if !h.groupAlive() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(h.poll)
	}
}

// waitExit polls IsRunning until the child is reaped or d elapses.
func (h *Handle) waitExit(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if !h.IsRunning() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(h.poll)
	}
}

// detachReaper blocks in wait4 on a background goroutine so the child never
// lingers as a zombie.
func (h *Handle) detachReaper() {
	h.mu.Lock()
	if h.state != StateRunning || h.reaper {
		h.mu.Unlock()
		return
	}
	h.reaper = true
	h.mu.Unlock()

	h.logger.Warn("process did not exit after SIGKILL, reaping in background", zap.Int("pid", h.pid))

	go func() {
		var ws unix.WaitStatus
		var err error
		for {
			_, err = unix.Wait4(h.pid, &ws, 0, nil)
			if err != unix.EINTR {
				break
			}
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		h.reaper = false
		if err != nil {
			h.recordLocked(StateExited, -1)
			return
		}
		h.recordStatusLocked(ws)
	}()
}
