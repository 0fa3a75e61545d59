package process

import (
	"fmt"
	"io"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// writeWait bounds each POLLOUT wait while the pty input queue is full.
const writeWait = 10 * time.Millisecond

// Read copies pending child output into buf without blocking. It returns
// 0, nil when no output is available. Once the child has gone away the
// error wraps ErrExited; after Terminate it is ErrClosed.
func (h *Handle) Read(buf []byte) (int, error) {
	h.ioMu.RLock()
	defer h.ioMu.RUnlock()

	if h.closed {
		return 0, ErrClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}

	fds := []unix.PollFd{{Fd: int32(h.fd), Events: unix.POLLIN}}
	ready, err := unix.Poll(fds, 0)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, h.ioError("poll", err)
	}
	if ready == 0 {
		return 0, nil
	}

	n, err := unix.Read(h.fd, buf)
	switch {
	case err == unix.EAGAIN || err == unix.EINTR:
		return 0, nil
	case err != nil:
		return 0, h.ioError("read", err)
	case n == 0:
		return 0, h.ioError("read", io.EOF)
	}
	return n, nil
}

// Write sends all of p to the child, retrying partial writes and waiting
// while the pty is full. It satisfies io.Writer.
func (h *Handle) Write(p []byte) (int, error) {
	h.ioMu.RLock()
	defer h.ioMu.RUnlock()

	if h.closed || h.closing.Load() {
		return 0, ErrClosed
	}

	written := 0
	for written < len(p) {
		n, err := unix.Write(h.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
		case err == unix.EINTR:
		case err == unix.EAGAIN:
			if h.closing.Load() {
				return written, ErrClosed
			}
			h.waitWritable()
		default:
			return written, h.ioError("write", err)
		}
	}
	return written, nil
}

func (h *Handle) waitWritable() {
	fds := []unix.PollFd{{Fd: int32(h.fd), Events: unix.POLLOUT}}
	_, _ = unix.Poll(fds, int(writeWait/time.Millisecond))
}

// Resize updates the pty window size. The kernel delivers SIGWINCH to the
// foreground process group. Unlike Launch there is no default: any size
// outside 1..65535 fails with ErrInvalidSize.
func (h *Handle) Resize(cols, rows int) error {
	if err := validateSize(cols, rows); err != nil {
		return err
	}

	h.ioMu.RLock()
	defer h.ioMu.RUnlock()

	if h.closed {
		return ErrClosed
	}
	if err := pty.Setsize(h.master, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	h.logger.Debug("pty resized", zap.Int("cols", cols), zap.Int("rows", rows))
	return nil
}

// ioError re-checks liveness after an I/O failure so callers can tell a
// dead child from a transient fault.
func (h *Handle) ioError(op string, err error) error {
	// The slave side closes slightly before the child becomes reapable.
	if err == io.EOF || err == unix.EIO {
		h.waitExit(reapWindow)
	}
	if !h.IsRunning() {
		return fmt.Errorf("%s pty: %w: %w", op, ErrExited, err)
	}
	return fmt.Errorf("%s pty: %w", op, err)
}
