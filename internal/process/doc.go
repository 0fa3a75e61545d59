// Package process owns the OS-level lifecycle of programs attached to a
// pseudo-terminal.
//
// # Features
//
//   - Launch a child on a new pty as leader of its own session and process group
//   - Non-blocking reads and blocking-with-retry writes on the pty master
//   - Window size propagation
//   - Bounded, escalating teardown of the whole process group
//   - Lazy reaping with exit status tracking
//
// # Handle
//
// Launch returns a Handle for one child:
//
//	h, err := process.Launch(process.Options{
//	    Argv: []string{"/bin/sh", "-i"},
//	    Cols: 80,
//	    Rows: 24,
//	})
//	if err != nil {
//	    return err
//	}
//	defer h.Terminate()
//
//	buf := make([]byte, 4096)
//	n, err := h.Read(buf) // 0, nil when nothing is pending
//
// # Teardown
//
// Terminate sends SIGHUP and SIGTERM to the process group, polls for exit
// during the grace period, then sends SIGKILL. If the leader still has not
// been reaped after a short window the wait is handed to a background
// goroutine so Terminate itself never blocks indefinitely.
//
// # Supervisor
//
// The Supervisor tracks handles by ID and tears all of them down on
// Shutdown.
//
// # Thread Safety
//
// Handle and Supervisor are safe for concurrent use. Reads are expected to
// come from a single goroutine.
//
// The package targets Unix systems.
package process
