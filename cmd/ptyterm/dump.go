package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/ptyterm/internal/app"
	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

// dumpPoll is how often dump drains child output.
const dumpPoll = 10 * time.Millisecond

type dumpOptions struct {
	cols       int
	rows       int
	timeout    time.Duration
	json       bool
	scrollback bool
}

func newDumpCmd(opts *globalOptions) *cobra.Command {
	d := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [flags] -- program [args...]",
		Short: "Run a program headlessly and print its final screen",
		Long: `Dump runs a program on a pty without a window, waits for it to exit (or
for --timeout), and prints the emulated screen as text or JSON.

The geometry defaults to the invoking terminal's size, or 80x24 when
output is not a terminal.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), opts, d, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().IntVar(&d.cols, "cols", 0, "terminal width (default: current terminal or 80)")
	cmd.Flags().IntVar(&d.rows, "rows", 0, "terminal height (default: current terminal or 24)")
	cmd.Flags().DurationVar(&d.timeout, "timeout", 5*time.Second, "stop waiting for the program after this long")
	cmd.Flags().BoolVar(&d.json, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&d.scrollback, "scrollback", false, "print scrollback rows before the screen (text mode)")
	return cmd
}

func runDump(ctx context.Context, opts *globalOptions, d *dumpOptions, argv []string, stdout, stderr io.Writer) error {
	var logOutput io.Writer
	if opts.logLevel != "" {
		logOutput = stderr
	}
	a, err := app.New(opts.appOptions(logOutput, false))
	if err != nil {
		return err
	}
	defer a.Close()

	cols, rows := dumpGeometry(d, stdout)
	session, err := a.OpenSession(app.SessionRequest{Argv: argv, Cols: cols, Rows: rows})
	if err != nil {
		return err
	}
	defer session.Close()

	exited, err := drain(ctx, session, d.timeout)
	if err != nil {
		return err
	}
	if !exited {
		fmt.Fprintf(stderr, "ptyterm: %s still running after %s, capturing current screen\n", argv[0], d.timeout)
	}

	emu := session.Emulator()
	snap := emu.Snapshot()
	snap.Title = session.Title()

	if d.json {
		enc := json.NewEncoder(stdout)
		return enc.Encode(&snap)
	}

	if d.scrollback {
		n := emu.ScrollbackRowCount()
		cells := emu.CopyScrollbackRows(0, n)
		for i := 0; i < n; i++ {
			row := terminal.Snapshot{Rows: 1, Cols: snap.Cols, Cells: cells[i*snap.Cols : (i+1)*snap.Cols]}
			fmt.Fprintln(stdout, row.RowText(0))
		}
	}
	_, err = fmt.Fprintln(stdout, snap.Text())
	return err
}

// drain pumps output until the child exits, the timeout elapses or ctx
// ends. It reports whether the child exited.
func drain(ctx context.Context, session *app.Session, timeout time.Duration) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(dumpPoll)
	defer ticker.Stop()

	for {
		_, err := session.Pump(0)
		if errors.Is(err, process.ErrExited) {
			return true, nil
		}
		if err != nil {
			return false, err
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// dumpGeometry picks the explicit size, else the size of the terminal
// stdout is attached to. Zero leaves the choice to the configuration.
func dumpGeometry(d *dumpOptions, stdout io.Writer) (cols, rows int) {
	cols, rows = d.cols, d.rows
	if cols > 0 && rows > 0 {
		return cols, rows
	}
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			if cols <= 0 {
				cols = w
			}
			if rows <= 0 {
				rows = h
			}
		}
	}
	return cols, rows
}
