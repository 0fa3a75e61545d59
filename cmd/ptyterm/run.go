package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/ptyterm/internal/app"
	"github.com/dshills/ptyterm/internal/logging"
	"github.com/dshills/ptyterm/internal/ui"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- program [args...]]",
		Short: "Run a program in a full-screen terminal window",
		Long: `Run starts a program (your shell by default) on a pty and hosts it in
a full-screen window. The window closes when the program exits and ptyterm
exits with the program's status.

Logs are only written when log.file is configured, since the window owns
the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runInteractive(ctx context.Context, opts *globalOptions, argv []string) error {
	a, err := app.New(opts.appOptions(nil, true))
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	if cfg.UI.StatusLine {
		rows--
	}
	if cfg.Terminal.Cols > 0 {
		cols = cfg.Terminal.Cols
	}
	if cfg.Terminal.Rows > 0 {
		rows = cfg.Terminal.Rows
	}

	session, err := a.OpenSession(app.SessionRequest{Argv: argv, Cols: cols, Rows: rows})
	if err != nil {
		return err
	}
	defer session.Close()

	w := ui.NewWindow(screen, session, ui.Options{
		FrameRate:        cfg.UI.FrameRate,
		MaxBytesPerFrame: cfg.UI.MaxBytesPerFrame,
		StatusLine:       cfg.UI.StatusLine,
		Logger:           logging.Component(a.Logger(), "ui"),
	})
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	if status := session.ExitStatus(); status > 0 {
		return &exitCodeError{code: status}
	}
	return nil
}
