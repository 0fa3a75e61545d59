package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/ptyterm/internal/app"
	"github.com/dshills/ptyterm/internal/terminal"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	backend    string
}

func (g *globalOptions) appOptions(logOutput io.Writer, watch bool) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		LogLevel:   g.logLevel,
		Backend:    g.backend,
		LogOutput:  logOutput,
		Watch:      watch,
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "ptyterm",
		Short: "Run programs inside an embedded pty terminal",
		Long: `ptyterm runs a program on a pseudo-terminal and emulates a VT100/ANSI
display for it.

  ptyterm run                 Start your shell in a full-screen window
  ptyterm run -- htop         Start a specific program
  ptyterm dump -- ls --color  Capture a program's screen as text or JSON

Configuration is read from ~/.config/ptyterm/config.toml (or --config) and
PTYTERM_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to configuration file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "emulator backend ("+backendList()+")")

	root.AddCommand(
		newRunCmd(opts),
		newDumpCmd(opts),
		newVersionCmd(),
	)
	return root
}

func backendList() string {
	return strings.Join(terminal.Backends(), ", ")
}
