package app

import (
	"strings"

	"github.com/dshills/ptyterm/internal/config"
)

// FallbackShell is started when neither the caller, the config nor $SHELL
// name a program.
const FallbackShell = "/bin/sh"

// DefaultTerm is exported as TERM when the config leaves it empty.
const DefaultTerm = "xterm-256color"

// ResolveLaunch decides the argv and environment for a new session.
//
// The program is the first non-empty of argv, shell.Command, $SHELL from
// environ and FallbackShell. The environment is environ with TERM,
// COLUMNS and LINES removed, then shell.Env, then TERM and COLORTERM.
// Entries in shell.Env replace inherited entries with the same key.
func ResolveLaunch(shell config.ShellConfig, argv, environ []string) (cmd, env []string) {
	switch {
	case len(argv) > 0:
		cmd = append([]string(nil), argv...)
	case len(shell.Command) > 0:
		cmd = append([]string(nil), shell.Command...)
	default:
		if sh, _ := lookupEnv(environ, "SHELL"); sh != "" {
			cmd = []string{sh}
		} else {
			cmd = []string{FallbackShell}
		}
	}

	drop := map[string]bool{"TERM": true, "COLUMNS": true, "LINES": true}
	for _, kv := range shell.Env {
		if key, _, ok := strings.Cut(kv, "="); ok {
			drop[key] = true
		}
	}

	env = make([]string, 0, len(environ)+len(shell.Env)+2)
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if drop[key] {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, shell.Env...)

	term := shell.Term
	if term == "" {
		term = DefaultTerm
	}
	if _, ok := lookupEnv(shell.Env, "TERM"); !ok {
		env = append(env, "TERM="+term)
	}
	if _, ok := lookupEnv(env, "COLORTERM"); !ok {
		env = append(env, "COLORTERM=truecolor")
	}
	return cmd, env
}

// lookupEnv returns the last value of key in a KEY=VALUE list.
func lookupEnv(environ []string, key string) (value string, found bool) {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			value, found = v, true
		}
	}
	return value, found
}
