package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/ptyterm/internal/config"
)

func TestResolveLaunchCommand(t *testing.T) {
	tests := []struct {
		name    string
		shell   config.ShellConfig
		argv    []string
		environ []string
		want    []string
	}{
		{"argv wins", config.ShellConfig{Command: []string{"zsh"}}, []string{"vim", "x"}, []string{"SHELL=/bin/bash"}, []string{"vim", "x"}},
		{"config command", config.ShellConfig{Command: []string{"zsh", "-l"}}, nil, []string{"SHELL=/bin/bash"}, []string{"zsh", "-l"}},
		{"login shell", config.ShellConfig{}, nil, []string{"SHELL=/bin/bash"}, []string{"/bin/bash"}},
		{"empty SHELL", config.ShellConfig{}, nil, []string{"SHELL="}, []string{FallbackShell}},
		{"fallback", config.ShellConfig{}, nil, nil, []string{FallbackShell}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := ResolveLaunch(tt.shell, tt.argv, tt.environ)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestResolveLaunchCopiesArgv(t *testing.T) {
	argv := []string{"sh"}
	cmd, _ := ResolveLaunch(config.ShellConfig{}, argv, nil)
	cmd[0] = "changed"
	assert.Equal(t, "sh", argv[0])
}

func TestResolveLaunchEnv(t *testing.T) {
	environ := []string{
		"HOME=/home/me",
		"TERM=dumb",
		"COLUMNS=80",
		"LINES=24",
		"EDITOR=nano",
	}
	shell := config.ShellConfig{
		Env:  []string{"EDITOR=vi", "FOO=bar"},
		Term: "screen-256color",
	}

	_, env := ResolveLaunch(shell, nil, environ)
	assert.Equal(t, []string{
		"HOME=/home/me",
		"EDITOR=vi",
		"FOO=bar",
		"TERM=screen-256color",
		"COLORTERM=truecolor",
	}, env)
}

func TestResolveLaunchEnvDefaults(t *testing.T) {
	_, env := ResolveLaunch(config.ShellConfig{}, nil, []string{"COLORTERM=24bit"})
	assert.Equal(t, []string{"COLORTERM=24bit", "TERM=" + DefaultTerm}, env)

	_, env = ResolveLaunch(config.ShellConfig{Env: []string{"TERM=vt100"}}, nil, nil)
	assert.Equal(t, []string{"TERM=vt100", "COLORTERM=truecolor"}, env)
}
