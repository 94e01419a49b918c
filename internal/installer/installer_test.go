package installer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakxl/chitin/internal/delegate"
	"github.com/peakxl/chitin/internal/installer"
	"github.com/peakxl/chitin/internal/nodejs"
)

// scriptRunner records every command and succeeds.
type scriptRunner struct {
	commands [][]string
}

func (s *scriptRunner) Inherit(_ context.Context, name string, args ...string) (delegate.Result, error) {
	s.commands = append(s.commands, append([]string{name}, args...))
	return delegate.Result{ExitCode: 0}, nil
}

func (s *scriptRunner) Capture(_ context.Context, name string, args ...string) (delegate.Result, error) {
	return s.Inherit(context.Background(), name, args...)
}

func detectorWith(binaries ...string) *nodejs.Detector {
	return nodejs.NewDetectorWithLookup("",
		func(name string) (string, error) {
			for _, b := range binaries {
				if b == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		},
		func() (string, error) { return "/home/test", nil },
	)
}

func tty(is bool) func() bool {
	return func() bool { return is }
}

func TestRunNonInteractivePrintsInstructions(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	inst := installer.NewWithTTY(detectorWith(), runner, strings.NewReader(""), &out, tty(false))

	err := inst.Run(context.Background())
	assert.ErrorIs(t, err, installer.ErrNonInteractive)
	assert.Contains(t, out.String(), "pnpm env use --global 22")
	assert.Contains(t, out.String(), "pnpm add -g openclaw@latest")
	assert.Empty(t, runner.commands)
}

func TestRunInstallsWithExistingPnpm(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	inst := installer.NewWithTTY(
		detectorWith("node", "pnpm"),
		runner,
		strings.NewReader("y\n"),
		&out,
		tty(true),
	)

	err := inst.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{"pnpm", "add", "-g", "openclaw@latest"}, runner.commands[0])
	assert.Contains(t, out.String(), "Found Node.js and pnpm installed.")
}

func TestRunInstallsWithNpmWhenPnpmAbsent(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	inst := installer.NewWithTTY(
		detectorWith("node", "npm"),
		runner,
		strings.NewReader("\n"), // Enter accepts the default yes
		&out,
		tty(true),
	)

	err := inst.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{"npm", "install", "-g", "openclaw@latest"}, runner.commands[0])
}

func TestRunDeclined(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	inst := installer.NewWithTTY(
		detectorWith("node", "pnpm"),
		runner,
		strings.NewReader("n\n"),
		&out,
		tty(true),
	)

	err := inst.Run(context.Background())
	assert.ErrorIs(t, err, installer.ErrDeclined)
	assert.Empty(t, runner.commands)
}

func TestRunBootstrapsPnpmAndNode(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	// Nothing installed; user picks pnpm (choice 1) and confirms.
	inst := installer.NewWithTTY(
		detectorWith(),
		runner,
		strings.NewReader("1\ny\n"),
		&out,
		tty(true),
	)

	err := inst.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, runner.commands, 3)
	assert.Equal(t, "sh", runner.commands[0][0])
	assert.Contains(t, runner.commands[0][2], "get.pnpm.io")
	assert.Equal(t, []string{"pnpm", "env", "use", "--global", "22"}, runner.commands[1])
	assert.Equal(t, []string{"pnpm", "add", "-g", "openclaw@latest"}, runner.commands[2])
}

func TestRunNpmWithoutNodeHandsOverInstructions(t *testing.T) {
	var out bytes.Buffer
	runner := &scriptRunner{}

	inst := installer.NewWithTTY(
		detectorWith(),
		runner,
		strings.NewReader("2\n"),
		&out,
		tty(true),
	)

	err := inst.Run(context.Background())
	assert.ErrorIs(t, err, installer.ErrNonInteractive)
	assert.Contains(t, out.String(), "you need to install Node.js first")
	assert.Empty(t, runner.commands)
}
