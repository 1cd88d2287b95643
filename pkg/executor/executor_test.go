package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(buf *bytes.Buffer) *Real {
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewReal(logrus.NewEntry(logger))
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain args",
			cmd:  Command{Path: "parted", Args: []string{"--script", "/dev/vdb", "--", "mklabel", "gpt"}},
			want: "parted --script /dev/vdb -- mklabel gpt",
		},
		{
			name: "no args",
			cmd:  Command{Path: "sync"},
			want: "sync",
		},
		{
			name: "argument with spaces is quoted",
			cmd:  Command{Path: "nix-env", Args: []string{"-iE", "_: with import <x> {}; [ y ]"}},
			want: `nix-env -iE "_: with import <x> {}; [ y ]"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestRealRunEchoesCommand(t *testing.T) {
	var buf bytes.Buffer
	e := newTestExecutor(&buf)

	err := e.Run(context.Background(), Command{Path: "true"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "+ true")
}

func TestRealRunPropagatesExitError(t *testing.T) {
	var buf bytes.Buffer
	e := newTestExecutor(&buf)

	err := e.Run(context.Background(), Command{Path: "false"})
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "error should wrap *exec.ExitError")
	assert.Equal(t, 1, exitErr.ExitCode())
}

func TestRealRunMissingProgram(t *testing.T) {
	var buf bytes.Buffer
	e := newTestExecutor(&buf)

	err := e.Run(context.Background(), Command{Path: "definitely-not-a-real-tool-xyz"})
	require.Error(t, err)

	var exitErr *exec.ExitError
	assert.False(t, errors.As(err, &exitErr), "missing program is not an exit error")
}

func TestRealRunAppliesEnvOverlay(t *testing.T) {
	var buf bytes.Buffer
	e := newTestExecutor(&buf)

	err := e.Run(context.Background(), Command{
		Path: "sh",
		Args: []string{"-c", "test \"$PROVISION_MARKER\" = yes"},
		Env:  []string{"PROVISION_MARKER=yes"},
	})
	assert.NoError(t, err)
}

func TestRealOutput(t *testing.T) {
	var buf bytes.Buffer
	e := newTestExecutor(&buf)

	out, err := e.Output(context.Background(), Command{Path: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRealLookPath(t *testing.T) {
	e := NewReal(nil)

	path, err := e.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = e.LookPath("definitely-not-a-real-tool-xyz")
	assert.Error(t, err)
}
