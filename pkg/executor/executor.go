// Package executor runs external commands for the provisioning procedure and
// records every invocation as a transcript.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Command is a single external command invocation.
type Command struct {
	Path string   // program name or absolute path
	Args []string // arguments, exec-style (no shell involved)
	Env  []string // extra KEY=VALUE entries appended to the inherited environment
}

// String renders the command the way a shell trace would, quoting arguments
// that contain whitespace so the transcript stays copy-pasteable.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, arg := range c.Args {
		if strings.ContainsAny(arg, " \t\n\"'") {
			parts = append(parts, strconv.Quote(arg))
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// Executor is an interface for executing commands, allowing for testing.
type Executor interface {
	// Run executes the command, streaming its combined output to the
	// transcript. The returned error wraps *exec.ExitError when the
	// command ran but exited non-zero.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, cmd Command) (string, error)
	// LookPath finds the path to an executable.
	LookPath(file string) (string, error)
}

// Real is the default executor that uses the real system.
type Real struct {
	log *logrus.Entry
}

// NewReal returns an executor whose transcript goes to log.
func NewReal(log *logrus.Entry) *Real {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Real{log: log}
}

// Run executes the command with its output wired into the transcript logger.
func (e *Real) Run(ctx context.Context, cmd Command) error {
	e.log.Infof("+ %s", cmd)

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	w := e.log.WriterLevel(logrus.InfoLevel)
	defer w.Close()
	c.Stdout = w
	c.Stderr = w

	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Path, err)
	}
	return nil
}

// Output executes the command and captures stdout; stderr goes to the
// transcript.
func (e *Real) Output(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	w := e.log.WriterLevel(logrus.DebugLevel)
	defer w.Close()
	c.Stderr = w

	out, err := c.Output()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", cmd.Path, err)
	}
	return string(out), nil
}

// LookPath finds the path to an executable.
func (e *Real) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
