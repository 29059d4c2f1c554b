package executor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// 🖥️ Command is one worker process to start
type Command struct {
	Path string
	Args []string
	// Env is appended to the parent environment
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// 🔌 CommandRunner starts a command and waits for it
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}

// 🏃 ExecRunner runs commands as child processes sharing the parent's stdio
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts cmd and waits for it. The child is not killed when ctx is cancelled.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(context.WithoutCancel(ctx), cmd.Path, cmd.Args...)
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	c.Env = append(os.Environ(), cmd.Env...)
	return c.Run()
}
