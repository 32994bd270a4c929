// Package cmdexec runs the external tools a build step shells out to, such as
// git and the Armbian compile script.
package cmdexec

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Executor provides a common interface for executing external commands.
type Executor interface {
	// WithOutput returns a new Executor that writes to the given stdout/stderr.
	WithOutput(stdout, stderr io.Writer) Executor

	// InSubdir returns a new Executor that runs commands in a subdirectory.
	InSubdir(subdir string) Executor

	// WithEnv returns a new Executor with an additional environment variable.
	WithEnv(key, value string) Executor

	// Dir returns the working directory for this executor.
	Dir() string

	// Env returns the extra KEY=VALUE pairs applied on top of the process
	// environment.
	Env() []string

	// Run executes a command and streams output to configured writers.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns stdout as a string.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

type Option func(*executor)

// WithLogger logs every command at debug level before it starts.
func WithLogger(logger *log.Logger) Option {
	return func(e *executor) {
		e.logger = logger
	}
}

type executor struct {
	dir    string
	stdout io.Writer
	stderr io.Writer
	env    []string
	logger *log.Logger
}

// New creates an Executor rooted at dir.
func New(dir string, opts ...Option) Executor {
	e := &executor{
		dir:    dir,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *executor) clone() *executor {
	c := *e
	return &c
}

func (e *executor) WithOutput(stdout, stderr io.Writer) Executor {
	c := e.clone()
	c.stdout, c.stderr = stdout, stderr
	return c
}

func (e *executor) InSubdir(subdir string) Executor {
	c := e.clone()
	c.dir = filepath.Join(e.dir, subdir)
	return c
}

func (e *executor) WithEnv(key, value string) Executor {
	c := e.clone()
	c.env = append(append(make([]string, 0, len(e.env)+1), e.env...), key+"="+value)
	return c
}

func (e *executor) Dir() string {
	return e.dir
}

func (e *executor) Env() []string {
	return append([]string(nil), e.env...)
}

func (e *executor) Run(ctx context.Context, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s failed", name)
	}

	return nil
}

func (e *executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := e.command(ctx, name, args...)

	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s failed", name)
	}

	return strings.TrimSpace(string(output)), nil
}

func (e *executor) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	e.logger.Debug("exec", "dir", e.dir, "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	return cmd
}
