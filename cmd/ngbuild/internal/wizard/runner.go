package wizard

import (
	"context"
	"io"

	"github.com/charmbracelet/huh"
)

type FormRunner interface {
	Run(ctx context.Context, form *huh.Form) error
}

type InteractiveRunner struct{}

func NewInteractiveRunner() *InteractiveRunner {
	return &InteractiveRunner{}
}

func (r *InteractiveRunner) Run(ctx context.Context, form *huh.Form) error {
	return form.RunWithContext(ctx)
}

// AccessibleRunner prompts line by line instead of drawing a TUI. It serves
// screen readers and scripted input.
type AccessibleRunner struct {
	output io.Writer
	input  io.Reader
}

func NewAccessibleRunner(output io.Writer, input io.Reader) *AccessibleRunner {
	return &AccessibleRunner{
		output: output,
		input:  input,
	}
}

func (r *AccessibleRunner) Run(ctx context.Context, form *huh.Form) error {
	return form.
		WithAccessible(true).
		WithOutput(r.output).
		WithInput(r.input).
		RunWithContext(ctx)
}
