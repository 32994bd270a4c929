// Package wizard implements the screen sequence that collects the options of
// one build: a linear state machine (Sequencer), the table of screens it walks
// and the huh forms that present each screen.
package wizard

import (
	"context"
	"io"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Prompter shows a screen and waits for the operator's action.
type Prompter interface {
	Prompt(ctx context.Context, view View) (Action, error)
}

// FormPrompter presents screens as huh forms.
type FormPrompter struct {
	builder FormBuilder
	runner  FormRunner
}

func NewFormPrompter(builder FormBuilder, runner FormRunner) *FormPrompter {
	return &FormPrompter{
		builder: builder,
		runner:  runner,
	}
}

func (p *FormPrompter) Prompt(ctx context.Context, view View) (Action, error) {
	var answer Answer
	form := p.builder.Build(view, &answer)

	if err := p.runner.Run(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Action{Kind: ActionAbort}, nil
		}
		return Action{}, err
	}

	return answer.resolve(), nil
}

type Wizard struct {
	seq      *Sequencer
	prompter Prompter
	logger   *log.Logger
}

func New(seq *Sequencer, prompter Prompter) *Wizard {
	return &Wizard{
		seq:      seq,
		prompter: prompter,
		logger:   log.New(io.Discard),
	}
}

// WithLogger sets the logger used for rejected selections.
func (w *Wizard) WithLogger(l *log.Logger) *Wizard {
	w.logger = l
	return w
}

// Run prompts screen after screen until Done and returns the answers. A
// rejected selection shows the same screen again; an abort returns
// ErrSessionAborted and no answers.
func (w *Wizard) Run(ctx context.Context) (*registry.Registry, error) {
	for w.seq.Current() != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "wizard interrupted")
		}

		state := w.seq.Current()
		action, err := w.prompter.Prompt(ctx, w.seq.View())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to prompt %s", state)
		}

		switch action.Kind {
		case ActionCommit:
			err = w.seq.Commit(action.Value)
			if errors.Is(err, ErrInvalidSelection) {
				w.logger.Warn("selection rejected", "state", state, "value", action.Value)
				continue
			}
		case ActionBack:
			err = w.seq.Back()
		case ActionJump:
			err = w.seq.JumpTo(action.Target)
		case ActionAbort:
			w.seq.Abort()
			return nil, errors.Wrapf(ErrSessionAborted, "operator exited on %s", state)
		default:
			err = errors.Newf("unknown action %v", action.Kind)
		}
		if err != nil {
			return nil, err
		}
	}

	return w.seq.Result()
}
