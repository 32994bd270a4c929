// Package pipeline hands the collected options to the build and runs the
// build steps that apply to the selected scope.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/cmdexec"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Request is everything a build needs: the wizard answers plus the command
// line settings.
type Request struct {
	Options       registry.Snapshot
	ArmbianBranch string
	UseDistcc     bool
	WorkDir       string
}

// Scope returns the selected build scope.
func (r Request) Scope() string {
	v, _ := r.Options.Value(registry.BuildScope)
	return v
}

// Env is passed to every step.
type Env struct {
	Request
	Exec   cmdexec.Executor
	Logger *log.Logger
}

// Step is one unit of the build.
type Step struct {
	Name string
	// When reports whether the step applies to a build scope. Nil means always.
	When func(scope string) bool
	Run  func(ctx context.Context, env Env) error
}

// StepResult records what happened to one step.
type StepResult struct {
	Name     string
	Skipped  bool
	Duration time.Duration
}

// Report summarizes a pipeline run.
type Report struct {
	Steps   []StepResult
	Elapsed time.Duration
}

type Option func(*Pipeline)

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithSteps replaces the step list.
func WithSteps(steps ...Step) Option {
	return func(p *Pipeline) {
		p.steps = steps
	}
}

// WithClock overrides the time source used for the report.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

type Pipeline struct {
	exec   cmdexec.Executor
	steps  []Step
	logger *log.Logger
	now    func() time.Time
}

// New returns a pipeline over DefaultSteps that runs commands through exec.
func New(exec cmdexec.Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		exec:   exec,
		steps:  DefaultSteps(),
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns the names of the steps that would run for req.
func (p *Pipeline) Plan(req Request) []string {
	var names []string
	for _, s := range p.steps {
		if applies(s, req.Scope()) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Run executes the applicable steps in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (Report, error) {
	if req.Scope() == "" {
		return Report{}, errors.New("build scope is not set")
	}

	exec := p.exec
	if req.UseDistcc {
		exec = exec.WithEnv("CCACHE_PREFIX", "distcc")
	}
	env := Env{Request: req, Exec: exec, Logger: p.logger}

	start := p.now()
	var report Report
	for _, s := range p.steps {
		if !applies(s, req.Scope()) {
			p.logger.Debug("step skipped", "step", s.Name, "scope", req.Scope())
			report.Steps = append(report.Steps, StepResult{Name: s.Name, Skipped: true})
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "build cancelled")
		}

		p.logger.Info("step", "name", s.Name)
		stepStart := p.now()
		if err := s.Run(ctx, env.with(s.Name)); err != nil {
			return report, errors.Wrapf(err, "step %s", s.Name)
		}
		report.Steps = append(report.Steps, StepResult{Name: s.Name, Duration: p.now().Sub(stepStart)})
	}
	report.Elapsed = p.now().Sub(start)

	return report, nil
}

func (e Env) with(step string) Env {
	e.Logger = e.Logger.With("step", step)
	return e
}

func applies(s Step, scope string) bool {
	return s.When == nil || s.When(scope)
}
