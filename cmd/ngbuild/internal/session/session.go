// Package session runs one configuration wizard from Intro to Done and hands
// the collected options to the caller.
package session

import (
	"context"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/catalog"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/logging"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

var (
	ErrCatalogUnavailable = catalog.ErrCatalogUnavailable
	ErrSessionAborted     = wizard.ErrSessionAborted
)

type Options struct {
	// TargetDir holds the board definition files.
	TargetDir string
	// Seeds preselect answers, typically from the configuration file.
	Seeds    map[registry.Key]string
	Prompter wizard.Prompter
	Logger   *log.Logger
	// Observers receive every wizard transition.
	Observers []wizard.Observer
}

// Run drives a wizard session over the targets in opts.TargetDir. It fails
// with ErrCatalogUnavailable before the first screen when the directory
// cannot be read, and with ErrSessionAborted when the operator exits early.
// The returned registry is complete and owned by the caller.
func Run(ctx context.Context, opts Options) (*registry.Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Prompter == nil {
		return nil, errors.New("session needs a prompter")
	}

	resolver := catalog.NewResolver(catalog.WithLogger(logger))
	if err := resolver.Probe(opts.TargetDir); err != nil {
		return nil, err
	}

	seqOpts := []wizard.SequencerOption{
		wizard.WithSkipRules(wizard.DefaultSkipRules()),
		wizard.WithSeeds(opts.Seeds),
		wizard.WithSequencerLogger(logger),
		wizard.WithObserver(func(t wizard.Transition) {
			logger.Debug("transition",
				"from", t.From, "to", t.To,
				"key", t.Key, "value", t.Value,
				"skipped", t.Skipped, "backward", t.Backward)
		}),
	}
	for _, o := range opts.Observers {
		seqOpts = append(seqOpts, wizard.WithObserver(o))
	}

	screens := wizard.DefaultScreens(wizard.CatalogDomain(resolver, opts.TargetDir))
	seq, err := wizard.NewSequencer(screens, seqOpts...)
	if err != nil {
		return nil, err
	}

	reg, err := wizard.New(seq, opts.Prompter).WithLogger(logger).Run(ctx)
	if err != nil {
		return nil, err
	}
	if !reg.IsComplete() {
		return nil, errors.AssertionFailedf("session finished with unanswered options %v", reg.Missing())
	}

	logger.Info("configuration complete", "board", value(reg, registry.TargetBoard), "scope", value(reg, registry.BuildScope))
	return reg, nil
}

func value(reg *registry.Registry, key registry.Key) string {
	v, _ := reg.Get(key)
	return v
}
