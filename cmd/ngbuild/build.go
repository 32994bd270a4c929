package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/catalog"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/cmdexec"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/config"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/pipeline"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Configure a build with the wizard and run the build steps",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "armbian-branch",
				Aliases: []string{"a"},
				Usage:   "Armbian branch to clone: master, next or tvboxes",
			},
			&cli.BoolFlag{
				Name:  "distcc",
				Usage: "Use distcc for distributed compilation",
			},
			targetDirFlag(),
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "Directory the build tree and options file are placed in",
			},
			accessibleFlag(),
			&cli.StringFlag{
				Name:  "options",
				Usage: "Reuse an options file written by configure instead of running the wizard",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the steps that would run and exit",
			},
		},
		Action: config.RunWithConfig(runBuild),
	}
}

type buildOptions struct {
	Config      config.Context
	Settings    settings
	OptionsFile string
	DryRun      bool
	Prompter    wizard.Prompter
	Exec        cmdexec.Executor
	Stdout      io.Writer
	Logger      *log.Logger
	Now         func() time.Time
}

func runBuild(ctx context.Context, cmd *cli.Command, cfg config.Context) error {
	s, err := mergeSettings(cfg, overridesFrom(cmd))
	if err != nil {
		return err
	}
	logger := log.FromContext(ctx)

	return doBuild(ctx, buildOptions{
		Config:      cfg,
		Settings:    s,
		OptionsFile: cmd.String("options"),
		DryRun:      cmd.Bool("dry-run"),
		Prompter:    newPrompter(s.Accessible, os.Stdin, os.Stdout),
		Exec:        cmdexec.New(s.WorkDir, cmdexec.WithLogger(logger)).WithOutput(os.Stdout, os.Stderr),
		Stdout:      os.Stdout,
		Logger:      logger,
		Now:         time.Now,
	})
}

func doBuild(ctx context.Context, opts buildOptions) error {
	start := opts.Now()
	printBanner(opts.Stdout)

	reg, err := loadAnswers(ctx, opts)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Options:       reg.ReadAll(),
		ArmbianBranch: opts.Settings.ArmbianBranch,
		UseDistcc:     opts.Settings.UseDistcc,
		WorkDir:       opts.Settings.WorkDir,
	}
	p := pipeline.New(opts.Exec, pipeline.WithLogger(opts.Logger))

	if opts.DryRun {
		for _, name := range p.Plan(req) {
			fmt.Fprintln(opts.Stdout, name)
		}
		return nil
	}

	if _, err := p.Run(ctx, req); err != nil {
		return err
	}

	printNotice(opts.Stdout, "Armbian-NG done!")
	printBuildTime(opts.Stdout, opts.Now().Sub(start))
	return nil
}

// loadAnswers runs the wizard, or reads a previous configure result when an
// options file is given. A reused file must hold answers the wizard could
// have produced for the current catalog.
func loadAnswers(ctx context.Context, opts buildOptions) (*registry.Registry, error) {
	if opts.OptionsFile == "" {
		return runSession(ctx, opts.Config, opts.Settings, opts.Prompter, opts.Logger)
	}

	reg, err := pipeline.ReadHandoffFile(opts.OptionsFile)
	if err != nil {
		return nil, err
	}

	resolver := catalog.NewResolver(catalog.WithLogger(opts.Logger))
	screens := wizard.DefaultScreens(wizard.CatalogDomain(resolver, opts.Settings.TargetDir))
	if err := wizard.ValidateAnswers(screens, reg.ReadAll()); err != nil {
		return nil, errors.Wrapf(err, "options file %s", opts.OptionsFile)
	}

	board, _ := reg.Get(registry.TargetBoard)
	opts.Logger.Info("reusing options", "path", opts.OptionsFile, "board", board)
	return reg, nil
}
