package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/config"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/pipeline"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/session"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

func configureCmd() *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "Run the configuration wizard and print the selected options",
		Flags: []cli.Flag{
			targetDirFlag(),
			accessibleFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the options to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Store the answers as defaults in the configuration file",
			},
		},
		Action: config.RunWithConfig(runConfigure),
	}
}

type configureOptions struct {
	Config   config.Context
	Settings settings
	Output   string
	Save     bool
	Prompter wizard.Prompter
	Stdout   io.Writer
	Logger   *log.Logger
}

func runConfigure(ctx context.Context, cmd *cli.Command, cfg config.Context) error {
	s, err := mergeSettings(cfg, overridesFrom(cmd))
	if err != nil {
		return err
	}

	return doConfigure(ctx, configureOptions{
		Config:   cfg,
		Settings: s,
		Output:   cmd.String("output"),
		Save:     cmd.Bool("save"),
		Prompter: newPrompter(s.Accessible, os.Stdin, os.Stdout),
		Stdout:   os.Stdout,
		Logger:   log.FromContext(ctx),
	})
}

func doConfigure(ctx context.Context, opts configureOptions) error {
	reg, err := runSession(ctx, opts.Config, opts.Settings, opts.Prompter, opts.Logger)
	if err != nil {
		return err
	}
	answers := reg.ReadAll()

	if opts.Output == "" {
		if err := pipeline.WriteHandoff(opts.Stdout, answers); err != nil {
			return err
		}
	} else {
		if err := pipeline.WriteHandoffFile(opts.Output, answers); err != nil {
			return err
		}
		opts.Logger.Info("options written", "path", opts.Output)
	}

	if opts.Save {
		return saveDefaults(opts.Config, answers, opts.Logger)
	}
	return nil
}

func runSession(
	ctx context.Context, cfg config.Context, s settings, prompter wizard.Prompter, logger *log.Logger,
) (*registry.Registry, error) {
	return session.Run(ctx, session.Options{
		TargetDir: s.TargetDir,
		Seeds:     cfg.Config.Defaults.Seeds(),
		Prompter:  prompter,
		Logger:    logger,
	})
}

// saveDefaults writes answers back to the loaded config file, or creates one
// in the base directory.
func saveDefaults(cfg config.Context, answers registry.Snapshot, logger *log.Logger) error {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(cfg.BaseDir, config.FileName)
	}

	out := cfg.Config
	out.Defaults = config.DefaultsFrom(answers)
	if err := config.WriteToFile(path, out, config.WriterFor(path)); err != nil {
		return errors.Wrapf(err, "failed to save defaults to %s", path)
	}

	logger.Info("defaults saved", "path", path)
	return nil
}
