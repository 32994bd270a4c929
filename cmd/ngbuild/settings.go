package main

import (
	"io"
	"path/filepath"
	"slices"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/config"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

var armbianBranches = []string{"master", "next", "tvboxes"}

// settings are the effective values of a run once config and flags are merged.
type settings struct {
	ArmbianBranch string
	TargetDir     string
	WorkDir       string
	UseDistcc     bool
	Accessible    bool
}

// overrides are command line values. Empty strings leave the config value.
type overrides struct {
	ArmbianBranch string
	TargetDir     string
	WorkDir       string
	UseDistcc     bool
	Accessible    bool
}

func overridesFrom(cmd *cli.Command) overrides {
	return overrides{
		ArmbianBranch: cmd.String("armbian-branch"),
		TargetDir:     cmd.String("target-dir"),
		WorkDir:       cmd.String("work-dir"),
		UseDistcc:     cmd.Bool("distcc"),
		Accessible:    cmd.Bool("accessible"),
	}
}

func mergeSettings(cfg config.Context, o overrides) (settings, error) {
	s := settings{
		ArmbianBranch: cfg.Config.ArmbianBranch,
		TargetDir:     cfg.TargetDir(),
		WorkDir:       o.WorkDir,
		UseDistcc:     cfg.Config.UseDistcc || o.UseDistcc,
		Accessible:    o.Accessible,
	}
	if o.ArmbianBranch != "" {
		s.ArmbianBranch = o.ArmbianBranch
	}
	if s.ArmbianBranch == "" {
		s.ArmbianBranch = armbianBranches[0]
	}
	if !slices.Contains(armbianBranches, s.ArmbianBranch) {
		return settings{}, errors.Newf("unknown armbian branch %q, want one of %v", s.ArmbianBranch, armbianBranches)
	}
	if o.TargetDir != "" {
		s.TargetDir = o.TargetDir
	}
	if s.WorkDir == "" {
		s.WorkDir = cfg.BaseDir
	}

	var err error
	if s.TargetDir, err = filepath.Abs(s.TargetDir); err != nil {
		return settings{}, errors.Wrap(err, "failed to resolve target dir")
	}
	if s.WorkDir, err = filepath.Abs(s.WorkDir); err != nil {
		return settings{}, errors.Wrap(err, "failed to resolve work dir")
	}
	return s, nil
}

func newPrompter(accessible bool, in io.Reader, out io.Writer) wizard.Prompter {
	var runner wizard.FormRunner = wizard.NewInteractiveRunner()
	if accessible {
		runner = wizard.NewAccessibleRunner(out, in)
	}
	return wizard.NewFormPrompter(wizard.NewFormBuilder(), runner)
}

func targetDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "target-dir",
		Usage: "Directory of board definition files (overrides target_dir in the config)",
	}
}

func accessibleFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "accessible",
		Usage:   "Use plain line-based prompts suitable for screen readers",
		Sources: cli.EnvVars("ACCESSIBLE"),
	}
}
