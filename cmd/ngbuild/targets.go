package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/catalog"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

func targetsCmd() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "List the boards found in the target directory",
		Flags: []cli.Flag{
			targetDirFlag(),
			&cli.StringFlag{
				Name:  "tier",
				Usage: "Only list boards of this support tier, e.g. csc or wip",
			},
		},
		Action: config.RunWithConfig(runTargets),
	}
}

func runTargets(ctx context.Context, cmd *cli.Command, cfg config.Context) error {
	s, err := mergeSettings(cfg, overridesFrom(cmd))
	if err != nil {
		return err
	}
	return doTargets(os.Stdout, s.TargetDir, cmd.String("tier"), log.FromContext(ctx))
}

func doTargets(w io.Writer, dir, tier string, logger *log.Logger) error {
	var want catalog.Tier
	if tier != "" {
		t, ok := catalog.ParseTier(tier)
		if !ok {
			return errors.Newf("unknown tier %q", tier)
		}
		want = t
	}

	cat, err := catalog.NewResolver(catalog.WithLogger(logger)).Resolve(dir)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("BOARD", "TIER", "NAME", "KERNELS")
	n := 0
	for _, target := range cat.Sorted() {
		if tier != "" && target.Tier != want {
			continue
		}
		md, err := catalog.ReadMetadata(cat.Dir, target)
		if err != nil {
			logger.Debug("no board metadata", "board", target.Board, "err", err)
		}
		t.Row(target.Board, target.Tier.String(), md.Name, strings.Join(md.KernelTargets, ","))
		n++
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d boards\n", n, cat.Len())
	return nil
}
