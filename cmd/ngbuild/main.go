package main

import (
	"context"
	"fmt"
	"os"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/logging"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/session"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "ngbuild",
		Usage:   "Configure and build Armbian-NG images for ARM boards",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file (defaults to the nearest .ngbuild.yml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			buildCmd(),
			configureCmd(),
			targetsCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger := logging.New(os.Stderr, logging.Options{Level: cmd.String("log-level")})
			return log.WithContext(ctx, logger), nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	switch {
	case errors.Is(err, session.ErrSessionAborted):
		fmt.Fprintln(os.Stderr, "aborted")
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
