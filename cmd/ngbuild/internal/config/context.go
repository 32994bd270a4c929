package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

type contextKey struct{}

// Context is the configuration a command runs with.
type Context struct {
	Config Config
	// Path of the loaded file, empty when running on defaults.
	Path string
	// BaseDir anchors relative paths: the directory of Path, or the working
	// directory when no file was found.
	BaseDir string
}

// TargetDir returns the absolute target definition directory.
func (c Context) TargetDir() string {
	return c.abs(c.Config.TargetDir)
}

func (c Context) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func WithContext(ctx context.Context, cfg Context) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

func FromContext(ctx context.Context) (Context, bool) {
	cfg, ok := ctx.Value(contextKey{}).(Context)
	return cfg, ok
}

var defaultFinder = NewFinder(NewLoader())

// Resolve loads explicitPath when given. Otherwise it searches upwards from
// startDir and falls back to Default when no file exists.
func Resolve(explicitPath, startDir string) (Context, error) {
	if explicitPath != "" {
		abs, err := filepath.Abs(explicitPath)
		if err != nil {
			return Context{}, errors.Wrap(err, "failed to get absolute path")
		}
		cfg, err := NewLoader().Load(abs)
		if err != nil {
			return Context{}, err
		}
		return Context{Config: cfg, Path: abs, BaseDir: filepath.Dir(abs)}, nil
	}

	cfg, path, err := defaultFinder.Find(startDir)
	switch {
	case errors.Is(err, ErrNotFound):
		return Context{Config: Default(), BaseDir: startDir}, nil
	case err != nil:
		return Context{}, err
	}
	return Context{Config: cfg, Path: path, BaseDir: filepath.Dir(path)}, nil
}

// Ensure returns config from context if present, otherwise resolves it.
func Ensure(ctx context.Context, explicitPath string) (context.Context, Context, error) {
	if cfg, ok := FromContext(ctx); ok {
		return ctx, cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ctx, Context{}, err
	}

	cfg, err := Resolve(explicitPath, cwd)
	if err != nil {
		return ctx, Context{}, err
	}

	return WithContext(ctx, cfg), cfg, nil
}

// ActionFunc is a command action that receives the config.
type ActionFunc func(ctx context.Context, cmd *cli.Command, cfg Context) error

// RunWithConfig wraps an ActionFunc to lazily load config when the action runs.
// The file named by the "config" flag wins over the searched one.
func RunWithConfig(fn ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, cfg, err := Ensure(ctx, cmd.String("config"))
		if err != nil {
			return err
		}
		return fn(ctx, cmd, cfg)
	}
}
