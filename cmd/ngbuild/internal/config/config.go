// Package config loads the optional .ngbuild.yml file that pre-seeds the
// wizard and the build.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

const (
	FileName     = ".ngbuild.yml"
	TOMLFileName = ".ngbuild.toml"
)

// FileNames are searched in order in every directory.
var FileNames = []string{FileName, TOMLFileName}

// ErrNotFound is returned by Finder when no config file exists up to the
// filesystem root.
var ErrNotFound = errors.New("config file not found")

type Config struct {
	Version       string   `yaml:"version" toml:"version" validate:"required,oneof=1"`
	ArmbianBranch string   `yaml:"armbian_branch,omitempty" toml:"armbian_branch,omitempty" validate:"omitempty,oneof=master next tvboxes"`
	TargetDir     string   `yaml:"target_dir,omitempty" toml:"target_dir,omitempty"`
	UseDistcc     bool     `yaml:"use_distcc,omitempty" toml:"use_distcc,omitempty"`
	Defaults      Defaults `yaml:"defaults,omitempty" toml:"defaults,omitempty"`
}

// Defaults preselect wizard answers. They never hide a screen.
type Defaults struct {
	BuildScope         string `yaml:"build_scope,omitempty" toml:"build_scope,omitempty" validate:"omitempty,oneof=image uboot-kernel uboot kernel"`
	KernelConfigPolicy string `yaml:"kernel_config_policy,omitempty" toml:"kernel_config_policy,omitempty" validate:"omitempty,oneof=keep menuconfig"`
	TargetBoard        string `yaml:"target_board,omitempty" toml:"target_board,omitempty"`
	KernelBranch       string `yaml:"kernel_branch,omitempty" toml:"kernel_branch,omitempty" validate:"omitempty,oneof=legacy current dev"`
	Distribution       string `yaml:"distribution,omitempty" toml:"distribution,omitempty" validate:"omitempty,oneof=buster stretch bionic disco"`
	ImageType          string `yaml:"image_type,omitempty" toml:"image_type,omitempty" validate:"omitempty,oneof=cli-minimal cli-server desktop"`
}

// Seeds returns the non-empty defaults keyed by option.
func (d Defaults) Seeds() map[registry.Key]string {
	seeds := map[registry.Key]string{}
	for k, v := range map[registry.Key]string{
		registry.BuildScope:         d.BuildScope,
		registry.KernelConfigPolicy: d.KernelConfigPolicy,
		registry.TargetBoard:        d.TargetBoard,
		registry.KernelBranch:       d.KernelBranch,
		registry.Distribution:       d.Distribution,
		registry.ImageType:          d.ImageType,
	} {
		if v != "" {
			seeds[k] = v
		}
	}
	return seeds
}

// DefaultsFrom turns session answers into defaults for the next run.
func DefaultsFrom(answers registry.Snapshot) Defaults {
	get := func(k registry.Key) string {
		v, _ := answers.Value(k)
		return v
	}
	return Defaults{
		BuildScope:         get(registry.BuildScope),
		KernelConfigPolicy: get(registry.KernelConfigPolicy),
		TargetBoard:        get(registry.TargetBoard),
		KernelBranch:       get(registry.KernelBranch),
		Distribution:       get(registry.Distribution),
		ImageType:          get(registry.ImageType),
	}
}

func Default() Config {
	return Config{
		Version:       "1",
		ArmbianBranch: "master",
		TargetDir:     filepath.Join("build", "config", "boards"),
	}
}

type Loader interface {
	Load(path string) (Config, error)
}

type Writer interface {
	Write(w io.Writer, cfg Config) error
}

type Finder interface {
	Find(startDir string) (cfg Config, path string, err error)
}

// NewLoader returns a Loader that picks the format from the file extension.
func NewLoader() Loader {
	v := validator.New()
	return &extLoader{
		yaml: &yamlLoader{validate: v},
		toml: &tomlLoader{validate: v},
	}
}

type extLoader struct {
	yaml Loader
	toml Loader
}

func (l *extLoader) Load(path string) (Config, error) {
	if isTOML(path) {
		return l.toml.Load(path)
	}
	return l.yaml.Load(path)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

type yamlLoader struct {
	validate *validator.Validate
}

// Load reads path. Fields left out of the file keep their Default values.
func (l *yamlLoader) Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config file")
	}

	dec := yaml.NewDecoder(
		bytes.NewReader(data),
		yaml.Validator(l.validate),
		yaml.Strict(),
	)

	cfg := Default()
	cfg.Version = ""
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return cfg, nil
}

type yamlWriter struct{}

func NewWriter() Writer {
	return &yamlWriter{}
}

// WriterFor returns the Writer matching the extension of path.
func WriterFor(path string) Writer {
	if isTOML(path) {
		return NewTOMLWriter()
	}
	return NewWriter()
}

func (w *yamlWriter) Write(wr io.Writer, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if _, err := wr.Write(data); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}

type finder struct {
	loader Loader
}

func NewFinder(loader Loader) Finder {
	return &finder{loader: loader}
}

func (f *finder) Find(startDir string) (Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err != nil {
				continue
			}
			cfg, err := f.loader.Load(configPath)
			if err != nil {
				return Config{}, "", err
			}
			return cfg, configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Config{}, "", errors.Wrapf(ErrNotFound,
				"%s (searched from %s to root)", FileName, startDir)
		}
		dir = parent
	}
}

func WriteToFile(path string, cfg Config, w Writer) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	defer f.Close()

	return w.Write(f, cfg)
}
