package config

import (
	"io"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

type tomlLoader struct {
	validate *validator.Validate
}

// Load reads a TOML config. Unknown keys are rejected like in the YAML form.
func (l *tomlLoader) Load(path string) (Config, error) {
	cfg := Default()
	cfg.Version = ""

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Newf("unknown field %q in config file %s", undecoded[0].String(), path)
	}
	if err := l.validate.Struct(cfg); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config file %s", path)
	}

	return cfg, nil
}

type tomlWriter struct{}

func NewTOMLWriter() Writer {
	return &tomlWriter{}
}

func (w *tomlWriter) Write(wr io.Writer, cfg Config) error {
	if err := toml.NewEncoder(wr).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}
