package pipeline

import (
	"io"
	"os"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
)

// WriteHandoff encodes the options as an ordered YAML mapping.
func WriteHandoff(w io.Writer, options registry.Snapshot) error {
	data, err := yaml.Marshal(options)
	if err != nil {
		return errors.Wrap(err, "failed to marshal options")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write options")
	}
	return nil
}

func WriteHandoffFile(path string, options registry.Snapshot) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create options file")
	}
	defer f.Close()

	return WriteHandoff(f, options)
}

// ReadHandoff decodes a file written by WriteHandoff. Every key must be known
// and present.
func ReadHandoff(r io.Reader) (*registry.Registry, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse options")
	}

	reg := registry.New()
	for k, v := range raw {
		if err := reg.Write(registry.Key(k), v); err != nil {
			return nil, err
		}
	}
	if missing := reg.Missing(); len(missing) > 0 {
		return nil, errors.Newf("options file is missing %v", missing)
	}
	return reg, nil
}

func ReadHandoffFile(path string) (*registry.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open options file")
	}
	defer f.Close()

	return ReadHandoff(f)
}
