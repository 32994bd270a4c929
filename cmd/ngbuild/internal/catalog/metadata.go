package catalog

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Metadata is the descriptive part of a board definition file, which holds
// shell style KEY="value" assignments.
type Metadata struct {
	Name          string
	Family        string
	KernelTargets []string
}

// FileName returns the name of the definition file of t.
func (t Target) FileName() string {
	return t.Board + Delimiter + t.Tier.Extension()
}

// ParseMetadata reads BOARD_NAME, BOARDFAMILY and KERNEL_TARGET. Other
// assignments are ignored.
func ParseMetadata(r io.Reader) (Metadata, error) {
	vars, err := godotenv.Parse(r)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse board definition")
	}

	md := Metadata{
		Name:   vars["BOARD_NAME"],
		Family: vars["BOARDFAMILY"],
	}
	for kt := range strings.SplitSeq(vars["KERNEL_TARGET"], ",") {
		if kt = strings.TrimSpace(kt); kt != "" {
			md.KernelTargets = append(md.KernelTargets, kt)
		}
	}
	return md, nil
}

// ReadMetadata parses the definition file of t in dir.
func ReadMetadata(dir string, t Target) (Metadata, error) {
	f, err := os.Open(filepath.Join(dir, t.FileName()))
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "failed to open definition of %s", t.Board)
	}
	defer f.Close()

	md, err := ParseMetadata(f)
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "board %s", t.Board)
	}
	return md, nil
}
