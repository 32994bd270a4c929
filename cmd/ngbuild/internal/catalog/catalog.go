// Package catalog resolves a directory of board definition files into the
// list of targets the build can produce an image for.
//
// Each regular file in the directory defines one target. Its name has the
// shape <board>.<tier>, where the tier extension says how actively the board
// is maintained.
package catalog

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Delimiter separates the board name from the tier extension.
const Delimiter = "."

// ErrCatalogUnavailable marks errors caused by a missing or unreadable
// target directory, or one that offers no target at all.
var ErrCatalogUnavailable = errors.New("target catalog unavailable")

// Tier is the support classification of a target.
type Tier int

const (
	TierSupported Tier = iota + 1
	TierCommunitySupported
	TierWorkInProgress
	TierEndOfSupport
	TierTVBox
)

var tierExtensions = map[string]Tier{
	"conf": TierSupported,
	"csc":  TierCommunitySupported,
	"wip":  TierWorkInProgress,
	"eos":  TierEndOfSupport,
	"tvb":  TierTVBox,
}

// ParseTier maps a file extension (without delimiter) to its tier.
func ParseTier(ext string) (Tier, bool) {
	t, ok := tierExtensions[ext]
	return t, ok
}

func (t Tier) String() string {
	switch t {
	case TierSupported:
		return "supported"
	case TierCommunitySupported:
		return "community supported"
	case TierWorkInProgress:
		return "work in progress"
	case TierEndOfSupport:
		return "end of support"
	case TierTVBox:
		return "tv box"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Extension returns the file extension that selects this tier.
func (t Tier) Extension() string {
	for ext, tier := range tierExtensions {
		if tier == t {
			return ext
		}
	}
	return ""
}

// Target describes one buildable board.
type Target struct {
	Board string
	Tier  Tier
}

// Label is the text shown to the operator when picking a board.
func (t Target) Label() string {
	return fmt.Sprintf("%s (%s)", t.Board, t.Tier)
}

// MalformedEntryError reports a file in the target directory that does not
// describe a target.
type MalformedEntryError struct {
	File   string
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed target entry %q: %s", e.File, e.Reason)
}

// ParseEntry parses a definition file name. The name is split on the first
// delimiter only, so "a.b.conf" has the extension "b.conf" and is rejected.
func ParseEntry(name string) (Target, error) {
	t, malformed := parseEntry(name)
	if malformed != nil {
		return Target{}, malformed
	}
	return t, nil
}

func parseEntry(name string) (Target, *MalformedEntryError) {
	board, ext, ok := strings.Cut(name, Delimiter)
	if !ok {
		return Target{}, &MalformedEntryError{File: name, Reason: "no tier extension"}
	}
	if board == "" {
		return Target{}, &MalformedEntryError{File: name, Reason: "empty board name"}
	}
	tier, ok := ParseTier(ext)
	if !ok {
		return Target{}, &MalformedEntryError{File: name, Reason: fmt.Sprintf("unrecognized tier extension %q", ext)}
	}
	return Target{Board: board, Tier: tier}, nil
}

// Catalog is the result of one directory scan.
type Catalog struct {
	Dir string
	// Targets in directory enumeration order.
	Targets []Target
	// Skipped holds the entries that could not be parsed.
	Skipped []*MalformedEntryError
}

// Len returns the number of targets.
func (c Catalog) Len() int {
	return len(c.Targets)
}

// Sorted returns the targets ordered by board name.
func (c Catalog) Sorted() []Target {
	sorted := slices.Clone(c.Targets)
	slices.SortStableFunc(sorted, func(a, b Target) int {
		return strings.Compare(a.Board, b.Board)
	})
	return sorted
}

// Boards returns the board names ordered by name.
func (c Catalog) Boards() []string {
	boards := make([]string, 0, len(c.Targets))
	for _, t := range c.Sorted() {
		boards = append(boards, t.Board)
	}
	return boards
}

// Lookup finds the target for board.
func (c Catalog) Lookup(board string) (Target, bool) {
	for _, t := range c.Targets {
		if t.Board == board {
			return t, true
		}
	}
	return Target{}, false
}

// Resolver scans target directories.
type Resolver struct {
	logger  *log.Logger
	readDir func(name string) ([]fs.DirEntry, error)
	stat    func(name string) (fs.FileInfo, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger that receives warnings about skipped entries.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithReadDir replaces os.ReadDir.
func WithReadDir(fn func(name string) ([]fs.DirEntry, error)) Option {
	return func(r *Resolver) {
		r.readDir = fn
	}
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger:  log.New(io.Discard),
		readDir: os.ReadDir,
		stat:    os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Probe checks that dir can be listed.
func (r *Resolver) Probe(dir string) error {
	if _, err := r.readDir(dir); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to read target directory %s", dir), ErrCatalogUnavailable)
	}
	return nil
}

// Resolve scans dir once and returns every target it defines. Entries that
// fail to parse are logged and skipped, as is a second file for a board that
// is already defined. Only an unreadable directory fails the scan.
func (r *Resolver) Resolve(dir string) (Catalog, error) {
	entries, err := r.readDir(dir)
	if err != nil {
		return Catalog{}, errors.Mark(errors.Wrapf(err, "failed to read target directory %s", dir), ErrCatalogUnavailable)
	}

	cat := Catalog{Dir: dir}
	defined := map[string]string{}
	for _, entry := range entries {
		if !r.isRegular(dir, entry) {
			continue
		}

		target, malformed := parseEntry(entry.Name())
		if malformed == nil {
			if first, dup := defined[target.Board]; dup {
				malformed = &MalformedEntryError{
					File:   entry.Name(),
					Reason: fmt.Sprintf("board %q is already defined by %s", target.Board, first),
				}
			}
		}
		if malformed != nil {
			r.logger.Warn("skipping target entry", "file", malformed.File, "reason", malformed.Reason)
			cat.Skipped = append(cat.Skipped, malformed)
			continue
		}

		defined[target.Board] = entry.Name()
		cat.Targets = append(cat.Targets, target)
	}

	r.logger.Debug("resolved target catalog", "dir", dir, "targets", len(cat.Targets), "skipped", len(cat.Skipped))
	return cat, nil
}

func (r *Resolver) isRegular(dir string, entry fs.DirEntry) bool {
	mode := entry.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := r.stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			r.logger.Warn("skipping dangling target link", "file", entry.Name(), "err", err)
			return false
		}
		mode = info.Mode()
	}
	return mode.IsRegular()
}

// Resolve scans dir with a default Resolver.
func Resolve(dir string) (Catalog, error) {
	return NewResolver().Resolve(dir)
}
