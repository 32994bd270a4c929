// Package registry holds the answers collected by a wizard session, one value
// per fixed option key, in screen order.
package registry

import (
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/iancoleman/strcase"
)

// Key identifies one answer slot.
type Key string

const (
	BuildScope         Key = "buildScope"
	KernelConfigPolicy Key = "kernelConfigPolicy"
	TargetBoard        Key = "targetBoard"
	KernelBranch       Key = "kernelBranch"
	Distribution       Key = "distribution"
	ImageType          Key = "imageType"
)

// Keys returns the fixed key set in screen order.
func Keys() []Key {
	return []Key{
		BuildScope,
		KernelConfigPolicy,
		TargetBoard,
		KernelBranch,
		Distribution,
		ImageType,
	}
}

// Label returns a human readable form of the key, e.g. "Kernel config policy".
func (k Key) Label() string {
	s := strcase.ToDelimited(string(k), ' ')
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Entry is one key/value pair of a Snapshot.
type Entry struct {
	Key   Key
	Value string
}

// Snapshot is an ordered, read-only copy of the registry contents.
type Snapshot []Entry

// Value returns the value recorded for key.
func (s Snapshot) Value(key Key) (string, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Map returns the snapshot as a plain map.
func (s Snapshot) Map() map[Key]string {
	m := make(map[Key]string, len(s))
	for _, e := range s {
		m[e.Key] = e.Value
	}
	return m
}

// MarshalYAML encodes the snapshot as a mapping that keeps screen order.
func (s Snapshot) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, len(s))
	for _, e := range s {
		ms = append(ms, yaml.MapItem{Key: string(e.Key), Value: e.Value})
	}
	return ms, nil
}

// Registry maps each fixed key to the selected value. It is not safe for
// concurrent use; a session touches it from one goroutine only.
type Registry struct {
	keys   []Key
	values map[Key]string
}

// New creates an empty registry for the given keys, or for Keys() when none
// are given.
func New(keys ...Key) *Registry {
	if len(keys) == 0 {
		keys = Keys()
	}
	return &Registry{
		keys:   append([]Key(nil), keys...),
		values: make(map[Key]string, len(keys)),
	}
}

// Write records value for key, replacing any earlier value.
func (r *Registry) Write(key Key, value string) error {
	if !slices.Contains(r.keys, key) {
		return errors.Newf("unknown option key %q", key)
	}
	r.values[key] = value
	return nil
}

// Get returns the value written for key.
func (r *Registry) Get(key Key) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// ReadAll returns the written entries in key order.
func (r *Registry) ReadAll() Snapshot {
	snap := make(Snapshot, 0, len(r.values))
	for _, k := range r.keys {
		if v, ok := r.values[k]; ok {
			snap = append(snap, Entry{Key: k, Value: v})
		}
	}
	return snap
}

// IsComplete reports whether every key has been written.
func (r *Registry) IsComplete() bool {
	return len(r.Missing()) == 0
}

// Missing returns the keys that have not been written yet.
func (r *Registry) Missing() []Key {
	var missing []Key
	for _, k := range r.keys {
		if _, ok := r.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := New(r.keys...)
	maps.Copy(c.values, r.values)
	return c
}
