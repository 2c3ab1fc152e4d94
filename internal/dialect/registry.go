// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dialect holds the table of document dialects: the ordered matcher
// rules, depth limits, table markers, boundary exceptions and skip predicates
// that describe how one family of curriculum documents encodes structure.
//
// Dialects are data. The built-in table is embedded YAML; a YAML file with the
// same shape can add dialects or replace built-ins by name.
package dialect

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// DefaultName is the dialect used when none is configured.
const DefaultName = "numbered-outline"

// ErrUnknownDialect is returned by Lookup for names not in the registry.
var ErrUnknownDialect = errors.New("unknown dialect")

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin returns the declarative built-in dialects in table order.
func Builtin() []types.Dialect {
	ds, err := Decode(bytes.NewReader(builtinYAML))
	if err != nil {
		panic(fmt.Sprintf("dialect: embedded table is invalid: %v", err))
	}
	return ds
}

// Decode reads a YAML list of dialects. Unknown keys are rejected so typos in
// hand-written dialect files surface immediately.
func Decode(r io.Reader) ([]types.Dialect, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ds []types.Dialect
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing dialects: %w", err)
	}
	return ds, nil
}

// LoadFile reads dialects from a YAML file.
func LoadFile(path string) ([]types.Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dialects file: %w", err)
	}
	defer f.Close()
	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Registry is the read-only dialect table shared by all parses.
type Registry struct {
	byName      map[string]*Compiled
	order       []string
	defaultName string
}

// NewRegistry compiles the given dialects. Later entries replace earlier ones
// with the same name. defaultName must name one of them; empty selects
// DefaultName.
func NewRegistry(defaultName string, dialects ...types.Dialect) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Compiled)}
	for _, d := range dialects {
		c, err := Compile(d)
		if err != nil {
			return nil, err
		}
		if _, exists := r.byName[c.Name]; !exists {
			r.order = append(r.order, c.Name)
		}
		r.byName[c.Name] = c
	}

	if defaultName == "" {
		defaultName = DefaultName
	}
	defaultName = Normalize(defaultName)
	if _, ok := r.byName[defaultName]; !ok {
		return nil, fmt.Errorf("default dialect %q: %w", defaultName, ErrUnknownDialect)
	}
	r.defaultName = defaultName
	return r, nil
}

// Load builds the registry from the built-in table plus an optional override
// file, as configured by cfg.
func Load(cfg types.EngineConfig) (*Registry, error) {
	ds := Builtin()
	if cfg.DialectsFile != "" {
		extra, err := LoadFile(cfg.DialectsFile)
		if err != nil {
			return nil, err
		}
		ds = append(ds, extra...)
	}
	return NewRegistry(cfg.DefaultDialect, ds...)
}

// Lookup returns the dialect with the given name.
func (r *Registry) Lookup(name string) (*Compiled, error) {
	c, ok := r.byName[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownDialect)
	}
	return c, nil
}

// Resolve returns the dialect for a document hint, falling back to the
// default for empty or unknown hints. The second result reports whether the
// hint matched.
func (r *Registry) Resolve(hint string) (*Compiled, bool) {
	if c, ok := r.byName[Normalize(hint)]; ok {
		return c, true
	}
	return r.byName[r.defaultName], false
}

// Default returns the default dialect.
func (r *Registry) Default() *Compiled {
	return r.byName[r.defaultName]
}

// Names returns dialect names in table order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
