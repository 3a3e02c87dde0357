// SPDX-License-Identifier: MIT
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"termvis/internal/log"
)

var ErrNoVisualizers = errors.New("no visualizers loaded")

// Factory constructs one visualizer.
type Factory func() (Visualizer, error)

// Entry registers a visualizer factory under a short key used on the
// command line and in the config file.
type Entry struct {
	Key string
	New Factory
}

type item struct {
	key string
	vis Visualizer
}

// Registry is the fixed, ordered set of visualizers for a session.
type Registry struct {
	items []item
}

// Discover constructs and sets up one instance per entry, in order. An entry
// whose factory or Setup fails (or panics) is skipped with a warning. It is
// an error for nothing to load.
func Discover(entries []Entry) (*Registry, error) {
	r := &Registry{}
	for _, e := range entries {
		v, err := load(e)
		if err != nil {
			log.Warnf("Skipping visualizer %q: %v", e.Key, err)
			continue
		}
		log.Debugf("Loaded visualizer: %s", v.Name())
		r.items = append(r.items, item{key: e.Key, vis: v})
	}

	if len(r.items) == 0 {
		return nil, ErrNoVisualizers
	}
	return r, nil
}

func load(e Entry) (v Visualizer, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	if e.New == nil {
		return nil, errors.New("no factory")
	}
	if v, err = e.New(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("factory returned nil")
	}
	if err := v.Setup(); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	return v, nil
}

func (r *Registry) Len() int {
	return len(r.items)
}

// At returns the visualizer at index i, which must be in [0, Len()).
func (r *Registry) At(i int) Visualizer {
	return r.items[i].vis
}

// Cycle returns the index after i, wrapping to 0.
func (r *Registry) Cycle(i int) int {
	return (i + 1) % len(r.items)
}

// Index finds a visualizer by key or display name, ignoring case.
func (r *Registry) Index(name string) (int, bool) {
	for i, it := range r.items {
		if strings.EqualFold(it.key, name) || strings.EqualFold(it.vis.Name(), name) {
			return i, true
		}
	}
	return 0, false
}

// Names returns the display names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.items))
	for i, it := range r.items {
		names[i] = it.vis.Name()
	}
	return names
}

// Keys returns the registration keys in registry order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.items))
	for i, it := range r.items {
		keys[i] = it.key
	}
	return keys
}
