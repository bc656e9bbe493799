// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry manages command registration and lookup.
// It is thread-safe for concurrent access.
type Registry struct {
	commands map[string]Entry  // canonical name -> entry
	names    map[string]string // every name and alias -> canonical name
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
		names:    make(map[string]string),
	}
}

// Register adds a command and its aliases to the registry. If a name or
// alias is already taken, it is overwritten and a warning is logged.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range append([]string{entry.Name}, entry.Aliases...) {
		if previous, ok := r.names[name]; ok {
			slog.Warn("command conflict: overwriting existing registration",
				"name", name,
				"previous", previous,
				"new", entry.Name)
		}
		r.names[name] = entry.Name
	}

	r.commands[entry.Name] = entry
	return nil
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.names[name]
	if !ok {
		return Entry{}, false
	}
	entry, ok := r.commands[canonical]
	return entry, ok
}

// All returns every registered command ordered by canonical name.
// The returned slice is a copy and safe to modify.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
