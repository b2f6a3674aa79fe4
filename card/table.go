package card

import (
	"fmt"
	"sort"
	"sync"
)

// RegistrarPrefix is the default name prefix of generated registrars.
const RegistrarPrefix = "CardRegistrar_"

// RegistrarFunc registers a fixed set of cards into reg.
type RegistrarFunc func(reg *Registry)

// RegistrarEntry is a named registrar recorded in a RegistrarTable.
type RegistrarEntry struct {
	Name string
	Fn   RegistrarFunc
}

// RegistrarTable records generated registrars by name.
// Generated files add themselves from init(), so the table is complete once
// package initialization has finished.
type RegistrarTable struct {
	mu      sync.RWMutex
	entries map[string]RegistrarFunc
}

// NewRegistrarTable creates a new empty registrar table.
func NewRegistrarTable() *RegistrarTable {
	return &RegistrarTable{
		entries: make(map[string]RegistrarFunc),
	}
}

// Add records fn under name. The first registration wins; adding a name
// twice returns an error and keeps the original entry.
func (t *RegistrarTable) Add(name string, fn RegistrarFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[name]; exists {
		return fmt.Errorf("registrar already added: %s", name)
	}
	t.entries[name] = fn
	return nil
}

// Entries returns all recorded registrars sorted by name.
func (t *RegistrarTable) Entries() []RegistrarEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]RegistrarEntry, 0, len(t.entries))
	for name, fn := range t.entries {
		entries = append(entries, RegistrarEntry{Name: name, Fn: fn})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Len returns the number of recorded registrars.
func (t *RegistrarTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// DefaultTable is the process-wide registrar table.
// Generated registrars add themselves via init() functions.
var DefaultTable = NewRegistrarTable()

// AddRegistrar records fn in DefaultTable. Called from generated code;
// a duplicate name keeps the first entry.
func AddRegistrar(name string, fn RegistrarFunc) {
	_ = DefaultTable.Add(name, fn)
}
