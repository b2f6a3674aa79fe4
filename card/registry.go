package card

import (
	"reflect"
	"sync"
)

// Registry is an append-only, ordered collection of cards.
// One Registry is created during startup, filled by the bootstrapper and
// then handed to consumers. Thread-safe for concurrent access.
type Registry struct {
	mu    sync.RWMutex
	cards []Card
}

// NewRegistry creates a new empty card registry.
func NewRegistry() *Registry {
	return &Registry{
		cards: make([]Card, 0),
	}
}

// Register appends a card. Registering the same card twice yields two
// entries. A nil card, including a nil pointer returned by a constructor,
// is dropped.
func (r *Registry) Register(c Card) {
	if isNil(c) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, c)
}

// All returns a snapshot of every registered card in registration order.
func (r *Registry) All() []Card {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Card, len(r.cards))
	copy(out, r.cards)
	return out
}

// Len returns the number of registered cards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}

// Names returns the display name of every card in registration order.
func (r *Registry) Names() []string {
	cards := r.All()
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, c.CardName())
	}
	return names
}

// isNil reports whether c is nil or holds a nil pointer
func isNil(c Card) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
