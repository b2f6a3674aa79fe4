// Package discovery finds card types marked with the register directive in
// the Go sources of one module and validates that generated code can
// construct them.
package discovery

import (
	"go/token"
	"sort"
)

// ConstructorKind selects the expression generated code uses to build a
// fresh instance of a type.
type ConstructorKind string

const (
	// ConstructorLiteral builds a struct with &pkg.T{}.
	ConstructorLiteral ConstructorKind = "literal"
	// ConstructorFunc calls the package's zero-argument pkg.NewT().
	ConstructorFunc ConstructorKind = "func"
	// ConstructorNew allocates a non-struct named type with new(pkg.T).
	ConstructorNew ConstructorKind = "new"
)

// RegistrableType is a marked type that passed validation.
type RegistrableType struct {
	// ImportPath is the import path of the declaring package
	ImportPath string

	// Package is the declared package name
	Package string

	// Name is the type name
	Name string

	// Constructor selects the construction expression
	Constructor ConstructorKind

	// Pos is the location of the type declaration
	Pos token.Position
}

// QualifiedName returns the fully-qualified name of the type,
// e.g. "example.com/app/cards.WeatherCard".
func (t RegistrableType) QualifiedName() string {
	return t.ImportPath + "." + t.Name
}

// ConstructorName returns the name of the constructor function for
// ConstructorFunc types.
func (t RegistrableType) ConstructorName() string {
	return "New" + t.Name
}

// Set is the deduplicated collection of types discovered in one module.
// The first type seen under a qualified name wins.
type Set struct {
	types map[string]RegistrableType
}

// NewSet creates a new empty discovery set.
func NewSet() *Set {
	return &Set{
		types: make(map[string]RegistrableType),
	}
}

// Add inserts t unless its qualified name is already present.
// Returns true if t was added.
func (s *Set) Add(t RegistrableType) bool {
	name := t.QualifiedName()
	if _, exists := s.types[name]; exists {
		return false
	}
	s.types[name] = t
	return true
}

// Has reports whether a type with the qualified name is present.
func (s *Set) Has(qualifiedName string) bool {
	_, ok := s.types[qualifiedName]
	return ok
}

// Get returns the type recorded under the qualified name.
func (s *Set) Get(qualifiedName string) (RegistrableType, bool) {
	t, ok := s.types[qualifiedName]
	return t, ok
}

// Len returns the number of types in the set.
func (s *Set) Len() int {
	return len(s.types)
}

// Sorted returns the types ordered by qualified name.
func (s *Set) Sorted() []RegistrableType {
	out := make([]RegistrableType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}

// ImportPaths returns the distinct import paths of the set's types, sorted.
func (s *Set) ImportPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, t := range s.types {
		if !seen[t.ImportPath] {
			seen[t.ImportPath] = true
			paths = append(paths, t.ImportPath)
		}
	}
	sort.Strings(paths)
	return paths
}
