package discovery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Module is a Go module located on disk.
type Module struct {
	// Dir is the absolute directory holding go.mod
	Dir string

	// Path is the module path declared in go.mod
	Path string
}

// FindModule walks up from dir to the nearest go.mod and reads its
// module path.
func FindModule(dir string) (*Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}

	for current := abs; ; {
		gomod := filepath.Join(current, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return nil, fmt.Errorf("%s: missing module directive", gomod)
			}
			return &Module{Dir: current, Path: modPath}, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read go.mod: %w", err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, fmt.Errorf("%w above %s", ErrNoModule, abs)
		}
		current = parent
	}
}

// ImportPath returns the import path of the package in dir.
func (m *Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve dir: %w", err)
	}

	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return m.Path, nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", abs, m.Path)
	}
	return path.Join(m.Path, rel), nil
}
