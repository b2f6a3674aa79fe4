package codegen

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// OwnerMarker prefixes the header line naming the scan root a registrar
// was generated from.
const OwnerMarker = "cardwire:scope"

// ReadOwner returns the scan root recorded in the header of a generated
// file, or "" when the file carries no owner line.
func ReadOwner(path string) (string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parse header: %w", err)
	}

	for _, cg := range file.Comments {
		if cg.Pos() >= file.Package {
			break
		}
		for _, c := range cg.List {
			text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
			if owner, ok := strings.CutPrefix(text, OwnerMarker+" "); ok {
				return strings.TrimSpace(owner), nil
			}
		}
	}
	return "", nil
}

// ownedRegistrars lists the registrar files in dir generated from owner.
// Files that do not parse are left alone.
func ownedRegistrars(dir, owner string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var owned []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if name == AggregateFilename {
			continue
		}
		path := filepath.Join(dir, name)
		got, err := ReadOwner(path)
		if err != nil || got != owner {
			continue
		}
		owned = append(owned, path)
	}
	return owned, nil
}

// removeStale deletes the registrars in dir owned by owner, except keep.
func (g *Generator) removeStale(dir, owner, keep string) error {
	if owner == "" {
		return nil
	}
	owned, err := ownedRegistrars(dir, owner)
	if err != nil {
		return err
	}
	for _, path := range owned {
		if filepath.Base(path) == keep {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale registrar: %w", err)
		}
		g.logger.Info("Removed stale registrar", "path", path, "scope", owner)
	}
	return nil
}
