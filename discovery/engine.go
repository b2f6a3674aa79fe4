package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/cardwire/card"
)

// Config configures a discovery Engine.
type Config struct {
	// Directive is the marker comment without the leading "//"
	Directive string

	// Include lists doublestar patterns of package directories to scan,
	// relative to the scan root. Empty means every directory.
	Include []string

	// Exclude lists doublestar patterns of directories to skip
	Exclude []string

	// SkipDirs lists directories never scanned, such as the generator's
	// output directory
	SkipDirs []string

	// Importer is the import path of the package the generated registrar
	// lives in. When set, card packages it may not import under Go's
	// internal package rule are rejected.
	Importer string

	// Logger for discovery events
	Logger *slog.Logger
}

// Engine collects the discovery set of one module across one or more
// processing rounds.
type Engine struct {
	config Config
	logger *slog.Logger
	filter *PathFilter

	set         *Set
	failed      map[string]bool
	diagnostics []error
}

// NewEngine creates a new discovery engine.
func NewEngine(config Config) (*Engine, error) {
	if config.Directive == "" {
		config.Directive = card.Directive
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filter, err := NewPathFilter(config.Include, config.Exclude)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config: config,
		logger: logger,
		filter: filter,
		set:    NewSet(),
		failed: make(map[string]bool),
	}, nil
}

// Process runs one round over a parsed package. Types already seen, valid
// or not, are skipped, so repeated rounds are idempotent.
// Returns the number of types added.
func (e *Engine) Process(pkg *PackageDecls) int {
	added := 0
	for _, name := range pkg.Marked {
		qualified := pkg.ImportPath + "." + name
		if e.set.Has(qualified) || e.failed[qualified] {
			e.logger.Debug("Skipping already processed type", "type", qualified)
			continue
		}

		rt, err := resolve(pkg, pkg.Types[name], e.config.Importer)
		if err != nil {
			e.failed[qualified] = true
			e.diagnostics = append(e.diagnostics, err)
			e.logger.Warn("Invalid card type", "type", qualified, "error", err)
			continue
		}

		e.set.Add(rt)
		added++
		e.logger.Debug("Discovered card type",
			"type", qualified,
			"constructor", rt.Constructor)
	}
	return added
}

// Scan walks root, parses every package of the enclosing module below it
// and processes each. Nested modules are not entered.
func (e *Engine) Scan(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	mod, err := FindModule(absRoot)
	if err != nil {
		return err
	}

	skip := make(map[string]bool)
	for _, dir := range e.config.SkipDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			skip[abs] = true
		}
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.IsDir() {
			return nil
		}

		if path != absRoot {
			base := d.Name()
			if base == "vendor" || base == "testdata" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
				return filepath.SkipDir
			}
		}
		if skip[path] {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)
		if e.filter.Excluded(rel) {
			return filepath.SkipDir
		}
		if !e.filter.Included(rel) {
			return nil
		}

		importPath, err := mod.ImportPath(path)
		if err != nil {
			return err
		}

		pkg, err := ParsePackage(path, importPath, e.config.Directive)
		if errors.Is(err, ErrNoGoFiles) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", rel, err)
		}

		e.Process(pkg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", absRoot, err)
	}

	e.logger.Info("Discovery finished",
		"root", absRoot,
		"module", mod.Path,
		"types", e.set.Len(),
		"invalid", len(e.diagnostics))
	return nil
}

// Set returns the discovery set.
func (e *Engine) Set() *Set {
	return e.set
}

// Diagnostics returns every validation error recorded so far.
func (e *Engine) Diagnostics() []error {
	return e.diagnostics
}

// Err returns all validation errors joined, or nil.
func (e *Engine) Err() error {
	return errors.Join(e.diagnostics...)
}
