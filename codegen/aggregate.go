package codegen

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SkippedRegistrar is a prefixed function that cannot be called as a
// registrar.
type SkippedRegistrar struct {
	Name   string
	Pos    token.Position
	Reason string
}

// Registrars is the result of scanning a generated package.
type Registrars struct {
	// Package is the declared package name, empty if no files exist
	Package string

	// Names lists callable registrars sorted by name
	Names []string

	// Skipped lists malformed candidates
	Skipped []SkippedRegistrar
}

// ScanRegistrars parses the Go files of a generated package and collects
// every top-level function whose name starts with prefix. A candidate must
// take exactly one parameter and return nothing; others are skipped.
func ScanRegistrars(dir, prefix string) (*Registrars, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registrars{}, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	result := &Registrars{}
	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if name == AggregateFilename {
			continue
		}

		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parse file: %w", err)
		}
		if result.Package == "" {
			result.Package = file.Name.Name
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*goast.FuncDecl)
			if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, prefix) {
				continue
			}
			if reason := registrarShapeError(fn); reason != "" {
				result.Skipped = append(result.Skipped, SkippedRegistrar{
					Name:   fn.Name.Name,
					Pos:    fset.Position(fn.Pos()),
					Reason: reason,
				})
				continue
			}
			result.Names = append(result.Names, fn.Name.Name)
		}
	}

	sort.Strings(result.Names)
	return result, nil
}

// registrarShapeError describes why fn is not a registrar, or returns "".
func registrarShapeError(fn *goast.FuncDecl) string {
	if fn.Type.TypeParams != nil && len(fn.Type.TypeParams.List) > 0 {
		return "registrar must not be generic"
	}
	params := 0
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			if len(field.Names) == 0 {
				params++
			} else {
				params += len(field.Names)
			}
		}
	}
	if params != 1 {
		return fmt.Sprintf("registrar takes %d parameter(s), want 1", params)
	}
	if fn.Type.Results != nil && len(fn.Type.Results.List) > 0 {
		return "registrar must not return values"
	}
	return ""
}

// Aggregate scans dir for registrars and writes InitAll, which calls each
// of them in name order. Malformed candidates are logged and left out.
func (g *Generator) Aggregate(dir string) (*Registrars, error) {
	regs, err := ScanRegistrars(dir, g.opts.Prefix)
	if err != nil {
		return nil, err
	}

	for _, skipped := range regs.Skipped {
		g.logger.Warn("Skipping malformed registrar",
			"name", skipped.Name,
			"pos", skipped.Pos.String(),
			"reason", skipped.Reason)
	}

	src, err := g.RenderAggregate(regs)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, AggregateFilename)
	if err := writeFile(path, src); err != nil {
		return nil, fmt.Errorf("write aggregate: %w", err)
	}

	g.logger.Info("Generated aggregate",
		"path", path,
		"registrars", len(regs.Names),
		"skipped", len(regs.Skipped))
	return regs, nil
}

// RenderAggregate renders the InitAll source for scanned registrars.
func (g *Generator) RenderAggregate(regs *Registrars) ([]byte, error) {
	pkg := regs.Package
	if pkg == "" {
		pkg = g.opts.Package
	}

	data := aggregateData{
		Package:       pkg,
		Runtime:       runtimeAlias,
		RuntimeImport: g.opts.RuntimeImport,
		Registrars:    regs.Names,
	}
	return render(AggregateFilename, func(buf *bytes.Buffer) error {
		return aggregateTemplate.Execute(buf, data)
	})
}
