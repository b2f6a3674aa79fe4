// Package codegen renders the Go source of card registrars and of the
// aggregate entry point that calls them.
package codegen

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/c360studio/cardwire/discovery"
)

const (
	// DefaultPackage is the package generated registrars live in.
	DefaultPackage = "generate"

	// DefaultRuntimeImport is the import path of the card runtime.
	DefaultRuntimeImport = "github.com/c360studio/cardwire/card"

	// AggregateFilename is the file holding InitAll.
	AggregateFilename = "zz_cardwire_aggregate.go"
)

// Options configures a Generator.
type Options struct {
	// Package is the package name of generated files
	Package string

	// Prefix is prepended to the hash in registrar names
	Prefix string

	// RuntimeImport is the import path of the card runtime package
	RuntimeImport string
}

// File is a rendered registrar.
type File struct {
	// Name is the registrar function name
	Name string

	// Filename is the base name of the file
	Filename string

	// Source is the formatted Go source
	Source []byte

	// Cards is the number of register statements
	Cards int
}

// Generator renders registrars and aggregates.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// New creates a generator, filling unset options with defaults.
func New(opts Options, logger *slog.Logger) *Generator {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = DefaultRuntimeImport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{opts: opts, logger: logger}
}

// Render produces the registrar for a discovery set scanned from owner, the
// import path of the scan root. An empty set renders nothing and returns
// nil, nil.
func (g *Generator) Render(set *discovery.Set, owner string) (*File, error) {
	if set == nil || set.Len() == 0 {
		return nil, nil
	}

	paths := set.ImportPaths()
	name := RegistrarName(g.opts.Prefix, paths)

	aliases := assignAliases(set)
	specs := []importSpec{{Alias: runtimeAlias, Path: g.opts.RuntimeImport}}
	for _, p := range paths {
		specs = append(specs, importSpec{Alias: aliases[p], Path: p})
	}
	sortImports(specs)

	types := set.Sorted()
	registers := make([]string, 0, len(types))
	for _, rt := range types {
		registers = append(registers, constructExpr(aliases[rt.ImportPath], rt))
	}

	data := registrarData{
		Package:   g.opts.Package,
		Imports:   specs,
		Name:      name,
		Owner:     owner,
		Marker:    OwnerMarker,
		Scope:     strings.Join(paths, ", "),
		Runtime:   runtimeAlias,
		Registers: registers,
	}

	filename := registrarFilename(name, g.opts.Prefix)
	src, err := render(filename, func(buf *bytes.Buffer) error {
		return registrarTemplate.Execute(buf, data)
	})
	if err != nil {
		return nil, err
	}

	return &File{
		Name:     name,
		Filename: filename,
		Source:   src,
		Cards:    len(registers),
	}, nil
}

// Generate renders the registrar for set and writes it into outDir.
// Registrars previously generated from the same owner are then removed, so
// a changed package set never leaves two registrars for one scan root. When
// set is empty only that cleanup happens and Generate returns nil, nil.
func (g *Generator) Generate(set *discovery.Set, owner, outDir string) (*File, error) {
	if set == nil || set.Len() == 0 {
		if err := g.removeStale(outDir, owner, ""); err != nil {
			return nil, err
		}
		g.logger.Info("No card types discovered, nothing generated", "scope", owner)
		return nil, nil
	}

	if err := g.checkSelfImport(set, outDir); err != nil {
		return nil, err
	}

	file, err := g.Render(set, owner)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(outDir, file.Filename)
	if err := writeFile(path, file.Source); err != nil {
		return nil, fmt.Errorf("write registrar %s: %w", file.Name, err)
	}
	if err := g.removeStale(outDir, owner, file.Filename); err != nil {
		return nil, err
	}

	g.logger.Info("Generated registrar",
		"name", file.Name,
		"path", path,
		"cards", file.Cards)
	return file, nil
}

// checkSelfImport rejects an output directory that is one of the card
// packages, which would make the registrar import its own package.
func (g *Generator) checkSelfImport(set *discovery.Set, outDir string) error {
	mod, err := discovery.FindModule(outDir)
	if err != nil {
		// The output directory may live outside any module; the compiler
		// reports problems there.
		return nil
	}
	outPath, err := mod.ImportPath(outDir)
	if err != nil {
		return nil
	}
	for _, p := range set.ImportPaths() {
		if p == outPath {
			return fmt.Errorf("output package %s is a card package and would import itself", outPath)
		}
	}
	return nil
}

// constructExpr returns the expression building a fresh instance of rt.
func constructExpr(alias string, rt discovery.RegistrableType) string {
	switch rt.Constructor {
	case discovery.ConstructorFunc:
		return fmt.Sprintf("%s.%s()", alias, rt.ConstructorName())
	case discovery.ConstructorNew:
		return fmt.Sprintf("new(%s.%s)", alias, rt.Name)
	default:
		return fmt.Sprintf("&%s.%s{}", alias, rt.Name)
	}
}

// assignAliases picks a unique import name per package, starting from the
// declared package name.
func assignAliases(set *discovery.Set) map[string]string {
	taken := map[string]bool{runtimeAlias: true, "reg": true}
	aliases := make(map[string]string)

	for _, rt := range set.Sorted() {
		if _, ok := aliases[rt.ImportPath]; ok {
			continue
		}
		alias := rt.Package
		for n := 2; taken[alias]; n++ {
			alias = fmt.Sprintf("%s%d", rt.Package, n)
		}
		taken[alias] = true
		aliases[rt.ImportPath] = alias
	}
	return aliases
}

// sortImports orders import specs by path
func sortImports(specs []importSpec) {
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Path < specs[j].Path
	})
}

// render executes a template and formats the result like gofmt.
func render(filename string, exec func(*bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := exec(&buf); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}
	return src, nil
}

// writeFile writes data next to path and renames it into place, so readers
// never observe a partial file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cardwire-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
