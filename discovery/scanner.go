package discovery

import (
	"fmt"
	goast "go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TypeDecl is a type declaration found while scanning a package.
type TypeDecl struct {
	// Spec is the parsed type spec
	Spec *goast.TypeSpec

	// Pos is the location of the type name
	Pos token.Position

	// Marked is true when the declaration carries the register directive
	Marked bool
}

// PackageDecls holds the top-level declarations of one package directory
// that discovery needs: types, functions and methods.
type PackageDecls struct {
	// Dir is the absolute package directory
	Dir string

	// ImportPath is the package import path
	ImportPath string

	// Name is the declared package name
	Name string

	// Types holds every type declaration keyed by name
	Types map[string]*TypeDecl

	// Marked lists marked type names in file and declaration order
	Marked []string

	// Funcs holds top-level functions keyed by name
	Funcs map[string]*goast.FuncDecl

	// Methods holds methods keyed by receiver type name, then method name
	Methods map[string]map[string]*goast.FuncDecl
}

// buildContext selects the files scanned: those built for the generating
// GOOS and GOARCH. A "//go:build ignore" file never matches.
var buildContext = build.Default

// ParsePackage parses the non-test Go files in dir that match the build
// context. Returns ErrNoGoFiles if the directory contains none.
func ParsePackage(dir, importPath, directive string) (*PackageDecls, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		match, err := buildContext.MatchFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("match build constraints: %w", err)
		}
		if !match {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	pkg := &PackageDecls{
		Dir:        dir,
		ImportPath: importPath,
		Types:      make(map[string]*TypeDecl),
		Funcs:      make(map[string]*goast.FuncDecl),
		Methods:    make(map[string]map[string]*goast.FuncDecl),
	}

	fset := token.NewFileSet()
	for _, filePath := range files {
		file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse file: %w", err)
		}

		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if pkg.Name != file.Name.Name {
			return nil, fmt.Errorf("%s: found packages %s and %s", dir, pkg.Name, file.Name.Name)
		}

		for _, decl := range file.Decls {
			pkg.collect(fset, decl, directive)
		}
	}

	if pkg.Name == "" {
		return nil, ErrNoGoFiles
	}
	return pkg, nil
}

// collect records a declaration
func (p *PackageDecls) collect(fset *token.FileSet, decl goast.Decl, directive string) {
	switch d := decl.(type) {
	case *goast.FuncDecl:
		if d.Recv == nil || len(d.Recv.List) == 0 {
			p.Funcs[d.Name.Name] = d
			return
		}
		recv := receiverTypeName(d.Recv.List[0].Type)
		if recv == "" {
			return
		}
		if p.Methods[recv] == nil {
			p.Methods[recv] = make(map[string]*goast.FuncDecl)
		}
		p.Methods[recv][d.Name.Name] = d

	case *goast.GenDecl:
		if d.Tok != token.TYPE {
			return
		}
		// A lone "type T ..." keeps its doc on the GenDecl; grouped specs
		// carry their own.
		groupMarked := len(d.Specs) == 1 && hasDirective(d.Doc, directive)
		for _, spec := range d.Specs {
			ts, ok := spec.(*goast.TypeSpec)
			if !ok {
				continue
			}
			marked := groupMarked || hasDirective(ts.Doc, directive)
			p.Types[ts.Name.Name] = &TypeDecl{
				Spec:   ts,
				Pos:    fset.Position(ts.Name.Pos()),
				Marked: marked,
			}
			if marked {
				p.Marked = append(p.Marked, ts.Name.Name)
			}
		}
	}
}

// hasDirective reports whether a comment group contains the exact
// directive line, e.g. "//cardwire:register".
func hasDirective(cg *goast.CommentGroup, directive string) bool {
	if cg == nil {
		return false
	}
	want := "//" + directive
	for _, c := range cg.List {
		if strings.TrimSpace(c.Text) == want {
			return true
		}
	}
	return false
}

// receiverTypeName extracts the base type name of a method receiver
func receiverTypeName(expr goast.Expr) string {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name
	case *goast.StarExpr:
		return receiverTypeName(t.X)
	case *goast.IndexExpr:
		// Generic receiver: T[K]
		return receiverTypeName(t.X)
	case *goast.IndexListExpr:
		return receiverTypeName(t.X)
	case *goast.ParenExpr:
		return receiverTypeName(t.X)
	}
	return ""
}

// fieldCount counts the parameters or results of a field list.
// Go groups fields with the same type, e.g. "a, b int" is one field with
// two names.
func fieldCount(fl *goast.FieldList) int {
	if fl == nil {
		return 0
	}
	count := 0
	for _, field := range fl.List {
		if len(field.Names) == 0 {
			count++
		} else {
			count += len(field.Names)
		}
	}
	return count
}
