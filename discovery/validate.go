package discovery

import (
	"fmt"
	goast "go/ast"
	"strings"
)

// CapabilityMethod is the method a marked type must provide to satisfy
// card.Card.
const CapabilityMethod = "CardName"

// resolve validates a marked type and picks its construction expression.
// importer is the import path of the generated package, empty if unknown.
func resolve(pkg *PackageDecls, decl *TypeDecl, importer string) (RegistrableType, error) {
	spec := decl.Spec
	name := spec.Name.Name
	fail := func(format string, args ...any) (RegistrableType, error) {
		return RegistrableType{}, &ValidationError{
			Pos:    decl.Pos,
			Type:   pkg.ImportPath + "." + name,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if pkg.Name == "main" {
		return fail("package main cannot be imported by the registrar")
	}
	if importer != "" && !canImport(importer, pkg.ImportPath) {
		return fail("internal package %s cannot be imported by %s", pkg.ImportPath, importer)
	}
	if !goast.IsExported(name) {
		return fail("type is not exported")
	}
	if spec.TypeParams != nil && len(spec.TypeParams.List) > 0 {
		return fail("generic types cannot be registered")
	}
	if spec.Assign.IsValid() {
		return fail("type aliases cannot be registered")
	}

	structType, isStruct := spec.Type.(*goast.StructType)
	if _, isIface := spec.Type.(*goast.InterfaceType); isIface {
		return fail("interface types cannot be registered")
	}

	rt := RegistrableType{
		ImportPath: pkg.ImportPath,
		Package:    pkg.Name,
		Name:       name,
		Pos:        decl.Pos,
	}

	ctorName := rt.ConstructorName()
	ctor, hasCtor := pkg.Funcs[ctorName]
	switch {
	case hasCtor:
		if ctor.Type.TypeParams != nil && len(ctor.Type.TypeParams.List) > 0 {
			return fail("constructor %s must not be generic", ctorName)
		}
		if n := fieldCount(ctor.Type.Params); n != 0 {
			return fail("constructor %s takes %d argument(s); a no-argument constructor is required", ctorName, n)
		}
		if n := fieldCount(ctor.Type.Results); n != 1 {
			return fail("constructor %s returns %d value(s), want 1", ctorName, n)
		}
		rt.Constructor = ConstructorFunc
	case isStruct:
		rt.Constructor = ConstructorLiteral
	default:
		rt.Constructor = ConstructorNew
	}

	method, hasMethod := pkg.Methods[name][CapabilityMethod]
	if !hasMethod {
		// Promoted methods of embedded fields cannot be resolved without
		// type checking; leave those to the compiler.
		if isStruct && hasEmbedded(structType) {
			return rt, nil
		}
		return fail("does not implement card.Card: missing method %s() string", CapabilityMethod)
	}
	if fieldCount(method.Type.Params) != 0 || !returnsString(method.Type.Results) {
		return fail("method %s must have signature %s() string", CapabilityMethod, CapabilityMethod)
	}
	if rt.Constructor == ConstructorFunc && hasPointerReceiver(method) && !returnsPointer(ctor) {
		return fail("%s has a pointer receiver but %s returns a value", CapabilityMethod, ctorName)
	}

	return rt, nil
}

// hasEmbedded reports whether a struct has any embedded field
func hasEmbedded(st *goast.StructType) bool {
	if st.Fields == nil {
		return false
	}
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return true
		}
	}
	return false
}

// returnsString reports whether a result list is exactly one string
func returnsString(results *goast.FieldList) bool {
	if fieldCount(results) != 1 {
		return false
	}
	ident, ok := results.List[0].Type.(*goast.Ident)
	return ok && ident.Name == "string"
}

// hasPointerReceiver reports whether a method is declared on *T
func hasPointerReceiver(fn *goast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return false
	}
	_, ok := fn.Recv.List[0].Type.(*goast.StarExpr)
	return ok
}

// returnsPointer reports whether a constructor's single result is a
// pointer. Interface results (e.g. card.Card) are accepted as well since the
// compiler checks the conversion.
func returnsPointer(fn *goast.FuncDecl) bool {
	if fieldCount(fn.Type.Results) != 1 {
		return false
	}
	switch fn.Type.Results.List[0].Type.(type) {
	case *goast.StarExpr, *goast.SelectorExpr:
		return true
	}
	return false
}

// canImport applies Go's internal package rule: a path whose last
// "internal" element has parent P is importable only from P and below.
func canImport(importer, path string) bool {
	i := strings.LastIndex(path+"/", "/internal/")
	if i < 0 {
		return !strings.HasPrefix(path, "internal/") && path != "internal"
	}
	parent := path[:i]
	return importer == parent || strings.HasPrefix(importer, parent+"/")
}
