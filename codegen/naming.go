package codegen

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/c360studio/cardwire/card"
)

// DefaultPrefix is prepended to the hash in registrar function names.
const DefaultPrefix = card.RegistrarPrefix

// RegistrarName derives the registrar function name for a module from the
// import paths of its card packages. The name depends only on the set of
// paths, never on their order, so repeated builds agree. For a module with
// a single package it is the prefix plus the MD5 hex digest of that
// package's import path.
func RegistrarName(prefix string, importPaths []string) string {
	return prefix + scopeHash(importPaths)
}

// scopeHash hashes the sorted, distinct import paths
func scopeHash(importPaths []string) string {
	seen := make(map[string]bool, len(importPaths))
	paths := make([]string, 0, len(importPaths))
	for _, p := range importPaths {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	sum := md5.Sum([]byte(strings.Join(paths, "\n")))
	return hex.EncodeToString(sum[:])
}

// registrarFilename returns the file a registrar is written to.
func registrarFilename(name, prefix string) string {
	return "cardregistrar_" + strings.TrimPrefix(name, prefix) + ".go"
}
