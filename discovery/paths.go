package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter decides which package directories of a scan root are visited.
// Patterns use doublestar syntax and match slash-separated paths relative
// to the scan root; the root itself is ".".
type PathFilter struct {
	include []string
	exclude []string
}

// NewPathFilter validates and compiles include and exclude patterns.
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	return &PathFilter{include: include, exclude: exclude}, nil
}

// Included reports whether the directory at rel should be parsed.
func (f *PathFilter) Included(rel string) bool {
	if len(f.include) == 0 {
		return true
	}
	return matchAny(f.include, rel)
}

// Excluded reports whether the directory at rel and everything below it
// should be skipped.
func (f *PathFilter) Excluded(rel string) bool {
	return matchAny(f.exclude, rel)
}

// matchAny reports whether rel matches any of the patterns
func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		// Patterns are validated in NewPathFilter
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// ResolveRoots turns command-line arguments into absolute scan roots. An
// argument without glob syntax must name a directory; any other argument is
// a doublestar pattern and must match at least one directory, files it
// matches are ignored. A root reached twice is scanned once.
func ResolveRoots(args []string) ([]string, error) {
	var roots []string
	seen := make(map[string]bool)
	for _, arg := range args {
		dirs, err := expandRoot(arg)
		if err != nil {
			return nil, fmt.Errorf("scan root %s: %w", arg, err)
		}
		for _, dir := range dirs {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots, nil
}

// expandRoot resolves one argument of ResolveRoots
func expandRoot(arg string) ([]string, error) {
	candidates := []string{arg}
	isPattern := strings.ContainsAny(arg, "*?[{")
	if isPattern {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern: %w", err)
		}
		candidates = matches
	}

	var dirs []string
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case err != nil && !isPattern:
			return nil, err
		case err != nil:
			continue
		case !info.IsDir() && !isPattern:
			return nil, errors.New("not a directory")
		case !info.IsDir():
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, abs)
	}

	if len(dirs) == 0 {
		return nil, errors.New("pattern matches no directory")
	}
	return dirs, nil
}
