// Package testutil provides import boundary helpers shared by the
// architecture guard tests across the repository.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// InternalImportForbidden matches any import path inside the module's
// internal tree. Stdlib internal packages never match.
func InternalImportForbidden(path string) bool {
	return path == "rankcore/internal" || strings.HasPrefix(path, "rankcore/internal/")
}

// AdapterImportForbidden matches import paths of the HTTP adapter layer.
func AdapterImportForbidden(path string) bool {
	return strings.HasPrefix(path, "rankcore/internal/adapters")
}

// AssertNoDirectImports parses all non-test .go files in dir and fails the
// test when any import path satisfies the forbidden predicate. Build tags
// are not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(path string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

// AssertNoTransitiveDependency runs `go list -deps` with the given pattern
// and fails the test when any dependency path satisfies the forbidden
// predicate.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	viols, out, err := transitiveViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("go list failed: %v\n%s", err, out)
	}
	failIfViolations(t, reason, viols)
}

var goListDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func transitiveViolations(pattern string, forbidden func(string) bool) ([]string, []byte, error) {
	out, err := goListDeps(pattern)
	if err != nil {
		return nil, out, err
	}
	var viols []string
	for _, line := range strings.Split(string(out), "\n") {
		if path := strings.TrimSpace(line); path != "" && forbidden(path) {
			viols = append(viols, path)
		}
	}
	return viols, out, nil
}

func directImportViolations(dir string, forbidden func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		parsed, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range parsed.Imports {
			if path := strings.Trim(imp.Path.Value, `"`); forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalReporter interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalReporter, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
