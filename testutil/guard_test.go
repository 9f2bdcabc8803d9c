package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"rankcore/internal", true},
		{"rankcore/internal/core", true},
		{"rankcore/pkg/rankings", false},
		{"crypto/internal/boring", false},
		{"internal/abi", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAdapterImportForbidden(t *testing.T) {
	if !AdapterImportForbidden("rankcore/internal/adapters/rankings") {
		t.Fatal("adapter path should be forbidden")
	}
	if AdapterImportForbidden("rankcore/internal/core") {
		t.Fatal("core path should be allowed")
	}
}

func TestAssertNoDirectImportsCleanPackage(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport \"fmt\"\n\nfunc X() { fmt.Println(1) }\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none forbidden")
}

func TestDirectImportViolationsFindsForbiddenPath(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport _ \"rankcore/internal/core\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "rankcore/internal/core") {
		t.Fatalf("expected one violation, got %v", viols)
	}
}

func TestTransitiveViolationsFiltersListOutput(t *testing.T) {
	orig := goListDeps
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nrankcore/pkg/rankings\nrankcore/internal/core\n"), nil
	}
	defer func() { goListDeps = orig }()

	viols, _, err := transitiveViolations("./...", InternalImportForbidden)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(viols) != 1 || viols[0] != "rankcore/internal/core" {
		t.Fatalf("unexpected violations: %v", viols)
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingReporter{}
	failIfViolations(rec, "boundary", []string{"a", "b"})
	if !strings.Contains(rec.message, "boundary") || !strings.Contains(rec.message, "a\nb") {
		t.Fatalf("expected failure message, got %q", rec.message)
	}

	rec.message = ""
	failIfViolations(rec, "boundary", nil)
	if rec.message != "" {
		t.Fatalf("no violations should not fail, got %q", rec.message)
	}
}

type recordingReporter struct{ message string }

func (r *recordingReporter) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
}
