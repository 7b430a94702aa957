package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// coreSources parses the import block of every non-test file in pkg/core.
func coreSources(t *testing.T) map[string][]string {
	t.Helper()

	fset := token.NewFileSet()
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("Failed to read core directory: %v", err)
	}

	imports := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(".", entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			imports[entry.Name()] = append(imports[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

// TestCoreImportsOnly verifies pkg/core only imports allowed packages.
// The Golden Rule: pkg/core imports ONLY pkg/cellref, x/text and stdlib.
func TestCoreImportsOnly(t *testing.T) {
	allowedExternal := map[string]bool{
		"github.com/leapstack-labs/sheetproof/pkg/cellref": true,
		"golang.org/x/text/unicode/norm":                   true,
	}

	for file, imports := range coreSources(t) {
		for _, importPath := range imports {
			// Allow stdlib (no dots in path)
			if !strings.Contains(importPath, ".") {
				continue
			}
			if !allowedExternal[importPath] {
				t.Errorf("%s imports forbidden package: %s", file, importPath)
			}
		}
	}
}

// TestCoreDoesNotImportInternal verifies pkg/core doesn't import any internal packages.
func TestCoreDoesNotImportInternal(t *testing.T) {
	for file, imports := range coreSources(t) {
		for _, importPath := range imports {
			if strings.Contains(importPath, "/internal/") {
				t.Errorf("%s imports internal package: %s (core must not import internal packages)", file, importPath)
			}
		}
	}
}
