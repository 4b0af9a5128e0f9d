package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDomainHasNoExternalDependencies verifies that the domain layer does
// not import from the application, infrastructure, or host layers.
func TestDomainHasNoExternalDependencies(t *testing.T) {
	for _, pkg := range []string{"entities", "errors", "ports", "graph", "policy"} {
		pattern := filepath.Join("..", "domain", pkg, "*.go")
		files, err := filepath.Glob(pattern)
		require.NoError(t, err, "failed to glob %s files", pkg)
		require.NotEmpty(t, files, "domain/%s should contain Go files", pkg)

		fset := token.NewFileSet()
		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			checkFileImports(t, fset, file, pkg)
		}
	}
}

func checkFileImports(t *testing.T, fset *token.FileSet, filename, pkg string) {
	t.Helper()

	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	require.NoError(t, err, "failed to parse %s", filename)

	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)

		forbidden := []string{
			"github.com/riverrun-dev/riverrun/application",
			"github.com/riverrun-dev/riverrun/infrastructure",
			"github.com/riverrun-dev/riverrun/host",
			"github.com/riverrun-dev/riverrun/hostconfig",
		}
		for _, prefix := range forbidden {
			assert.False(t, strings.HasPrefix(importPath, prefix),
				"domain/%s (%s) must not import %s", pkg, filepath.Base(filename), importPath)
		}

		if strings.HasPrefix(importPath, "github.com/riverrun-dev/riverrun/") {
			assert.True(t, strings.Contains(importPath, "/domain/"),
				"domain/%s (%s) imports non-domain engine package: %s",
				pkg, filepath.Base(filename), importPath)
		}
	}
}
