package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/cardwire/discovery"
)

func singleTypeSet(importPath, name string) *discovery.Set {
	set := discovery.NewSet()
	set.Add(discovery.RegistrableType{
		ImportPath:  importPath,
		Package:     "card",
		Name:        name,
		Constructor: discovery.ConstructorLiteral,
	})
	return set
}

func TestAggregate_CallsEveryRegistrarInOrder(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "generate")
	g := New(Options{}, nil)

	cn, err := g.Generate(singleTypeSet("example.com/app/businesscn/card", "CNACard"), "example.com/app/businesscn/card", outDir)
	require.NoError(t, err)
	exp, err := g.Generate(singleTypeSet("example.com/app/businessexp/card", "ExpACard"), "example.com/app/businessexp/card", outDir)
	require.NoError(t, err)

	regs, err := g.Aggregate(outDir)
	require.NoError(t, err)

	want := []string{cn.Name, exp.Name}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	assert.Equal(t, "generate", regs.Package)
	assert.Equal(t, want, regs.Names)
	assert.Empty(t, regs.Skipped)

	src, err := os.ReadFile(filepath.Join(outDir, AggregateFilename))
	require.NoError(t, err)
	text := string(src)
	assert.Contains(t, text, "func InitAll(reg *cardwire.Registry) {")
	first := strings.Index(text, want[0]+"(reg)")
	second := strings.Index(text, want[1]+"(reg)")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestAggregate_SkipsMalformedCandidates(t *testing.T) {
	outDir := t.TempDir()
	g := New(Options{}, nil)

	good, err := g.Generate(singleTypeSet("example.com/app/businesscn/card", "CNACard"), "example.com/app/businesscn/card", outDir)
	require.NoError(t, err)

	bad := `package generate

func CardRegistrar_twoargs(a, b int) {}

func CardRegistrar_returns(reg any) error { return nil }

func CardRegistrar_generic[T any](reg T) {}

func helper() {}
`
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "manual.go"), []byte(bad), 0644))

	regs, err := g.Aggregate(outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{good.Name}, regs.Names)
	require.Len(t, regs.Skipped, 3)

	reasons := make(map[string]string)
	for _, s := range regs.Skipped {
		reasons[s.Name] = s.Reason
	}
	assert.Contains(t, reasons["CardRegistrar_twoargs"], "takes 2 parameter(s)")
	assert.Contains(t, reasons["CardRegistrar_returns"], "must not return")
	assert.Contains(t, reasons["CardRegistrar_generic"], "generic")
}

func TestAggregate_IgnoresPreviousAggregateAndTests(t *testing.T) {
	outDir := t.TempDir()
	g := New(Options{}, nil)

	_, err := g.Generate(singleTypeSet("example.com/app/businesscn/card", "CNACard"), "example.com/app/businesscn/card", outDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "x_test.go"),
		[]byte("package generate\n\nfunc CardRegistrar_fromtest(reg any) {}\n"), 0644))

	first, err := g.Aggregate(outDir)
	require.NoError(t, err)
	second, err := g.Aggregate(outDir)
	require.NoError(t, err)

	assert.Equal(t, first.Names, second.Names)
	assert.Len(t, second.Names, 1)
}

func TestAggregate_EmptyDirectory(t *testing.T) {
	outDir := t.TempDir()
	g := New(Options{}, nil)

	regs, err := g.Aggregate(outDir)
	require.NoError(t, err)
	assert.Empty(t, regs.Names)

	src, err := os.ReadFile(filepath.Join(outDir, AggregateFilename))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package generate")
	assert.Contains(t, string(src), "func InitAll(reg *cardwire.Registry) {")
}

func TestScanRegistrars_MissingDirectory(t *testing.T) {
	regs, err := ScanRegistrars(filepath.Join(t.TempDir(), "missing"), DefaultPrefix)
	require.NoError(t, err)
	assert.Empty(t, regs.Names)
	assert.Empty(t, regs.Package)
}

func TestScanRegistrars_ParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package generate\nfunc {"), 0644))

	_, err := ScanRegistrars(dir, DefaultPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse file")
}
