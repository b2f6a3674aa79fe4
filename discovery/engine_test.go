package discovery

import (
	"context"
	"errors"
	"go/build"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeModule lays out a module in a temp dir. Keys are slash-separated
// paths relative to the module root.
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if _, ok := files["go.mod"]; !ok {
		files["go.mod"] = "module example.com/app\n\ngo 1.22\n"
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	return engine
}

const cardsSource = `package cards

//cardwire:register
type WeatherCard struct{}

func (WeatherCard) CardName() string { return "Weather" }

// NewsCard shows headlines.
//
//cardwire:register
type NewsCard struct {
	feed string
}

func NewNewsCard() *NewsCard { return &NewsCard{feed: "default"} }

func (c *NewsCard) CardName() string { return "News" }

//cardwire:register
type ClockCard int

func (ClockCard) CardName() string { return "Clock" }

// Unmarked is not registered.
type Unmarked struct{}

func (Unmarked) CardName() string { return "Unmarked" }
`

func TestEngine_Scan_FindsMarkedTypes(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": cardsSource,
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	require.NoError(t, engine.Err())

	set := engine.Set()
	require.Equal(t, 3, set.Len())

	tests := []struct {
		name string
		kind ConstructorKind
	}{
		{"WeatherCard", ConstructorLiteral},
		{"NewsCard", ConstructorFunc},
		{"ClockCard", ConstructorNew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, ok := set.Get("example.com/app/cards." + tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, rt.Constructor)
			assert.Equal(t, "cards", rt.Package)
			assert.Equal(t, "example.com/app/cards", rt.ImportPath)
			assert.Equal(t, "cards.go", filepath.Base(rt.Pos.Filename))
		})
	}

	assert.False(t, set.Has("example.com/app/cards.Unmarked"))
}

func TestEngine_Scan_TwiceIsIdempotent(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": cardsSource,
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	require.NoError(t, engine.Scan(context.Background(), root))

	assert.Equal(t, 3, engine.Set().Len())
	assert.NoError(t, engine.Err())
}

func TestEngine_Process_DuplicateRoundsAreNoOps(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": cardsSource,
	})
	pkg, err := ParsePackage(filepath.Join(root, "cards"), "example.com/app/cards", "cardwire:register")
	require.NoError(t, err)

	engine := newTestEngine(t, Config{})
	assert.Equal(t, 3, engine.Process(pkg))
	assert.Equal(t, 0, engine.Process(pkg))
	assert.Equal(t, 3, engine.Set().Len())
}

func TestEngine_Scan_NoMarkedTypes(t *testing.T) {
	root := writeModule(t, map[string]string{
		"plain/plain.go": "package plain\n\ntype Thing struct{}\n",
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	assert.Equal(t, 0, engine.Set().Len())
	assert.NoError(t, engine.Err())
}

func TestEngine_Scan_MissingNoArgConstructor(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/good.go": `package cards

//cardwire:register
type GoodCard struct{}

func (GoodCard) CardName() string { return "Good" }
`,
		"cards/bad.go": `package cards

//cardwire:register
type BadCard struct{ id int }

func NewBadCard(id int) *BadCard { return &BadCard{id: id} }

func (b *BadCard) CardName() string { return "Bad" }
`,
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))

	err := engine.Err()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "example.com/app/cards.BadCard")
	assert.Contains(t, err.Error(), "no-argument constructor")
	assert.Contains(t, err.Error(), "bad.go:4:6")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "example.com/app/cards.BadCard", verr.Type)

	// The invalid type is reported, not silently dropped or generated
	assert.False(t, engine.Set().Has("example.com/app/cards.BadCard"))
	assert.True(t, engine.Set().Has("example.com/app/cards.GoodCard"))
	assert.Len(t, engine.Diagnostics(), 1)
}

func TestEngine_Validation(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantReason string
	}{
		{
			name: "unexported type",
			source: `//cardwire:register
type hidden struct{}

func (hidden) CardName() string { return "" }
`,
			wantReason: "not exported",
		},
		{
			name: "interface type",
			source: `//cardwire:register
type Abstract interface{ CardName() string }
`,
			wantReason: "interface types",
		},
		{
			name: "generic type",
			source: `//cardwire:register
type Box[T any] struct{ v T }

func (Box[T]) CardName() string { return "" }
`,
			wantReason: "generic types",
		},
		{
			name: "alias",
			source: `type base struct{}

//cardwire:register
type Alias = base
`,
			wantReason: "aliases",
		},
		{
			name: "missing capability method",
			source: `//cardwire:register
type Mute struct{}
`,
			wantReason: "missing method CardName() string",
		},
		{
			name: "wrong capability signature",
			source: `//cardwire:register
type Loud struct{}

func (Loud) CardName(prefix string) string { return prefix }
`,
			wantReason: "must have signature CardName() string",
		},
		{
			name: "constructor with two results",
			source: `//cardwire:register
type Risky struct{}

func NewRisky() (*Risky, error) { return &Risky{}, nil }

func (*Risky) CardName() string { return "" }
`,
			wantReason: "returns 2 value(s)",
		},
		{
			name: "value constructor with pointer method",
			source: `//cardwire:register
type Value struct{}

func NewValue() Value { return Value{} }

func (*Value) CardName() string { return "" }
`,
			wantReason: "pointer receiver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeModule(t, map[string]string{
				"cards/cards.go": "package cards\n\n" + tt.source,
			})

			engine := newTestEngine(t, Config{})
			require.NoError(t, engine.Scan(context.Background(), root))

			err := engine.Err()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantReason)
			assert.Equal(t, 0, engine.Set().Len())
		})
	}
}

func TestEngine_EmbeddedCapabilityAccepted(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": `package cards

type base struct{}

func (base) CardName() string { return "Base" }

//cardwire:register
type Derived struct {
	base
}
`,
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	require.NoError(t, engine.Err())
	assert.True(t, engine.Set().Has("example.com/app/cards.Derived"))
}

func TestEngine_GroupedDeclarations(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": `package cards

type (
	//cardwire:register
	First struct{}

	Second struct{}
)

func (First) CardName() string  { return "First" }
func (Second) CardName() string { return "Second" }
`,
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	assert.True(t, engine.Set().Has("example.com/app/cards.First"))
	assert.False(t, engine.Set().Has("example.com/app/cards.Second"))
}

func TestEngine_CustomDirective(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": `package cards

//plugin:card
type Custom struct{}

//cardwire:register
type Default struct{}

func (Custom) CardName() string  { return "Custom" }
func (Default) CardName() string { return "Default" }
`,
	})

	engine := newTestEngine(t, Config{Directive: "plugin:card"})
	require.NoError(t, engine.Scan(context.Background(), root))
	assert.True(t, engine.Set().Has("example.com/app/cards.Custom"))
	assert.False(t, engine.Set().Has("example.com/app/cards.Default"))
}

func TestEngine_SkipsDirectories(t *testing.T) {
	marked := func(pkg string) string {
		return "package " + pkg + "\n\n//cardwire:register\ntype C struct{}\n\nfunc (C) CardName() string { return \"c\" }\n"
	}
	root := writeModule(t, map[string]string{
		"kept/c.go":             marked("kept"),
		"kept/c_test.go":        "package kept\n\n//cardwire:register\ntype T struct{}\n",
		"testdata/x/c.go":       marked("x"),
		"vendor/v/c.go":         marked("v"),
		"nested/go.mod":         "module example.com/nested\n",
		"nested/n/c.go":         marked("n"),
		"generate/c.go":         marked("generate"),
		"excluded/deep/c.go":    marked("deep"),
		"ignored/c.go":          "//go:build ignore\n\n" + marked("main"),
		"ignored/real.go":       "package ignored\n",
		"included/only/here.go": marked("only"),
	})

	engine := newTestEngine(t, Config{
		Exclude:  []string{"excluded/**", "excluded"},
		SkipDirs: []string{filepath.Join(root, "generate")},
	})
	require.NoError(t, engine.Scan(context.Background(), root))
	require.NoError(t, engine.Err())

	set := engine.Set()
	assert.True(t, set.Has("example.com/app/kept.C"))
	assert.True(t, set.Has("example.com/app/included/only.C"))
	assert.Equal(t, 2, set.Len(), "got %v", set.Sorted())
}

func TestEngine_IncludePatterns(t *testing.T) {
	marked := func(pkg string) string {
		return "package " + pkg + "\n\n//cardwire:register\ntype C struct{}\n\nfunc (C) CardName() string { return \"c\" }\n"
	}
	root := writeModule(t, map[string]string{
		"features/cn/c.go":  marked("cn"),
		"features/exp/c.go": marked("exp"),
		"tools/t/c.go":      marked("t"),
	})

	engine := newTestEngine(t, Config{Include: []string{"features/*"}})
	require.NoError(t, engine.Scan(context.Background(), root))

	assert.Equal(t, []string{
		"example.com/app/features/cn",
		"example.com/app/features/exp",
	}, engine.Set().ImportPaths())
}

func TestEngine_ScanCancelled(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": cardsSource,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newTestEngine(t, Config{})
	err := engine.Scan(ctx, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngine_InvalidPattern(t *testing.T) {
	_, err := NewEngine(Config{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestEngine_BuildConstraints(t *testing.T) {
	otherOS := "plan9"
	if build.Default.GOOS == otherOS {
		otherOS = "windows"
	}
	marked := func(constraint, name string) string {
		src := "package cards\n\n//cardwire:register\ntype " + name + " struct{}\n\nfunc (" + name + ") CardName() string { return \"" + name + "\" }\n"
		if constraint == "" {
			return src
		}
		return "//go:build " + constraint + "\n\n" + src
	}
	root := writeModule(t, map[string]string{
		"cards/plain.go":                  marked("", "Plain"),
		"cards/tagged.go":                 marked("!ignore_cards", "Tagged"),
		"cards/ignored.go":                marked("ignore", "Ignored"),
		"cards/other.go":                  marked(otherOS, "OtherOS"),
		"cards/suffix_" + otherOS + ".go": marked("", "Suffixed"),
	})

	engine := newTestEngine(t, Config{})
	require.NoError(t, engine.Scan(context.Background(), root))
	require.NoError(t, engine.Err())

	set := engine.Set()
	assert.True(t, set.Has("example.com/app/cards.Plain"))
	assert.True(t, set.Has("example.com/app/cards.Tagged"), "tags that merely contain \"ignore\" do not exclude a file")
	assert.False(t, set.Has("example.com/app/cards.Ignored"))
	assert.False(t, set.Has("example.com/app/cards.OtherOS"), "files for another GOOS are not scanned")
	assert.False(t, set.Has("example.com/app/cards.Suffixed"))
	assert.Equal(t, 2, set.Len())
}

func TestEngine_RejectsUnimportablePackages(t *testing.T) {
	marked := func(pkg string) string {
		return "package " + pkg + "\n\n//cardwire:register\ntype C struct{}\n\nfunc (C) CardName() string { return \"c\" }\n"
	}

	t.Run("package main", func(t *testing.T) {
		root := writeModule(t, map[string]string{
			"cmd/tool/main.go": marked("main") + "\nfunc main() {}\n",
		})
		engine := newTestEngine(t, Config{})
		require.NoError(t, engine.Scan(context.Background(), root))

		err := engine.Err()
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "example.com/app/cmd/tool.C")
		assert.Contains(t, err.Error(), "package main")
		assert.Equal(t, 0, engine.Set().Len())
	})

	t.Run("internal outside importer tree", func(t *testing.T) {
		root := writeModule(t, map[string]string{
			"lib/internal/cards/c.go": marked("cards"),
		})
		engine := newTestEngine(t, Config{Importer: "example.com/app/generate"})
		require.NoError(t, engine.Scan(context.Background(), root))

		err := engine.Err()
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "internal package example.com/app/lib/internal/cards cannot be imported by example.com/app/generate")
	})

	t.Run("internal inside importer tree", func(t *testing.T) {
		root := writeModule(t, map[string]string{
			"lib/internal/cards/c.go": marked("cards"),
		})
		engine := newTestEngine(t, Config{Importer: "example.com/app/lib/generate"})
		require.NoError(t, engine.Scan(context.Background(), root))
		require.NoError(t, engine.Err())
		assert.True(t, engine.Set().Has("example.com/app/lib/internal/cards.C"))
	})
}

func TestCanImport(t *testing.T) {
	tests := []struct {
		importer string
		path     string
		want     bool
	}{
		{"example.com/app/generate", "example.com/app/cards", true},
		{"example.com/app/generate", "example.com/app/internal/cards", true},
		{"example.com/app/generate", "example.com/app/internal", true},
		{"example.com/app/generate", "example.com/app/lib/internal/cards", false},
		{"example.com/app/lib", "example.com/app/lib/internal/cards", true},
		{"example.com/app/lib/x/internal/gen", "example.com/app/lib/internal/a/internal/cards", false},
		{"example.com/app/lib/internal/a/gen", "example.com/app/lib/internal/a/internal/cards", true},
		{"example.com/application", "example.com/app/internal/cards", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canImport(tt.importer, tt.path), "%s importing %s", tt.importer, tt.path)
	}
}
