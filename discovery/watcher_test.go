package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	a := ComputeHash([]byte("package cards"))
	b := ComputeHash([]byte("package cards"))
	c := ComputeHash([]byte("package other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestWatcher_EmitsChangedSources(t *testing.T) {
	root := writeModule(t, map[string]string{
		"cards/cards.go": "package cards\n",
	})
	generated := filepath.Join(root, "generate")
	require.NoError(t, os.MkdirAll(generated, 0755))

	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		SkipDirs:      []string{generated},
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Generated output must not trigger a batch
	require.NoError(t, os.WriteFile(filepath.Join(generated, "registrar.go"), []byte("package generate\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cards", "new.go"), []byte("package cards\n\ntype X struct{}\n"), 0644))

	select {
	case event := <-w.Events():
		require.Len(t, event.Changes, 1)
		assert.Equal(t, "cards/new.go", event.Changes[0].Path)
		assert.Equal(t, OpCreate, event.Changes[0].Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatcher_IdenticalRewriteEmitsNothing(t *testing.T) {
	content := []byte("package cards\n\ntype X struct{}\n")
	root := writeModule(t, map[string]string{
		"cards/cards.go": string(content),
	})
	path := filepath.Join(root, "cards", "cards.go")

	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, content, 0644))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected batch for unchanged content: %+v", event.Changes)
	case <-time.After(300 * time.Millisecond):
	}

	// A real edit of the same file still comes through
	require.NoError(t, os.WriteFile(path, []byte("package cards\n\ntype Y struct{}\n"), 0644))

	select {
	case event := <-w.Events():
		require.Len(t, event.Changes, 1)
		assert.Equal(t, "cards/cards.go", event.Changes[0].Path)
		assert.Equal(t, OpModify, event.Changes[0].Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}
