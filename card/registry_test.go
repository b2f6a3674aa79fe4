package card

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedCard struct {
	name string
}

func (c *namedCard) CardName() string { return c.name }

func TestRegistry_RegisterThenAll(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.All())

	cards := []*namedCard{{name: "a"}, {name: "b"}, {name: "c"}}
	for _, c := range cards {
		reg.Register(c)
	}

	all := reg.All()
	require.Len(t, all, len(cards))
	for i, c := range cards {
		assert.Same(t, c, all[i], "card %d out of order", i)
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.Names())
}

func TestRegistry_NoDeduplication(t *testing.T) {
	reg := NewRegistry()
	c := &namedCard{name: "dup"}

	reg.Register(c)
	reg.Register(c)
	reg.Register(&namedCard{name: "dup"})

	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_NilIgnored(t *testing.T) {
	reg := NewRegistry()
	reg.Register(nil)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_NilPointerIgnored(t *testing.T) {
	reg := NewRegistry()
	newNothing := func() *namedCard { return nil }

	reg.Register(newNothing())
	reg.Register(&namedCard{name: "kept"})

	assert.Equal(t, 1, reg.Len())
	assert.NotPanics(t, func() {
		assert.Equal(t, []string{"kept"}, reg.Names())
	})
}

func TestRegistry_AllIsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&namedCard{name: "first"})

	snapshot := reg.All()
	reg.Register(&namedCard{name: "second"})
	snapshot[0] = &namedCard{name: "mutated"}

	assert.Len(t, snapshot, 1)
	assert.Equal(t, []string{"first", "second"}, reg.Names())
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Register(&namedCard{name: fmt.Sprintf("card-%d", i)})
			_ = reg.All()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Len())
}
