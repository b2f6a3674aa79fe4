package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrarTable_AddAndEntries(t *testing.T) {
	table := NewRegistrarTable()

	require.NoError(t, table.Add("CardRegistrar_b", func(reg *Registry) {}))
	require.NoError(t, table.Add("CardRegistrar_a", func(reg *Registry) {}))

	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "CardRegistrar_a", entries[0].Name)
	assert.Equal(t, "CardRegistrar_b", entries[1].Name)
	assert.Equal(t, 2, table.Len())
}

func TestRegistrarTable_FirstRegistrationWins(t *testing.T) {
	table := NewRegistrarTable()
	reg := NewRegistry()

	require.NoError(t, table.Add("CardRegistrar_x", func(r *Registry) {
		r.Register(&namedCard{name: "original"})
	}))
	err := table.Add("CardRegistrar_x", func(r *Registry) {
		r.Register(&namedCard{name: "replacement"})
	})
	assert.Error(t, err)

	entries := table.Entries()
	require.Len(t, entries, 1)
	entries[0].Fn(reg)
	assert.Equal(t, []string{"original"}, reg.Names())
}

func TestRegistrarTable_NilFuncRecorded(t *testing.T) {
	table := NewRegistrarTable()
	require.NoError(t, table.Add("CardRegistrar_nil", nil))

	entries := table.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Fn)
}
