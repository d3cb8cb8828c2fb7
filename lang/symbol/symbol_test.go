package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/lang/symbol"
)

func TestNewTableReservedRows(t *testing.T) {
	table := symbol.NewTable()
	assert.Equal(t, "<null>", table.Get(symbol.InvalidID).Name)
	assert.Equal(t, "<entry>", table.Get(symbol.EntryID).Name)
	assert.Equal(t, 2, table.Len())
}

func TestDeclareAndRedeclare(t *testing.T) {
	table := symbol.NewTable()
	scope := symbol.NewMap(8)

	id, err := table.Declare(scope, "x", symbol.Relative, 0, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, symbol.ID(2), id)

	_, err = table.Declare(scope, "x", symbol.Relative, 0, 1, nil)
	assert.Error(t, err)
}

func TestLookupLayering(t *testing.T) {
	global := symbol.NewMap(8)
	enclosing := symbol.NewMap(8)
	current := symbol.NewMap(8)
	global.Put("g", 10)
	enclosing.Put("e", 11)
	current.Put("e", 12) // shadows enclosing's "e"

	id, ok := symbol.Lookup("e", global, enclosing, current)
	require.True(t, ok)
	assert.Equal(t, symbol.ID(12), id)

	id, ok = symbol.Lookup("g", global, enclosing, current)
	require.True(t, ok)
	assert.Equal(t, symbol.ID(10), id)

	_, ok = symbol.Lookup("missing", global, enclosing, current)
	assert.False(t, ok)
}

func TestDeclarePredefinedIntrinsics(t *testing.T) {
	table := symbol.NewTable()
	scope := symbol.NewMap(32)
	table.DeclarePredefined(scope)

	id, ok := scope.Get("__iadd__")
	require.True(t, ok)
	entry := table.Get(id)
	assert.Equal(t, symbol.Intrinsic, entry.StorageType)
}

func TestAliasResolutionAndCycle(t *testing.T) {
	table := symbol.NewTable()
	scope := symbol.NewMap(8)

	target, err := table.Declare(scope, "target", symbol.Relative, 0, 1, nil)
	require.NoError(t, err)
	aliasID, err := table.Declare(scope, "alias", symbol.Alias, int64(target), 0, nil)
	require.NoError(t, err)

	resolved, err := table.Resolve(aliasID)
	require.NoError(t, err)
	assert.Equal(t, target, resolved)

	// Manually wire a cycle: a -> b -> a.
	a, _ := table.Declare(scope, "a", symbol.Alias, 0, 0, nil)
	b, _ := table.Declare(scope, "b", symbol.Alias, int64(a), 0, nil)
	table.Get(a).Value = int64(b)

	_, err = table.Resolve(a)
	assert.Error(t, err)
}

func TestResolveContainerAssignsOffsets(t *testing.T) {
	table := symbol.NewTable()
	scope := symbol.NewMap(8)
	var c symbol.Containers

	c.Open()
	a, _ := table.Declare(scope, "a", symbol.Relative, 0, 1, nil)
	c.Add(a)
	b, _ := table.Declare(scope, "b", symbol.Relative, 0, 2, nil)
	c.Add(b)

	size := table.ResolveContainer(&c)
	assert.Equal(t, uint32(3), size)
	assert.Equal(t, int64(0), table.Get(a).Value)
	assert.Equal(t, int64(1), table.Get(b).Value)
}
