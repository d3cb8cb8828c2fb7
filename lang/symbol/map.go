package symbol

import "github.com/dolthub/swiss"

// Map is a single scope's name-to-id mapping. Lookup layers three of
// these (current, enclosing, global); the resolver instead searches its
// stack of block maps innermost-first, then the global map.
type Map struct {
	m *swiss.Map[string, ID]
}

// NewMap returns an empty scope map with initial capacity for at least
// size entries.
func NewMap(size int) *Map {
	return &Map{m: swiss.NewMap[string, ID](uint32(size))}
}

func (m *Map) Get(name string) (ID, bool) { return m.m.Get(name) }
func (m *Map) Put(name string, id ID)     { m.m.Put(name, id) }
func (m *Map) Count() int                 { return int(m.m.Count()) }

// Lookup tries current, then enclosing, then global, matching
// lookup_symbol's layering. ok is false if the name is bound nowhere.
func Lookup(name string, global, enclosing, current *Map) (ID, bool) {
	if current != nil {
		if id, ok := current.Get(name); ok {
			return id, true
		}
	}
	if enclosing != nil {
		if id, ok := enclosing.Get(name); ok {
			return id, true
		}
	}
	if global != nil {
		if id, ok := global.Get(name); ok {
			return id, true
		}
	}
	return InvalidID, false
}
