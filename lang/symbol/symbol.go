// Package symbol implements the process-wide symbol table: a flat,
// append-only table of entries keyed by a stable integer id, per-scope
// name maps, and a stack of "containers" used to lay out function frames
// and struct fields.
package symbol

import (
	"fmt"

	"github.com/Niels862/flexul/lang/isa"
)

// StorageType classifies how a symbol's value is interpreted.
type StorageType int

const (
	Invalid StorageType = iota
	// Label is a code address, resolved at assembly.
	Label
	// Absolute is global data, resolved at assembly.
	Absolute
	// Relative is a frame offset from the base pointer.
	Relative
	// Intrinsic is an index into the fixed intrinsic table.
	Intrinsic
	// Alias redirects to another, non-Alias id.
	Alias
	// Callable owns an ordered overload list.
	Callable
	// InlineReference is a formal parameter of an inline body, bound to
	// an argument expression at each call site.
	InlineReference
)

func (t StorageType) String() string {
	switch t {
	case Invalid:
		return "invalid"
	case Label:
		return "label"
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	case Intrinsic:
		return "intrinsic"
	case Alias:
		return "alias"
	case Callable:
		return "callable"
	case InlineReference:
		return "inline-reference"
	default:
		return fmt.Sprintf("storagetype(%d)", int(t))
	}
}

// ID is a stable integer handle into a Table. 0 is reserved for
// "invalid/unset"; 1 is reserved for the program entry label.
type ID uint32

const (
	InvalidID ID = 0
	EntryID   ID = 1
)

// Overload is one member of a Callable entry's overload set: the AST
// node declaring it (opaque to this package) paired with its own id.
type Overload struct {
	Node any
	ID   ID
}

// Entry is one symbol table row.
type Entry struct {
	Name        string
	ID          ID
	StorageType StorageType
	Value       int64
	Size        uint32
	Usages      uint64

	// Overloads is populated only for StorageType == Callable.
	Overloads []Overload

	// Node is the declaring AST node, opaque to this package (nil for
	// the predeclared null/entry/intrinsic rows).
	Node any
}

// Table is the append-only, id-indexed symbol table for one compilation.
//
// Entries are stored by pointer so that a *Entry handed out by Get
// remains valid identity across later Declare calls, even though the
// backing slice itself is reallocated as it grows.
type Table struct {
	entries []*Entry
}

// NewTable returns a table seeded with the two reserved rows.
func NewTable() *Table {
	t := &Table{
		entries: []*Entry{
			{Name: "<null>", ID: InvalidID, StorageType: Invalid},
			{Name: "<entry>", ID: EntryID, StorageType: Label},
		},
	}
	return t
}

// add appends entry, enforcing the same id-matches-table-length
// invariant the original SymbolTable::add checks.
func (t *Table) add(entry Entry) {
	if entry.ID != t.nextID() {
		panic(fmt.Sprintf("symbol: registered id %d does not match expected %d", entry.ID, t.nextID()))
	}
	t.entries = append(t.entries, &entry)
}

// DeclarePredefined declares the fixed intrinsic table (isa.Intrinsics)
// into scope, each as an Intrinsic entry whose Value is its index into
// that table, matching the original's load_predefined.
func (t *Table) DeclarePredefined(scope *Map) {
	for i, in := range isa.Intrinsics {
		if _, err := t.Declare(scope, in.Name, Intrinsic, int64(i), 0, nil); err != nil {
			panic(err) // the fixed table never redeclares; a collision is a bug
		}
	}
}

func (t *Table) nextID() ID { return ID(len(t.entries)) }

// Get returns a pointer to the entry for id, so callers can mutate
// Value/Size/Usages/Overloads in place. The pointer stays valid across
// later Declare calls since entries are heap-allocated individually,
// not stored inline in the growing slice.
func (t *Table) Get(id ID) *Entry {
	return t.entries[id]
}

// Len reports how many entries the table holds, including the two
// reserved rows.
func (t *Table) Len() int { return len(t.entries) }

// All iterates every entry in id order.
func (t *Table) All() []*Entry { return t.entries }

// Declare allocates a fresh id for symbol, binds it in scope, and adds
// a new entry for it. It is an error for symbol to already be bound in
// scope.
func (t *Table) Declare(scope *Map, name string, storageType StorageType, value int64, size uint32, node any) (ID, error) {
	if _, ok := scope.Get(name); ok {
		return InvalidID, fmt.Errorf("redeclared symbol: %s", name)
	}
	id := t.nextID()
	scope.Put(name, id)
	t.add(Entry{Name: name, ID: id, StorageType: storageType, Value: value, Size: size, Node: node})
	return id, nil
}

// DeclareAnon allocates a fresh id and entry without binding it into
// any scope map. It is used for a Callable overload member, which is
// reachable only through its Callable entry's Overloads list, never by
// direct name lookup.
func (t *Table) DeclareAnon(name string, storageType StorageType, value int64, size uint32, node any) ID {
	id := t.nextID()
	t.add(Entry{Name: name, ID: id, StorageType: storageType, Value: value, Size: size, Node: node})
	return id
}

// Resolve follows an Alias chain to its non-Alias target, returning an
// error if the chain does not terminate within the table's size (a
// cycle).
func (t *Table) Resolve(id ID) (ID, error) {
	seen := make(map[ID]bool)
	for {
		e := t.Get(id)
		if e.StorageType != Alias {
			return id, nil
		}
		if seen[id] {
			return InvalidID, fmt.Errorf("alias cycle detected at symbol %q", e.Name)
		}
		seen[id] = true
		id = ID(e.Value)
	}
}

// Use increments the usage counter for id and returns its entry.
func (t *Table) Use(id ID) *Entry {
	e := t.Get(id)
	e.Usages++
	return e
}
