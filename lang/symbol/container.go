package symbol

// Containers is a stack of open storage regions (function frames,
// struct layouts). Each region accumulates member ids; resolving a
// region assigns every member's Value to its cumulative offset and
// returns the region's total size.
type Containers struct {
	stack [][]ID
}

func (c *Containers) Open() { c.stack = append(c.stack, nil) }

func (c *Containers) Add(id ID) {
	top := len(c.stack) - 1
	c.stack[top] = append(c.stack[top], id)
}

// Current returns the ids added to the open-most region so far.
func (c *Containers) Current() []ID {
	return c.stack[len(c.stack)-1]
}

// ResolveContainer assigns sequential offsets (in words) to every member of the
// open-most region using each member's declared Size, pops the region,
// and returns its total size.
func (t *Table) ResolveContainer(c *Containers) uint32 {
	top := len(c.stack) - 1
	ids := c.stack[top]
	c.stack = c.stack[:top]

	var offset uint32
	for _, id := range ids {
		e := t.Get(id)
		e.Value = int64(offset)
		offset += e.Size
	}
	return offset
}
