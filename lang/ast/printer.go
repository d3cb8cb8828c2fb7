package ast

import (
	"fmt"
	"io"

	"github.com/Niels862/flexul/lang/token"
)

// Printer controls pretty-printing of the AST, driven by the --tree*
// family of CLI flags.
type Printer struct {
	Output io.Writer

	// Pos controls whether each line is prefixed with the node's source
	// position.
	Pos token.PosMode

	// ShowTypes appends the node's resolved type, if any (--tree-types).
	ShowTypes bool

	// ShowSymbolIDs appends the node's resolved symbol id, if any
	// (--tree-symbol-ids).
	ShowSymbolIDs bool

	// ShowPointers appends a synthetic per-node sequence number standing
	// in for a node address (--tree-pointers).
	ShowPointers bool
}

// Print pretty-prints node and its descendants, one line per node,
// indented by depth.
func (p *Printer) Print(node Node) error {
	pp := &printer{p: p, seq: make(map[Node]int)}
	Walk(pp, node)
	return pp.err
}

type printer struct {
	p     *Printer
	depth int
	next  int
	seq   map[Node]int
	err   error
}

func (pp *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit {
		pp.depth--
		return nil
	}
	pp.printNode(n)
	pp.depth++
	return pp
}

func (pp *printer) printNode(n Node) {
	if pp.err != nil {
		return
	}

	line := indent(pp.depth) + n.String()
	if pos := token.FormatPosition(pp.p.Pos, n.Tok()); pos != "" {
		line = fmt.Sprintf("[%s] %s", pos, line)
	}
	if pp.p.ShowSymbolIDs && n.SymbolID() != 0 {
		line += fmt.Sprintf(" <#%d>", n.SymbolID())
	}
	if pp.p.ShowTypes {
		if e, ok := n.(Expr); ok && e.Type() != nil {
			line += fmt.Sprintf(" :: %s", e.Type())
		}
	}
	if pp.p.ShowPointers {
		if _, ok := pp.seq[n]; !ok {
			pp.seq[n] = pp.next
			pp.next++
		}
		line += fmt.Sprintf(" @%d", pp.seq[n])
	}

	_, pp.err = fmt.Fprintln(pp.p.Output, line)
}
