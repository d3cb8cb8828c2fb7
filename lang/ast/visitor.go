package ast

// VisitDirection indicates whether Visit is called when entering or
// exiting a node.
type VisitDirection bool

const (
	VisitEnter VisitDirection = true
	VisitExit  VisitDirection = false
)

// Visitor is implemented by anything that wants to walk the AST. Visit is
// called once when entering a node (dir == VisitEnter) and once when
// leaving it (dir == VisitExit, where the returned Visitor is ignored).
// Returning nil from a VisitEnter call skips the node's children.
type Visitor interface {
	Visit(n Node, dir VisitDirection) Visitor
}

// VisitorFunc adapts a function to the Visitor interface; it is called
// only on VisitEnter and always descends into children.
type VisitorFunc func(n Node)

func (f VisitorFunc) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitEnter {
		f(n)
		return f
	}
	return nil
}

// Walk drives a Visitor over node and its descendants.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	node.Walk(v)
}
