package ast

import (
	"fmt"
	"strings"
)

// TypeMatch is the three-valued result of comparing two types.
type TypeMatch int

const (
	NoMatch TypeMatch = iota
	AnyMatch
	ExactMatch
)

// TypeNode is the parallel variant over the type-node family: any-type,
// named-type, type-list, and callable-type.
type TypeNode interface {
	Node
	typeNode()

	// Matching compares this type (the declared/expected side) against
	// other (the actual side).
	Matching(other TypeNode) TypeMatch
}

type TypeBase struct{ Base }

func (b *TypeBase) typeNode() {}

// AnyTypeNode is the wildcard type; it matches every type with AnyMatch.
type AnyTypeNode struct{ TypeBase }

func (n *AnyTypeNode) String() string { return "any" }
func (n *AnyTypeNode) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v != nil {
		v.Visit(n, VisitExit)
	}
}
func (n *AnyTypeNode) Matching(TypeNode) TypeMatch { return AnyMatch }

// NamedTypeNode names a declared type by identifier (built-in `int`, or a
// typedef alias).
type NamedTypeNode struct {
	TypeBase
	Name string
}

func (n *NamedTypeNode) String() string { return n.Name }
func (n *NamedTypeNode) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v != nil {
		v.Visit(n, VisitExit)
	}
}
func (n *NamedTypeNode) Matching(other TypeNode) TypeMatch {
	if o, ok := other.(*NamedTypeNode); ok && o.Name == n.Name {
		return ExactMatch
	}
	if _, ok := other.(*AnyTypeNode); ok {
		return AnyMatch
	}
	return NoMatch
}

// TypeListNode is an ordered list of types, used for parameter lists.
type TypeListNode struct {
	TypeBase
	Items []TypeNode
}

func (n *TypeListNode) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (n *TypeListNode) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	for _, it := range n.Items {
		it.Walk(v)
	}
	v.Visit(n, VisitExit)
}

// Matching matches element-wise; the result is the weakest element
// match, and length mismatch is NoMatch.
func (n *TypeListNode) Matching(other TypeNode) TypeMatch {
	o, ok := other.(*TypeListNode)
	if !ok || len(o.Items) != len(n.Items) {
		return NoMatch
	}
	best := ExactMatch
	for i, it := range n.Items {
		m := it.Matching(o.Items[i])
		if m == NoMatch {
			return NoMatch
		}
		if m < best {
			best = m
		}
	}
	return best
}

// CallableTypeNode is the type of a function/inline value: a parameter
// type-list plus a return type.
type CallableTypeNode struct {
	TypeBase
	Params *TypeListNode
	Return TypeNode
}

func (n *CallableTypeNode) String() string {
	return fmt.Sprintf("%s -> %s", n.Params, n.Return)
}
func (n *CallableTypeNode) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Params.Walk(v)
	n.Return.Walk(v)
	v.Visit(n, VisitExit)
}
func (n *CallableTypeNode) Matching(other TypeNode) TypeMatch {
	o, ok := other.(*CallableTypeNode)
	if !ok {
		return NoMatch
	}
	pm := n.Params.Matching(o.Params)
	rm := n.Return.Matching(o.Return)
	if pm == NoMatch || rm == NoMatch {
		return NoMatch
	}
	if pm == ExactMatch && rm == ExactMatch {
		return ExactMatch
	}
	return AnyMatch
}
