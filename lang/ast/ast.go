// Package ast defines the flexul abstract syntax tree: a tagged variant
// over expression, statement, and type nodes, each exclusively owning its
// children. Resolution (lang/resolver) annotates nodes in place with a
// resolved symbol id and, for expressions, a resolved type node.
package ast

import (
	"fmt"
	"strings"

	"github.com/Niels862/flexul/lang/token"
)

// Node is any node in the AST.
type Node interface {
	fmt.Stringer

	// Tok returns the token that introduced this node, used for error
	// positions and for the node's own label in diagnostics.
	Tok() token.Value

	// Walk enters each child node, depth-first, left to right.
	Walk(v Visitor)

	// SymbolID returns the symbol id resolution assigned to this node, or
	// 0 if none (0 is reserved as "unset").
	SymbolID() uint32
	SetSymbolID(id uint32)
}

// Expr is an expression node. Every Expr leaves exactly one value on the
// VM stack when serialized.
type Expr interface {
	Node
	exprNode()

	// Type returns the resolved type of this expression, or nil before
	// type resolution has run.
	Type() TypeNode
	SetType(t TypeNode)
}

// Stmt is a statement node. Every Stmt leaves the VM stack depth
// unchanged when serialized.
type Stmt interface {
	Node
	stmtNode()
}

// Base is embedded by every concrete node and implements the bookkeeping
// shared by all of them (defining token, resolved symbol id). Its fields
// are exported so the parser can populate them with a struct literal.
type Base struct {
	TokVal token.Value
	SymVal uint32
}

func (b *Base) Tok() token.Value      { return b.TokVal }
func (b *Base) SymbolID() uint32      { return b.SymVal }
func (b *Base) SetSymbolID(id uint32) { b.SymVal = id }

// ExprBase additionally carries the resolved type of an expression node.
type ExprBase struct {
	Base
	TypeVal TypeNode
}

func (b *ExprBase) exprNode()          {}
func (b *ExprBase) Type() TypeNode     { return b.TypeVal }
func (b *ExprBase) SetType(t TypeNode) { b.TypeVal = t }

type StmtBase struct{ Base }

func (b *StmtBase) stmtNode() {}

// File is the root node of a parsed source file: a flat list of
// top-level declarations (functions, inlines, typedefs, aliases, and
// global var-decls).
type File struct {
	Base
	Name  string
	Decls []Stmt
}

func (n *File) String() string { return fmt.Sprintf("file %s (%d decls)", n.Name, len(n.Decls)) }
func (n *File) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	for _, d := range n.Decls {
		d.Walk(v)
	}
	v.Visit(n, VisitExit)
}

// Block is `{ stmt... }`, a sequence of statements sharing one scope
// (ScopedBlock) or the enclosing scope (Block, used to group the
// declarators of a multi-variable `var` declaration).
type Block struct {
	StmtBase
	Stmts  []Stmt
	Scoped bool
}

func (n *Block) String() string {
	kind := "block"
	if n.Scoped {
		kind = "scoped-block"
	}
	return fmt.Sprintf("%s (%d stmts)", kind, len(n.Stmts))
}
func (n *Block) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	for _, s := range n.Stmts {
		s.Walk(v)
	}
	v.Visit(n, VisitExit)
}

func indent(depth int) string { return strings.Repeat(". ", depth) }
