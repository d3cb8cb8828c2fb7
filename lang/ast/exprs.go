package ast

import (
	"fmt"
	"strings"

	"github.com/Niels862/flexul/lang/token"
)

// LiteralExpr is an integer or character literal (both carry a plain
// integer value once scanned) or a boolean literal.
type LiteralExpr struct {
	ExprBase
	Value int64
}

func (n *LiteralExpr) String() string { return fmt.Sprintf("literal %d", n.Value) }
func (n *LiteralExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v != nil {
		v.Visit(n, VisitExit)
	}
}

// VariableExpr is a bare identifier reference.
type VariableExpr struct {
	ExprBase
	Name string
}

func (n *VariableExpr) String() string { return fmt.Sprintf("variable %s", n.Name) }
func (n *VariableExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v != nil {
		v.Visit(n, VisitExit)
	}
}

// IsLvalue reports whether expr may appear on the left of `=` or after
// `&`: a variable, a dereference, or a subscript.
func IsLvalue(expr Expr) bool {
	switch expr.(type) {
	case *VariableExpr, *DereferenceExpr, *SubscriptExpr:
		return true
	}
	return false
}

// UnaryOp identifies a unary expression's operator.
type UnaryOp int

const (
	UnaryAddressOf UnaryOp = iota
	UnaryDereference
	UnaryNeg
	UnaryNot
)

// AddressOfExpr is `&operand`; operand must be an lvalue.
type AddressOfExpr struct {
	ExprBase
	Operand Expr
}

func (n *AddressOfExpr) String() string { return "address-of" }
func (n *AddressOfExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Operand.Walk(v)
	v.Visit(n, VisitExit)
}

// DereferenceExpr is `*operand`.
type DereferenceExpr struct {
	ExprBase
	Operand Expr
}

func (n *DereferenceExpr) String() string { return "dereference" }
func (n *DereferenceExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Operand.Walk(v)
	v.Visit(n, VisitExit)
}

// UnaryExpr is a unary operator expression other than address-of and
// dereference (numeric negation, logical not).
type UnaryExpr struct {
	ExprBase
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) String() string { return "unary" }
func (n *UnaryExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Operand.Walk(v)
	v.Visit(n, VisitExit)
}

// BinaryOp identifies a binary expression's operator.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNeq
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd // &&
	BinOr  // ||
)

// BinaryExpr is a binary operator expression, e.g. `left + right`.
type BinaryExpr struct {
	ExprBase
	Op          BinaryOp
	Left, Right Expr
}

func (n *BinaryExpr) String() string { return "binary" }
func (n *BinaryExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Left.Walk(v)
	n.Right.Walk(v)
	v.Visit(n, VisitExit)
}

// AssignExpr is `lhs = rhs`; lhs must be an lvalue.
type AssignExpr struct {
	ExprBase
	Left, Right Expr
}

func (n *AssignExpr) String() string { return "assign" }
func (n *AssignExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Left.Walk(v)
	n.Right.Walk(v)
	v.Visit(n, VisitExit)
}

// SubscriptExpr is `prefix[index]`.
type SubscriptExpr struct {
	ExprBase
	Prefix, Index Expr
}

func (n *SubscriptExpr) String() string { return "subscript" }
func (n *SubscriptExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Prefix.Walk(v)
	n.Index.Walk(v)
	v.Visit(n, VisitExit)
}

// AttributeExpr is `left.name`, field access into a struct-typed value.
type AttributeExpr struct {
	ExprBase
	Left Expr
	Name string
}

func (n *AttributeExpr) String() string { return fmt.Sprintf("attribute .%s", n.Name) }
func (n *AttributeExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Left.Walk(v)
	v.Visit(n, VisitExit)
}

// TernaryExpr is `cond ? caseTrue : caseFalse`.
type TernaryExpr struct {
	ExprBase
	Cond, CaseTrue, CaseFalse Expr
}

func (n *TernaryExpr) String() string { return "ternary" }
func (n *TernaryExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Cond.Walk(v)
	n.CaseTrue.Walk(v)
	n.CaseFalse.Walk(v)
	v.Visit(n, VisitExit)
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) String() string { return fmt.Sprintf("call (%d args)", len(n.Args)) }
func (n *CallExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Callee.Walk(v)
	for _, a := range n.Args {
		a.Walk(v)
	}
	v.Visit(n, VisitExit)
}

// LambdaExpr is `lambda(params) body`, an anonymous function whose body
// is lowered out-of-line via a code job.
type LambdaExpr struct {
	ExprBase
	Params []string
	Body   Stmt

	// FrameSize is the resolved local-frame word count for Body, set by
	// the resolver's local pass, mirroring CallableStmt.FrameSize.
	FrameSize uint32
	// ParamIDs are the resolved symbol ids of the formal parameters, in
	// order.
	ParamIDs []uint32
}

func (n *LambdaExpr) String() string { return fmt.Sprintf("lambda(%s)", strings.Join(n.Params, ", ")) }
func (n *LambdaExpr) Walk(v Visitor) {
	if v = v.Visit(n, VisitEnter); v == nil {
		return
	}
	n.Body.Walk(v)
	v.Visit(n, VisitExit)
}

// Param is a single formal parameter of a function or inline: its name,
// and for inline parameters, whether it is declared `writeback`.
type Param struct {
	Tok       token.Value
	Name      string
	Writeback bool
}
