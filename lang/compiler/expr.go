package compiler

import (
	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/isa"
	"github.com/Niels862/flexul/lang/symbol"
)

var binaryFuncCodes = map[ast.BinaryOp]isa.FuncCode{
	ast.BinAdd: isa.FcAdd, ast.BinSub: isa.FcSub, ast.BinMul: isa.FcMul,
	ast.BinDiv: isa.FcDiv, ast.BinMod: isa.FcMod, ast.BinEq: isa.FcEquals,
	ast.BinNeq: isa.FcNotEquals, ast.BinLt: isa.FcLessThan, ast.BinLe: isa.FcLessEquals,
}

// lowerExpr lowers expr so that it leaves exactly one value on the VM
// stack.
func (s *Serializer) lowerExpr(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.LiteralExpr:
		s.emitImm(isa.Push, imm32(n.Value), false)
	case *ast.VariableExpr:
		s.lowerVariable(n)
	case *ast.AddressOfExpr:
		s.lowerLvalueAddress(n.Operand)
	case *ast.DereferenceExpr:
		s.lowerExpr(n.Operand)
		s.emit(isa.LoadAbs, isa.FcNop)
	case *ast.UnaryExpr:
		s.lowerUnary(n)
	case *ast.BinaryExpr:
		s.lowerBinary(n)
	case *ast.AssignExpr:
		s.lowerLvalueAddress(n.Left)
		s.lowerExpr(n.Right)
		s.emit(isa.Binary, isa.FcAssign)
	case *ast.SubscriptExpr:
		s.lowerExpr(n.Prefix)
		s.lowerExpr(n.Index)
		s.emit(isa.Binary, isa.FcAdd)
		s.emit(isa.LoadAbs, isa.FcNop)
	case *ast.AttributeExpr:
		// struct field layout is not modeled; `.name` passes its
		// receiver's value through unchanged.
		s.lowerExpr(n.Left)
	case *ast.TernaryExpr:
		s.lowerTernary(n)
	case *ast.CallExpr:
		s.lowerCall(n)
	case *ast.LambdaExpr:
		s.lowerLambdaValue(n)
	default:
		s.fatalf(expr.Tok(), "compiler: unsupported expression %s", expr)
	}
}

func (s *Serializer) lowerUnary(n *ast.UnaryExpr) {
	switch n.Op {
	case ast.UnaryNeg:
		s.lowerExpr(n.Operand)
		s.emit(isa.Unary, isa.FcNeg)
	case ast.UnaryNot:
		s.lowerExpr(n.Operand)
		s.emitImm(isa.Push, 0, false)
		s.emit(isa.Binary, isa.FcEquals)
	default:
		s.fatalf(n.Tok(), "compiler: unsupported unary operator")
	}
}

func (s *Serializer) lowerBinary(n *ast.BinaryExpr) {
	switch n.Op {
	case ast.BinAnd, ast.BinOr:
		s.lowerShortCircuit(n)
	default:
		fc, ok := binaryFuncCodes[n.Op]
		if !ok {
			s.fatalf(n.Tok(), "compiler: unsupported binary operator")
		}
		s.lowerExpr(n.Left)
		s.lowerExpr(n.Right)
		s.emit(isa.Binary, fc)
	}
}

// lowerShortCircuit lowers `left && right` and `left || right` as a
// branch chain producing 0 or 1: each operand conditionally branches to
// the short-circuit label (BrFalse toward 0 for &&, BrTrue toward 1 for
// ||), and falling through both pushes the opposite value.
func (s *Serializer) lowerShortCircuit(n *ast.BinaryExpr) {
	lshort := s.GetLabel()
	lend := s.GetLabel()

	branch, shortVal, longVal := isa.BrFalse, uint32(0), uint32(1)
	if n.Op == ast.BinOr {
		branch, shortVal, longVal = isa.BrTrue, 1, 0
	}

	s.lowerExpr(n.Left)
	s.emitImm(branch, uint32(lshort), true)
	s.lowerExpr(n.Right)
	s.emitImm(branch, uint32(lshort), true)
	s.emitImm(isa.Push, longVal, false)
	s.emitImm(isa.Jump, uint32(lend), true)
	s.addLabelEntry(lshort)
	s.emitImm(isa.Push, shortVal, false)
	s.addLabelEntry(lend)
}

func (s *Serializer) lowerTernary(n *ast.TernaryExpr) {
	lfalse := s.GetLabel()
	lend := s.GetLabel()

	s.lowerExpr(n.Cond)
	s.emitImm(isa.BrFalse, uint32(lfalse), true)
	s.lowerExpr(n.CaseTrue)
	s.emitImm(isa.Jump, uint32(lend), true)
	s.addLabelEntry(lfalse)
	s.lowerExpr(n.CaseFalse)
	s.addLabelEntry(lend)
}

// lowerVariable lowers a bare read of a resolved identifier, dispatched
// on its storage class.
func (s *Serializer) lowerVariable(n *ast.VariableExpr) {
	entry := s.resolveEntry(symbol.ID(n.SymbolID()))
	switch entry.StorageType {
	case symbol.Relative:
		s.emitImm(isa.LoadRel, imm32(entry.Value), false)
	case symbol.Absolute:
		s.emitImm(isa.Push, uint32(entry.ID), true)
	case symbol.InlineReference:
		s.inline.Use(s, entry.ID)
	case symbol.Callable:
		if len(entry.Overloads) != 1 {
			s.fatalf(n.Tok(), "%s: a bare reference to an overloaded name is ambiguous", n.Name)
		}
		if _, ok := entry.Overloads[0].Node.(*ast.InlineStmt); ok {
			s.fatalf(n.Tok(), "%s: an inline callable has no runtime address; it must be called directly", n.Name)
		}
		s.emitImm(isa.Push, uint32(entry.Overloads[0].ID), true)
	default:
		s.fatalf(n.Tok(), "%s cannot be used as a value", n.Name)
	}
}

// lowerLvalueAddress lowers expr's address: the value an assignment's
// left side, or `&expr`, computes.
func (s *Serializer) lowerLvalueAddress(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.VariableExpr:
		entry := s.resolveEntry(symbol.ID(n.SymbolID()))
		switch entry.StorageType {
		case symbol.Relative:
			s.emitImm(isa.Push, imm32(entry.Value), false)
			s.emit(isa.LoadAddrRel, isa.FcNop)
		case symbol.Absolute:
			s.emitImm(isa.Push, uint32(entry.ID), true)
		case symbol.InlineReference:
			s.inline.UseAddress(s, entry.ID)
		default:
			s.fatalf(n.Tok(), "%s: cannot take the address of this storage class", n.Name)
		}
	case *ast.DereferenceExpr:
		// &*p is p itself.
		s.lowerExpr(n.Operand)
	case *ast.SubscriptExpr:
		s.lowerExpr(n.Prefix)
		s.lowerExpr(n.Index)
		s.emit(isa.Binary, isa.FcAdd)
	default:
		s.fatalf(expr.Tok(), "compiler: not an lvalue")
	}
}

// lowerCall lowers a call expression, dispatched by what its (already
// overload-resolved) callee target is: an intrinsic instruction, a
// direct call to a statically selected function, an inline macro
// expansion, or a dynamic call through a runtime callee value.
func (s *Serializer) lowerCall(n *ast.CallExpr) {
	if n.SymbolID() == 0 {
		s.lowerDynamicCall(n)
		return
	}

	entry := s.resolveEntry(symbol.ID(n.SymbolID()))
	switch entry.StorageType {
	case symbol.Intrinsic:
		in := isa.Intrinsics[entry.Value]
		for _, a := range n.Args {
			s.lowerExpr(a)
		}
		s.emit(in.OpCode, in.FuncCode)
	case symbol.Label:
		switch decl := entry.Node.(type) {
		case *ast.FunctionStmt:
			for _, a := range n.Args {
				s.lowerExpr(a)
			}
			s.emitImm(isa.Push, uint32(len(n.Args)), false)
			s.emitImm(isa.Push, uint32(decl.SymbolID()), true)
			s.emit(isa.Call, isa.FcNop)
		case *ast.InlineStmt:
			s.inline.Expand(s, decl, n.Args)
		default:
			s.fatalf(n.Tok(), "compiler: unresolved call target")
		}
	default:
		s.fatalf(n.Tok(), "compiler: unresolved call target")
	}
}

func (s *Serializer) lowerDynamicCall(n *ast.CallExpr) {
	for _, a := range n.Args {
		s.lowerExpr(a)
	}
	s.emitImm(isa.Push, uint32(len(n.Args)), false)
	s.lowerExpr(n.Callee)
	s.emit(isa.Call, isa.FcNop)
}

// lowerLambdaValue lowers a lambda expression used as a value: its body
// is queued as a deferred job and this leaves the job's label address
// on the stack, the same shape a named function's value has.
func (s *Serializer) lowerLambdaValue(n *ast.LambdaExpr) {
	label := s.GetLabel()
	body := n
	s.addJob(label, func(s *Serializer) {
		s.emitImm(isa.AddSp, body.FrameSize, false)
		s.lowerStmt(body.Body)
		s.emitImm(isa.Push, 0, false)
		s.emit(isa.Ret, isa.FcNop)
	})
	s.emitImm(isa.Push, uint32(label), true)
}
