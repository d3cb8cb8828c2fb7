package compiler

import (
	"fmt"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/isa"
	"github.com/Niels862/flexul/lang/symbol"
)

// inlineBinding is one inline parameter's binding at a single call
// expansion: the argument expression substituted for it, and whether
// that substitution is a writeback.
//
// A non-writeback binding may be consumed at most once: since a use
// re-lowers the bound argument expression in place of a real
// substitution, using the same parameter twice would duplicate any
// side effect the argument has.
//
// A writeback binding instead has its argument's lvalue address
// materialized once on the VM stack when the call expansion opens
// (`lowerLvalueAddress`, emitted before the body); every `Use` reads
// through that same address non-destructively (`Dup; LoadAbs`), so it
// may be read any number of times, and it is not itself subject to the
// single-use rule. Only one parameter per call expansion may be
// writeback, matching the instruction set: the materialized address
// must stay the top-of-stack value for Dup to find it, which only one
// live address can be at a time. Taking a writeback parameter's own
// address (`&p`) is not supported, matching the source implementation
// this is grounded on.
type inlineBinding struct {
	arg       ast.Expr
	writeback bool
	used      bool
}

// InlineFrames is the compile-time macro expander for inline callables.
// Expanding a call opens one binding per parameter, lowers the body
// directly in place (no Call/Ret: there is no activation record for an
// inline expansion), and closes the bindings again. Nested inline calls
// work because each parameter id keeps its own binding stack, so a
// parameter of an outer expansion stays reachable while an inner one is
// in progress.
type InlineFrames struct {
	table    *symbol.Table
	bindings map[symbol.ID][]*inlineBinding
}

func (f *InlineFrames) open(id symbol.ID, b *inlineBinding) {
	if f.bindings == nil {
		f.bindings = make(map[symbol.ID][]*inlineBinding)
	}
	f.bindings[id] = append(f.bindings[id], b)
}

func (f *InlineFrames) close(id symbol.ID) {
	stack := f.bindings[id]
	f.bindings[id] = stack[:len(stack)-1]
}

func (f *InlineFrames) top(id symbol.ID) *inlineBinding {
	stack := f.bindings[id]
	if len(stack) == 0 {
		panic(compileError{fmt.Errorf("compiler: inline parameter referenced outside of a call expansion")})
	}
	return stack[len(stack)-1]
}

// Use substitutes id's bound argument as a value: a non-destructive
// load through the materialized address for a writeback binding, or a
// one-shot re-lowering of the argument expression otherwise.
func (f *InlineFrames) Use(s *Serializer, id symbol.ID) {
	b := f.top(id)
	if b.writeback {
		s.emit(isa.Dup, isa.FcNop)
		s.emit(isa.LoadAbs, isa.FcNop)
		return
	}
	if b.used {
		panic(compileError{fmt.Errorf("compiler: inline parameter used more than once in its body")})
	}
	b.used = true
	s.lowerExpr(b.arg)
}

// UseAddress substitutes id's bound argument's lvalue address. Not
// supported for a writeback parameter: its address is already
// materialized and consumed implicitly by the commit at expansion
// close, so taking it explicitly has no well-defined runtime position.
func (f *InlineFrames) UseAddress(s *Serializer, id symbol.ID) {
	b := f.top(id)
	if b.writeback {
		panic(compileError{fmt.Errorf("compiler: taking the address of a writeback inline parameter is not supported")})
	}
	if b.used {
		panic(compileError{fmt.Errorf("compiler: inline parameter used more than once in its body")})
	}
	if !ast.IsLvalue(b.arg) {
		panic(compileError{fmt.Errorf("compiler: a non-writeback inline argument must be an lvalue to take its address")})
	}
	b.used = true
	s.lowerLvalueAddress(b.arg)
}

// Expand lowers one call expansion of decl's body in place, leaving
// exactly one value on the stack: its trailing return's operand (0 if
// none, or if the body never reaches a return). If one parameter is
// writeback, its argument's lvalue address is materialized before the
// body runs and the body's final value is committed through it
// (`BINARY Assign`) before the expansion closes.
func (f *InlineFrames) Expand(s *Serializer, decl *ast.InlineStmt, args []ast.Expr) {
	writeback := -1
	for i, p := range decl.Params {
		if p.Writeback {
			if writeback >= 0 {
				panic(compileError{fmt.Errorf("compiler: at most one writeback parameter is supported per inline call")})
			}
			writeback = i
		}
	}

	for i, pid := range decl.ParamIDs {
		f.open(symbol.ID(pid), &inlineBinding{arg: args[i], writeback: i == writeback})
	}
	if writeback >= 0 {
		if !ast.IsLvalue(args[writeback]) {
			panic(compileError{fmt.Errorf("compiler: a writeback argument must be an lvalue")})
		}
		s.lowerLvalueAddress(args[writeback])
	}

	body := decl.Body.(*ast.Block)
	produced := false
	for _, stmt := range body.Stmts {
		switch st := stmt.(type) {
		case *ast.ExprStmt:
			s.lowerExpr(st.Expr)
			s.emit(isa.Pop, isa.FcNop)
		case *ast.EmptyStmt:
		case *ast.ReturnStmt:
			if st.Operand != nil {
				s.lowerExpr(st.Operand)
			} else {
				s.emitImm(isa.Push, 0, false)
			}
			produced = true
		}
	}
	if !produced {
		s.emitImm(isa.Push, 0, false)
	}

	if writeback >= 0 {
		s.emit(isa.Binary, isa.FcAssign)
	}

	for _, pid := range decl.ParamIDs {
		f.close(symbol.ID(pid))
	}
}
