package compiler

import (
	"fmt"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/isa"
	"github.com/Niels862/flexul/lang/symbol"
	"github.com/Niels862/flexul/lang/token"
)

// Error reports a lowering error at a source position. Almost every
// occurrence is an internal invariant violation (the resolver is
// supposed to reject anything that would trip one of these), but they
// are reported the same way as any other front-end error rather than
// as a panic, so a caller can't be surprised by an unrecovered crash.
type Error struct {
	Got token.Value
	Msg string
}

func (e *Error) Error() string {
	pos := token.FormatPosition(token.PosLong, e.Got)
	if pos != "" {
		return fmt.Sprintf("%s: %s", pos, e.Msg)
	}
	return e.Msg
}

type compileError struct{ err error }

// job is a deferred code body: a function's, or a lambda's, to be
// lowered after the part of the entry's control flow that references
// it by label.
type job struct {
	label Label
	fn    func(s *Serializer)
}

// Program is the fully assembled word stream, ready for the virtual
// machine: a flat slice that doubles as code memory and initial stack
// contents, since the machine addresses both through one word vector.
type Program struct {
	Words      []int32
	EntryPoint int
}

// Serializer lowers a resolved *ast.File to a Program, split between
// the entry list (this file) and the peephole combiner (entry.go):
// every append goes through addEntry, which folds the new entry
// against its predecessor to a fixed point before returning.
type Serializer struct {
	table     *symbol.Table
	entries   []StackEntry
	nextLabel uint32
	jobs      []job
	inline    InlineFrames
}

// NewSerializer returns a Serializer over table. The internal label
// counter is seeded above every id table already holds, so a
// Serializer-issued Label can never collide with a declared symbol id.
func NewSerializer(table *symbol.Table) *Serializer {
	s := &Serializer{table: table, nextLabel: uint32(table.Len())}
	s.inline.table = table
	return s
}

func (s *Serializer) fatalf(tok token.Value, format string, args ...any) {
	panic(compileError{&Error{Got: tok, Msg: fmt.Sprintf(format, args...)}})
}

// GetLabel allocates a fresh internal label, used for control-flow
// targets that have no symbol of their own (if/for/ternary/&&/||).
func (s *Serializer) GetLabel() Label {
	l := Label(s.nextLabel)
	s.nextLabel++
	return l
}

// addEntry appends e, then repeatedly tries to combine it with the
// entry(ies) before it until no further fusion applies.
func (s *Serializer) addEntry(e StackEntry) {
	s.entries = append(s.entries, e)
	for len(s.entries) >= 2 {
		left := s.entries[len(s.entries)-2]
		right := s.entries[len(s.entries)-1]
		combined, ok := left.Combine(right)
		if !ok {
			break
		}
		s.entries = append(s.entries[:len(s.entries)-2], combined)
	}
}

func (s *Serializer) addLabelEntry(l Label) { s.addEntry(LabelEntry(l)) }

func (s *Serializer) emit(op isa.OpCode, fc isa.FuncCode) { s.addEntry(Instr(op, fc)) }

func (s *Serializer) emitImm(op isa.OpCode, imm uint32, refLabel bool) {
	s.addEntry(InstrImm(op, imm, refLabel))
}

func (s *Serializer) emitData(word uint32) { s.addEntry(StackEntry{Kind: EntryData, Immediate: word}) }

// addJob queues a deferred code body, identified by label, to be lowered
// once the entries lowered so far have been drained.
func (s *Serializer) addJob(label Label, fn func(s *Serializer)) {
	s.jobs = append(s.jobs, job{label: label, fn: fn})
}

func imm32(v int64) uint32 { return uint32(int32(v)) }

// resolveEntry follows id's alias chain (if any) and returns the final
// entry.
func (s *Serializer) resolveEntry(id symbol.ID) *symbol.Entry {
	resolved, err := s.table.Resolve(id)
	if err != nil {
		panic(compileError{err})
	}
	return s.table.Get(resolved)
}

// Serialize lowers file to a Program. file must already have been
// resolved (every node's SymbolID/Type populated) and mainID must be
// the resolved id of its entry function.
func Serialize(file *ast.File, table *symbol.Table, mainID symbol.ID) (prog *Program, err error) {
	defer func() {
		if p := recover(); p != nil {
			ce, ok := p.(compileError)
			if !ok {
				panic(p)
			}
			err = ce.err
		}
	}()

	s := NewSerializer(table)

	s.addLabelEntry(Label(symbol.EntryID))
	s.emitImm(isa.Push, 0, false)
	s.emitImm(isa.Push, uint32(mainID), true)
	s.emit(isa.Call, isa.FcNop)
	s.emit(isa.SysCall, isa.FcExit)

	for _, d := range file.Decls {
		s.queueDecl(d)
	}
	for len(s.jobs) > 0 {
		j := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.addLabelEntry(j.label)
		j.fn(s)
	}

	s.serializeGlobalData(file)

	return s.assemble()
}

func (s *Serializer) queueDecl(d ast.Stmt) {
	switch n := d.(type) {
	case *ast.FunctionStmt:
		label := Label(n.SymbolID())
		body := n
		s.addJob(label, func(s *Serializer) { s.lowerCallableBody(&body.CallableStmt) })
	case *ast.InlineStmt:
		// inline callables are never called at runtime; they exist
		// purely as macro bodies expanded at each call site.
	case *ast.Block:
		for _, stmt := range n.Stmts {
			s.queueDecl(stmt)
		}
	}
}

// serializeGlobalData lays out one Data word (or Size words, for an
// array) per declared global variable, labeled with its own symbol id
// so a PUSH id(label-ref) anywhere resolves to its address.
func (s *Serializer) serializeGlobalData(file *ast.File) {
	for _, d := range file.Decls {
		s.serializeGlobalDataDecl(d)
	}
}

func (s *Serializer) serializeGlobalDataDecl(d ast.Stmt) {
	switch n := d.(type) {
	case *ast.VarDeclStmt:
		entry := s.table.Get(symbol.ID(n.SymbolID()))
		s.addLabelEntry(Label(entry.ID))
		s.emitData(imm32(entry.Value))
		for i := uint32(1); i < entry.Size; i++ {
			s.emitData(0)
		}
	case *ast.Block:
		for _, stmt := range n.Stmts {
			s.serializeGlobalDataDecl(stmt)
		}
	}
}

// lowerCallableBody lowers a function's prologue, body, and an
// unconditional `return 0` epilogue; the peephole combiner elides the
// epilogue whenever the body already ends in an explicit return, since
// a Ret (like a Jump) absorbs anything the combiner finds after it.
func (s *Serializer) lowerCallableBody(c *ast.CallableStmt) {
	s.emitImm(isa.AddSp, c.FrameSize, false)
	s.lowerStmt(c.Body)
	s.emitImm(isa.Push, 0, false)
	s.emit(isa.Ret, isa.FcNop)
}

func (s *Serializer) lowerStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.EmptyStmt:
	case *ast.ExprStmt:
		s.lowerExpr(n.Expr)
		s.emit(isa.Pop, isa.FcNop)
	case *ast.Block:
		for _, st := range n.Stmts {
			s.lowerStmt(st)
		}
	case *ast.IfStmt:
		s.lowerIf(n)
	case *ast.ForStmt:
		s.lowerFor(n)
	case *ast.ReturnStmt:
		if n.Operand != nil {
			s.lowerExpr(n.Operand)
		} else {
			s.emitImm(isa.Push, 0, false)
		}
		s.emit(isa.Ret, isa.FcNop)
	case *ast.VarDeclStmt:
		s.lowerVarDecl(n)
	case *ast.AliasStmt, *ast.TypeDeclStmt:
		// purely compile-time; no code
	default:
		s.fatalf(stmt.Tok(), "compiler: unsupported statement %s", stmt)
	}
}

func (s *Serializer) lowerIf(n *ast.IfStmt) {
	lfalse := s.GetLabel()
	s.lowerExpr(n.Cond)
	s.emitImm(isa.BrFalse, uint32(lfalse), true)
	s.lowerStmt(n.CaseTrue)
	if n.CaseFalse != nil {
		lend := s.GetLabel()
		s.emitImm(isa.Jump, uint32(lend), true)
		s.addLabelEntry(lfalse)
		s.lowerStmt(n.CaseFalse)
		s.addLabelEntry(lend)
	} else {
		s.addLabelEntry(lfalse)
	}
}

// lowerFor lowers `for (init; cond; post) body` with the condition at
// the loop's tail:
//
//	init; JUMP lcond; lbody: body; post; lcond: cond; BRTRUE lbody
//
// so each iteration runs exactly one branch. An empty cond pushes a
// constant 1, which the combiner folds with the BrTrue into an
// unconditional jump back to lbody.
func (s *Serializer) lowerFor(n *ast.ForStmt) {
	lbody := s.GetLabel()
	lcond := s.GetLabel()

	if n.Init != nil {
		s.lowerStmt(n.Init)
	}
	s.emitImm(isa.Jump, uint32(lcond), true)
	s.addLabelEntry(lbody)
	s.lowerStmt(n.Body)
	if n.Post != nil {
		s.lowerStmt(n.Post)
	}
	s.addLabelEntry(lcond)
	if n.Cond != nil {
		s.lowerExpr(n.Cond)
	} else {
		s.emitImm(isa.Push, 1, false)
	}
	s.emitImm(isa.BrTrue, uint32(lbody), true)
}

// lowerVarDecl lowers a local declaration's initializer, if any, as a
// store through the declared variable's own address; a bare `var x;`
// with no initializer emits no code at all (the frame slot is
// whatever AddSp left there).
func (s *Serializer) lowerVarDecl(n *ast.VarDeclStmt) {
	if n.Init == nil {
		return
	}
	s.lowerLocalAddress(n.Tok(), symbol.ID(n.SymbolID()))
	s.lowerExpr(n.Init)
	s.emit(isa.Binary, isa.FcAssign)
	s.emit(isa.Pop, isa.FcNop)
}

func (s *Serializer) lowerLocalAddress(tok token.Value, id symbol.ID) {
	entry := s.resolveEntry(id)
	if entry.StorageType != symbol.Relative {
		s.fatalf(tok, "compiler: expected a local variable, got %s", entry.StorageType)
	}
	s.emitImm(isa.Push, imm32(entry.Value), false)
	s.emit(isa.LoadAddrRel, isa.FcNop)
}
