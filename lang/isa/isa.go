// Package isa defines the instruction set shared by the serializer, the
// assembler, and the virtual machine: opcodes, function codes, and the
// fixed table of intrinsic callables. It has no dependencies so that
// every other lang/ package can sit on top of it without a cycle.
package isa

// OpCode is the instruction family packed into bits [6:0] of an
// instruction word (see compiler.EncodeWord).
type OpCode uint8

const (
	Nop OpCode = iota
	SysCall
	Unary
	Binary
	Push
	Pop
	AddSp
	LoadRel
	LoadAbs
	LoadAddrRel
	DupLoad
	Dup
	Call
	Ret
	Jump
	BrTrue
	BrFalse
)

var opcodeNames = [...]string{
	Nop: "nop", SysCall: "syscall", Unary: "unary", Binary: "binary",
	Push: "push", Pop: "pop", AddSp: "addsp", LoadRel: "loadrel",
	LoadAbs: "loadabs", LoadAddrRel: "loadaddrrel", DupLoad: "dupload",
	Dup: "dup", Call: "call", Ret: "ret", Jump: "jump",
	BrTrue: "brtrue", BrFalse: "brfalse",
}

func (o OpCode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return "opcode(?)"
}

// FuncCode qualifies Binary, Unary, and SysCall instructions, packed
// into bits [15:8] of an instruction word.
type FuncCode uint8

const (
	// Binary func codes.
	FcNop FuncCode = iota
	FcAdd
	FcSub
	FcMul
	FcDiv
	FcMod
	FcEquals
	FcNotEquals
	FcLessThan
	FcLessEquals
	FcAssign

	// Unary func codes share the numeric space; only FcNeg is used.
	FcNeg FuncCode = 1

	// SysCall func codes share the numeric space too.
	FcExit FuncCode = 1
	FcPutC FuncCode = 2
	FcGetC FuncCode = 3
)

var binaryFuncNames = [...]string{
	FcNop: "nop", FcAdd: "add", FcSub: "sub", FcMul: "mul", FcDiv: "div",
	FcMod: "mod", FcEquals: "eq", FcNotEquals: "neq", FcLessThan: "lt",
	FcLessEquals: "le", FcAssign: "assign",
}

// StringBinary renders a FuncCode under Binary opcode semantics.
func (f FuncCode) StringBinary() string {
	if int(f) < len(binaryFuncNames) {
		return binaryFuncNames[f]
	}
	return "func(?)"
}

// StringSysCall renders a FuncCode under SysCall opcode semantics.
func (f FuncCode) StringSysCall() string {
	switch f {
	case FcExit:
		return "exit"
	case FcPutC:
		return "putc"
	case FcGetC:
		return "getc"
	default:
		return "func(?)"
	}
}

// Intrinsic describes one entry of the fixed intrinsic table: a source
// name, its arity, and the single instruction it lowers to.
type Intrinsic struct {
	Name     string
	Arity    int
	OpCode   OpCode
	FuncCode FuncCode
}

// Intrinsics is the fixed, ordered intrinsic table. Order matters: a
// symbol's Intrinsic storage value is its index here.
var Intrinsics = []Intrinsic{
	{"__exit__", 1, SysCall, FcExit},
	{"__putc__", 1, SysCall, FcPutC},
	{"__getc__", 0, SysCall, FcGetC},
	{"__ineg__", 1, Unary, FcNeg},
	{"__iadd__", 2, Binary, FcAdd},
	{"__isub__", 2, Binary, FcSub},
	{"__idiv__", 2, Binary, FcDiv},
	{"__imul__", 2, Binary, FcMul},
	{"__imod__", 2, Binary, FcMod},
	{"__ieq__", 2, Binary, FcEquals},
	{"__ineq__", 2, Binary, FcNotEquals},
	{"__ilt__", 2, Binary, FcLessThan},
	{"__ile__", 2, Binary, FcLessEquals},
}
