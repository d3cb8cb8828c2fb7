// Package compiler lowers a resolved AST to the flat word stream the
// virtual machine executes. Lowering proceeds in three steps: nodes are
// walked to produce a list of StackEntry values (instructions, data
// words, and label markers); a peephole combiner fuses adjacent entries
// to a fixed point after every append; and a two-pass assembler resolves
// labels and packs the final []int32 word stream.
package compiler

import "github.com/Niels862/flexul/lang/isa"

// EntryKind tags a StackEntry's role in the pre-assembly entry list.
type EntryKind int

const (
	EntryInstruction EntryKind = iota
	EntryData
	EntryLabel
)

// Label is a symbolic placeholder for a code address, resolved to a
// concrete word index by Assemble. Label values share the id space of
// symbol.ID but are never registered in the symbol table; a Serializer
// allocates them from a counter seeded above every symbol id already in
// use, so they can never collide with a real declared symbol.
type Label uint32

// StackEntry is one element of the Serializer's pre-assembly entry
// list: an Instruction (opcode/funccode/optional immediate), a Data
// word, or a Label marker pinning a position in the output.
type StackEntry struct {
	Kind     EntryKind
	OpCode   isa.OpCode
	FuncCode isa.FuncCode

	// Immediate is this entry's data payload: the instruction's inline
	// operand (if HasImmediate), the raw word (for EntryData), or the
	// label id (for EntryLabel).
	Immediate uint32
	// HasImmediate marks an Instruction as carrying a trailing immediate
	// word (bit 7 of the encoded instruction word).
	HasImmediate bool
	// ReferencesLabel marks Immediate as a Label id to be resolved to a
	// word address at assembly time, rather than a literal value.
	ReferencesLabel bool
}

// Instr builds a no-immediate instruction, e.g. Ret or LoadAbs with its
// operand left for the peephole combiner to fuse from a preceding Push.
func Instr(op isa.OpCode, fc isa.FuncCode) StackEntry {
	return StackEntry{Kind: EntryInstruction, OpCode: op, FuncCode: fc}
}

// InstrImm builds an instruction with an explicit inline immediate and
// no funccode (Push, Jump, BrTrue, BrFalse, AddSp, LoadRel, ...).
func InstrImm(op isa.OpCode, imm uint32, refLabel bool) StackEntry {
	return StackEntry{Kind: EntryInstruction, OpCode: op, Immediate: imm, HasImmediate: true, ReferencesLabel: refLabel}
}

// InstrFuncImm builds an instruction with both a funccode and an
// explicit inline immediate (not used by any current lowering, kept for
// symmetry with the original's three-argument instr constructor).
func InstrFuncImm(op isa.OpCode, fc isa.FuncCode, imm uint32, refLabel bool) StackEntry {
	return StackEntry{Kind: EntryInstruction, OpCode: op, FuncCode: fc, Immediate: imm, HasImmediate: true, ReferencesLabel: refLabel}
}

// LabelEntry pins label at the current output position.
func LabelEntry(label Label) StackEntry {
	return StackEntry{Kind: EntryLabel, Immediate: uint32(label)}
}

// Size reports this entry's width in 32-bit words once assembled.
func (e StackEntry) Size() int {
	switch e.Kind {
	case EntryInstruction:
		if e.HasImmediate {
			return 2
		}
		return 1
	case EntryData:
		return 1
	default: // EntryLabel
		return 0
	}
}

// HasNoEffect reports whether e can be dropped without changing
// semantics: a bare Nop, or an AddSp 0.
func (e StackEntry) HasNoEffect() bool {
	if e.Kind != EntryInstruction {
		return false
	}
	if e.OpCode == isa.Nop {
		return true
	}
	if e.OpCode == isa.AddSp && e.HasImmediate && !e.ReferencesLabel && e.Immediate == 0 {
		return true
	}
	return false
}

// Combine attempts to fuse left (e) followed by right into a single
// entry. It reports whether a fusion applies; if so, combined holds
// the replacement for the pair.
func (e StackEntry) Combine(right StackEntry) (combined StackEntry, ok bool) {
	if e.Kind != EntryInstruction || right.Kind != EntryInstruction {
		return StackEntry{}, false
	}
	if e.HasNoEffect() {
		return right, true
	}
	if right.HasNoEffect() {
		return e, true
	}
	if e.OpCode == isa.Jump || e.OpCode == isa.Ret {
		// unreachable code after an unconditional jump/return is dropped
		return e, true
	}
	if e.OpCode == isa.Push && e.HasImmediate && !e.ReferencesLabel &&
		right.HasImmediate && (right.OpCode == isa.BrTrue || right.OpCode == isa.BrFalse) {
		taken := (e.Immediate != 0 && right.OpCode == isa.BrTrue) ||
			(e.Immediate == 0 && right.OpCode == isa.BrFalse)
		if taken {
			return InstrImm(isa.Jump, right.Immediate, right.ReferencesLabel), true
		}
		return Instr(isa.Nop, isa.FcNop), true
	}
	if e.OpCode == isa.Push && e.HasImmediate && !right.HasImmediate &&
		!(right.OpCode == isa.SysCall && right.FuncCode == isa.FcGetC) {
		// GetC is excluded: it is the one opcode that consumes no
		// operand, so a preceding push is not its operand and fusing it
		// away would drop a live stack value.
		return StackEntry{
			Kind: EntryInstruction, OpCode: right.OpCode, FuncCode: right.FuncCode,
			Immediate: e.Immediate, HasImmediate: true, ReferencesLabel: e.ReferencesLabel,
		}, true
	}
	return StackEntry{}, false
}
