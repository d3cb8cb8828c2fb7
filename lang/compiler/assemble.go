package compiler

import (
	"fmt"

	"github.com/Niels862/flexul/lang/isa"
	"github.com/Niels862/flexul/lang/symbol"
)

const (
	opcodeMask   = 0x7F
	hasImmBit    = 0x80
	funcCodeShift = 8
)

// EncodeWord packs op, fc, and the has-immediate flag into a single
// instruction word: bits [6:0] opcode, bit 7 has-immediate, bits
// [15:8] funccode.
func EncodeWord(op isa.OpCode, fc isa.FuncCode, hasImm bool) int32 {
	w := uint32(op) & opcodeMask
	if hasImm {
		w |= hasImmBit
	}
	w |= uint32(fc) << funcCodeShift
	return int32(w)
}

// DecodeWord unpacks a single instruction word.
func DecodeWord(w int32) (op isa.OpCode, fc isa.FuncCode, hasImm bool) {
	u := uint32(w)
	op = isa.OpCode(u & opcodeMask)
	hasImm = u&hasImmBit != 0
	fc = isa.FuncCode((u >> funcCodeShift) & 0xFF)
	return
}

// assemble runs the two-pass assembler over s.entries: pass 1 computes
// each label's word address by walking entry sizes; pass 2 emits the
// final word stream, resolving every label-referencing immediate.
func (s *Serializer) assemble() (*Program, error) {
	addrs := make(map[uint32]int)
	addr := 0
	for _, e := range s.entries {
		if e.Kind == EntryLabel {
			if _, ok := addrs[e.Immediate]; ok {
				return nil, fmt.Errorf("compiler: label %d defined twice", e.Immediate)
			}
			addrs[e.Immediate] = addr
			continue
		}
		addr += e.Size()
	}

	words := make([]int32, 0, addr)
	for _, e := range s.entries {
		switch e.Kind {
		case EntryLabel:
			continue
		case EntryData:
			words = append(words, int32(e.Immediate))
		case EntryInstruction:
			words = append(words, EncodeWord(e.OpCode, e.FuncCode, e.HasImmediate))
			if e.HasImmediate {
				imm := e.Immediate
				if e.ReferencesLabel {
					resolved, ok := addrs[imm]
					if !ok {
						return nil, fmt.Errorf("compiler: unresolved label %d", imm)
					}
					imm = uint32(resolved)
				}
				words = append(words, int32(imm))
			}
		}
	}

	return &Program{Words: words, EntryPoint: addrs[uint32(symbol.EntryID)]}, nil
}
