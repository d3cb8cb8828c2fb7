package compiler

import (
	"fmt"
	"io"

	"github.com/Niels862/flexul/lang/isa"
)

// Disassemble writes prog's word stream to w, one instruction per line,
// address-prefixed, for the --dis CLI flag.
func Disassemble(w io.Writer, prog *Program) error {
	words := prog.Words
	for addr := 0; addr < len(words); {
		op, fc, hasImm := DecodeWord(words[addr])
		line := fmt.Sprintf("%6d: %-12s", addr, op)
		addr++
		if hasImm {
			if addr >= len(words) {
				return fmt.Errorf("compiler: truncated instruction at word %d", addr-1)
			}
			line += fmt.Sprintf(" %s %d", funcCodeString(op, fc), words[addr])
			addr++
		} else if op == isa.SysCall || op == isa.Unary || op == isa.Binary {
			line += " " + funcCodeString(op, fc)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func funcCodeString(op isa.OpCode, fc isa.FuncCode) string {
	switch op {
	case isa.Binary:
		return fc.StringBinary()
	case isa.Unary:
		return "neg" // FcNeg is the only unary funccode; it shares Binary's numeric space
	case isa.SysCall:
		return fc.StringSysCall()
	default:
		return ""
	}
}
