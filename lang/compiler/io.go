package compiler

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteTo writes prog's words to w as concatenated little-endian 32-bit
// words, no header. It implements io.WriterTo.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 4*len(p.Words))
	for i, word := range p.Words {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(word))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadProgram reads a persisted word stream back into a Program. The
// entry point is word 0, where the assembler pins the entry label.
func ReadProgram(r io.Reader) (*Program, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("compiler: bytecode length %d is not a whole number of words", len(b))
	}
	words := make([]int32, len(b)/4)
	for i := range words {
		words[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return &Program{Words: words}, nil
}
