package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/lang/compiler"
	"github.com/Niels862/flexul/lang/isa"
)

func TestProgramWriteReadRoundTrip(t *testing.T) {
	prog := &compiler.Program{
		Words: []int32{
			compiler.EncodeWord(isa.Push, isa.FcNop, true), 42,
			compiler.EncodeWord(isa.SysCall, isa.FcExit, false),
		},
	}

	var buf bytes.Buffer
	n, err := prog.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 4*len(prog.Words), n)

	// little-endian, no header: the first byte is Push's opcode bits.
	assert.Equal(t, byte(uint32(isa.Push)|0x80), buf.Bytes()[0])

	got, err := compiler.ReadProgram(&buf)
	require.NoError(t, err)
	assert.Equal(t, prog.Words, got.Words)
}

func TestReadProgramRejectsTruncatedStream(t *testing.T) {
	_, err := compiler.ReadProgram(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}
