package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/lang/compiler"
	"github.com/Niels862/flexul/lang/isa"
)

func TestCombinePushZeroBrFalseBecomesJump(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 0, false)
	br := compiler.InstrImm(isa.BrFalse, 42, false)

	combined, ok := push.Combine(br)
	require.True(t, ok)
	assert.Equal(t, isa.Jump, combined.OpCode)
	assert.Equal(t, uint32(42), combined.Immediate)
}

func TestCombinePushOneBrFalseBecomesNop(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 1, false)
	br := compiler.InstrImm(isa.BrFalse, 42, false)

	combined, ok := push.Combine(br)
	require.True(t, ok)
	assert.Equal(t, isa.Nop, combined.OpCode)
}

func TestCombinePushZeroBrTrueBecomesNop(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 0, false)
	br := compiler.InstrImm(isa.BrTrue, 42, false)

	combined, ok := push.Combine(br)
	require.True(t, ok)
	assert.Equal(t, isa.Nop, combined.OpCode)
}

func TestCombinePushOneBrTrueBecomesJump(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 1, false)
	br := compiler.InstrImm(isa.BrTrue, 42, false)

	combined, ok := push.Combine(br)
	require.True(t, ok)
	assert.Equal(t, isa.Jump, combined.OpCode)
	assert.Equal(t, uint32(42), combined.Immediate)
}

func TestCombinePushFusesIntoFollowingImmediate(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 7, false)
	add := compiler.Instr(isa.Binary, isa.FcAdd)

	combined, ok := push.Combine(add)
	require.True(t, ok)
	assert.Equal(t, isa.Binary, combined.OpCode)
	assert.Equal(t, isa.FcAdd, combined.FuncCode)
	assert.True(t, combined.HasImmediate)
	assert.Equal(t, uint32(7), combined.Immediate)
}

func TestCombineJumpDropsUnreachableRight(t *testing.T) {
	jump := compiler.InstrImm(isa.Jump, 1, true)
	push := compiler.InstrImm(isa.Push, 7, false)

	combined, ok := jump.Combine(push)
	require.True(t, ok)
	assert.Equal(t, isa.Jump, combined.OpCode)
}

func TestCombineRetDropsUnreachableRight(t *testing.T) {
	ret := compiler.Instr(isa.Ret, isa.FcNop)
	push := compiler.InstrImm(isa.Push, 7, false)

	combined, ok := ret.Combine(push)
	require.True(t, ok)
	assert.Equal(t, isa.Ret, combined.OpCode)
}

func TestCombineNoOpSidesDropOut(t *testing.T) {
	nop := compiler.Instr(isa.Nop, isa.FcNop)
	push := compiler.InstrImm(isa.Push, 7, false)

	combined, ok := nop.Combine(push)
	require.True(t, ok)
	assert.Equal(t, isa.Push, combined.OpCode)

	combined, ok = push.Combine(nop)
	require.True(t, ok)
	assert.Equal(t, isa.Push, combined.OpCode)
}

// GetC takes no operand, so a preceding push is a live stack value and
// must survive it.
func TestCombinePushDoesNotFuseIntoGetC(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 7, false)
	getc := compiler.Instr(isa.SysCall, isa.FcGetC)
	_, ok := push.Combine(getc)
	assert.False(t, ok)
}

func TestCombineDoesNotApplyAcrossLabelOrData(t *testing.T) {
	push := compiler.InstrImm(isa.Push, 7, false)
	label := compiler.LabelEntry(compiler.Label(3))
	_, ok := push.Combine(label)
	assert.False(t, ok)

	data := compiler.StackEntry{Kind: compiler.EntryData, Immediate: 9}
	_, ok = push.Combine(data)
	assert.False(t, ok)
}

// Combine is idempotent: combining a pair's result with a no-op neighbor
// returns that result unchanged.
func TestCombineIsIdempotent(t *testing.T) {
	cases := []struct{ left, right compiler.StackEntry }{
		{compiler.InstrImm(isa.Push, 0, false), compiler.InstrImm(isa.BrFalse, 42, false)},
		{compiler.InstrImm(isa.Push, 7, false), compiler.Instr(isa.Binary, isa.FcAdd)},
		{compiler.InstrImm(isa.Jump, 1, true), compiler.InstrImm(isa.Push, 7, false)},
	}
	for _, tc := range cases {
		combined, ok := tc.left.Combine(tc.right)
		require.True(t, ok)
		// a single entry can't combine with nothing; verify re-running
		// Combine against a no-op neighbor doesn't change it further.
		again, ok := combined.Combine(compiler.Instr(isa.Nop, isa.FcNop))
		require.True(t, ok)
		assert.Equal(t, combined.OpCode, again.OpCode)
		assert.Equal(t, combined.Immediate, again.Immediate)
	}
}
