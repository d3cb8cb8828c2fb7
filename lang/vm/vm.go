// Package vm implements the stack virtual machine that executes a
// compiler.Program: a single word vector doubling as both instruction
// memory and working stack, driven by a flat opcode-dispatch loop.
package vm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Niels862/flexul/lang/compiler"
	"github.com/Niels862/flexul/lang/isa"
)

// checkContextEvery bounds how often the dispatch loop checks ctx.Err();
// execution is single-threaded and has no natural suspension points, so
// the check itself is the only cancellation opportunity.
const checkContextEvery = 1 << 12

// Error reports a fatal runtime fault raised while executing a
// Program: division by zero, or an instruction word that decodes to an
// opcode/funccode pairing the machine does not recognize.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

type runtimeError struct{ err error }

// Stats records the instrumentation surfaced through the --stats flag.
type Stats struct {
	InstructionsCompleted uint64
	ExecutionTime         time.Duration

	// PeakStackWords is the largest size the combined code+stack word
	// vector reached during the run.
	PeakStackWords int
}

// SecondsPerInstruction is 0 if no instruction has completed.
func (s Stats) SecondsPerInstruction() float64 {
	if s.InstructionsCompleted == 0 {
		return 0
	}
	return s.ExecutionTime.Seconds() / float64(s.InstructionsCompleted)
}

// InstructionsPerSecond is 0 if no instruction has completed.
func (s Stats) InstructionsPerSecond() float64 {
	secs := s.ExecutionTime.Seconds()
	if s.InstructionsCompleted == 0 || secs == 0 {
		return 0
	}
	return float64(s.InstructionsCompleted) / secs
}

// Machine is a stack virtual machine over a single word vector: words
// at and above the running stack pointer are its working stack, words
// below are the program text loaded at construction. Addresses are
// plain indices into that one vector.
type Machine struct {
	// Stdout and Stdin back SYSCALL PutC/GetC. If nil, os.Stdout and
	// os.Stdin are used.
	Stdout io.Writer
	Stdin  io.Reader

	// MaxStackWords caps the combined code+stack word vector; ADDSP or a
	// push growing past it is a fatal runtime fault. 0 means unbounded.
	// Wired from internal/maincmd's RuntimeConfig (FLEXUL_MAX_STACK_WORDS).
	MaxStackWords int

	// TraceOverrun, if set, dumps the tail of the stack to Stderr (or
	// os.Stderr if nil) alongside the instruction-fetch-overread report.
	TraceOverrun bool
	Stderr       io.Writer

	stack []int32
	ip    int
	bp    int
	stdin *bufio.Reader

	stats Stats
}

// New loads prog into a fresh Machine, ip positioned at its entry
// point.
func New(prog *compiler.Program) *Machine {
	stack := make([]int32, len(prog.Words))
	copy(stack, prog.Words)
	return &Machine{stack: stack, ip: prog.EntryPoint}
}

func (m *Machine) init() {
	if m.Stdout == nil {
		m.Stdout = os.Stdout
	}
	if m.Stderr == nil {
		m.Stderr = os.Stderr
	}
	if m.stdin == nil {
		stdin := m.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		m.stdin = bufio.NewReader(stdin)
	}
}

func (m *Machine) fatalf(format string, args ...any) {
	panic(runtimeError{&Error{Msg: fmt.Sprintf(format, args...)}})
}

func (m *Machine) push(v int32) {
	m.checkStackBound(len(m.stack) + 1)
	m.stack = append(m.stack, v)
	if len(m.stack) > m.stats.PeakStackWords {
		m.stats.PeakStackWords = len(m.stack)
	}
}

func (m *Machine) pop() int32 {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) top() int32 { return m.stack[len(m.stack)-1] }

func (m *Machine) setTop(v int32) { m.stack[len(m.stack)-1] = v }

func (m *Machine) addSp(n int32) {
	size := len(m.stack) + int(n)
	if size <= len(m.stack) {
		m.stack = m.stack[:size]
		return
	}
	m.checkStackBound(size)
	for len(m.stack) < size {
		m.stack = append(m.stack, 0)
	}
	if len(m.stack) > m.stats.PeakStackWords {
		m.stats.PeakStackWords = len(m.stack)
	}
}

func (m *Machine) checkStackBound(size int) {
	if m.MaxStackWords > 0 && size > m.MaxStackWords {
		m.fatalf("vm: stack exceeded %d words", m.MaxStackWords)
	}
}

// Stats returns the instrumentation collected by the most recent Run.
func (m *Machine) Stats() Stats { return m.stats }

// Run executes the machine from its current ip until SYSCALL Exit, an
// instruction-fetch overread, or a fatal runtime fault (reported as
// err). An overread is not an error: it is reported on stderr and
// yields exit code -1. Execution is single-threaded; ctx is polled
// every checkContextEvery instructions so a caller can still interrupt
// a runaway program, the same way the CLI driver wires
// mainer.CancelOnSignal into its own pipeline.
func (m *Machine) Run(ctx context.Context) (exit int32, err error) {
	m.init()

	defer func() {
		if p := recover(); p != nil {
			re, ok := p.(runtimeError)
			if !ok {
				panic(p)
			}
			err = re.err
		}
	}()

	start := time.Now()
	m.stats = Stats{PeakStackWords: len(m.stack)}

	for m.ip < len(m.stack) {
		if m.stats.InstructionsCompleted%checkContextEvery == 0 {
			if cerr := ctx.Err(); cerr != nil {
				m.stats.ExecutionTime = time.Since(start)
				return -1, cerr
			}
		}

		word := m.stack[m.ip]
		op, fc, hasImm := compiler.DecodeWord(word)

		var operand int32
		if hasImm {
			m.ip++
			operand = m.stack[m.ip]
		} else if op != isa.Nop && !(op == isa.SysCall && fc == isa.FcGetC) {
			operand = m.pop()
		}

		switch op {
		case isa.Nop:
		case isa.SysCall:
			switch fc {
			case isa.FcExit:
				m.stats.ExecutionTime = time.Since(start)
				return operand, nil
			case isa.FcPutC:
				m.push(m.putc(operand))
			case isa.FcGetC:
				m.push(m.getc())
			default:
				m.fatalf("vm: unrecognized syscall funccode %d", fc)
			}
		case isa.Unary:
			m.push(m.unary(fc, operand))
		case isa.Binary:
			m.setTop(m.binary(fc, m.top(), operand))
		case isa.Push:
			m.push(operand)
		case isa.Pop:
		case isa.AddSp:
			m.addSp(operand)
		case isa.LoadRel:
			m.push(m.stack[m.bp+int(operand)])
		case isa.LoadAbs:
			m.push(m.stack[operand])
		case isa.LoadAddrRel:
			m.push(int32(m.bp) + operand)
		case isa.DupLoad:
			m.push(operand)
			m.push(m.stack[operand])
		case isa.Dup:
			m.push(operand)
			m.push(operand)
		case isa.Call:
			m.call(operand)
		case isa.Ret:
			m.ret(operand)
		case isa.Jump:
			m.ip = int(operand) - 1
		case isa.BrTrue:
			v := m.pop()
			if v != 0 {
				m.ip = int(operand) - 1
			}
		case isa.BrFalse:
			v := m.pop()
			if v == 0 {
				m.ip = int(operand) - 1
			}
		default:
			m.fatalf("vm: unrecognized opcode %d", op)
		}

		m.stats.InstructionsCompleted++
		m.ip++
	}

	m.stats.ExecutionTime = time.Since(start)
	fmt.Fprintf(m.Stderr, "Instruction fetch overread at %d\n", m.ip)
	if m.TraceOverrun {
		lo := m.bp - 3
		if lo < 0 || lo > len(m.stack) {
			lo = 0
		}
		fmt.Fprintf(m.Stderr, "stack tail (bp=%d): %v\n", m.bp, m.stack[lo:])
	}
	return -1, nil
}

func (m *Machine) unary(fc isa.FuncCode, a int32) int32 {
	switch fc {
	case isa.FcNop:
		return a
	case isa.FcNeg:
		return -a
	default:
		m.fatalf("vm: unrecognized unary funccode %d", fc)
		return 0
	}
}

// binary implements BINARY: a is the value left below the (already
// consumed) operand on the stack, b is the operand itself.
func (m *Machine) binary(fc isa.FuncCode, a, b int32) int32 {
	switch fc {
	case isa.FcNop:
		return a
	case isa.FcAdd:
		return a + b
	case isa.FcSub:
		return a - b
	case isa.FcMul:
		return a * b
	case isa.FcDiv:
		if b == 0 {
			m.fatalf("vm: division by zero")
		}
		return a / b
	case isa.FcMod:
		if b == 0 {
			m.fatalf("vm: division by zero")
		}
		return a % b
	case isa.FcEquals:
		return boolWord(a == b)
	case isa.FcNotEquals:
		return boolWord(a != b)
	case isa.FcLessThan:
		return boolWord(a < b)
	case isa.FcLessEquals:
		return boolWord(a <= b)
	case isa.FcAssign:
		m.stack[a] = b
		return b
	default:
		m.fatalf("vm: unrecognized binary funccode %d", fc)
		return 0
	}
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// call pushes a new activation record: saved bp, saved ip, then moves
// bp above them and ip to addr - 1 (the loop's trailing ip++ lands
// exactly on addr).
func (m *Machine) call(addr int32) {
	m.push(int32(m.bp))
	m.push(int32(m.ip))
	m.bp = len(m.stack)
	m.ip = int(addr) - 1
}

// ret tears down the activation record at bp (laid out by call plus
// the n_args word the caller pushed before it), leaving the return
// value as the new top of the caller's stack.
func (m *Machine) ret(retVal int32) {
	nArgs := m.stack[m.bp-3]
	savedBp := m.stack[m.bp-2]
	savedIp := m.stack[m.bp-1]
	m.stack = m.stack[:m.bp-3-int(nArgs)]
	m.push(retVal)
	m.bp = int(savedBp)
	m.ip = int(savedIp)
}

func (m *Machine) putc(v int32) int32 {
	n, err := m.Stdout.Write([]byte{byte(v)})
	if err != nil || n == 0 {
		return -1
	}
	return v
}

func (m *Machine) getc() int32 {
	b, err := m.stdin.ReadByte()
	if err != nil {
		return -1
	}
	return int32(b)
}
