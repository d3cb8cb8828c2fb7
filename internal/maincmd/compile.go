package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/compiler"
	"github.com/Niels862/flexul/lang/parser"
	"github.com/Niels862/flexul/lang/resolver"
	"github.com/Niels862/flexul/lang/token"
	"github.com/Niels862/flexul/lang/vm"
)

// Options mirrors the CLI flags, kept independent of mainer so the
// pipeline itself (RunFile) can be driven directly from tests without
// going through flag parsing.
type Options struct {
	Tree          bool
	TreeAll       bool
	TreePointers  bool
	TreeTypes     bool
	TreeSymbolIDs bool
	Stats         bool
	Dis           bool
	Symbols       bool
	NoExec        bool

	Runtime RuntimeConfig
}

// Result is what RunFile reports back to its caller (Cmd.Main or a
// test), separate from the error return: a compile/runtime error always
// means the CLI process exits 1, regardless of what the VM's own exit
// code was.
type Result struct {
	// Exited is true once the VM actually ran (false if NoExec was set
	// or a compile-time error aborted the pipeline first).
	Exited   bool
	ExitCode int32
}

// RunFile drives the single end-to-end pipeline: parse, resolve, lower
// to bytecode, then print whichever artifacts opts asks for and, unless
// NoExec, run the program. The first error at any stage aborts the rest
// of the pipeline; stdout/stderr are stdio's, matching printError's
// existing contract.
func RunFile(ctx context.Context, stdout, stderr io.Writer, opts Options, path string) (Result, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return Result{}, err
	}

	res, err := resolver.Resolve(file)
	if err != nil {
		return Result{}, err
	}

	if opts.Tree || opts.TreeAll {
		printer := ast.Printer{
			Output:        stdout,
			Pos:           token.PosLong,
			ShowPointers:  opts.TreePointers || opts.TreeAll,
			ShowTypes:     opts.TreeTypes || opts.TreeAll,
			ShowSymbolIDs: opts.TreeSymbolIDs || opts.TreeAll,
		}
		if err := printer.Print(file); err != nil {
			return Result{}, err
		}
	}

	prog, err := compiler.Serialize(file, res.Table, res.MainID)
	if err != nil {
		return Result{}, err
	}

	if opts.Dis {
		if err := compiler.Disassemble(stdout, prog); err != nil {
			return Result{}, err
		}
	}

	if opts.Symbols {
		if err := dumpSymbols(stdout, res.Table); err != nil {
			return Result{}, err
		}
	}

	if opts.NoExec {
		return Result{}, nil
	}

	m := vm.New(prog)
	m.Stdout = stdout
	m.Stderr = stderr
	m.MaxStackWords = opts.Runtime.MaxStackWords
	m.TraceOverrun = opts.Runtime.TraceOverrun

	exit, err := m.Run(ctx)
	if err != nil {
		return Result{}, err
	}

	fmt.Fprintf(stdout, "Program finished with exit code %d (%d)\n", uint32(exit), exit)
	if opts.Stats {
		printStats(stdout, m.Stats())
	}

	return Result{Exited: true, ExitCode: exit}, nil
}

func printStats(w io.Writer, s vm.Stats) {
	fmt.Fprintf(w, "instructions executed: %d\n", s.InstructionsCompleted)
	fmt.Fprintf(w, "execution time: %s\n", s.ExecutionTime)
	fmt.Fprintf(w, "instructions/sec: %.0f\n", s.InstructionsPerSecond())
	fmt.Fprintf(w, "peak stack words: %d\n", s.PeakStackWords)
}
