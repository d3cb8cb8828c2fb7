// Package maincmd implements the flexul CLI driver: a single
// end-to-end command (parse, resolve, emit bytecode, optionally print
// artifacts, then run), wired onto github.com/mna/mainer the same way
// a multi-subcommand driver wires its verbs onto the same library.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const (
	binName   = "flexul"
	envPrefix = "FLEXUL_"
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the flexul programming language: parses
<path>, resolves and type-checks its declarations, emits bytecode, and
runs it, printing its exit code.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -t --tree                 Print the parsed/resolved AST.
       -a --tree-all             Shorthand for -t -p -y -i.
       -p --tree-pointers        With -t, annotate each node with a
                                 synthetic node sequence number.
       -y --tree-types           With -t, annotate each expression with
                                 its resolved type.
       -i --tree-symbol-ids      With -t, annotate each node with its
                                 resolved symbol id.
       -s --stats                Print run-time instrumentation after
                                 execution (instructions executed, wall
                                 time).
       -d --dis                  Print a disassembly of the emitted
                                 bytecode.
       -b --symbols              Print the resolved symbol table as YAML.
       -n --no-exec              Compile only; do not run the program.

More information on the flexul repository:
       https://github.com/Niels862/flexul
`, binName)
)

// Cmd is the CLI entry point: flag-tagged fields bound by mainer.Parser,
// plus the BuildVersion/BuildDate pair reported by --version.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Tree          bool `flag:"t,tree"`
	TreeAll       bool `flag:"a,tree-all"`
	TreePointers  bool `flag:"p,tree-pointers"`
	TreeTypes     bool `flag:"y,tree-types"`
	TreeSymbolIDs bool `flag:"i,tree-symbol-ids"`
	Stats         bool `flag:"s,stats"`
	Dis           bool `flag:"d,dis"`
	Symbols       bool `flag:"b,symbols"`
	NoExec        bool `flag:"n,no-exec"`

	args []string
}

func (c *Cmd) SetArgs(args []string)        { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces the one-positional-argument (source file path)
// contract, unless --help or --version was requested.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one source file path must be provided, got %d", len(c.args))
	}
	return nil
}

func (c *Cmd) options() Options {
	return Options{
		Tree:          c.Tree,
		TreeAll:       c.TreeAll,
		TreePointers:  c.TreePointers,
		TreeTypes:     c.TreeTypes,
		TreeSymbolIDs: c.TreeSymbolIDs,
		Stats:         c.Stats,
		Dis:           c.Dis,
		Symbols:       c.Symbols,
		NoExec:        c.NoExec,
	}
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

// Main parses args, dispatches --help/--version, and otherwise runs the
// compile-and-run pipeline against the single positional path: exit
// code 0 on success, 1 on any compile or runtime error.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: envPrefix,
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	runtimeCfg, err := loadRuntimeConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment configuration: %s\n", err)
		return mainer.InvalidArgs
	}

	opts := c.options()
	opts.Runtime = runtimeCfg

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if _, err := RunFile(ctx, stdio.Stdout, stdio.Stderr, opts, c.args[0]); err != nil {
		printError(stdio, err)
		return mainer.Failure
	}
	return mainer.Success
}
