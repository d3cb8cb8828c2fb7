// Package resolver runs two-pass symbol resolution: a global pass that
// declares every top-level name (so
// forward references between functions work) followed by a local pass
// that resolves each callable's body, assigns frame-relative offsets to
// its parameters and locals, and stamps every identifier and call site
// in the AST with the symbol id (and a light best-effort type) it
// resolved to. The output feeds lang/compiler, which assumes every node
// it walks already carries a resolved SymbolID.
package resolver

import (
	"fmt"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/isa"
	"github.com/Niels862/flexul/lang/symbol"
	"github.com/Niels862/flexul/lang/token"
)

// Error reports a resolution error at a source position.
type Error struct {
	Got token.Value
	Msg string
}

func (e *Error) Error() string {
	pos := token.FormatPosition(token.PosLong, e.Got)
	if pos != "" {
		return fmt.Sprintf("%s: %s", pos, e.Msg)
	}
	return e.Msg
}

type resolveError struct{ err error }

// Result is the output of a successful Resolve: the fully-populated
// symbol table, its global scope map, and the resolved id of the
// program's entry function.
type Result struct {
	Table  *symbol.Table
	Global *symbol.Map
	MainID symbol.ID
}

type resolver struct {
	table  *symbol.Table
	global *symbol.Map

	// blocks is the stack of name-visibility scopes within the function
	// or lambda currently being resolved; it is swapped out entirely
	// whenever a nested lambda is entered, since this implementation
	// does not support closures over an enclosing callable's locals.
	blocks     []*symbol.Map
	containers symbol.Containers

	typedefs  map[string]bool
	declTypes map[symbol.ID]ast.TypeNode

	mainID   symbol.ID
	haveMain bool
}

func (r *resolver) fatalf(tok token.Value, format string, args ...any) {
	panic(resolveError{&Error{Got: tok, Msg: fmt.Sprintf(format, args...)}})
}

func (r *resolver) pushBlock(m *symbol.Map)   { r.blocks = append(r.blocks, m) }
func (r *resolver) popBlock()                 { r.blocks = r.blocks[:len(r.blocks)-1] }
func (r *resolver) currentBlock() *symbol.Map { return r.blocks[len(r.blocks)-1] }

// lookup walks the current function's block scopes innermost-first,
// then falls back to the global scope.
func (r *resolver) lookup(name string) (symbol.ID, bool) {
	for i := len(r.blocks) - 1; i >= 0; i-- {
		if id, ok := r.blocks[i].Get(name); ok {
			return id, true
		}
	}
	return r.global.Get(name)
}

// Resolve runs both passes over file and returns the populated symbol
// table, or the first resolution error encountered.
func Resolve(file *ast.File) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			re, ok := p.(resolveError)
			if !ok {
				panic(p)
			}
			err = re.err
		}
	}()

	table := symbol.NewTable()
	global := symbol.NewMap(64)
	table.DeclarePredefined(global)

	r := &resolver{
		table:     table,
		global:    global,
		typedefs:  map[string]bool{"int": true},
		declTypes: map[symbol.ID]ast.TypeNode{},
	}

	r.declareGlobals(file)
	if !r.haveMain {
		r.fatalf(file.Tok(), "no main function declared")
	}
	r.resolveGlobalBodies(file)

	return &Result{Table: table, Global: global, MainID: r.mainID}, nil
}

// declareGlobals is pass 1: it declares every top-level name, so a
// function may call another function declared later in the file.
func (r *resolver) declareGlobals(file *ast.File) {
	for _, d := range file.Decls {
		r.declareGlobal(d)
	}
}

func (r *resolver) declareGlobal(d ast.Stmt) {
	switch n := d.(type) {
	case *ast.FunctionStmt:
		id := r.declareCallable(n.Name, n, len(n.Params))
		n.SetSymbolID(uint32(id))
		if n.Name == "main" {
			if r.haveMain {
				r.fatalf(n.Tok(), "multiple definitions of main")
			}
			if len(n.Params) != 0 {
				r.fatalf(n.Tok(), "main must take no arguments")
			}
			r.mainID, r.haveMain = id, true
		}
	case *ast.InlineStmt:
		id := r.declareCallable(n.Name, n, len(n.Params))
		n.SetSymbolID(uint32(id))
	case *ast.TypeDeclStmt:
		if r.typedefs[n.Name] {
			r.fatalf(n.Tok(), "redeclared type: %s", n.Name)
		}
		r.typedefs[n.Name] = true
	case *ast.AliasStmt:
		target, ok := r.global.Get(n.Target)
		if !ok {
			r.fatalf(n.Tok(), "undefined: %s", n.Target)
		}
		id, err := r.table.Declare(r.global, n.Name, symbol.Alias, int64(target), 0, n)
		if err != nil {
			r.fatalf(n.Tok(), "%s", err)
		}
		n.SetSymbolID(uint32(id))
	case *ast.VarDeclStmt:
		r.declareGlobalVar(n)
	case *ast.Block:
		// an unscoped wrapper around a comma-separated var-decl list
		for _, s := range n.Stmts {
			r.declareGlobal(s)
		}
	default:
		r.fatalf(d.Tok(), "unsupported top-level declaration: %s", d)
	}
}

// declareCallable declares the overload umbrella for name on first use
// and always allocates a fresh member id for this specific declaration,
// appended to the umbrella's Overloads.
func (r *resolver) declareCallable(name string, node ast.Stmt, arity int) symbol.ID {
	var callableID symbol.ID
	if existing, ok := r.global.Get(name); ok {
		entry := r.table.Get(existing)
		if entry.StorageType != symbol.Callable {
			r.fatalf(node.Tok(), "redeclared symbol: %s", name)
		}
		callableID = existing
	} else {
		var err error
		callableID, err = r.table.Declare(r.global, name, symbol.Callable, 0, 0, nil)
		if err != nil {
			r.fatalf(node.Tok(), "%s", err)
		}
	}

	entry := r.table.Get(callableID)
	for _, ov := range entry.Overloads {
		if paramCount(ov.Node) == arity {
			r.fatalf(node.Tok(), "%s: an overload taking %d argument(s) is already declared", name, arity)
		}
	}

	memberID := r.table.DeclareAnon(name, symbol.Label, 0, 0, node)
	entry.Overloads = append(entry.Overloads, symbol.Overload{Node: node, ID: memberID})
	return memberID
}

func (r *resolver) declareGlobalVar(n *ast.VarDeclStmt) {
	size := uint32(1)
	if n.Size != nil {
		lit, ok := n.Size.(*ast.LiteralExpr)
		if !ok {
			r.fatalf(n.Size.Tok(), "array size must be a constant literal")
		}
		size = uint32(lit.Value)
	}

	var initVal int64
	if n.Init != nil {
		lit, ok := n.Init.(*ast.LiteralExpr)
		if !ok {
			r.fatalf(n.Init.Tok(), "global initializer must be a constant literal")
		}
		initVal = lit.Value
	}

	id, err := r.table.Declare(r.global, n.Name, symbol.Absolute, initVal, size, n)
	if err != nil {
		r.fatalf(n.Tok(), "%s", err)
	}
	n.SetSymbolID(uint32(id))
	if n.Type != nil {
		r.checkType(n.Type)
		r.declTypes[id] = n.Type
	}
}

func (r *resolver) checkType(t ast.TypeNode) {
	nt, ok := t.(*ast.NamedTypeNode)
	if !ok {
		return
	}
	if !r.typedefs[nt.Name] {
		r.fatalf(nt.Tok(), "unknown type: %s", nt.Name)
	}
}

func paramCount(node any) int {
	switch n := node.(type) {
	case *ast.FunctionStmt:
		return len(n.Params)
	case *ast.InlineStmt:
		return len(n.Params)
	default:
		return -1
	}
}

// resolveGlobalBodies is pass 2: it walks into every callable body and
// every global initializer, assigning frame offsets and stamping ids.
func (r *resolver) resolveGlobalBodies(file *ast.File) {
	for _, d := range file.Decls {
		r.resolveGlobalBody(d)
	}
}

func (r *resolver) resolveGlobalBody(d ast.Stmt) {
	switch n := d.(type) {
	case *ast.FunctionStmt:
		r.resolveCallable(&n.CallableStmt, false)
	case *ast.InlineStmt:
		r.resolveCallable(&n.CallableStmt, true)
	case *ast.VarDeclStmt:
		if n.Size != nil {
			r.resolveExpr(n.Size)
		}
		if n.Init != nil {
			r.resolveExpr(n.Init)
		}
	case *ast.Block:
		for _, s := range n.Stmts {
			r.resolveGlobalBody(s)
		}
	}
}

// resolveCallable resolves a function or inline body. Function
// parameters get real frame-relative storage; inline parameters get
// InlineReference storage, since their binding happens per call site in
// the compiler's macro expander, not here. Inline bodies are restricted
// to straight-line expression statements followed by an optional
// trailing return, the only shape the expander supports.
func (r *resolver) resolveCallable(c *ast.CallableStmt, inline bool) {
	r.containers.Open()
	savedBlocks := r.blocks
	r.blocks = nil

	scope := symbol.NewMap(16)
	r.pushBlock(scope)

	n := len(c.Params)
	c.ParamIDs = make([]uint32, n)
	for i, p := range c.Params {
		storageType := symbol.Relative
		if inline {
			storageType = symbol.InlineReference
		}
		id, err := r.table.Declare(scope, p.Name, storageType, int64(-3-n+i), 1, p)
		if err != nil {
			r.fatalf(p.Tok, "%s", err)
		}
		c.ParamIDs[i] = uint32(id)
	}

	body := c.Body.(*ast.Block)
	if inline {
		r.checkInlineBody(body)
	}
	for _, s := range body.Stmts {
		r.resolveStmt(s)
	}

	c.FrameSize = r.table.ResolveContainer(&r.containers)
	r.popBlock()
	r.blocks = savedBlocks

	if c.Return != nil {
		r.checkType(c.Return)
	}
}

// checkInlineBody enforces the macro-expander's supported shape: any
// number of expression/empty statements, followed by at most one
// trailing return.
func (r *resolver) checkInlineBody(body *ast.Block) {
	for i, s := range body.Stmts {
		switch s.(type) {
		case *ast.ExprStmt, *ast.EmptyStmt:
		case *ast.ReturnStmt:
			if i != len(body.Stmts)-1 {
				r.fatalf(s.Tok(), "return must be the last statement of an inline body")
			}
		default:
			r.fatalf(s.Tok(), "inline bodies support only expression statements and a trailing return")
		}
	}
}

func (r *resolver) resolveStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.EmptyStmt:
	case *ast.ExprStmt:
		r.resolveExpr(n.Expr)
	case *ast.Block:
		r.resolveBlock(n)
	case *ast.IfStmt:
		r.resolveExpr(n.Cond)
		r.resolveStmt(n.CaseTrue)
		if n.CaseFalse != nil {
			r.resolveStmt(n.CaseFalse)
		}
	case *ast.ForStmt:
		r.pushBlock(symbol.NewMap(8))
		if n.Init != nil {
			r.resolveStmt(n.Init)
		}
		if n.Cond != nil {
			r.resolveExpr(n.Cond)
		}
		if n.Post != nil {
			r.resolveStmt(n.Post)
		}
		r.resolveStmt(n.Body)
		r.popBlock()
	case *ast.ReturnStmt:
		if n.Operand != nil {
			r.resolveExpr(n.Operand)
		}
	case *ast.VarDeclStmt:
		r.resolveLocalVarDecl(n)
	case *ast.AliasStmt:
		target, ok := r.lookup(n.Target)
		if !ok {
			r.fatalf(n.Tok(), "undefined: %s", n.Target)
		}
		id, err := r.table.Declare(r.currentBlock(), n.Name, symbol.Alias, int64(target), 0, n)
		if err != nil {
			r.fatalf(n.Tok(), "%s", err)
		}
		n.SetSymbolID(uint32(id))
	case *ast.TypeDeclStmt:
		if r.typedefs[n.Name] {
			r.fatalf(n.Tok(), "redeclared type: %s", n.Name)
		}
		r.typedefs[n.Name] = true
	case *ast.FunctionStmt, *ast.InlineStmt:
		r.fatalf(s.Tok(), "nested function/inline declarations are not supported")
	default:
		r.fatalf(s.Tok(), "unsupported statement: %s", s)
	}
}

func (r *resolver) resolveBlock(b *ast.Block) {
	if b.Scoped {
		r.pushBlock(symbol.NewMap(8))
	}
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
	if b.Scoped {
		r.popBlock()
	}
}

func (r *resolver) resolveLocalVarDecl(n *ast.VarDeclStmt) {
	size := uint32(1)
	if n.Size != nil {
		r.resolveExpr(n.Size)
		lit, ok := n.Size.(*ast.LiteralExpr)
		if !ok {
			r.fatalf(n.Size.Tok(), "array size must be a constant literal")
		}
		size = uint32(lit.Value)
	}

	id, err := r.table.Declare(r.currentBlock(), n.Name, symbol.Relative, 0, size, n)
	if err != nil {
		r.fatalf(n.Tok(), "%s", err)
	}
	r.containers.Add(id)
	n.SetSymbolID(uint32(id))

	if n.Type != nil {
		r.checkType(n.Type)
		r.declTypes[id] = n.Type
	}
	if n.Init != nil {
		r.resolveExpr(n.Init)
	}
}

func (r *resolver) resolveExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		n.SetType(&ast.NamedTypeNode{Name: "int"})
	case *ast.VariableExpr:
		r.resolveVariable(n)
	case *ast.AddressOfExpr:
		if !ast.IsLvalue(n.Operand) {
			r.fatalf(n.Tok(), "operand of & must be an lvalue")
		}
		r.resolveExpr(n.Operand)
		if v, ok := n.Operand.(*ast.VariableExpr); ok {
			if resolved, err := r.table.Resolve(symbol.ID(v.SymbolID())); err == nil {
				if r.table.Get(resolved).StorageType == symbol.Absolute {
					r.fatalf(n.Tok(), "cannot take the address of global %q", v.Name)
				}
			}
		}
		n.SetType(&ast.AnyTypeNode{})
	case *ast.DereferenceExpr:
		r.resolveExpr(n.Operand)
		n.SetType(&ast.AnyTypeNode{})
	case *ast.UnaryExpr:
		r.resolveExpr(n.Operand)
		n.SetType(n.Operand.Type())
	case *ast.BinaryExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
		n.SetType(&ast.AnyTypeNode{})
	case *ast.AssignExpr:
		if !ast.IsLvalue(n.Left) {
			r.fatalf(n.Tok(), "left side of = must be an lvalue")
		}
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
		n.SetType(n.Left.Type())
	case *ast.SubscriptExpr:
		r.resolveExpr(n.Prefix)
		r.resolveExpr(n.Index)
		n.SetType(&ast.AnyTypeNode{})
	case *ast.AttributeExpr:
		r.resolveExpr(n.Left)
		n.SetType(&ast.AnyTypeNode{})
	case *ast.TernaryExpr:
		r.resolveExpr(n.Cond)
		r.resolveExpr(n.CaseTrue)
		r.resolveExpr(n.CaseFalse)
		n.SetType(n.CaseTrue.Type())
	case *ast.CallExpr:
		r.resolveCall(n)
	case *ast.LambdaExpr:
		r.resolveLambda(n)
	default:
		r.fatalf(e.Tok(), "unsupported expression: %s", e)
	}
}

func (r *resolver) resolveVariable(n *ast.VariableExpr) {
	id, ok := r.lookup(n.Name)
	if !ok {
		r.fatalf(n.Tok(), "undefined: %s", n.Name)
	}
	n.SetSymbolID(uint32(id))

	resolved, err := r.table.Resolve(id)
	if err != nil {
		r.fatalf(n.Tok(), "%s", err)
	}
	entry := r.table.Use(resolved)

	if t, ok := r.declTypes[resolved]; ok {
		n.SetType(t)
		return
	}
	if entry.StorageType == symbol.Callable {
		n.SetType(r.callableType(entry))
		return
	}
	n.SetType(&ast.AnyTypeNode{})
}

func (r *resolver) callableType(entry *symbol.Entry) ast.TypeNode {
	if len(entry.Overloads) != 1 {
		return &ast.AnyTypeNode{}
	}
	n := paramCount(entry.Overloads[0].Node)
	if n < 0 {
		return &ast.AnyTypeNode{}
	}
	items := make([]ast.TypeNode, n)
	for i := range items {
		items[i] = &ast.AnyTypeNode{}
	}
	return &ast.CallableTypeNode{Params: &ast.TypeListNode{Items: items}, Return: &ast.AnyTypeNode{}}
}

// resolveCall resolves a call expression's arguments unconditionally,
// then decides how its callee will be lowered: as an intrinsic
// instruction, a statically-selected overload (function or inline
// expansion), or (when the callee is not a bare identifier, or names a
// plain variable) a dynamic call through a runtime value.
func (r *resolver) resolveCall(call *ast.CallExpr) {
	for _, a := range call.Args {
		r.resolveExpr(a)
	}
	call.SetType(&ast.AnyTypeNode{})

	vexpr, ok := call.Callee.(*ast.VariableExpr)
	if !ok {
		r.resolveExpr(call.Callee)
		return
	}

	id, ok := r.lookup(vexpr.Name)
	if !ok {
		r.fatalf(vexpr.Tok(), "undefined: %s", vexpr.Name)
	}
	vexpr.SetSymbolID(uint32(id))
	resolved, err := r.table.Resolve(id)
	if err != nil {
		r.fatalf(vexpr.Tok(), "%s", err)
	}
	entry := r.table.Use(resolved)

	switch entry.StorageType {
	case symbol.Intrinsic:
		in := isa.Intrinsics[entry.Value]
		if in.Arity != len(call.Args) {
			r.fatalf(call.Tok(), "%s expects %d argument(s), got %d", in.Name, in.Arity, len(call.Args))
		}
		vexpr.SetType(&ast.AnyTypeNode{})
		call.SetSymbolID(uint32(resolved))
	case symbol.Callable:
		vexpr.SetType(r.callableType(entry))
		selected := r.selectOverload(vexpr, entry, len(call.Args))
		call.SetSymbolID(uint32(selected))
	default:
		vexpr.SetType(&ast.AnyTypeNode{})
	}
}

func (r *resolver) selectOverload(vexpr *ast.VariableExpr, entry *symbol.Entry, arity int) symbol.ID {
	var match symbol.ID
	found := false
	for _, ov := range entry.Overloads {
		if paramCount(ov.Node) != arity {
			continue
		}
		if found {
			r.fatalf(vexpr.Tok(), "ambiguous call to %q: multiple overloads take %d argument(s)", vexpr.Name, arity)
		}
		match, found = ov.ID, true
	}
	if !found {
		r.fatalf(vexpr.Tok(), "no overload of %q takes %d argument(s)", vexpr.Name, arity)
	}
	return match
}

func (r *resolver) resolveLambda(n *ast.LambdaExpr) {
	r.containers.Open()
	savedBlocks := r.blocks
	r.blocks = nil

	scope := symbol.NewMap(8)
	r.pushBlock(scope)

	np := len(n.Params)
	n.ParamIDs = make([]uint32, np)
	for i, name := range n.Params {
		id, err := r.table.Declare(scope, name, symbol.Relative, int64(-3-np+i), 1, n)
		if err != nil {
			r.fatalf(n.Tok(), "%s", err)
		}
		n.ParamIDs[i] = uint32(id)
	}

	body := n.Body.(*ast.Block)
	for _, s := range body.Stmts {
		r.resolveStmt(s)
	}
	n.FrameSize = r.table.ResolveContainer(&r.containers)

	r.popBlock()
	r.blocks = savedBlocks
	n.SetType(&ast.AnyTypeNode{})
}
