// Package parser implements a classic recursive-descent parser over the
// flexul grammar:
//
//	file      := { top }
//	top       := function | inline | typedef | include | alias | var_decl ';'
//	function  := 'fn' IDENT '(' params ')' type? block
//	inline    := 'inline' IDENT '(' params ')' type? block
//	params    := [ IDENT { ',' IDENT } ]
//	block     := '{' { stmt } '}'
//	stmt      := if | for | while | block | ';' | 'return' expr? ';' | var_decl ';' | alias ';' | expr ';'
//	var_decl  := 'var' IDENT (':' type)? ('[' expr ']')? ('=' expr)? { ',' ... }
//	alias     := 'alias' IDENT 'for' IDENT
//	typedef   := 'typedef' IDENT 'like' type
//	expr      := lambda | assignment
//	lambda    := 'lambda' '(' params ')' block
//	assignment:= ternary ('=' expr)?            (left must be lvalue)
//	ternary   := or ('?' expr ':' expr)?
//	or        := and    { '||' and }
//	and       := eq1    { '&&' eq1 }
//	eq1       := eq2    { ('=='|'!=') eq2 }
//	eq2       := sum    { ('<'|'>'|'<='|'>=') sum }
//	sum       := term   { ('+'|'-') term }
//	term      := value  { ('*'|'/'|'%') value }
//	value     := ('+'|'-'|'!'|'&'|'*') value
//	           | INT | CHAR | IDENT | '(' expr ')'
//	           | postfix operators: '(' args ')' , '[' expr ']' , '.' IDENT
//
// Errors are fatal: the first one aborts the whole parse, so there is
// a single top-level recover rather than per-statement
// resynchronization.
package parser

import (
	"fmt"
	"os"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/scanner"
	"github.com/Niels862/flexul/lang/token"
)

// Error reports a syntax error at a source position.
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

type parseError struct{ err error }

// parser holds one token of lookahead over a Scanner.
type parser struct {
	sc  *scanner.Scanner
	tok token.Value
}

func (p *parser) init(sc *scanner.Scanner) {
	p.sc = sc
	p.advance()
}

func (p *parser) advance() {
	v, err := p.sc.Scan()
	if err != nil {
		panic(parseError{err})
	}
	p.tok = v
}

func (p *parser) at(k token.Kind) bool { return p.tok.Kind == k }

// expect consumes the current token if it matches k, else panics with a
// fatal syntax error. Returns the consumed token.
func (p *parser) expect(k token.Kind) token.Value {
	if p.tok.Kind != k {
		panic(parseError{&Error{Got: p.tok, Msg: fmt.Sprintf("expected %s, got %s", k, p.tok.Kind)}})
	}
	v := p.tok
	p.advance()
	return v
}

func (p *parser) errorf(format string, args ...any) {
	panic(parseError{&Error{Got: p.tok, Msg: fmt.Sprintf(format, args...)}})
}

// ParseFile parses a single source file (and any files it transitively
// includes) into a *ast.File.
func ParseFile(path string) (file *ast.File, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			err = pe.err
		}
	}()

	var sc scanner.Scanner
	sc.Init(path, src)

	var p parser
	p.init(&sc)
	return p.parseFile(path), nil
}

func (p *parser) parseFile(name string) *ast.File {
	f := &ast.File{Name: name}
	for !p.at(token.EOF) {
		f.Decls = append(f.Decls, p.parseTop())
	}
	return f
}

// parseTop parses a single top-level declaration.
func (p *parser) parseTop() ast.Stmt {
	switch p.tok.Kind {
	case token.FN:
		return p.parseCallable(false)
	case token.INLINE:
		return p.parseCallable(true)
	case token.TYPEDEF:
		td := p.parseTypedef()
		p.expect(token.SEMI)
		return td
	case token.INCLUDE:
		p.parseInclude()
		return p.parseTop()
	case token.ALIAS:
		a := p.parseAlias()
		p.expect(token.SEMI)
		return a
	case token.VAR:
		v := p.parseVarDecl()
		p.expect(token.SEMI)
		return v
	default:
		p.errorf("expected a top-level declaration, got %s", p.tok.Kind)
		panic("unreachable")
	}
}

// parseInclude resolves `include path.to.file;` (a dotted identifier
// path, since the token contract has no string literal kind) by mapping
// dots to path separators and splicing the referenced file's tokens
// directly into the scan stream; it produces no AST node.
func (p *parser) parseInclude() {
	p.expect(token.INCLUDE)
	path := p.expect(token.IDENT).Raw
	for p.at(token.DOT) {
		p.advance()
		path += "/" + p.expect(token.IDENT).Raw
	}
	if !p.at(token.SEMI) {
		p.errorf("expected %s, got %s", token.SEMI, p.tok.Kind)
	}

	// The include must be pushed before the ';' is consumed: consuming it
	// fetches the next token, which has to come from the included file.
	err := p.sc.PushInclude(path+".fx", os.ReadFile)
	if err != nil {
		p.errorf("cannot include %q: %s", path, err)
	}
	p.advance()
}

func (p *parser) parseTypedef() ast.Stmt {
	tok := p.expect(token.TYPEDEF)
	name := p.expect(token.IDENT).Raw
	p.expect(token.LIKE)
	typ := p.parseType()
	return &ast.TypeDeclStmt{StmtBase: newStmtBase(tok), Name: name, Like: typ}
}

func (p *parser) parseAlias() *ast.AliasStmt {
	tok := p.expect(token.ALIAS)
	name := p.expect(token.IDENT).Raw
	p.expect(token.FOR) // the 'for' keyword is reused here, as in the source grammar
	target := p.expect(token.IDENT).Raw
	return &ast.AliasStmt{StmtBase: newStmtBase(tok), Name: name, Target: target}
}

func (p *parser) parseType() ast.TypeNode {
	name := p.expect(token.IDENT).Raw
	return &ast.NamedTypeNode{TypeBase: newTypeBase(token.Value{Kind: token.IDENT, Raw: name}), Name: name}
}

func newBase(tok token.Value) ast.Base           { return ast.Base{TokVal: tok} }
func newExprBase(tok token.Value) ast.ExprBase   { return ast.ExprBase{Base: newBase(tok)} }
func newStmtBase(tok token.Value) ast.StmtBase   { return ast.StmtBase{Base: newBase(tok)} }
func newTypeBase(tok token.Value) ast.TypeBase   { return ast.TypeBase{Base: newBase(tok)} }
