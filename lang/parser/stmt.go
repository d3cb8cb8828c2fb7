package parser

import (
	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/token"
)

// parseBlock parses `'{' { stmt } '}'` into a scoped block.
func (p *parser) parseBlock() *ast.Block {
	tok := p.expect(token.LBRACE)
	b := &ast.Block{StmtBase: newStmtBase(tok), Scoped: true}
	for !p.at(token.RBRACE) {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	p.expect(token.RBRACE)
	return b
}

// parseStmt parses a single statement:
//
//	stmt := if | for | while | block | ';'
//	      | 'return' expr? ';' | var_decl ';' | alias ';' | expr ';'
func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.WHILE:
		return p.parseWhile()
	case token.LBRACE:
		return p.parseBlock()
	case token.SEMI:
		tok := p.tok
		p.advance()
		return &ast.EmptyStmt{StmtBase: newStmtBase(tok)}
	case token.RETURN:
		tok := p.tok
		p.advance()
		var operand ast.Expr
		if !p.at(token.SEMI) {
			operand = p.parseExpr()
		}
		p.expect(token.SEMI)
		return &ast.ReturnStmt{StmtBase: newStmtBase(tok), Operand: operand}
	case token.VAR:
		v := p.parseVarDecl()
		p.expect(token.SEMI)
		return v
	case token.ALIAS:
		a := p.parseAlias()
		p.expect(token.SEMI)
		return a
	default:
		tok := p.tok
		e := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.ExprStmt{StmtBase: newStmtBase(tok), Expr: e}
	}
}

func (p *parser) parseIf() ast.Stmt {
	tok := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	caseTrue := p.parseStmt()
	var caseFalse ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		caseFalse = p.parseStmt()
	}
	return &ast.IfStmt{StmtBase: newStmtBase(tok), Cond: cond, CaseTrue: caseTrue, CaseFalse: caseFalse}
}

// parseFor parses `'for' '(' simple? ';' expr? ';' simple? ')' stmt`, where
// a simple statement in the init/post clause is a var_decl or an
// expr-stmt, without its own trailing ';' consumed (the surrounding
// for-header ';' plays that role).
func (p *parser) parseFor() ast.Stmt {
	tok := p.expect(token.FOR)
	p.expect(token.LPAREN)

	var init ast.Stmt
	if !p.at(token.SEMI) {
		init = p.parseSimpleStmt()
	}
	p.expect(token.SEMI)

	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var post ast.Stmt
	if !p.at(token.RPAREN) {
		post = p.parseSimpleStmt()
	}
	p.expect(token.RPAREN)

	body := p.parseStmt()
	return &ast.ForStmt{StmtBase: newStmtBase(tok), Init: init, Cond: cond, Post: post, Body: body}
}

// parseSimpleStmt parses a var_decl or a bare expression, for use in a
// for-header clause (no trailing semicolon).
func (p *parser) parseSimpleStmt() ast.Stmt {
	if p.at(token.VAR) {
		return p.parseVarDecl()
	}
	tok := p.tok
	e := p.parseExpr()
	return &ast.ExprStmt{StmtBase: newStmtBase(tok), Expr: e}
}

// parseWhile desugars `while (cond) body` to a for-loop with empty init
// and post clauses; the two forms are otherwise identical downstream.
func (p *parser) parseWhile() ast.Stmt {
	tok := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStmt()
	return &ast.ForStmt{StmtBase: newStmtBase(tok), Cond: cond, Body: body}
}

// parseVarDecl parses `'var' IDENT (':' type)? ('[' expr ']')? ('=' expr)?`
// and, since the grammar allows a comma-separated tail of further
// declarations, wraps multiple declarators in an unscoped block when more
// than one is present.
func (p *parser) parseVarDecl() ast.Stmt {
	tok := p.expect(token.VAR)
	first := p.parseVarDeclarator(tok)
	if !p.at(token.COMMA) {
		return first
	}

	b := &ast.Block{StmtBase: newStmtBase(tok), Scoped: false}
	b.Stmts = append(b.Stmts, first)
	for p.at(token.COMMA) {
		p.advance()
		dtok := p.tok
		b.Stmts = append(b.Stmts, p.parseVarDeclarator(dtok))
	}
	return b
}

func (p *parser) parseVarDeclarator(tok token.Value) *ast.VarDeclStmt {
	name := p.expect(token.IDENT).Raw

	var typ ast.TypeNode
	if p.at(token.COLON) {
		p.advance()
		typ = p.parseType()
	}

	var size ast.Expr
	if p.at(token.LBRACK) {
		p.advance()
		size = p.parseExpr()
		p.expect(token.RBRACK)
	}

	var init ast.Expr
	if p.at(token.EQ) {
		p.advance()
		init = p.parseExpr()
	}

	return &ast.VarDeclStmt{StmtBase: newStmtBase(tok), Name: name, Type: typ, Size: size, Init: init}
}

// parseCallable parses `('fn'|'inline') IDENT '(' params ')' type? block`.
// Only inline parameters may carry the `writeback` modifier.
func (p *parser) parseCallable(isInline bool) ast.Stmt {
	var tok token.Value
	if isInline {
		tok = p.expect(token.INLINE)
	} else {
		tok = p.expect(token.FN)
	}
	name := p.expect(token.IDENT).Raw

	p.expect(token.LPAREN)
	params := p.parseParams(isInline)
	p.expect(token.RPAREN)

	var ret ast.TypeNode
	if p.at(token.IDENT) {
		ret = p.parseType()
	}

	body := p.parseBlock()

	base := ast.CallableStmt{
		StmtBase: newStmtBase(tok),
		Name:     name,
		Params:   params,
		Return:   ret,
		Body:     body,
	}
	if isInline {
		return &ast.InlineStmt{CallableStmt: base}
	}
	return &ast.FunctionStmt{CallableStmt: base}
}

// parseParams parses `[ IDENT { ',' IDENT } ]`, allowing a leading
// `writeback` modifier per parameter when allowWriteback is set.
func (p *parser) parseParams(allowWriteback bool) []ast.Param {
	var params []ast.Param
	if p.at(token.RPAREN) {
		return params
	}
	params = append(params, p.parseParam(allowWriteback))
	for p.at(token.COMMA) {
		p.advance()
		params = append(params, p.parseParam(allowWriteback))
	}
	return params
}

func (p *parser) parseParam(allowWriteback bool) ast.Param {
	writeback := false
	if allowWriteback && p.at(token.WRITEBACK) {
		p.advance()
		writeback = true
	} else if !allowWriteback && p.at(token.WRITEBACK) {
		p.errorf("'writeback' parameters are only allowed on inline callables")
	}
	tok := p.expect(token.IDENT)
	return ast.Param{Tok: tok, Name: tok.Raw, Writeback: writeback}
}
