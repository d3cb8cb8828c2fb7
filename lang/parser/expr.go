package parser

import (
	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/token"
)

// parseExpr parses `expr := lambda | assignment`.
func (p *parser) parseExpr() ast.Expr {
	if p.at(token.LAMBDA) {
		return p.parseLambda()
	}
	return p.parseAssignment()
}

func (p *parser) parseLambda() ast.Expr {
	tok := p.expect(token.LAMBDA)
	p.expect(token.LPAREN)
	params := p.parseParams(false)
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.LambdaExpr{ExprBase: newExprBase(tok), Params: paramNames(params), Body: body}
}

func paramNames(params []ast.Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// parseAssignment parses `ternary ('=' expr)?`, right-associative, and
// requires the left side to be an lvalue.
func (p *parser) parseAssignment() ast.Expr {
	left := p.parseTernary()
	if p.at(token.EQ) {
		tok := p.tok
		p.advance()
		if !ast.IsLvalue(left) {
			p.errorf("left side of assignment must be an lvalue")
		}
		right := p.parseExpr()
		return &ast.AssignExpr{ExprBase: newExprBase(tok), Left: left, Right: right}
	}
	return left
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseOr()
	if p.at(token.QUESTION) {
		tok := p.tok
		p.advance()
		caseTrue := p.parseExpr()
		p.expect(token.COLON)
		caseFalse := p.parseExpr()
		return &ast.TernaryExpr{ExprBase: newExprBase(tok), Cond: cond, CaseTrue: caseTrue, CaseFalse: caseFalse}
	}
	return cond
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(token.OROR) {
		tok := p.tok
		p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinOr, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.at(token.ANDAND) {
		tok := p.tok
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinAnd, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.at(token.EQEQ) || p.at(token.BANGEQ) {
		tok := p.tok
		op := ast.BinEq
		if tok.Kind == token.BANGEQ {
			op = ast.BinNeq
		}
		p.advance()
		right := p.parseRelational()
		left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseRelational() ast.Expr {
	left := p.parseSum()
	for p.at(token.LT) || p.at(token.GT) || p.at(token.LE) || p.at(token.GE) {
		tok := p.tok
		k := tok.Kind
		p.advance()
		right := p.parseSum()
		switch k {
		case token.LT:
			left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinLt, Left: left, Right: right}
		case token.LE:
			left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinLe, Left: left, Right: right}
		case token.GT:
			// '>' and '>=' are lowered as '<' and '<=' with operands swapped,
			// done here at parse time since it only affects the tree shape,
			// not its meaning.
			left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinLt, Left: right, Right: left}
		case token.GE:
			left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: ast.BinLe, Left: right, Right: left}
		}
	}
	return left
}

func (p *parser) parseSum() ast.Expr {
	left := p.parseTerm()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		tok := p.tok
		op := ast.BinAdd
		if tok.Kind == token.MINUS {
			op = ast.BinSub
		}
		p.advance()
		right := p.parseTerm()
		left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseTerm() ast.Expr {
	left := p.parseValue()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		tok := p.tok
		var op ast.BinaryOp
		switch tok.Kind {
		case token.STAR:
			op = ast.BinMul
		case token.SLASH:
			op = ast.BinDiv
		case token.PERCENT:
			op = ast.BinMod
		}
		p.advance()
		right := p.parseValue()
		left = &ast.BinaryExpr{ExprBase: newExprBase(tok), Op: op, Left: left, Right: right}
	}
	return left
}

// parseValue parses the unary-prefix / atom / postfix level:
//
//	value := ('+'|'-'|'!'|'&'|'*') value
//	       | INT | CHAR | IDENT | '(' expr ')'
//	       | postfix operators: '(' args ')' , '[' expr ']' , '.' IDENT
func (p *parser) parseValue() ast.Expr {
	switch p.tok.Kind {
	case token.PLUS:
		p.advance()
		return p.parseValue() // unary plus is a no-op
	case token.MINUS:
		tok := p.tok
		p.advance()
		return &ast.UnaryExpr{ExprBase: newExprBase(tok), Op: ast.UnaryNeg, Operand: p.parseValue()}
	case token.BANG:
		tok := p.tok
		p.advance()
		return &ast.UnaryExpr{ExprBase: newExprBase(tok), Op: ast.UnaryNot, Operand: p.parseValue()}
	case token.AMP:
		tok := p.tok
		p.advance()
		operand := p.parseValue()
		if !ast.IsLvalue(operand) {
			p.errorf("operand of '&' must be an lvalue")
		}
		return &ast.AddressOfExpr{ExprBase: newExprBase(tok), Operand: operand}
	case token.STAR:
		tok := p.tok
		p.advance()
		return &ast.DereferenceExpr{ExprBase: newExprBase(tok), Operand: p.parseValue()}
	default:
		return p.parsePostfix(p.parseAtom())
	}
}

func (p *parser) parseAtom() ast.Expr {
	switch p.tok.Kind {
	case token.INT:
		tok := p.tok
		p.advance()
		return &ast.LiteralExpr{ExprBase: newExprBase(tok), Value: tok.Data}
	case token.CHAR:
		tok := p.tok
		p.advance()
		return &ast.LiteralExpr{ExprBase: newExprBase(tok), Value: tok.Data}
	case token.TRUE:
		tok := p.tok
		p.advance()
		return &ast.LiteralExpr{ExprBase: newExprBase(tok), Value: 1}
	case token.FALSE:
		tok := p.tok
		p.advance()
		return &ast.LiteralExpr{ExprBase: newExprBase(tok), Value: 0}
	case token.IDENT:
		tok := p.tok
		p.advance()
		return &ast.VariableExpr{ExprBase: newExprBase(tok), Name: tok.Raw}
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	default:
		p.errorf("expected an expression, got %s", p.tok.Kind)
		panic("unreachable")
	}
}

func (p *parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch p.tok.Kind {
		case token.LPAREN:
			tok := p.tok
			p.advance()
			var args []ast.Expr
			if !p.at(token.RPAREN) {
				args = append(args, p.parseExpr())
				for p.at(token.COMMA) {
					p.advance()
					args = append(args, p.parseExpr())
				}
			}
			p.expect(token.RPAREN)
			e = &ast.CallExpr{ExprBase: newExprBase(tok), Callee: e, Args: args}
		case token.LBRACK:
			tok := p.tok
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACK)
			e = &ast.SubscriptExpr{ExprBase: newExprBase(tok), Prefix: e, Index: idx}
		case token.DOT:
			tok := p.tok
			p.advance()
			name := p.expect(token.IDENT).Raw
			e = &ast.AttributeExpr{ExprBase: newExprBase(tok), Left: e, Name: name}
		default:
			return e
		}
	}
}
