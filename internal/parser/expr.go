package parser

import (
	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/lexer"
)

// parseExpr is the entry point: flow (lowest) → additive → multiplicative →
// unary → postfix → primary (spec §4.2 "Expression precedence").
func (p *Parser) parseExpr() ast.Expr {
	return p.parseFlow()
}

// parseFlow handles `x -> f` / `x -> f(a, b)` (spec §4.2 "Flow operator
// transform"). `->` is left-associative: `a -> f -> g` is `g(f(a))`.
func (p *Parser) parseFlow() ast.Expr {
	left := p.parseAdditive()
	for p.check(lexer.TokArrow) {
		p.advance()
		left = p.parseFlowRHS(left)
	}
	return left
}

// parseFlowRHS consumes the right-hand side of one `->` and rewrites it per
// spec §4.2: a bare callable name (optionally with a parenthesized argument
// group) splices left in as the first argument; anything else becomes a
// FlowExpr the interpreter reduces the same way at evaluation time.
func (p *Parser) parseFlowRHS(left ast.Expr) ast.Expr {
	loc := left.Location()
	if p.check(lexer.TokIdent) {
		name := p.advance().Text
		args := []ast.Expr{left}
		if _, ok := p.match(lexer.TokLParen); ok {
			args = append(args, p.parseArgList()...)
			p.expect(lexer.TokRParen, "')'")
		}
		return &ast.CallExpr{Callee: name, Args: args, ExprBase: ast.BaseExprAt(loc)}
	}
	right := p.parseAdditive()
	return &ast.FlowExpr{Left: left, Right: right, ExprBase: ast.BaseExprAt(loc)}
}

func (p *Parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	for !p.check(lexer.TokRParen) && !p.atEnd() {
		before := p.mark()
		args = append(args, p.parseExpr())
		if p.pos == before {
			p.advance()
			continue
		}
		if _, ok := p.match(lexer.TokComma); !ok {
			break
		}
	}
	return args
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(lexer.TokPlus) || p.check(lexer.TokMinus) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op.Text, Left: left, Right: right, ExprBase: ast.BaseExprAt(op.Loc)}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.check(lexer.TokStar) || p.check(lexer.TokSlash) {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op.Text, Left: left, Right: right, ExprBase: ast.BaseExprAt(op.Loc)}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.check(lexer.TokMinus) || p.check(lexer.TokPlus) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: op.Text, Operand: operand, ExprBase: ast.BaseExprAt(op.Loc)}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch {
		case p.check(lexer.TokAt):
			loc := p.advance().Loc
			idx := p.parseUnary()
			expr = &ast.IndexExpr{Target: expr, Index: idx, ExprBase: ast.BaseExprAt(loc)}
		case p.check(lexer.TokDot):
			loc := p.advance().Loc
			name := p.expect(lexer.TokIdent, "member name").Text
			expr = &ast.MemberExpr{Target: expr, Name: name, ExprBase: ast.BaseExprAt(loc)}
		default:
			return expr
		}
	}
}

// startsBareCallArg is the set of token kinds that can start another
// literal/identifier argument in the bare-identifier-call heuristic (spec
// §4.2: "a bare identifier followed by one-or-more literal/identifier
// tokens becomes a call with those as arguments").
func startsBareCallArg(k lexer.TokenKind) bool {
	switch k {
	case lexer.TokIntLit, lexer.TokFloatLit, lexer.TokStringLit, lexer.TokBoolLit,
		lexer.TokSemitoneLit, lexer.TokCentLit, lexer.TokMillisecondLit,
		lexer.TokSecondLit, lexer.TokDecibelLit, lexer.TokNoteLit, lexer.TokIdent:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case lexer.TokIntLit:
		p.advance()
		return &ast.IntLit{Value: tok.IntVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokFloatLit:
		p.advance()
		return &ast.FloatLit{Value: tok.FloatVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokStringLit:
		p.advance()
		return &ast.StringLit{Value: tok.Text, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokBoolLit:
		p.advance()
		return &ast.BoolLit{Value: tok.BoolVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokSemitoneLit:
		p.advance()
		return &ast.SemitoneLit{Value: tok.IntVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokCentLit:
		p.advance()
		return &ast.CentLit{Value: tok.FloatVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokMillisecondLit:
		p.advance()
		return &ast.MillisecondLit{Value: tok.FloatVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokSecondLit:
		p.advance()
		return &ast.SecondLit{Value: tok.FloatVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokDecibelLit:
		p.advance()
		return &ast.DecibelLit{Value: tok.FloatVal, ExprBase: ast.BaseExprAt(tok.Loc)}
	case lexer.TokNoteLit:
		p.advance()
		return parseNoteLitToken(tok)
	case lexer.TokLParen:
		return p.parseParenOrCall()
	case lexer.TokFn:
		return p.parseLambda()
	case lexer.TokLazy:
		return p.parseLazy()
	case lexer.TokLBracket:
		return p.parseArrayLit()
	case lexer.TokPipe:
		return p.parseNoteStream()
	case lexer.TokIdent:
		return p.parseIdentOrBareCall()
	default:
		p.bag.Parsef(p.loc(), "unexpected token %q", tok.Text)
		p.advance()
		return &ast.Ident{Name: "", ExprBase: ast.BaseExprAt(tok.Loc)}
	}
}

// parseParenOrCall handles both `(expr)` and the parenthesized call form
// `(name args…)` (spec §4.2 "parenthesized call form"). The call form is
// distinguished by a leading identifier immediately followed by another
// argument-starting token, or by an identifier alone before `)` (a zero-arg
// call written with explicit parens).
func (p *Parser) parseParenOrCall() ast.Expr {
	loc := p.advance().Loc // consume '('
	if p.check(lexer.TokIdent) {
		next := p.peekAt(1).Kind
		if startsBareCallArg(next) || next == lexer.TokRParen {
			name := p.advance().Text
			args := p.parseArgListSpaceSeparated()
			p.expect(lexer.TokRParen, "')'")
			return &ast.CallExpr{Callee: name, Args: args, ExprBase: ast.BaseExprAt(loc)}
		}
	}
	inner := p.parseExpr()
	p.expect(lexer.TokRParen, "')'")
	return &ast.ParenExpr{Inner: inner, ExprBase: ast.BaseExprAt(loc)}
}

// parseArgListSpaceSeparated parses the space/comma-separated argument
// sequence inside a parenthesized call form, e.g. `(note C 4 q)` or
// `(add 1, 2)` — Flow's musical call syntax favors bare juxtaposition over
// commas, so both are accepted.
func (p *Parser) parseArgListSpaceSeparated() []ast.Expr {
	var args []ast.Expr
	for !p.check(lexer.TokRParen) && !p.atEnd() {
		before := p.mark()
		args = append(args, p.parseAdditive())
		if p.pos == before {
			p.advance()
			continue
		}
		p.match(lexer.TokComma)
	}
	return args
}

// parseIdentOrBareCall implements spec §4.2's "identifier-as-variable-or-call
// (optional parentheses)": a bare identifier followed by one-or-more
// literal/identifier tokens becomes a call with those as arguments.
func (p *Parser) parseIdentOrBareCall() ast.Expr {
	tok := p.advance()
	if _, ok := p.match(lexer.TokLParen); ok {
		args := p.parseArgList()
		p.expect(lexer.TokRParen, "')'")
		return &ast.CallExpr{Callee: tok.Text, Args: args, ExprBase: ast.BaseExprAt(tok.Loc)}
	}
	if startsBareCallArg(p.cur().Kind) {
		var args []ast.Expr
		for startsBareCallArg(p.cur().Kind) {
			before := p.mark()
			args = append(args, p.parsePostfix())
			if p.pos == before {
				break
			}
		}
		return &ast.CallExpr{Callee: tok.Text, Args: args, ExprBase: ast.BaseExprAt(tok.Loc)}
	}
	return &ast.Ident{Name: tok.Text, ExprBase: ast.BaseExprAt(tok.Loc)}
}

func (p *Parser) parseLambda() ast.Expr {
	loc := p.advance().Loc // consume 'fn'
	var params []ast.Param
	for p.check(lexer.TokIdent) && isTypeNameToken(p.cur().Text) {
		params = append(params, p.parseParam())
		p.match(lexer.TokComma)
	}
	p.expect(lexer.TokFatArrow, "'=>'")
	body := p.parseExpr()
	return &ast.LambdaExpr{Params: params, Body: body, ExprBase: ast.BaseExprAt(loc)}
}

func isTypeNameToken(name string) bool {
	return lexer.TypeNames[name] || isPluralTypeName(name)
}

func (p *Parser) parseLazy() ast.Expr {
	loc := p.advance().Loc // consume 'lazy'
	p.expect(lexer.TokLParen, "'('")
	inner := p.parseExpr()
	p.expect(lexer.TokRParen, "')'")
	return &ast.LazyExpr{Inner: inner, ExprBase: ast.BaseExprAt(loc)}
}

func (p *Parser) parseArrayLit() ast.Expr {
	loc := p.advance().Loc // consume '['
	var elems []ast.Expr
	for !p.check(lexer.TokRBracket) && !p.atEnd() {
		before := p.mark()
		elems = append(elems, p.parseExpr())
		if p.pos == before {
			p.advance()
			continue
		}
		if _, ok := p.match(lexer.TokComma); !ok {
			break
		}
	}
	p.expect(lexer.TokRBracket, "']'")
	return &ast.ArrayLit{Elements: elems, ExprBase: ast.BaseExprAt(loc)}
}

func parseNoteLitToken(tok lexer.Token) ast.Expr {
	letter, accidental, hasOctave, octave := decodeNoteText(tok.Text)
	return &ast.NoteLit{
		Letter: letter, Accidental: accidental, HasOctave: hasOctave, Octave: octave,
		ExprBase: ast.BaseExprAt(tok.Loc),
	}
}

// decodeNoteText parses a note literal's raw text: pitch letter, optional
// `s`/`f` accidental, optional trailing octave digit.
func decodeNoteText(text string) (letter, accidental byte, hasOctave bool, octave int) {
	letter = text[0]
	i := 1
	if i < len(text) && (text[i] == 's' || text[i] == 'f') {
		accidental = text[i]
		i++
	}
	if i < len(text) && text[i] >= '0' && text[i] <= '9' {
		octave = int(text[i] - '0')
		hasOctave = true
	}
	return
}
