// Package parser implements Flow's recursive-descent parser (spec §4.2): a
// single token-stream walker with one-token lookahead and a single
// backtracking disambiguation point (identifier-followed-by-`=`).
package parser

import (
	"strings"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/lexer"
)

// Parser walks a fixed token slice produced by the lexer.
type Parser struct {
	toks []lexer.Token
	pos  int
	bag  *diag.Bag
}

// New creates a parser over an already-tokenized source.
func New(toks []lexer.Token, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, bag: bag}
}

// Parse parses a complete program (spec §4.2 "Statement grammar"),
// resynchronizing on error at statement boundaries.
func Parse(toks []lexer.Token, bag *diag.Bag) *ast.Program {
	p := New(toks, bag)
	prog := &ast.Program{}
	for !p.atEnd() {
		p.skipStraySemicolons()
		if p.atEnd() {
			break
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog
}

// ---- cursor primitives ----

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEnd() bool       { return p.cur().Kind == lexer.TokEOF }
func (p *Parser) loc() diag.Location { return p.cur().Loc }

func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) check(k lexer.TokenKind) bool { return p.cur().Kind == k }

func (p *Parser) match(k lexer.TokenKind) (lexer.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(k lexer.TokenKind, what string) lexer.Token {
	if t, ok := p.match(k); ok {
		return t
	}
	p.bag.Parsef(p.loc(), "expected %s, found %q", what, p.cur().Text)
	return p.cur()
}

// mark/reset implement the parser's one allowed backtrack point (spec §4.2
// "saves and restores the cursor").
func (p *Parser) mark() int        { return p.pos }
func (p *Parser) reset(mark int)   { p.pos = mark }

// skipStraySemicolons consumes any run of bare semicolons between statements
// (spec §4.2 "the parser also skips stray semicolons").
func (p *Parser) skipStraySemicolons() {
	for p.check(lexer.TokSemicolon) {
		p.advance()
	}
}

// resync advances to the next statement boundary after an error: a
// semicolon, `end`, or a leading statement keyword (spec §4.2).
func (p *Parser) resync() {
	for !p.atEnd() {
		switch p.cur().Kind {
		case lexer.TokSemicolon:
			p.advance()
			return
		case lexer.TokEnd, lexer.TokProc, lexer.TokUse, lexer.TokReturn,
			lexer.TokTimeSig, lexer.TokTempo, lexer.TokSwing, lexer.TokKey,
			lexer.TokSection, lexer.TokDynamics:
			return
		}
		p.advance()
	}
}

// ---- statements ----

func (p *Parser) parseStatement() ast.Stmt {
	before := p.bag.Len()
	startPos := p.mark()
	stmt := p.parseStatementInner()
	if p.bag.Len() > before {
		p.resync()
	}
	if p.pos == startPos {
		// Guarantee forward progress even if a statement form consumed
		// nothing (e.g. an unexpected token at statement start).
		p.advance()
	}
	return stmt
}

func (p *Parser) parseStatementInner() ast.Stmt {
	switch {
	case p.check(lexer.TokInternal), p.check(lexer.TokProc):
		return p.parseProcDecl()
	case p.check(lexer.TokReturn):
		return p.parseReturn()
	case p.check(lexer.TokUse):
		return p.parseUse()
	case p.check(lexer.TokTimeSig):
		return p.parseTimeSigBlock()
	case p.check(lexer.TokTempo):
		return p.parseTempoOrSwingBlock(ast.CtxTempo)
	case p.check(lexer.TokSwing):
		return p.parseTempoOrSwingBlock(ast.CtxSwing)
	case p.check(lexer.TokKey):
		return p.parseKeyOrDynamicsBlock(ast.CtxKey)
	case p.check(lexer.TokDynamics):
		return p.parseKeyOrDynamicsBlock(ast.CtxDynamics)
	case p.check(lexer.TokSection):
		return p.parseSectionDecl()
	case p.isTypeStart():
		return p.parseVarDecl()
	case p.check(lexer.TokIdent) && p.peekAt(1).Kind == lexer.TokAssign:
		return p.parseAssign()
	default:
		loc := p.loc()
		expr := p.parseExpr()
		p.skipStraySemicolons()
		return &ast.ExprStmt{Value: expr, Loc: loc}
	}
}

// isTypeStart reports whether the current token begins a variable
// declaration: a known type name (bare or pluralized), optionally preceded
// by nothing else, followed by an identifier.
func (p *Parser) isTypeStart() bool {
	if !p.check(lexer.TokIdent) {
		return false
	}
	name := p.cur().Text
	if !lexer.TypeNames[name] && !isPluralTypeName(name) {
		return false
	}
	return p.peekAt(1).Kind == lexer.TokIdent
}

func isPluralTypeName(name string) bool {
	if !strings.HasSuffix(name, "s") || len(name) < 2 {
		return false
	}
	return lexer.TypeNames[strings.TrimSuffix(name, "s")]
}

func (p *Parser) parseBlockBody() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEnd() && !p.check(lexer.TokEnd) && !p.check(lexer.TokRBrace) {
		p.skipStraySemicolons()
		if p.atEnd() || p.check(lexer.TokEnd) || p.check(lexer.TokRBrace) {
			break
		}
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseProcDecl() ast.Stmt {
	loc := p.loc()
	internal := false
	if _, ok := p.match(lexer.TokInternal); ok {
		internal = true
	}
	p.expect(lexer.TokProc, "'proc'")
	name := p.expect(lexer.TokIdent, "procedure name").Text
	p.expect(lexer.TokLParen, "'('")
	params := p.parseParamList()
	p.expect(lexer.TokRParen, "')'")
	body := p.parseBlockBody()
	p.expect(lexer.TokEnd, "'end'")
	return &ast.ProcDecl{Internal: internal, Name: name, Params: params, Body: body, Loc: loc}
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	for !p.check(lexer.TokRParen) && !p.atEnd() {
		before := p.mark()
		params = append(params, p.parseParam())
		if p.pos == before {
			p.advance()
		}
		if _, ok := p.match(lexer.TokComma); !ok {
			break
		}
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	tref := p.parseTypeRef()
	name := p.expect(lexer.TokIdent, "parameter name").Text
	// A plural-sugar array type without `...` is a plain array parameter;
	// only the trailing ellipsis makes it varargs (spec §4.2 "Plural type
	// sugar").
	variadic := false
	if _, ok := p.match(lexer.TokEllipsis); ok {
		variadic = true
	}
	return ast.Param{Name: name, Type: tref, Variadic: variadic}
}

// parseTypeRef parses a type annotation, applying plural-sugar: a type
// identifier ending in `s` whose singular names a known type denotes
// Array<singular> (spec §4.2).
func (p *Parser) parseTypeRef() ast.TypeRef {
	loc := p.loc()
	tok := p.expect(lexer.TokIdent, "type name")
	name := tok.Text
	if name == "Voids" {
		return ast.TypeRef{Name: "Array", IsArray: true, Elem: &ast.TypeRef{Name: "Void", Loc: loc}, Loc: loc}
	}
	if isPluralTypeName(name) {
		elemName := strings.TrimSuffix(name, "s")
		return ast.TypeRef{Name: "Array", IsArray: true, Elem: &ast.TypeRef{Name: elemName, Loc: loc}, Loc: loc}
	}
	if name == "Array" {
		if _, ok := p.match(lexer.TokLt); ok {
			elem := p.parseTypeRef()
			p.expect(lexer.TokGt, "'>'")
			return ast.TypeRef{Name: "Array", IsArray: true, Elem: &elem, Loc: loc}
		}
	}
	if name == "Lazy" {
		if _, ok := p.match(lexer.TokLt); ok {
			elem := p.parseTypeRef()
			p.expect(lexer.TokGt, "'>'")
			return ast.TypeRef{Name: "Lazy", Elem: &elem, Loc: loc}
		}
	}
	return ast.TypeRef{Name: name, Loc: loc}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	loc := p.loc()
	tref := p.parseTypeRef()
	name := p.expect(lexer.TokIdent, "variable name").Text
	var init ast.Expr
	if _, ok := p.match(lexer.TokAssign); ok {
		init = p.parseExpr()
	}
	p.skipStraySemicolons()
	return &ast.VarDecl{Type: tref, Name: name, Init: init, Loc: loc}
}

func (p *Parser) parseAssign() ast.Stmt {
	loc := p.loc()
	name := p.advance().Text
	p.expect(lexer.TokAssign, "'='")
	val := p.parseExpr()
	p.skipStraySemicolons()
	return &ast.Assign{Name: name, Value: val, Loc: loc}
}

func (p *Parser) parseReturn() ast.Stmt {
	loc := p.loc()
	p.advance()
	var val ast.Expr
	if !p.check(lexer.TokSemicolon) && !p.check(lexer.TokEnd) && !p.check(lexer.TokRBrace) && !p.atEnd() {
		val = p.parseExpr()
	}
	p.skipStraySemicolons()
	return &ast.ReturnStmt{Value: val, Loc: loc}
}

func (p *Parser) parseUse() ast.Stmt {
	loc := p.loc()
	p.advance()
	pathTok := p.expect(lexer.TokStringLit, "module path string")
	p.skipStraySemicolons()
	return &ast.UseStmt{Path: pathTok.Text, Loc: loc}
}

func (p *Parser) parseTimeSigBlock() ast.Stmt {
	loc := p.loc()
	p.advance()
	num := int(p.expect(lexer.TokIntLit, "time-signature numerator").IntVal)
	p.expect(lexer.TokSlash, "'/'")
	den := int(p.expect(lexer.TokIntLit, "time-signature denominator").IntVal)
	body := p.parseBraceBody()
	return &ast.ContextBlock{Kind: ast.CtxTimeSig, Num: num, Den: den, Body: body, Loc: loc}
}

func (p *Parser) parseTempoOrSwingBlock(kind ast.ContextKind) ast.Stmt {
	loc := p.loc()
	p.advance()
	val := p.parseExpr()
	body := p.parseBraceBody()
	return &ast.ContextBlock{Kind: kind, Value: val, Body: body, Loc: loc}
}

func (p *Parser) parseKeyOrDynamicsBlock(kind ast.ContextKind) ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.TokIdent, "identifier").Text
	body := p.parseBraceBody()
	return &ast.ContextBlock{Kind: kind, Name: name, Body: body, Loc: loc}
}

func (p *Parser) parseSectionDecl() ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.TokIdent, "section name").Text
	body := p.parseBraceBody()
	return &ast.SectionDecl{Name: name, Body: body, Loc: loc}
}

func (p *Parser) parseBraceBody() []ast.Stmt {
	p.expect(lexer.TokLBrace, "'{'")
	body := p.parseBlockBodyUntilBrace()
	p.expect(lexer.TokRBrace, "'}'")
	return body
}

func (p *Parser) parseBlockBodyUntilBrace() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEnd() && !p.check(lexer.TokRBrace) {
		p.skipStraySemicolons()
		if p.atEnd() || p.check(lexer.TokRBrace) {
			break
		}
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
