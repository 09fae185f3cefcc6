package parser

import (
	"strings"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/lexer"
)

// romanNumerals is the closed set recognized as scale-degree chord symbols
// (spec §4.2 "roman numeral (`I` … `vii` with optional `7`)").
var romanNumerals = map[string]bool{
	"I": true, "II": true, "III": true, "IV": true, "V": true, "VI": true, "VII": true,
	"i": true, "ii": true, "iii": true, "iv": true, "v": true, "vi": true, "vii": true,
}

// parseNoteStream parses the `| … | … |` form (spec §4.2 "Note-stream
// parsing"). The opening pipe was left for us by parsePrimary's dispatch.
func (p *Parser) parseNoteStream() ast.Expr {
	loc := p.cur().Loc
	var bars []ast.BarNode
	p.expect(lexer.TokPipe, "'|'")
	for {
		bars = append(bars, p.parseBar())
		if _, ok := p.match(lexer.TokPipe); !ok {
			break
		}
		if p.check(lexer.TokPipe) || p.barTerminated() {
			break
		}
	}
	return &ast.NoteStreamExpr{Bars: bars, ExprBase: ast.BaseExprAt(loc)}
}

// barTerminated reports whether the stream has ended after consuming a `|`:
// no further bar content follows before a statement boundary.
func (p *Parser) barTerminated() bool {
	switch p.cur().Kind {
	case lexer.TokSemicolon, lexer.TokEnd, lexer.TokRBrace, lexer.TokEOF,
		lexer.TokRParen, lexer.TokRBracket, lexer.TokComma:
		return true
	default:
		return false
	}
}

func (p *Parser) parseBar() ast.BarNode {
	loc := p.loc()
	var elems []ast.BarElement
	for !p.check(lexer.TokPipe) && !p.atEnd() && !p.barTerminated() {
		before := p.mark()
		el := p.parseBarElement()
		if el != nil {
			elems = append(elems, el)
		}
		if p.pos == before {
			p.advance()
		}
	}
	return ast.BarNode{Elements: elems, Loc: loc}
}

func (p *Parser) parseBarElement() ast.BarElement {
	tok := p.cur()
	switch tok.Kind {
	case lexer.TokUnderscore:
		p.advance()
		dur := p.parseDurationSuffix()
		return &ast.RestElement{Duration: dur, Loc: tok.Loc}
	case lexer.TokLBracket:
		return p.parseChordBracket()
	case lexer.TokLParen:
		return p.parseRandomChoice()
	case lexer.TokNoteLit:
		p.advance()
		return p.parsePitchedNote(tok)
	case lexer.TokIdent:
		return p.parseChordOrRoman(tok)
	default:
		p.bag.Parsef(tok.Loc, "unexpected token %q in note stream", tok.Text)
		p.advance()
		return nil
	}
}

// parseDurationSuffix consumes an optional duration-class letter, dot, and
// tilde (spec §4.2: "optional duration suffix letter from whsqet, optional
// dotted `.`, optional tied `~`").
func (p *Parser) parseDurationSuffix() ast.DurationSuffix {
	var suf ast.DurationSuffix
	if p.check(lexer.TokIdent) && len(p.cur().Text) == 1 && strings.ContainsRune("whsqet", rune(p.cur().Text[0])) {
		suf.Letter = p.cur().Text[0]
		p.advance()
	}
	if _, ok := p.match(lexer.TokDot); ok {
		suf.Dotted = true
	}
	if _, ok := p.match(lexer.TokTilde); ok {
		suf.Tied = true
	}
	return suf
}

// parsePitchedNote finishes a pitched-note element after the note-literal
// token itself, picking up an optional cent offset and duration suffix.
func (p *Parser) parsePitchedNote(tok lexer.Token) ast.BarElement {
	letter, accidental, hasOctave, octave := decodeNoteText(tok.Text)
	var centOffset *float64
	if p.check(lexer.TokCentLit) {
		c := p.advance()
		v := c.FloatVal
		centOffset = &v
	}
	dur := p.parseDurationSuffix()
	return &ast.PitchedNoteElement{
		Letter: letter, Accidental: accidental, Octave: octave, HasOctave: hasOctave,
		Duration: dur, CentOffset: centOffset, Loc: tok.Loc,
	}
}

func (p *Parser) parseChordBracket() ast.BarElement {
	loc := p.advance().Loc // consume '['
	var notes []ast.PitchedNoteElement
	for !p.check(lexer.TokRBracket) && !p.atEnd() {
		if !p.check(lexer.TokNoteLit) {
			p.bag.Parsef(p.loc(), "expected pitch in chord bracket, found %q", p.cur().Text)
			p.advance()
			continue
		}
		tok := p.advance()
		letter, accidental, hasOctave, octave := decodeNoteText(tok.Text)
		notes = append(notes, ast.PitchedNoteElement{
			Letter: letter, Accidental: accidental, Octave: octave, HasOctave: hasOctave, Loc: tok.Loc,
		})
	}
	p.expect(lexer.TokRBracket, "']'")
	dur := p.parseDurationSuffix()
	return &ast.ChordBracketElement{Notes: notes, Duration: dur, Loc: loc}
}

// parseRandomChoice handles `(? n1 n2 …)` and `(?? n1:w1 n2:w2 …)` (spec
// §4.2 "random-choice element").
func (p *Parser) parseRandomChoice() ast.BarElement {
	loc := p.advance().Loc // consume '('
	weighted := false
	if _, ok := p.match(lexer.TokDoubleQuestion); ok {
		weighted = true
	} else if _, ok := p.match(lexer.TokQuestion); !ok {
		// Not a random-choice form after all; this shouldn't happen given
		// how parseBarElement dispatches, but degrade gracefully.
		p.bag.Parsef(loc, "expected '?' or '??' after '(' in note stream")
	}

	var choices []ast.BarElement
	var weights []float64
	for !p.check(lexer.TokRParen) && !p.atEnd() {
		before := p.mark()
		choice := p.parseBarElement()
		if choice == nil {
			if p.pos == before {
				p.advance()
			}
			continue
		}
		weight := 1.0
		if weighted {
			if _, ok := p.match(lexer.TokColon); ok {
				wtok := p.cur()
				switch wtok.Kind {
				case lexer.TokIntLit:
					weight = float64(wtok.IntVal)
					p.advance()
				case lexer.TokFloatLit:
					weight = wtok.FloatVal
					p.advance()
				default:
					p.bag.Parsef(p.loc(), "expected weight after ':' in weighted random choice")
				}
			}
		}
		choices = append(choices, choice)
		weights = append(weights, weight)
	}
	p.expect(lexer.TokRParen, "')'")
	return &ast.RandomChoiceElement{Weighted: weighted, Choices: choices, Weights: weights, Loc: loc}
}

// parseChordOrRoman disambiguates a chord symbol (e.g. `Cmaj7`) from a roman
// numeral (`I` … `vii`, optional `7`), both lexed as a plain identifier
// inside a note stream.
//
// Because the lexer merges any directly-adjacent duration-suffix letter
// into the same identifier run (there is no octave digit to anchor on, as
// there is for pitched notes), a roman numeral with an inline suffix like
// "Iq" arrives as one token. Chord symbols are an open-ended spelling
// (flats/sharps/extensions), so the same trick is not safe for them without
// risking "Cs" (C-sharp triad) being misread as "C" + sixteenth-note
// duration; chord symbols therefore require their duration suffix to be
// whitespace-separated, or expressed only via the standalone `.`/`~` tokens.
func (p *Parser) parseChordOrRoman(tok lexer.Token) ast.BarElement {
	p.advance()
	text := tok.Text

	if numeral, seventh, durLetter, ok := splitRomanNumeral(text); ok {
		// A space-separated duration letter (e.g. "I q") is still picked up
		// normally; durLetter only seeds the case where it was merged into
		// the identifier itself (e.g. "Iq").
		dur := p.parseDurationSuffix()
		if dur.Letter == 0 {
			dur.Letter = durLetter
		}
		return &ast.RomanNumeralElement{Numeral: numeral, Seventh: seventh, Duration: dur, Loc: tok.Loc}
	}

	dur := p.parseDurationSuffix()
	return &ast.ChordSymbolElement{Symbol: text, Duration: dur, Loc: tok.Loc}
}

// splitRomanNumeral recognizes text as a roman numeral, optionally followed
// by a seventh marker and/or one trailing duration-suffix letter merged in
// by the lexer's identifier scan (spec §4.2; see parseChordOrRoman's doc).
func splitRomanNumeral(text string) (numeral string, seventh bool, durLetter byte, ok bool) {
	if base, sev := stripSeventh(text); romanNumerals[base] {
		return base, sev, 0, true
	}
	if len(text) == 0 {
		return "", false, 0, false
	}
	last := text[len(text)-1]
	if !strings.ContainsRune("whsqet", rune(last)) {
		return "", false, 0, false
	}
	rest := text[:len(text)-1]
	if base, sev := stripSeventh(rest); romanNumerals[base] {
		return base, sev, last, true
	}
	return "", false, 0, false
}

func stripSeventh(s string) (base string, seventh bool) {
	if strings.HasSuffix(s, "7") {
		return strings.TrimSuffix(s, "7"), true
	}
	return s, false
}
