// Package parser is a recursive-descent front end producing the
// node.Node trees internal/modecheck and internal/genie consume. It
// covers a practical subset of Algol 68's grammar — enough to drive
// the six end-to-end scenarios and ordinary declarative/imperative
// programs — rather than the full Revised Report production set
// (format texts, multiple declarations per declarer, general bound
// expressions on row declarers, user-declared priorities, and the
// ANDF/ORF short-circuit forms are left for a follow-up).
//
// The lexer strops only by case: a reserved bold word is recognized
// by internal/lexer's keyword table, but any OTHER all-uppercase word
// reaching the parser as an IDENT token names an operator (built in,
// like NOT and ABS, or user-declared via OP) rather than a variable —
// ordinary identifiers are always lower-case. The parser leans on this
// convention to tell "x + y" from "x PLUS y" without a separate
// operator lexical class.
package parser

import (
	"fmt"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/lexer"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
)

// scope is one lexical level's symbol table plus the running count of
// frame-local slots the parser has handed out in it. Only a
// RoutineText's own body opens a new scope; BEGIN...END, conditional,
// case, and loop bodies share their enclosing routine's frame, the
// same way internal/genie's pSerialClause documents ("a serial clause
// shares its enclosing routine's frame").
type scope struct {
	table *node.SymbolTable
	next  int
}

// Parser turns a token stream into a node.Node tree, resolving
// identifiers and indicants (MODE names) against a scope stack as it
// goes, exactly the way internal/modecheck's declaration checks expect
// (n.Tag already bound, n.Genie.Params/FrameSize already populated on
// RoutineText nodes) — spec.md's mode checker treats all of that as
// "already bound into n's symbol table by the parser".
type Parser struct {
	lex  *lexer.Lexer
	sess *session.Session

	cur, peek lexer.Token

	scopes []*scope
	errs   []error

	indicants map[string]*mode.Mode
	stringM   *mode.Mode
}

// New creates a Parser reading from lex, registering modes through
// sess's registry, with globals chained onto prelude (the standard
// environment's operator/identifier table from internal/prelude).
func New(lex *lexer.Lexer, sess *session.Session, prelude *node.SymbolTable) *Parser {
	p := &Parser{lex: lex, sess: sess, indicants: map[string]*mode.Mode{}}
	p.scopes = []*scope{{table: node.NewSymbolTable(prelude)}}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) curScope() *scope { return p.scopes[len(p.scopes)-1] }

func (p *Parser) pushScope() *scope {
	s := &scope{table: node.NewSymbolTable(p.curScope().table)}
	p.scopes = append(p.scopes, s)
	return s
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// declare adds name to the current scope, assigning it the next free
// frame offset in that scope (spec.md §4.5's precomputed-offset
// convention).
func (p *Parser) declare(name string, m *mode.Mode, heap bool) *node.Tag {
	s := p.curScope()
	tag := &node.Tag{Name: name, Mode: m, Heap: heap}
	s.table.AddIdentifier(tag)
	tag.FrameOffset = s.next
	s.next++
	return tag
}

func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errs = append(p.errs, fmt.Errorf("%s: %s", p.cur.Position(), msg))
	p.sess.Diag.Emit(diag.New(diag.PAR001, diag.PhaseParse, diag.SeveritySyntax, nil, msg, map[string]any{
		"pos": p.cur.Position(),
	}))
}

func (p *Parser) pos() node.Pos {
	return node.Pos{File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if tok.Type != t {
		p.errorf("expected %s, got %s %q", t, tok.Type, tok.Literal)
	}
	p.next()
	return tok
}

// Errors returns every syntax error accumulated during parsing.
func (p *Parser) Errors() []error { return p.errs }

// Result is what ParseProgram hands back to the driver: the parsed
// tree's root and the top-level (global) frame's size — the driver
// pushes an initial Frame of this size before handing the tree to
// internal/genie.
type Result struct {
	Root      *node.Node
	FrameSize int
}

// ParseProgram parses a whole source file as one serial clause of
// declarations and units (spec.md §3 "Program"), returning its root
// node and the frame size the top-level (global) activation record
// needs.
func (p *Parser) ParseProgram() (*Result, error) {
	root := p.parseSerialClauseBody()
	p.expect(lexer.EOF)
	if len(p.errs) > 0 {
		return &Result{Root: root, FrameSize: p.curScope().next}, p.errs[0]
	}
	return &Result{Root: root, FrameSize: p.curScope().next}, nil
}

// parseSerialClauseBody parses a ';'-separated sequence of statements
// (declarations or units) until a token that cannot start another one,
// returning a SerialClause node over them (spec.md §4.3).
func (p *Parser) parseSerialClauseBody() *node.Node {
	n := node.New(node.SerialClause, p.pos(), "")
	n.Symbol = p.curScope().table
	n.AddChild(p.parseStatement())
	for p.cur.Type == lexer.SEMICOLON {
		p.next()
		if p.atStatementEnd() {
			break
		}
		n.AddChild(p.parseStatement())
	}
	return n
}

func (p *Parser) atStatementEnd() bool {
	switch p.cur.Type {
	case lexer.EOF, lexer.END, lexer.FI, lexer.OD, lexer.ESAC, lexer.RPAREN:
		return true
	}
	return false
}

// parseStatement parses one declaration or unit.
func (p *Parser) parseStatement() *node.Node {
	switch p.cur.Type {
	case lexer.MODE:
		return p.parseModeDeclaration()
	case lexer.OP:
		return p.parseOperatorDeclaration()
	case lexer.PROC:
		if p.peek.Type == lexer.IDENT {
			return p.parseProcDeclaration()
		}
	}
	if p.cur.IsModeKeyword() {
		return p.parseVarOrIdentityDeclaration()
	}
	return p.parseUnit()
}

// parseModeDeclaration parses `MODE name = declarer`, registering name
// as an indicant resolving to the declarer's mode for later declarer
// parses (spec.md §3 "Indicant").
func (p *Parser) parseModeDeclaration() *node.Node {
	pos := p.pos()
	p.next() // MODE
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.EQ)
	m := p.parseDeclarer()
	p.indicants[name] = m
	n := node.New(node.ModeDeclaration, pos, name)
	n.Mode = m
	return n
}

// parseVarOrIdentityDeclaration parses `declarer ident (= unit | := unit)?`.
// A bare declarer with no initializer (`INT x`) is treated as a
// variable declaration with no initializer, matching how
// internal/genie's pVariableDeclaration tolerates a nil init value.
func (p *Parser) parseVarOrIdentityDeclaration() *node.Node {
	pos := p.pos()
	declared := p.parseDeclarer()
	name := p.expect(lexer.IDENT).Literal

	switch p.cur.Type {
	case lexer.EQ:
		p.next()
		tag := p.declare(name, declared, false)
		body := p.parseUnit()
		n := node.New(node.IdentityDeclaration, pos, name)
		n.Mode = declared
		n.Tag = tag
		n.AddChild(placeholder(declared))
		n.AddChild(body)
		return n
	default:
		refMode := p.sess.Modes.Register(mode.NewRef(declared))
		tag := p.declare(name, refMode, true)
		n := node.New(node.VariableDeclaration, pos, name)
		n.Mode = refMode
		n.Tag = tag
		ph := placeholder(declared)
		n.AddChild(ph)
		if p.cur.Type == lexer.ASSIGN {
			p.next()
			ph.Next = p.parseUnit()
		}
		return n
	}
}

// placeholder stands in for the declarer slot checkIdentityDeclaration
// and checkVariableDeclaration skip over (they only check the second
// child); it is never itself checked or run.
func placeholder(m *mode.Mode) *node.Node {
	n := node.New(node.Skip, node.Pos{}, "")
	n.Mode = m
	return n
}

// parseProcDeclaration parses `PROC name = (params) result: body`,
// desugaring it to an IdentityDeclaration over a RoutineText the way
// internal/genie's pNoOpDeclaration doc comment says the parser must
// (spec.md §3 "Procedure value").
func (p *Parser) parseProcDeclaration() *node.Node {
	pos := p.pos()
	p.next() // PROC
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.EQ)
	routine := p.parseRoutineText()
	tag := p.declare(name, routine.Mode, false)
	n := node.New(node.IdentityDeclaration, pos, name)
	n.Mode = routine.Mode
	n.Tag = tag
	n.AddChild(placeholder(routine.Mode.(*mode.Mode)))
	n.AddChild(routine)
	return n
}

// parseOperatorDeclaration parses `OP glyph = (params) result: body`.
func (p *Parser) parseOperatorDeclaration() *node.Node {
	pos := p.pos()
	p.next() // OP
	name := p.operatorName()
	p.expect(lexer.EQ)
	routine := p.parseRoutineText()
	procMode, _ := routine.Mode.(*mode.Mode)
	n := node.New(node.OperatorDeclaration, pos, name)
	// checkOperatorDeclaration checks n.Sub (the body) against Strong(n.Mode),
	// so n.Mode here is the operator's *result* mode, not its full PROC type;
	// the PROC type is what call sites resolve through the operator Tag.
	if procMode != nil {
		n.Mode = procMode.Result
	}
	n.Sub = routine.Sub
	p.curScope().table.AddOperator(&node.Tag{Name: name, Mode: procMode})
	return n
}

// operatorName consumes one operator-glyph or all-uppercase-word
// token as an operator's declared name.
func (p *Parser) operatorName() string {
	tok := p.cur
	p.next()
	return tok.Literal
}

// parseRoutineText parses `(params) result: body`, opening a new scope
// for the parameter list and body (spec.md §3 "Procedure value"); the
// body is a single unit, so a ';' after it ends the declaration and a
// multi-statement body is written inside BEGIN...END or parentheses.
// It fills in Genie.Params/FrameSize since modecheck leaves that to the
// parser (see the package doc).
func (p *Parser) parseRoutineText() *node.Node {
	pos := p.pos()
	s := p.pushScope()
	defer p.popScope()

	var paramModes []*mode.Mode
	var params []*node.Tag
	if p.cur.Type == lexer.LPAREN {
		p.next()
		for p.cur.Type != lexer.RPAREN {
			pm := p.parseDeclarer()
			pname := p.expect(lexer.IDENT).Literal
			tag := p.declare(pname, pm, false)
			paramModes = append(paramModes, pm)
			params = append(params, tag)
			if p.cur.Type == lexer.COMMA {
				p.next()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN)
	}
	result := p.parseDeclarer()
	p.expect(lexer.COLON)
	body := p.parseUnit()

	procMode := p.sess.Modes.Register(mode.NewProc(paramModes, result))
	n := node.New(node.RoutineText, pos, "")
	n.Mode = procMode
	n.Sub = body
	n.Genie.Params = params
	n.Genie.FrameSize = s.next
	return n
}

// parseDeclarer parses a mode declarer: LONG/SHORT-prefixed standard
// modes, REF, FLEX, [ ] rows (dimension only — bound expressions are
// consumed but not retained, matching the existing simplification in
// internal/genie where row storage is sized by its initializer rather
// than by declarer bounds), STRUCT packs, and previously MODE-declared
// indicants.
func (p *Parser) parseDeclarer() *mode.Mode {
	switch p.cur.Type {
	case lexer.LONG, lexer.SHORT:
		sign := 1
		if p.cur.Type == lexer.SHORT {
			sign = -1
		}
		longness := 0
		for p.cur.Type == lexer.LONG || p.cur.Type == lexer.SHORT {
			longness += sign
			p.next()
		}
		base := p.parseDeclarer()
		return p.sess.Modes.Standard(base.Name, longness)
	case lexer.REF:
		p.next()
		inner := p.parseDeclarer()
		return p.sess.Modes.Register(mode.NewRef(inner))
	case lexer.FLEX:
		p.next()
		row := p.parseDeclarer()
		return p.sess.Modes.Register(mode.NewFlex(row))
	case lexer.LBRACKET:
		return p.parseRowDeclarer()
	case lexer.STRUCT:
		return p.parseStructDeclarer()
	case lexer.PROC:
		return p.parseProcDeclarer()
	case lexer.INT_MODE:
		p.next()
		return p.sess.Modes.Standard("INT", 0)
	case lexer.REAL_MODE:
		p.next()
		return p.sess.Modes.Standard("REAL", 0)
	case lexer.BOOL_MODE:
		p.next()
		return p.sess.Modes.Standard("BOOL", 0)
	case lexer.CHAR_MODE:
		p.next()
		return p.sess.Modes.Standard("CHAR", 0)
	case lexer.BITS_MODE:
		p.next()
		return p.sess.Modes.Standard("BITS", 0)
	case lexer.VOID_MODE:
		p.next()
		return p.sess.Modes.Sentinel(mode.NameVoid)
	case lexer.STRING_MODE:
		p.next()
		return p.stringMode()
	case lexer.IDENT:
		name := p.cur.Literal
		if m, ok := p.indicants[name]; ok {
			p.next()
			return m
		}
		p.errorf("undeclared mode indicant %q", name)
		p.next()
		return p.sess.Modes.Sentinel(mode.NameError)
	default:
		p.errorf("expected a declarer, got %s %q", p.cur.Type, p.cur.Literal)
		p.next()
		return p.sess.Modes.Sentinel(mode.NameError)
	}
}

// stringMode returns the canonical STRING mode, FLEX [1:] CHAR, the
// way the Revised Report defines it as a mode synonym rather than a
// distinct representation (spec.md §3 GLOSSARY "Denotation").
func (p *Parser) stringMode() *mode.Mode {
	if p.stringM != nil {
		return p.stringM
	}
	charM := p.sess.Modes.Standard("CHAR", 0)
	row := p.sess.Modes.Register(mode.NewRow(1, charM))
	p.stringM = p.sess.Modes.Register(mode.NewFlex(row))
	return p.stringM
}

// parseRowDeclarer parses `[` bound (`,` bound)* `]` declarer: the
// dimension is the number of comma-separated slots; bound expressions,
// if present, are parsed (so the token stream stays in sync) and
// discarded.
func (p *Parser) parseRowDeclarer() *mode.Mode {
	p.next() // [
	dim := 0
	for {
		dim++
		p.skipBound()
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	inner := p.parseDeclarer()
	return p.sess.Modes.Register(mode.NewRow(dim, inner))
}

// skipBound consumes an optional bound expression (`lwb : upb` or a
// bare upper bound) ahead of a row declarer's `,` or `]`, without
// retaining the bound values (see parseRowDeclarer's doc comment).
func (p *Parser) skipBound() {
	if p.cur.Type == lexer.COMMA || p.cur.Type == lexer.RBRACKET {
		return
	}
	p.parseUnit()
	if p.cur.Type == lexer.COLON {
		p.next()
		p.parseUnit()
	}
}

// parseStructDeclarer parses `STRUCT (declarer field (, declarer field)*)`.
func (p *Parser) parseStructDeclarer() *mode.Mode {
	p.next() // STRUCT
	p.expect(lexer.LPAREN)
	var pack []mode.Field
	for {
		fm := p.parseDeclarer()
		fname := p.expect(lexer.IDENT).Literal
		pack = append(pack, mode.Field{Mode: fm, Label: fname})
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return p.sess.Modes.Register(mode.NewStruct(pack))
}

// parseProcDeclarer parses a PROC declarer used as a mode, e.g. in a
// parameter (`PROC (INT) INT f`): `PROC (declarer,...) declarer`.
func (p *Parser) parseProcDeclarer() *mode.Mode {
	p.next() // PROC
	var params []*mode.Mode
	if p.cur.Type == lexer.LPAREN {
		p.next()
		for p.cur.Type != lexer.RPAREN {
			params = append(params, p.parseDeclarer())
			if p.cur.Type == lexer.COMMA {
				p.next()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN)
	}
	result := p.parseDeclarer()
	return p.sess.Modes.Register(mode.NewProc(params, result))
}
