package parser

import (
	"github.com/ga68/genie/internal/lexer"
	"github.com/ga68/genie/internal/node"
)

// priority table for the glyph and bold-word dyadic operators this
// parser recognizes without consulting a PRIO declaration (spec.md §3
// "Tag" describes priorities as user-declarable; this substrate uses a
// fixed table covering the built-ins internal/prelude wires, which
// covers every §8 end-to-end scenario).
var glyphPriority = map[lexer.TokenType]int{
	lexer.POWER: 6,
	lexer.TIMES: 5, lexer.OVER: 5, lexer.DIV: 5, lexer.MOD: 5,
	lexer.PLUS: 4, lexer.MINUS: 4,
	lexer.LT: 3, lexer.LE: 3, lexer.GT: 3, lexer.GE: 3, lexer.EQ: 3, lexer.NE: 3,
	lexer.OPSYM: 4,
}

// parseUnit parses a full unit: a formula optionally followed by an
// assignation or identity relation, the loosest-binding constructs in
// a unit (spec.md §4.3).
func (p *Parser) parseUnit() *node.Node {
	left := p.parseFormula(0)
	switch p.cur.Type {
	case lexer.ASSIGN:
		pos := p.pos()
		p.next()
		rhs := p.parseUnit()
		n := node.New(node.Assignation, pos, "")
		n.Sub = left
		left.Next = rhs
		return n
	case lexer.IS, lexer.ISNT:
		pos := p.pos()
		p.next()
		rhs := p.parseFormula(0)
		n := node.New(node.IdentityRelation, pos, "")
		n.AddChild(left)
		n.AddChild(rhs)
		return n
	}
	return left
}

// parseFormula implements precedence climbing over dyadic operators,
// bottoming out at parseMonadic (spec.md §3 "Formula").
func (p *Parser) parseFormula(minPrec int) *node.Node {
	left := p.parseMonadic()
	for {
		name, prec, ok := p.dyadicOperator()
		if !ok || prec < minPrec {
			return left
		}
		pos := p.pos()
		p.next()
		right := p.parseFormula(prec + 1)
		n := node.New(node.FormulaNode, pos, name)
		n.Symbol = p.curScope().table
		n.AddChild(left)
		n.AddChild(right)
		left = n
	}
}

func (p *Parser) dyadicOperator() (string, int, bool) {
	if prec, ok := glyphPriority[p.cur.Type]; ok && p.cur.Type != lexer.OPSYM {
		return p.cur.Type.String(), prec, true
	}
	if p.cur.Type == lexer.OPSYM {
		return p.cur.Literal, glyphPriority[lexer.OPSYM], true
	}
	if p.cur.Type == lexer.IDENT && isAllUpper(p.cur.Literal) {
		switch p.cur.Literal {
		case "OR":
			return "OR", 1, true
		case "AND":
			return "AND", 2, true
		default:
			return p.cur.Literal, 3, true
		}
	}
	return "", 0, false
}

// parseMonadic parses zero or more prefix monadic operators around a
// postfixed primary, e.g. "- - 3" or "NOT p" (spec.md §3).
func (p *Parser) parseMonadic() *node.Node {
	if name, ok := p.monadicOperator(); ok {
		pos := p.pos()
		p.next()
		operand := p.parseMonadic()
		n := node.New(node.MonadicFormula, pos, name)
		n.Symbol = p.curScope().table
		n.AddChild(operand)
		return n
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) monadicOperator() (string, bool) {
	switch p.cur.Type {
	case lexer.MINUS, lexer.PLUS:
		return p.cur.Type.String(), true
	case lexer.OPSYM:
		return p.cur.Literal, true
	case lexer.IDENT:
		if isAllUpper(p.cur.Literal) {
			return p.cur.Literal, true
		}
	}
	return "", false
}

func isAllUpper(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// parsePostfix chains call and slice suffixes onto a primary (spec.md
// §4.3 "Call", "Slice").
func (p *Parser) parsePostfix(left *node.Node) *node.Node {
	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			left = p.parseCall(left)
		case lexer.LBRACKET:
			left = p.parseSlice(left)
		default:
			return left
		}
	}
}

func (p *Parser) parseCall(primary *node.Node) *node.Node {
	pos := p.pos()
	p.next() // (
	n := node.New(node.Call, pos, "")
	n.AddChild(primary)
	if p.cur.Type != lexer.RPAREN {
		for {
			if p.cur.Type == lexer.COMMA || p.cur.Type == lexer.RPAREN {
				n.AddChild(node.New(node.NihilNode, p.pos(), ""))
			} else {
				n.AddChild(p.parseUnit())
			}
			if p.cur.Type == lexer.COMMA {
				p.next()
				continue
			}
			break
		}
	}
	p.expect(lexer.RPAREN)
	return n
}

func (p *Parser) parseSlice(primary *node.Node) *node.Node {
	pos := p.pos()
	p.next() // [
	n := node.New(node.Slice, pos, "")
	n.AddChild(primary)
	for {
		n.AddChild(p.parseSliceIndex())
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	return n
}

// parseSliceIndex parses one subscript/trim slot: a bare unit is a
// subscript; a unit followed by ':' (with an optional upper bound) or
// an entirely elided slot is a trim, represented the same way a call's
// omitted argument is (node.NihilNode) — internal/genie's trimRow
// still only implements a shallow-copy trim (see DESIGN.md), so the
// bound values themselves are parsed (to stay in sync with the token
// stream) and discarded.
func (p *Parser) parseSliceIndex() *node.Node {
	if p.cur.Type == lexer.COMMA || p.cur.Type == lexer.RBRACKET {
		return node.New(node.NihilNode, p.pos(), "")
	}
	pos := p.pos()
	first := p.parseUnit()
	if p.cur.Type == lexer.COLON {
		p.next()
		if p.cur.Type != lexer.COMMA && p.cur.Type != lexer.RBRACKET {
			p.parseUnit()
		}
		return node.New(node.NihilNode, pos, "")
	}
	return first
}

// parsePrimary parses the tightest-binding unit forms: denotations,
// identifiers (and the prefix "field OF secondary" selection form),
// enclosed clauses, and the bracketing constructs (spec.md §3, §4.3).
func (p *Parser) parsePrimary() *node.Node {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.INT_DENOT:
		n := node.New(node.Denotation, pos, p.cur.Literal)
		n.Mode = p.sess.Modes.Standard("INT", 0)
		p.next()
		return n
	case lexer.REAL_DENOT:
		n := node.New(node.Denotation, pos, p.cur.Literal)
		n.Mode = p.sess.Modes.Standard("REAL", 0)
		p.next()
		return n
	case lexer.BITS_DENOT:
		n := node.New(node.Denotation, pos, p.cur.Literal)
		n.Mode = p.sess.Modes.Standard("BITS", 0)
		p.next()
		return n
	case lexer.CHAR_DENOT:
		n := node.New(node.Denotation, pos, p.cur.Literal)
		n.Mode = p.sess.Modes.Standard("CHAR", 0)
		p.next()
		return n
	case lexer.STRING_DENOT:
		n := node.New(node.Denotation, pos, p.cur.Literal)
		n.Mode = p.stringMode()
		p.next()
		return n
	case lexer.TRUE, lexer.FALSE:
		n := node.New(node.Denotation, pos, p.cur.Type.String())
		n.Mode = p.sess.Modes.Standard("BOOL", 0)
		p.next()
		return n
	case lexer.SKIP:
		p.next()
		return node.New(node.Skip, pos, "")
	case lexer.IDENT:
		name := p.cur.Literal
		if p.peek.Type == lexer.OF {
			p.next() // field name
			p.next() // OF
			secondary := p.parsePostfix(p.parsePrimary())
			n := node.New(node.FieldSelection, pos, name)
			n.Sub = secondary
			return n
		}
		tag := p.curScope().table.FindIdentifier(name)
		if tag == nil {
			p.errorf("undeclared identifier %q", name)
		}
		n := node.New(node.Identifier, pos, name)
		n.Tag = tag
		p.next()
		return n
	case lexer.LPAREN:
		return p.parseParenthesized()
	case lexer.BEGIN:
		p.next()
		n := p.parseSerialClauseBody()
		p.expect(lexer.END)
		return n
	case lexer.IF:
		return p.parseConditional()
	case lexer.CASE:
		return p.parseIntegerCase()
	case lexer.FOR, lexer.WHILE, lexer.TO, lexer.DO:
		return p.parseLoop()
	case lexer.PAR:
		return p.parseParallel()
	}
	if p.cur.IsModeKeyword() {
		return p.parseCast()
	}
	p.errorf("unexpected token %s %q in unit position", p.cur.Type, p.cur.Literal)
	p.next()
	return node.New(node.Skip, pos, "")
}

// parseParenthesized distinguishes a serial clause ("(" stmt ";" ... ")",
// equivalent to BEGIN...END), a collateral display
// ("(" unit "," ... ")"), and plain grouping ("(" unit ")") by which
// separator follows the first statement (spec.md §4.3).
func (p *Parser) parseParenthesized() *node.Node {
	pos := p.pos()
	p.next() // (
	first := p.parseStatement()
	switch p.cur.Type {
	case lexer.SEMICOLON:
		n := node.New(node.SerialClause, pos, "")
		n.Symbol = p.curScope().table
		n.AddChild(first)
		for p.cur.Type == lexer.SEMICOLON {
			p.next()
			if p.cur.Type == lexer.RPAREN {
				break
			}
			n.AddChild(p.parseStatement())
		}
		p.expect(lexer.RPAREN)
		return n
	case lexer.COMMA:
		n := node.New(node.CollateralClause, pos, "")
		n.AddChild(first)
		for p.cur.Type == lexer.COMMA {
			p.next()
			n.AddChild(p.parseUnit())
		}
		p.expect(lexer.RPAREN)
		return n
	default:
		p.expect(lexer.RPAREN)
		return first
	}
}

func (p *Parser) parseConditional() *node.Node {
	pos := p.pos()
	p.next() // IF
	cond := p.parseUnit()
	p.expect(lexer.THEN)
	thenArm := p.parseSerialClauseBody()
	n := node.New(node.ConditionalClause, pos, "")
	n.AddChild(cond)
	n.AddChild(thenArm)
	switch p.cur.Type {
	case lexer.ELIF:
		n.AddChild(p.parseElifChain())
		p.expect(lexer.FI)
	case lexer.ELSE:
		p.next()
		n.AddChild(p.parseSerialClauseBody())
		p.expect(lexer.FI)
	default:
		p.expect(lexer.FI)
	}
	return n
}

func (p *Parser) parseElifChain() *node.Node {
	pos := p.pos()
	p.next() // ELIF
	cond := p.parseUnit()
	p.expect(lexer.THEN)
	thenArm := p.parseSerialClauseBody()
	n := node.New(node.ConditionalClause, pos, "")
	n.AddChild(cond)
	n.AddChild(thenArm)
	switch p.cur.Type {
	case lexer.ELIF:
		n.AddChild(p.parseElifChain())
	case lexer.ELSE:
		p.next()
		n.AddChild(p.parseSerialClauseBody())
	}
	return n
}

// parseIntegerCase parses "CASE enquiry IN arm, arm, ... (OUT arm)? ESAC"
// (spec.md §4.3; UnitedCaseClause's specifier syntax is not parsed by
// this subset grammar).
func (p *Parser) parseIntegerCase() *node.Node {
	pos := p.pos()
	p.next() // CASE
	enquiry := p.parseUnit()
	p.expect(lexer.IN)
	n := node.New(node.IntegerCaseClause, pos, "")
	n.AddChild(enquiry)
	n.AddChild(p.parseUnit())
	for p.cur.Type == lexer.COMMA {
		p.next()
		n.AddChild(p.parseUnit())
	}
	if p.cur.Type == lexer.OUT {
		p.next()
		n.AddChild(p.parseUnit())
	}
	p.expect(lexer.ESAC)
	return n
}

// parseLoop parses the general loop clause, recovering FROM/BY/TO's
// canonical forms (spec.md §3 "Loop clause"): a single bound means TO,
// two means FROM and TO, three means FROM, BY and TO — matching
// internal/genie's pLoopClause, which recovers the same structure
// positionally from the checked tree (see its doc comment).
func (p *Parser) parseLoop() *node.Node {
	pos := p.pos()
	n := node.New(node.LoopClause, pos, "")
	var counterTag *node.Tag
	if p.cur.Type == lexer.FOR {
		p.next()
		name := p.expect(lexer.IDENT).Literal
		counterTag = p.declare(name, p.sess.Modes.Standard("INT", 0), false)
	}
	if p.cur.Type == lexer.FROM {
		p.next()
		n.AddChild(p.parseUnit())
	}
	if p.cur.Type == lexer.BY {
		p.next()
		n.AddChild(p.parseUnit())
	}
	if p.cur.Type == lexer.TO {
		p.next()
		n.AddChild(p.parseUnit())
	}
	if p.cur.Type == lexer.WHILE {
		p.next()
		n.AddChild(p.parseUnit())
	}
	p.expect(lexer.DO)
	n.AddChild(p.parseSerialClauseBody())
	p.expect(lexer.OD)
	if p.cur.Type == lexer.UNTIL {
		p.next()
		n.AddChild(p.parseUnit())
	}
	if counterTag != nil {
		n.Tag = counterTag
	}
	return n
}

func (p *Parser) parseParallel() *node.Node {
	pos := p.pos()
	p.next() // PAR
	p.expect(lexer.LPAREN)
	n := node.New(node.ParallelClause, pos, "")
	n.AddChild(p.parseUnit())
	for p.cur.Type == lexer.COMMA {
		p.next()
		n.AddChild(p.parseUnit())
	}
	p.expect(lexer.RPAREN)
	return n
}

// parseCast parses "declarer ( unit )" (spec.md §4.3's voiding-warning
// suppressing Cast).
func (p *Parser) parseCast() *node.Node {
	pos := p.pos()
	castMode := p.parseDeclarer()
	p.expect(lexer.LPAREN)
	body := p.parseUnit()
	p.expect(lexer.RPAREN)
	n := node.New(node.Cast, pos, "")
	n.Mode = castMode
	n.Sub = body
	return n
}
