// Package parser turns MIPS assembly source text into the abstract
// program (package ast) the assembler core consumes. Per this
// toolchain's design, the assembler treats the grammar of the surface
// language as an external collaborator's concern; this package is that
// collaborator, in the lexer/recursive-descent style of a hand-written
// assembly parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/r2k-toolchain/mips/ast"
)

// Parser consumes a token stream and builds an ast.Program.
type Parser struct {
	tokens   []Token
	pos      int
	filename string
}

// Parse lexes and parses src, returning the resulting program or the
// first error encountered.
func Parse(src, filename string) (*ast.Program, error) {
	lx := NewLexer(src, filename)
	toks, err := lx.Tokens()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks, filename: filename}
	return p.parseProgram()
}

func (p *Parser) peek() Token  { return p.tokens[p.pos] }
func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}
func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errf(tok Token, format string, args ...any) error {
	return &Error{
		Pos:     Position{Filename: p.filename, Line: tok.Line, Column: tok.Col},
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.peek().Type != TokenEOF {
		if p.peek().Type == TokenNewline {
			p.advance()
			continue
		}
		items, err := p.parseLine()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, items...)
		if p.peek().Type == TokenNewline {
			p.advance()
		}
	}
	return prog, nil
}

func (p *Parser) atLineEnd() bool {
	t := p.peek().Type
	return t == TokenNewline || t == TokenEOF
}

func (p *Parser) parseLine() ([]ast.Item, error) {
	var items []ast.Item
	for !p.atLineEnd() {
		tok := p.peek()
		switch {
		case tok.Type == TokenIdentifier && p.peekAt(1).Type == TokenColon:
			p.advance()
			p.advance()
			items = append(items, ast.Label{Name: tok.Text, Pos: ast.Span{Start: tok.Line, End: tok.Col}})
		case tok.Type == TokenIdentifier && p.peekAt(1).Type == TokenEquals:
			p.advance()
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, ast.ConstantDef{Name: tok.Text, Expr: expr, Pos: ast.Span{Start: tok.Line, End: tok.Col}})
			return items, nil
		case tok.Type == TokenDirective:
			d, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			items = append(items, d)
			return items, nil
		case tok.Type == TokenIdentifier:
			instr, err := p.parseInstruction()
			if err != nil {
				return nil, err
			}
			items = append(items, instr)
			return items, nil
		default:
			return nil, p.errf(tok, "unexpected token %q", tok.Text)
		}
	}
	return items, nil
}

func (p *Parser) parseDirective() (ast.Directive, error) {
	tok := p.advance()
	d := ast.Directive{Name: tok.Text, Pos: ast.Span{Start: tok.Line, End: tok.Col}}

	switch tok.Text {
	case ".text", ".data", ".rdata", ".sdata":
		// no arguments
	case ".globl":
		if p.peek().Type != TokenIdentifier {
			return d, p.errf(p.peek(), ".globl requires a symbol name")
		}
		d.Ident = p.advance().Text
	case ".align", ".space":
		expr, err := p.parseExpr()
		if err != nil {
			return d, err
		}
		d.IntArg = expr
	case ".byte", ".half":
		vals, err := p.parseExprList()
		if err != nil {
			return d, err
		}
		d.Values = vals
	case ".word":
		words, err := p.parseWordList()
		if err != nil {
			return d, err
		}
		d.Words = words
	case ".ascii", ".asciiz":
		if p.peek().Type != TokenString {
			return d, p.errf(p.peek(), "%s requires a string literal", tok.Text)
		}
		d.StringArg = p.advance().Text
	default:
		return d, p.errf(tok, "unknown directive %q", tok.Text)
	}
	return d, nil
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var out []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.peek().Type == TokenComma {
			p.advance()
			continue
		}
		return out, nil
	}
}

func (p *Parser) parseWordList() ([]ast.WordValue, error) {
	var out []ast.WordValue
	for {
		var wv ast.WordValue
		if p.peek().Type == TokenIdentifier && p.peekAt(1).Type != TokenLParen {
			wv.IsSymbol = true
			wv.SymbolName = p.advance().Text
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			wv.Value = e
		}
		if p.peek().Type == TokenColon {
			p.advance()
			rep, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			wv.Repeat = rep
		}
		out = append(out, wv)
		if p.peek().Type == TokenComma {
			p.advance()
			continue
		}
		return out, nil
	}
}

func (p *Parser) parseInstruction() (ast.Instruction, error) {
	tok := p.advance()
	instr := ast.Instruction{Mnemonic: tok.Text, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	if p.atLineEnd() {
		return instr, nil
	}
	for {
		op, err := p.parseOperand()
		if err != nil {
			return instr, err
		}
		instr.Operands = append(instr.Operands, op)
		if p.peek().Type == TokenComma {
			p.advance()
			continue
		}
		return instr, nil
	}
}

func (p *Parser) parseOperand() (ast.Operand, error) {
	if p.peek().Type == TokenRegister {
		reg, err := p.parseRegisterToken(p.advance())
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{Kind: ast.OperandRegister, Reg: reg}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return ast.Operand{}, err
	}
	if p.peek().Type == TokenLParen {
		p.advance()
		if p.peek().Type != TokenRegister {
			return ast.Operand{}, p.errf(p.peek(), "expected register inside ()")
		}
		reg, err := p.parseRegisterToken(p.advance())
		if err != nil {
			return ast.Operand{}, err
		}
		if p.peek().Type != TokenRParen {
			return ast.Operand{}, p.errf(p.peek(), "expected )")
		}
		p.advance()
		return ast.Operand{Kind: ast.OperandMemory, Reg: reg, Expr: expr}, nil
	}
	return ast.Operand{Kind: ast.OperandImmediate, Expr: expr}, nil
}

func (p *Parser) parseRegisterToken(tok Token) (uint8, error) {
	if idx, err := strconv.ParseUint(tok.Text, 10, 8); err == nil {
		if idx > 31 {
			return 0, p.errf(tok, "register index %d out of range", idx)
		}
		return uint8(idx), nil
	}
	if idx, ok := RegisterByName(tok.Text); ok {
		return idx, nil
	}
	return 0, p.errf(tok, "unknown register $%s", tok.Text)
}

// --- expression grammar: or > xor > and > shift > add/sub > mul/div > unary > primary ---

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPipe {
		tok := p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.OpOr, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenCaret {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.OpXor, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAmpersand {
		tok := p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.OpAnd, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseShift() (ast.Expr, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenLShift || p.peek().Type == TokenRShift {
		tok := p.advance()
		op := ast.OpShl
		if tok.Type == TokenRShift {
			op = ast.OpShr
		}
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseAddSub() (ast.Expr, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus || p.peek().Type == TokenMinus {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Type == TokenMinus {
			op = ast.OpSub
		}
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenStar || p.peek().Type == TokenSlash {
		tok := p.advance()
		op := ast.OpMul
		if tok.Type == TokenSlash {
			op = ast.OpDiv
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right, Pos: ast.Span{Start: tok.Line, End: tok.Col}}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.peek().Type == TokenMinus || p.peek().Type == TokenTilde {
		tok := p.advance()
		op := ast.OpNeg
		if tok.Type == TokenTilde {
			op = ast.OpNot
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: op, Operand: operand, Pos: ast.Span{Start: tok.Line, End: tok.Col}}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		val, err := parseNumberLiteral(tok.Text)
		if err != nil {
			return nil, p.errf(tok, "invalid number %q: %v", tok.Text, err)
		}
		return ast.Number{Value: val, Pos: ast.Span{Start: tok.Line, End: tok.Col}}, nil
	case TokenIdentifier:
		p.advance()
		return ast.Name{Value: tok.Text, Pos: ast.Span{Start: tok.Line, End: tok.Col}}, nil
	case TokenLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokenRParen {
			return nil, p.errf(p.peek(), "expected )")
		}
		p.advance()
		return e, nil
	default:
		return nil, p.errf(tok, "expected expression, found %q", tok.Text)
	}
}

func parseNumberLiteral(text string) (int64, error) {
	if len(text) > 1 && (text[1] == 'x' || text[1] == 'X') {
		return strconv.ParseInt(text[2:], 16, 64)
	}
	return strconv.ParseInt(text, 10, 64)
}
